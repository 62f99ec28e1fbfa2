/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// Keyring coordinates of the generation credential.
const (
	keyringService = "infostudio"
	keyringUser    = "generate-api-key"
)

// TokenStore abstracts the OS keyring so tests can stub it.
type TokenStore interface {
	Get(service, user string) (string, error)
	Set(service, user, value string) error
	Delete(service, user string) error
}

type osKeyring struct{}

func (osKeyring) Get(service, user string) (string, error) { return keyring.Get(service, user) }
func (osKeyring) Set(service, user, value string) error    { return keyring.Set(service, user, value) }
func (osKeyring) Delete(service, user string) error        { return keyring.Delete(service, user) }

var tokenStore TokenStore = osKeyring{}

// SetTokenStore swaps the keyring backend and returns a restore func.
func SetTokenStore(ts TokenStore) (restore func()) {
	old := tokenStore
	tokenStore = ts
	return func() { tokenStore = old }
}

// Credential resolves the generation API key for a provider. Environment
// variables win over the keyring. Placeholder values count as absent.
func Credential(provider string) string {
	envs := []string{EnvGeminiKey, EnvAPIKey}
	if provider == "anthropic" {
		envs = []string{EnvAnthropicKey, EnvAPIKey}
	}
	for _, e := range envs {
		if v := strings.TrimSpace(os.Getenv(e)); !IsPlaceholder(v) {
			return v
		}
	}
	v, err := tokenStore.Get(keyringService, keyringUser)
	if err != nil || IsPlaceholder(v) {
		return ""
	}
	return strings.TrimSpace(v)
}

// SetCredential stores the key in the OS keyring.
func SetCredential(key string) error {
	if IsPlaceholder(key) {
		return errors.New("refusing to store an empty or placeholder key")
	}
	return tokenStore.Set(keyringService, keyringUser, strings.TrimSpace(key))
}

// ClearCredential removes the stored key. A missing entry is not an error.
func ClearCredential() error {
	err := tokenStore.Delete(keyringService, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

var placeholders = []string{
	"placeholder_api_key",
	"your-api-key",
	"your_api_key",
	"your-key-here",
	"changeme",
}

// IsPlaceholder reports whether v is empty or a template value copied from
// an example env file.
func IsPlaceholder(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || strings.ContainsAny(v, "<>") {
		return true
	}
	lv := strings.ToLower(v)
	for _, p := range placeholders {
		if lv == p {
			return true
		}
	}
	return false
}
