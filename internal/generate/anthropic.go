/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultAnthropicModel    = "claude-sonnet-4-5"
	DefaultAnthropicEndpoint = "https://api.anthropic.com"
	anthropicVersion         = "2023-06-01"
)

// Anthropic calls the Messages API. It has no schema parameter, so the
// system prompt carries the schema and asks for bare JSON.
type Anthropic struct {
	APIKey     string
	Model      string
	Endpoint   string
	MaxTokens  int
	MaxRetries int
	Backoff    time.Duration
	HTTP       *http.Client
}

func NewAnthropic(apiKey, model string) *Anthropic {
	if model == "" {
		model = DefaultAnthropicModel
	}
	return &Anthropic{
		APIKey:    apiKey,
		Model:     model,
		Endpoint:  DefaultAnthropicEndpoint,
		MaxTokens: 2048,
		Backoff:   time.Second,
		HTTP:      &http.Client{Timeout: 60 * time.Second},
	}
}

func (a *Anthropic) Name() string { return "anthropic" }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type anthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (a *Anthropic) Complete(ctx context.Context, prompt string) (string, error) {
	req := anthropicRequest{
		Model:     a.Model,
		MaxTokens: a.MaxTokens,
		System:    "Reply with a single JSON object and nothing else. It must match this JSON schema:\n" + Schema,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	u := strings.TrimRight(a.Endpoint, "/") + "/v1/messages"

	var text string
	err = withRetry(ctx, a.MaxRetries, a.Backoff, func() error {
		var e error
		text, e = a.do(ctx, u, body)
		return e
	})
	return text, err
}

func (a *Anthropic) do(ctx context.Context, u string, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.HTTP.Do(httpReq)
	if err != nil {
		return "", &transportError{err}
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var ae anthropicError
		if json.Unmarshal(respBody, &ae) == nil && ae.Error.Message != "" {
			return "", &APIError{Status: resp.StatusCode, Type: ae.Error.Type, Message: ae.Error.Message}
		}
		return "", &APIError{Status: resp.StatusCode, Type: "http", Message: strings.TrimSpace(string(respBody))}
	}
	var ar anthropicResponse
	if err := json.Unmarshal(respBody, &ar); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	var sb strings.Builder
	for _, block := range ar.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmpty
	}
	return sb.String(), nil
}
