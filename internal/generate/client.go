/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package generate fills a slide with content from an external text
// generation service. Providers return raw JSON text; Parse validates it
// against a fixed schema and ToPoints maps it onto slide points.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"infostudio/internal/config"
	applog "infostudio/internal/log"
)

var (
	// ErrNoCredential means no usable API key is configured.
	ErrNoCredential = errors.New("no generation api key configured")
	ErrEmpty        = errors.New("empty response from generation service")
	ErrInFlight     = errors.New("generation already running for this slide")
)

// Provider sends one prompt and returns the raw model text.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator produces structured content for a topic.
type Generator interface {
	Generate(ctx context.Context, topic string) (*Content, error)
}

// Client turns topics into validated Content using a Provider.
type Client struct {
	provider Provider
	language string
	log      *slog.Logger
}

// NewClient wires the configured provider. An empty or placeholder key
// yields a client whose Generate reports ErrNoCredential.
func NewClient(cfg config.GenerateConfig, key string) *Client {
	c := &Client{language: cfg.Language, log: applog.WithComponent("generate")}
	if config.IsPlaceholder(key) {
		return c
	}
	hc := &http.Client{Timeout: cfg.GenerateTimeout()}
	switch strings.ToLower(cfg.Provider) {
	case "anthropic":
		a := NewAnthropic(strings.TrimSpace(key), anthropicModel(cfg.Model))
		a.Endpoint = endpointOr(cfg.Endpoint, a.Endpoint)
		a.MaxRetries = cfg.MaxRetries
		a.HTTP = hc
		c.provider = a
	default:
		g := NewGemini(strings.TrimSpace(key), cfg.Model)
		g.Endpoint = endpointOr(cfg.Endpoint, g.Endpoint)
		g.MaxRetries = cfg.MaxRetries
		g.HTTP = hc
		c.provider = g
	}
	return c
}

// NewClientWith uses an explicit provider; a nil provider behaves like a
// missing credential.
func NewClientWith(p Provider, language string) *Client {
	return &Client{provider: p, language: language, log: applog.WithComponent("generate")}
}

// Available reports whether a credential is configured.
func (c *Client) Available() bool { return c != nil && c.provider != nil }

// Generate asks the provider for content on topic. A response that does not
// match the schema is an error and yields no content.
func (c *Client) Generate(ctx context.Context, topic string) (*Content, error) {
	if !c.Available() {
		return nil, ErrNoCredential
	}
	l := applog.WithOperation(c.log, "generate").With(slog.String("provider", c.provider.Name()))
	start := time.Now()
	raw, err := c.provider.Complete(ctx, Prompt(topic, c.language))
	if err != nil {
		l.Warn("generation request failed", slog.Any("err", err))
		return nil, fmt.Errorf("%s: %w", c.provider.Name(), err)
	}
	content, err := Parse(raw)
	if err != nil {
		l.Warn("generation response rejected", slog.Any("err", err), slog.Int("bytes", len(raw)))
		return nil, err
	}
	l.Info("generation completed", slog.Int("points", len(content.Points)), slog.Duration("dur", time.Since(start)))
	return content, nil
}

func endpointOr(v, def string) string {
	if v = strings.TrimRight(strings.TrimSpace(v), "/"); v != "" {
		return v
	}
	return def
}

func anthropicModel(m string) string {
	if m == "" || strings.HasPrefix(m, "gemini") {
		return DefaultAnthropicModel
	}
	return m
}
