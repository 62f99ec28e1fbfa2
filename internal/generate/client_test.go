/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package generate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"infostudio/internal/config"
)

const sampleJSON = `{"header":"Space race","subHeader":"Who leads in orbit","points":[
{"title":"Launches","description":"Record year","icon":"rocket"},
{"title":"Satellites","description":"Thousands in orbit","icon":"satellite"},
{"title":"Budget","description":"Growing fast","icon":"spaceship"}]}`

func geminiServer(t *testing.T, fail int32, status int) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/v1beta/models/gemini-3-flash-preview:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("request is not JSON: %v", err)
		}
		gc, _ := req["generationConfig"].(map[string]any)
		if gc["responseMimeType"] != "application/json" || gc["responseSchema"] == nil {
			t.Errorf("generationConfig missing schema settings: %v", gc)
		}
		if n <= fail {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
			return
		}
		resp := map[string]any{"candidates": []any{map[string]any{
			"content":      map[string]any{"parts": []any{map[string]any{"text": sampleJSON}}},
			"finishReason": "STOP",
		}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestGeminiGenerate(t *testing.T) {
	srv, hits := geminiServer(t, 0, 0)
	cfg := config.Defaults().Generate
	cfg.Endpoint = srv.URL
	c := NewClient(cfg, "test-key")
	if !c.Available() {
		t.Fatalf("client should be available with a key")
	}
	got, err := c.Generate(context.Background(), "space")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.Header != "Space race" || len(got.Points) != 3 {
		t.Fatalf("unexpected content %+v", got)
	}
	if *hits != 1 {
		t.Fatalf("expected a single request, got %d", *hits)
	}
}

func TestGeminiRetriesTransientErrors(t *testing.T) {
	srv, hits := geminiServer(t, 2, http.StatusServiceUnavailable)
	g := NewGemini("test-key", "")
	g.Endpoint = srv.URL
	g.MaxRetries = 2
	g.Backoff = time.Millisecond
	raw, err := g.Complete(context.Background(), "p")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.Contains(raw, "Space race") || *hits != 3 {
		t.Fatalf("raw=%q hits=%d", raw, *hits)
	}
}

func TestGeminiDoesNotRetryClientErrors(t *testing.T) {
	srv, hits := geminiServer(t, 5, http.StatusBadRequest)
	g := NewGemini("test-key", "")
	g.Endpoint = srv.URL
	g.MaxRetries = 3
	g.Backoff = time.Millisecond
	_, err := g.Complete(context.Background(), "p")
	var api *APIError
	if !errors.As(err, &api) || api.Status != http.StatusBadRequest {
		t.Fatalf("expected a 400 APIError, got %v", err)
	}
	if *hits != 1 {
		t.Fatalf("client errors must not be retried, hits=%d", *hits)
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := withRetry(ctx, 5, time.Hour, func() error {
		calls++
		cancel()
		return &APIError{Status: 500}
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestRetryWrapsFinalError(t *testing.T) {
	err := withRetry(context.Background(), 2, time.Millisecond, func() error {
		return &transportError{errors.New("refused")}
	})
	if err == nil || !strings.HasPrefix(err.Error(), "failed after 2 retries") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestAnthropicGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "ak" || r.Header.Get("anthropic-version") != anthropicVersion {
			t.Errorf("missing auth headers")
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Model != DefaultAnthropicModel || !strings.Contains(req.System, `"subHeader"`) {
			t.Errorf("unexpected request model=%q", req.Model)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content": []any{
				map[string]any{"type": "text", "text": "```json\n" + sampleJSON + "\n```"},
			},
			"stop_reason": "end_turn",
		})
	}))
	defer srv.Close()

	cfg := config.Defaults().Generate
	cfg.Provider = "anthropic"
	cfg.Endpoint = srv.URL
	c := NewClient(cfg, "ak")
	got, err := c.Generate(context.Background(), "space")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got.SubHeader != "Who leads in orbit" {
		t.Fatalf("unexpected content %+v", got)
	}
}

func TestAnthropicErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer srv.Close()
	a := NewAnthropic("bad", "")
	a.Endpoint = srv.URL
	_, err := a.Complete(context.Background(), "p")
	if err == nil || err.Error() != "API error (401): authentication_error - invalid x-api-key" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestMissingCredential(t *testing.T) {
	for _, key := range []string{"", "PLACEHOLDER_API_KEY", "<your key>"} {
		c := NewClient(config.Defaults().Generate, key)
		if c.Available() {
			t.Fatalf("key %q must count as absent", key)
		}
		if _, err := c.Generate(context.Background(), "x"); !errors.Is(err, ErrNoCredential) {
			t.Fatalf("key %q: expected ErrNoCredential, got %v", key, err)
		}
	}
}

func TestPrompt(t *testing.T) {
	p := Prompt("  ", "ar")
	if !strings.Contains(p, "in Arabic about: "+DefaultTopic) {
		t.Fatalf("unexpected prompt %q", p)
	}
	if !strings.Contains(Prompt("Trains", "en"), "in English about: Trains") {
		t.Fatalf("english prompt wrong")
	}
	if LanguageName("pt") != "pt" {
		t.Fatalf("unknown codes pass through")
	}
}
