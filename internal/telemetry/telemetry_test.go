/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"infostudio/internal/config"
)

type recorder struct {
	mu      sync.Mutex
	events  [][]byte
	crashes [][]byte
}

func (r *recorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.events = append(r.events, b)
		r.mu.Unlock()
	})
	mux.HandleFunc("/events/crash", func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		r.mu.Lock()
		r.crashes = append(r.crashes, b)
		r.mu.Unlock()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (r *recorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events), len(r.crashes)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestClient_EventAndUploadCrash(t *testing.T) {
	t.Setenv(EnvCrashURL, "")
	var rec recorder
	srv := rec.server(t)
	c := New(FromConfig(config.TelemetryConfig{Enabled: true, Endpoint: srv.URL + "/events"}))
	defer c.Close()

	if !c.Enabled() {
		t.Fatalf("expected client to be enabled")
	}
	c.Event(EventExportCompleted, map[string]any{"format": "png", "name": "spoofed"})
	c.Flush(context.Background())
	if !waitFor(func() bool { e, _ := rec.counts(); return e > 0 }) {
		t.Fatalf("expected at least one event to be sent")
	}

	rec.mu.Lock()
	var m map[string]any
	err := json.Unmarshal(rec.events[0], &m)
	rec.mu.Unlock()
	if err != nil {
		t.Fatalf("bad event json: %v", err)
	}
	if m["name"] != EventExportCompleted || m["format"] != "png" {
		t.Fatalf("unexpected payload %v", m)
	}
	if _, ok := m["ts"].(string); !ok {
		t.Fatalf("missing ts field")
	}

	c.UploadCrash([]byte("STACKTRACE"))
	if !waitFor(func() bool { _, n := rec.counts(); return n > 0 }) {
		t.Fatalf("expected crash upload to be sent")
	}
}

func TestClient_DisabledAndEmptyEventName(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := New(Config{OptIn: false, EventsURL: srv.URL, CrashURL: srv.URL, Timeout: time.Second})
	if c.Enabled() {
		t.Fatalf("expected disabled client")
	}
	c.Event("ignored", nil)
	c.UploadCrash([]byte("ignored"))
	c.Close()

	c2 := New(Config{OptIn: true, EventsURL: srv.URL, Timeout: time.Second})
	c2.Event("", nil)
	c2.Flush(nil)
	c2.Close()
	if atomic.LoadInt32(&hits) != 0 {
		t.Fatalf("expected no requests, got %d", hits)
	}
}

func TestClient_SendErrorsAreSwallowed(t *testing.T) {
	c := New(Config{
		OptIn:        true,
		EventsURL:    "http://127.0.0.1:1/events",
		CrashURL:     "http://127.0.0.1:1/crash",
		Timeout:      50 * time.Millisecond,
		DebugLogging: true,
	})
	c.Event("err", map[string]any{"a": 1})
	c.Flush(context.Background())
	c.UploadCrash([]byte("oops"))
	c.Close()
}

func TestFromEnvAndDefaultClient(t *testing.T) {
	t.Setenv(config.EnvTelemetryOptIn, "true")
	t.Setenv(config.EnvTelemetryTarget, "http://127.0.0.1:0")
	t.Setenv(EnvCrashURL, "")
	t.Setenv(EnvTimeoutMs, "100")

	cfg := FromEnv()
	if !cfg.OptIn || cfg.EventsURL == "" || cfg.Timeout != 100*time.Millisecond {
		t.Fatalf("FromEnv did not parse correctly: %+v", cfg)
	}
	NewDefault(cfg)
	t.Cleanup(func() { NewDefault(Config{}) })
	if !Enabled() {
		t.Fatalf("default Enabled should be true with env config")
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv(config.EnvTelemetryOptIn, "")
	t.Setenv(config.EnvTelemetryTarget, "")
	t.Setenv(EnvCrashURL, "https://crash.example/upload")

	cfg := FromConfig(config.TelemetryConfig{Enabled: false, Endpoint: "https://t.example/e"})
	if cfg.OptIn || cfg.EventsURL != "https://t.example/e" || cfg.CrashURL != "https://crash.example/upload" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	c := New(cfg)
	defer c.Close()
	if c.Enabled() {
		t.Fatalf("disabled config must not enable the client")
	}
}
