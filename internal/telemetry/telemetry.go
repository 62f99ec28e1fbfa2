/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry provides a small, opt-in event sender for anonymous
// usage metrics and optional crash uploads. Events never carry slide
// content.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"infostudio/internal/config"
	applog "infostudio/internal/log"
	"infostudio/internal/version"
)

// Event names sent by the application.
const (
	EventStarted           = "app_started"
	EventExportCompleted   = "export_completed"
	EventExportFailed      = "export_failed"
	EventGenerateCompleted = "generate_completed"
	EventGenerateFailed    = "generate_failed"
	EventCrash             = "crash"
)

// Environment variables read by FromEnv.
const (
	EnvCrashURL  = "IFS_CRASH_UPLOAD_URL"
	EnvTimeoutMs = "IFS_TELEMETRY_TIMEOUT_MS"
	EnvDebug     = "IFS_TELEMETRY_DEBUG"
)

// Config holds runtime configuration for telemetry and crash uploads.
// All telemetry is opt-in and disabled by default.
//
// Environment variables (read by FromEnv):
// - IFS_TELEMETRY_OPT_IN: "1", "true", "yes" to enable metrics
// - IFS_TELEMETRY_ENDPOINT: URL to POST JSON events to
// - IFS_CRASH_UPLOAD_URL: URL to POST crash reports to
// - IFS_TELEMETRY_TIMEOUT_MS: optional request timeout, default 1500ms
// - IFS_TELEMETRY_DEBUG: if set, logs event send attempts
//
// If no URLs are set, events are dropped even if opt-in is true.
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv(config.EnvTelemetryOptIn)),
		EventsURL:    strings.TrimSpace(os.Getenv(config.EnvTelemetryTarget)),
		CrashURL:     strings.TrimSpace(os.Getenv(EnvCrashURL)),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv(EnvDebug) != "",
	}
	if ms := strings.TrimSpace(os.Getenv(EnvTimeoutMs)); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil {
			cfg.Timeout = v
		}
	}
	return cfg
}

// FromConfig starts from the environment and applies the telemetry section
// of the app config. Env overrides are already folded into tc by
// config.Load. Crash reports go to the events endpoint unless a dedicated
// URL is set.
func FromConfig(tc config.TelemetryConfig) Config {
	cfg := FromEnv()
	cfg.OptIn = tc.Enabled
	if ep := strings.TrimSpace(tc.Endpoint); ep != "" {
		cfg.EventsURL = ep
	}
	if cfg.CrashURL == "" && cfg.EventsURL != "" {
		cfg.CrashURL = strings.TrimSuffix(cfg.EventsURL, "/") + "/crash"
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// Client is a minimal async sender; it drops events silently on errors
// and never blocks the caller. The queue is bounded.
type Client struct {
	cfg    Config
	log    *slog.Logger
	cli    *http.Client
	q      chan map[string]any
	once   sync.Once
	closed chan struct{}
	wg     sync.WaitGroup
}

var (
	defaultMu     sync.Mutex
	defaultClient *Client
)

// InitDefault installs a default client from env when none exists.
func InitDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultClient == nil {
		defaultClient = New(FromEnv())
	}
}

// NewDefault creates and installs the default client with cfg. A
// previously installed client is closed.
func NewDefault(cfg Config) {
	c := New(cfg)
	defaultMu.Lock()
	old := defaultClient
	defaultClient = c
	defaultMu.Unlock()
	if old != nil {
		old.Close()
	}
}

func current() *Client {
	InitDefault()
	defaultMu.Lock()
	defer defaultMu.Unlock()
	return defaultClient
}

// New constructs a client.
func New(cfg Config) *Client {
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("telemetry"),
		cli:    &http.Client{Timeout: cfg.Timeout},
		q:      make(chan map[string]any, 64),
		closed: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether telemetry is opted in and an endpoint is configured.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Enabled reports the state of the default client.
func Enabled() bool { return current().Enabled() }

// Event queues a small JSON event if enabled. Safe to call from anywhere.
func (c *Client) Event(name string, props map[string]any) {
	if !c.Enabled() || name == "" {
		return
	}
	payload := map[string]any{
		"name":    name,
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"version": version.String(),
		"os":      runtime.GOOS,
		"arch":    runtime.GOARCH,
	}
	for k, v := range props {
		if _, reserved := payload[k]; !reserved {
			payload[k] = v
		}
	}
	select {
	case c.q <- payload:
	default:
	}
}

// Event sends through the default client.
func Event(name string, props map[string]any) { current().Event(name, props) }

// Flush waits briefly for the queue to drain.
func (c *Client) Flush(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	deadline := time.Now().Add(500 * time.Millisecond)
	for {
		if len(c.q) == 0 || time.Now().After(deadline) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(25 * time.Millisecond):
		}
	}
}

// Flush drains the default client.
func Flush(ctx context.Context) { current().Flush(ctx) }

// Close stops the background goroutine and waits for running crash uploads.
func (c *Client) Close() {
	c.once.Do(func() { close(c.closed) })
	c.wg.Wait()
}

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			return
		case item := <-c.q:
			c.post(c.cfg.EventsURL, "application/json", mustJSON(item), "event")
		}
	}
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return b
}

func (c *Client) post(url, contentType string, body []byte, what string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.cli.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug("telemetry send failed", slog.String("kind", what), slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug("telemetry sent", slog.String("kind", what), slog.Int("status", resp.StatusCode))
	}
}

// UploadCrash posts an already serialized crash report if opted in.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	c.wg.Add(1)
	go func(b []byte) {
		defer c.wg.Done()
		c.post(c.cfg.CrashURL, "text/plain; charset=utf-8", b, "crash")
	}(append([]byte(nil), report...))
}

// UploadCrash sends through the default client.
func UploadCrash(report []byte) { current().UploadCrash(report) }
