/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func lastJSONLine(t *testing.T, path string) map[string]any {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var last string
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); s != "" {
			last = s
		}
	}
	if last == "" {
		t.Fatalf("no log lines in %s", path)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(last), &m); err != nil {
		t.Fatalf("unmarshal json log: %v", err)
	}
	return m
}

func TestInitWritesStructuredFileLog(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "app.json")
	Init(Options{Level: "debug", Format: "json", File: fpath})
	t.Cleanup(func() { _ = Close() })

	l := WithOperation(WithComponent("testcomp"), "op1")
	l.Info("hello world", slog.String("k", "v"))
	if err := Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	m := lastJSONLine(t, fpath)
	if m["app"] != "infostudio" {
		t.Fatalf("app attr: %v", m["app"])
	}
	if _, ok := m["ver"].(string); !ok {
		t.Fatalf("missing ver attr")
	}
	if m["component"] != "testcomp" || m["op"] != "op1" || m["msg"] != "hello world" {
		t.Fatalf("unexpected record: %v", m)
	}
}

func TestContextEnrichment(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "ctx.json")
	Init(Options{Level: "info", Format: "json", File: fpath})
	t.Cleanup(func() { _ = Close() })

	ctx := WithProject(WithSlide(context.Background(), "s-42"), "/tmp/deck.infographic.json")
	WithComponent("editor").InfoContext(ctx, "replace slide")
	if err := Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	m := lastJSONLine(t, fpath)
	if m["slide"] != "s-42" {
		t.Fatalf("slide attr: %v", m["slide"])
	}
	if m["project"] != "/tmp/deck.infographic.json" {
		t.Fatalf("project attr: %v", m["project"])
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("IFS_LOG_LEVEL", "warn")
	t.Setenv("IFS_LOG_FORMAT", "json")
	t.Setenv("IFS_LOG_SOURCE", "true")
	t.Setenv("IFS_LOG_FILE", "")

	opts := FromEnv()
	if opts.Level != "warn" || opts.Format != "json" || !opts.AddSource || opts.File != "" {
		t.Fatalf("FromEnv mismatch: %+v", opts)
	}
	if v := getenv("IFS_SURELY_UNSET_VAR", "fallback"); v != "fallback" {
		t.Fatalf("getenv fallback: %q", v)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		" error ": slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestPrettyTextHandler(t *testing.T) {
	var buf bytes.Buffer
	h := &prettyTextHandler{opts: prettyOpts{Level: slog.LevelWarn}, w: &buf, mu: &sync.Mutex{}}
	ctx := context.Background()
	if h.Enabled(ctx, slog.LevelInfo) {
		t.Fatalf("info should be filtered at warn")
	}
	if !h.Enabled(ctx, slog.LevelError) {
		t.Fatalf("error should pass at warn")
	}

	h2 := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).WithGroup("grp")
	r := slog.NewRecord(time.Now(), slog.LevelError, "boom", 0)
	r.AddAttrs(slog.Int("n", 42), slog.Bool("ok", true), slog.String("title", "two words"))
	if err := h2.Handle(ctx, r); err != nil {
		t.Fatalf("handle: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ERR boom", "grp.k=v", "grp.n=42", "grp.ok=true", `grp.title="two words"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := multiHandler(
		&prettyTextHandler{opts: prettyOpts{Level: slog.LevelDebug}, w: &a, mu: &sync.Mutex{}},
		&prettyTextHandler{opts: prettyOpts{Level: slog.LevelError}, w: &b, mu: &sync.Mutex{}},
	)
	l := slog.New(h)
	l.Info("only-a")
	l.Error("both")
	if !strings.Contains(a.String(), "only-a") || !strings.Contains(a.String(), "both") {
		t.Fatalf("a missing records: %q", a.String())
	}
	if strings.Contains(b.String(), "only-a") || !strings.Contains(b.String(), "both") {
		t.Fatalf("b filter wrong: %q", b.String())
	}
}
