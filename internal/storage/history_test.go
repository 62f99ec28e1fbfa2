/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"infostudio/internal/domain"
	"infostudio/internal/session"
)

func openTestHistory(t *testing.T) *History {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	h, err := OpenHistory(ctx, t.TempDir(), "")
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestHistoryRecordListLatest(t *testing.T) {
	h := openTestHistory(t)
	ctx := context.Background()
	s := domain.DefaultProject().Slides[0]

	for _, hdr := range []string{"one", "two", "three"} {
		s.Header = hdr
		if ok, err := h.Record(ctx, "deck", s); err != nil || !ok {
			t.Fatalf("Record %s: ok=%v err=%v", hdr, ok, err)
		}
	}
	if ok, err := h.Record(ctx, "deck", s); err != nil || ok {
		t.Fatalf("identical value must not be recorded again: ok=%v err=%v", ok, err)
	}
	list, err := h.List(ctx, "deck", s.ID, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].Slide.Header != "three" || list[2].Slide.Header != "one" {
		t.Fatalf("unexpected list %+v", list)
	}
	latest, err := h.Latest(ctx, "deck", s.ID)
	if err != nil || latest == nil || latest.Slide.Header != "three" || latest.TS.IsZero() {
		t.Fatalf("Latest: %v %+v", err, latest)
	}
	if none, err := h.Latest(ctx, "other", s.ID); err != nil || none != nil {
		t.Fatalf("expected no entry for another project: %v %+v", err, none)
	}
}

func TestHistoryPruneAndSummary(t *testing.T) {
	h := openTestHistory(t)
	ctx := context.Background()
	a := domain.Slide{ID: "a"}
	b := domain.Slide{ID: "b"}
	for i := 0; i < 5; i++ {
		a.Header = string(rune('A' + i))
		if _, err := h.Record(ctx, "deck", a); err != nil {
			t.Fatal(err)
		}
	}
	b.Header = "only"
	if _, err := h.Record(ctx, "deck", b); err != nil {
		t.Fatal(err)
	}
	n, err := h.Prune(ctx, "deck", "a", 2)
	if err != nil || n != 3 {
		t.Fatalf("Prune: n=%d err=%v", n, err)
	}
	sum, err := h.Summary(ctx, "deck")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(sum) != 2 || sum[0].SlideID != "a" || sum[0].Count != 2 || sum[0].Header != "E" || sum[1].Header != "only" {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

func TestHistoryReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	h, err := OpenHistory(ctx, dir, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.Record(ctx, "deck", domain.Slide{ID: "x", Header: "kept"}); err != nil {
		t.Fatal(err)
	}
	_ = h.Close()
	if _, err := os.Stat(HistoryPath(dir)); err != nil {
		t.Fatalf("history file missing: %v", err)
	}
	h2, err := OpenHistory(ctx, dir, "")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer h2.Close()
	e, err := h2.Latest(ctx, "deck", "x")
	if err != nil || e == nil || e.Slide.Header != "kept" {
		t.Fatalf("data lost on reopen: %v %+v", err, e)
	}
}

func TestRebind(t *testing.T) {
	pg := &History{dialect: DialectPostgres}
	if got := pg.rebind("a = ? AND b = ? LIMIT ?"); got != "a = $1 AND b = $2 LIMIT $3" {
		t.Fatalf("rebind = %q", got)
	}
	lite := &History{dialect: DialectSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Fatalf("sqlite must keep ? placeholders, got %q", got)
	}
}

func TestPostgresHistory(t *testing.T) {
	dsn := os.Getenv("IFS_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("IFS_TEST_PG_DSN not set")
	}
	ctx := context.Background()
	h, err := OpenHistory(ctx, "", dsn)
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	defer h.Close()
	if h.Dialect() != DialectPostgres {
		t.Fatalf("expected postgres dialect")
	}
	project := "pg-test-" + domain.NewID()
	if _, err := h.Record(ctx, project, domain.Slide{ID: "s", Header: "pg"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	e, err := h.Latest(ctx, project, "s")
	if err != nil || e == nil || e.Slide.Header != "pg" {
		t.Fatalf("Latest: %v %+v", err, e)
	}
}

func TestAutosaverRecordsChanges(t *testing.T) {
	h := openTestHistory(t)
	path := filepath.Join(t.TempDir(), "deck"+FileExt)
	st := session.New(domain.DefaultProject())
	a := Attach(st, h, AutosaveOptions{Path: path, Keep: 10})

	v := st.Active()
	v.Header = "autosaved"
	if err := st.ReplaceActive(v); err != nil {
		t.Fatal(err)
	}
	st.AppendSlide()
	a.Close()
	a.Close() // idempotent

	e, err := h.Latest(context.Background(), path, v.ID)
	if err != nil || e == nil || e.Slide.Header != "autosaved" {
		t.Fatalf("history not recorded: %v %+v", err, e)
	}
	opened, err := Open(path)
	if err != nil {
		t.Fatalf("project file not written: %v", err)
	}
	if len(opened.Project.Slides) != 2 || opened.Project.Slides[0].Header != "autosaved" {
		t.Fatalf("unexpected saved project %+v", opened.Project)
	}
	// changes after Close are ignored
	st.AppendSlide()
}
