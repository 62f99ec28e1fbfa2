/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"
)

func snap(id, blob string, ts time.Time) Snapshot {
	return Snapshot{SlideID: id, Blob: []byte(blob), TS: ts}
}

func TestUndoRedoBasic(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024 * 1024, MaxPerSlide: 10, MinInterval: 10 * time.Millisecond})
	t0 := time.Now()
	m.Push(snap("s1", "a", t0))
	m.Push(snap("s1", "b", t0.Add(20*time.Millisecond)))
	if _, slides, total := m.Stats(); slides != 1 || total != 2 {
		t.Fatalf("expected 1 slide and 2 snapshots, got slides=%d total=%d", slides, total)
	}
	s, ok := m.Undo(snap("s1", "c", t0))
	if !ok || string(s.Blob) != "b" {
		t.Fatalf("undo expected 'b', got ok=%v blob=%q", ok, string(s.Blob))
	}
	if !m.CanRedo("s1") {
		t.Fatalf("expected redo to be available")
	}
	s, ok = m.Redo(snap("s1", "b", t0))
	if !ok || string(s.Blob) != "c" {
		t.Fatalf("redo expected 'c', got ok=%v blob=%q", ok, string(s.Blob))
	}
	if m.CanRedo("s1") {
		t.Fatalf("redo stack should be empty")
	}
}

func TestPushClearsRedo(t *testing.T) {
	m := NewManager(Config{})
	t0 := time.Now()
	m.Push(snap("s1", "a", t0))
	if _, ok := m.Undo(snap("s1", "b", t0)); !ok {
		t.Fatalf("undo failed")
	}
	m.Push(snap("s1", "a", t0.Add(time.Second)))
	if m.CanRedo("s1") {
		t.Fatalf("a new edit must invalidate redo")
	}
}

func TestCoalesceKeepsOlderState(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024 * 1024, MaxPerSlide: 10, MinInterval: 50 * time.Millisecond})
	t0 := time.Now()
	m.Push(snap("s2", "1", t0))
	m.Push(snap("s2", "2", t0.Add(10*time.Millisecond)))
	m.Push(snap("s2", "3", t0.Add(40*time.Millisecond)))
	_, _, total := m.Stats()
	if total != 1 {
		t.Fatalf("expected coalesced to 1 snapshot, got %d", total)
	}
	s, ok := m.Undo(snap("s2", "4", t0))
	if !ok || string(s.Blob) != "1" {
		t.Fatalf("expected state before the burst, got ok=%v blob=%q", ok, string(s.Blob))
	}
}

func TestSlidesAreIndependent(t *testing.T) {
	m := NewManager(Config{})
	t0 := time.Now()
	m.Push(snap("a", "a0", t0))
	m.Push(snap("b", "b0", t0))
	if _, ok := m.Undo(snap("a", "a1", t0)); !ok {
		t.Fatalf("undo a failed")
	}
	if !m.CanUndo("b") || m.CanUndo("a") {
		t.Fatalf("unexpected stacks: a=%v b=%v", m.CanUndo("a"), m.CanUndo("b"))
	}
}

func TestCaps(t *testing.T) {
	m := NewManager(Config{MaxBytes: 20, MaxPerSlide: 2, MinInterval: time.Millisecond})
	t0 := time.Now()
	for i := 0; i < 10; i++ {
		m.Push(snap("s3", "xxxxx", t0.Add(time.Duration(i)*time.Second)))
	}
	_, _, total := m.Stats()
	if total > 2 {
		t.Fatalf("expected MaxPerSlide cap to limit to 2, got %d", total)
	}
}

func TestClearAndReset(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024, MinInterval: time.Millisecond})
	t0 := time.Now()
	m.Push(snap("s7", "abcdef", t0))
	m.Push(snap("s8", "abc", t0))
	m.Clear("s7")
	tb, slides, total := m.Stats()
	if tb != 3 || slides != 1 || total != 1 {
		t.Fatalf("unexpected stats after clear: tb=%d slides=%d total=%d", tb, slides, total)
	}
	m.Reset()
	if tb, slides, total = m.Stats(); tb != 0 || slides != 0 || total != 0 {
		t.Fatalf("expected zero stats after reset, got tb=%d slides=%d total=%d", tb, slides, total)
	}
}

func TestGlobalPruneAcrossSlides(t *testing.T) {
	m := NewManager(Config{MaxBytes: 8, MinInterval: time.Millisecond})
	t0 := time.Now()
	m.Push(snap("one", "xxxx", t0))
	m.Push(snap("two", "yyyy", t0.Add(time.Second)))
	m.Push(snap("two", "zzzz", t0.Add(2*time.Second)))

	if m.CanUndo("one") {
		t.Fatalf("expected the oldest slide entry to be pruned")
	}
	if _, ok := m.Undo(snap("two", "w", t0)); !ok {
		t.Fatalf("expected slide two to keep snapshots")
	}
}
