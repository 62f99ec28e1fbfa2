/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package undo keeps per-slide undo/redo stacks of whole slide values.
package undo

import (
	"sync"
	"time"
)

// Snapshot is one stored slide state. Blob is the encoded slide and is
// opaque to the manager; its length is used for memory accounting.
type Snapshot struct {
	SlideID string
	Blob    []byte
	TS      time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; the oldest undo entries are pruned when exceeded.
	MaxBytes int
	// MaxPerSlide limits the undo depth per slide (0 means unlimited).
	MaxPerSlide int
	// MinInterval coalesces edits of the same slide made within the interval:
	// the state before the burst is kept and later pushes only refresh TS.
	MinInterval time.Duration
}

// Manager provides undo/redo stacks per slide id. It is safe for concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	undo map[string][]Snapshot
	redo map[string][]Snapshot
	// accounting covers both stacks
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval < 0 {
		cfg.MinInterval = 0
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// Push records the state a slide had before an edit and clears its redo
// stack. Within MinInterval of the previous push the older state wins.
func (m *Manager) Push(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropRedoLocked(s.SlideID)
	stack := m.undo[s.SlideID]
	if n := len(stack); n > 0 && m.cfg.MinInterval > 0 && s.TS.Sub(stack[n-1].TS) < m.cfg.MinInterval {
		stack[n-1].TS = s.TS
		return
	}
	m.undo[s.SlideID] = append(stack, s)
	m.totalBytes += len(s.Blob)
	m.enforceCapsLocked(s.SlideID)
}

// Undo pops the newest stored state of a slide and parks current on the
// redo stack. The returned snapshot is the state to restore.
func (m *Manager) Undo(current Snapshot) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := current.SlideID
	stack := m.undo[id]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[id] = stack[:len(stack)-1]
	m.totalBytes += len(current.Blob) - len(s.Blob)
	m.redo[id] = append(m.redo[id], current)
	return s, true
}

// Redo is the inverse of Undo.
func (m *Manager) Redo(current Snapshot) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := current.SlideID
	r := m.redo[id]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[id] = r[:len(r)-1]
	m.undo[id] = append(m.undo[id], current)
	m.totalBytes += len(current.Blob) - len(s.Blob)
	m.enforceCapsLocked(id)
	return s, true
}

// CanUndo reports whether the slide has stored states.
func (m *Manager) CanUndo(slideID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo[slideID]) > 0
}

// CanRedo reports whether the slide has undone states.
func (m *Manager) CanRedo(slideID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redo[slideID]) > 0
}

// Clear drops both stacks of a slide.
func (m *Manager) Clear(slideID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[slideID] {
		m.totalBytes -= len(s.Blob)
	}
	m.dropRedoLocked(slideID)
	delete(m.undo, slideID)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Reset drops every stack.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = make(map[string][]Snapshot)
	m.redo = make(map[string][]Snapshot)
	m.totalBytes = 0
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes int, slides int, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slides = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, slides, totalSnapshots
}

func (m *Manager) dropRedoLocked(id string) {
	for _, s := range m.redo[id] {
		m.totalBytes -= len(s.Blob)
	}
	delete(m.redo, id)
}

func (m *Manager) enforceCapsLocked(id string) {
	if m.cfg.MaxPerSlide > 0 {
		stack := m.undo[id]
		if len(stack) > m.cfg.MaxPerSlide {
			toDrop := len(stack) - m.cfg.MaxPerSlide
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Blob)
			}
			m.undo[id] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune oldest across all slides
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		oldest := ""
		found := false
		var oldestTS time.Time
		for sid, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if !found || stack[0].TS.Before(oldestTS) {
				oldest, oldestTS, found = sid, stack[0].TS, true
			}
		}
		if !found {
			break
		}
		stack := m.undo[oldest]
		m.totalBytes -= len(stack[0].Blob)
		m.undo[oldest] = stack[1:]
		if len(m.undo[oldest]) == 0 {
			delete(m.undo, oldest)
		}
	}
}
