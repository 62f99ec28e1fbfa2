/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"encoding/json"
	"log/slog"

	"infostudio/internal/domain"
	"infostudio/internal/undo"
)

// Undo restores the previous value of the active slide.
func (s *State) Undo() bool { return s.step(ChangeUndo) }

// Redo re-applies the last undone value of the active slide.
func (s *State) Redo() bool { return s.step(ChangeRedo) }

func (s *State) CanUndo() bool {
	s.mu.Lock()
	id := s.project.Slides[s.active].ID
	s.mu.Unlock()
	return s.history.CanUndo(id)
}

func (s *State) CanRedo() bool {
	s.mu.Lock()
	id := s.project.Slides[s.active].ID
	s.mu.Unlock()
	return s.history.CanRedo(id)
}

func (s *State) step(kind ChangeKind) bool {
	s.mu.Lock()
	cur := s.project.Slides[s.active]
	blob, err := json.Marshal(cur)
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("undo encode failed", slog.String("slide", cur.ID), slog.Any("err", err))
		return false
	}
	now := undo.Snapshot{SlideID: cur.ID, Blob: blob, TS: s.now()}
	var (
		got undo.Snapshot
		ok  bool
	)
	if kind == ChangeUndo {
		got, ok = s.history.Undo(now)
	} else {
		got, ok = s.history.Redo(now)
	}
	if !ok {
		s.mu.Unlock()
		return false
	}
	var restored domain.Slide
	if err := json.Unmarshal(got.Blob, &restored); err != nil {
		s.mu.Unlock()
		s.log.Warn("undo decode failed", slog.String("slide", cur.ID), slog.Any("err", err))
		return false
	}
	restored.ID = cur.ID
	s.project.Slides[s.active] = restored
	c := s.changeLocked(kind, s.active)
	s.mu.Unlock()
	s.notify(c)
	return true
}
