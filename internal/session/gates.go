/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"fmt"

	"infostudio/internal/domain"
)

// Ticket identifies one generation request. Loading a project makes every
// outstanding ticket stale.
type Ticket struct {
	SlideID string
	epoch   uint64
}

// BeginGenerate marks a generation request for slide id as in flight. It
// returns false when one is already outstanding for that slide.
func (s *State) BeginGenerate(id string) (Ticket, bool) {
	s.mu.Lock()
	if s.generating[id] {
		s.mu.Unlock()
		return Ticket{}, false
	}
	s.generating[id] = true
	t := Ticket{SlideID: id, epoch: s.epoch}
	c := s.changeLocked(ChangeBusy, s.project.SlideIndex(id))
	s.mu.Unlock()
	s.notify(c)
	return t, true
}

// EndGenerate clears the gate set by BeginGenerate. A stale ticket leaves
// the gates of the current project alone.
func (s *State) EndGenerate(t Ticket) {
	s.mu.Lock()
	if t.epoch != s.epoch || !s.generating[t.SlideID] {
		s.mu.Unlock()
		return
	}
	delete(s.generating, t.SlideID)
	c := s.changeLocked(ChangeBusy, s.project.SlideIndex(t.SlideID))
	s.mu.Unlock()
	s.notify(c)
}

// ReplaceFor applies fn to the current value of the ticket's slide and
// commits the result in one step. It fails with ErrStale once another
// project was loaded, and with ErrNoSlide when the slide is gone.
func (s *State) ReplaceFor(t Ticket, fn func(domain.Slide) domain.Slide) error {
	s.mu.Lock()
	if t.epoch != s.epoch {
		s.mu.Unlock()
		return fmt.Errorf("slide %s: %w", t.SlideID, ErrStale)
	}
	i := s.project.SlideIndex(t.SlideID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("slide %s: %w", t.SlideID, ErrNoSlide)
	}
	c, err := s.replaceLocked(i, fn(s.project.Slides[i].Clone()))
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(c)
	return nil
}

// Generating reports whether slide id has a request in flight.
func (s *State) Generating(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating[id]
}

// BeginExport sets the export gate; false means an export is running.
func (s *State) BeginExport() bool {
	s.mu.Lock()
	if s.exporting {
		s.mu.Unlock()
		return false
	}
	s.exporting = true
	c := s.changeLocked(ChangeBusy, s.active)
	s.mu.Unlock()
	s.notify(c)
	return true
}

func (s *State) EndExport() {
	s.mu.Lock()
	if !s.exporting {
		s.mu.Unlock()
		return
	}
	s.exporting = false
	c := s.changeLocked(ChangeBusy, s.active)
	s.mu.Unlock()
	s.notify(c)
}

func (s *State) Exporting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exporting
}

// WithExport runs fn behind the export gate and always clears it.
func (s *State) WithExport(fn func() error) error {
	if !s.BeginExport() {
		return fmt.Errorf("export: %w", ErrBusySlot)
	}
	defer s.EndExport()
	return fn()
}
