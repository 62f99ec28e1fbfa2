/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session holds the application state of one editing session: the
// project, the active slide index and the in-progress gates. All mutations
// go through named methods and observers are told after each commit.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"infostudio/internal/domain"
	applog "infostudio/internal/log"
	"infostudio/internal/undo"
)

var (
	ErrNoSlide  = errors.New("no such slide")
	ErrBusySlot = errors.New("operation already in progress")
	ErrStale    = errors.New("project changed since the request started")
)

// ChangeKind names a committed mutation.
type ChangeKind string

const (
	ChangeReplace ChangeKind = "replace"
	ChangeAppend  ChangeKind = "append"
	ChangeActive  ChangeKind = "active"
	ChangeLoad    ChangeKind = "load"
	ChangeUndo    ChangeKind = "undo"
	ChangeRedo    ChangeKind = "redo"
	ChangeBusy    ChangeKind = "busy"
)

// Change describes one committed mutation. Index is the affected slide.
type Change struct {
	Kind       ChangeKind `json:"kind"`
	Index      int        `json:"index"`
	SlideID    string     `json:"slideId"`
	Active     int        `json:"active"`
	Count      int        `json:"count"`
	Generating bool       `json:"generating"`
	Exporting  bool       `json:"exporting"`
}

// Options tune the undo history of a State.
type Options struct {
	UndoDepth    int
	UndoBytes    int
	UndoCoalesce time.Duration
	Now          func() time.Time
}

func DefaultOptions() Options {
	return Options{UndoDepth: 100, UndoBytes: 32 << 20, UndoCoalesce: 400 * time.Millisecond, Now: time.Now}
}

// State is the single-document application state. It is safe for use from
// the UI goroutine and the preview server at the same time.
type State struct {
	mu         sync.Mutex
	project    domain.Project
	active     int
	generating map[string]bool
	epoch      uint64
	exporting  bool
	history    *undo.Manager
	now        func() time.Time
	subs       map[int]func(Change)
	nextSub    int
	log        *slog.Logger
}

// New starts a session on p. A project without slides is replaced by the
// default project.
func New(p domain.Project) *State {
	return NewWithOptions(p, DefaultOptions())
}

func NewWithOptions(p domain.Project, opt Options) *State {
	if len(p.Slides) == 0 {
		p = domain.DefaultProject()
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	return &State{
		project:    p.Clone(),
		generating: make(map[string]bool),
		history: undo.NewManager(undo.Config{
			MaxBytes:    opt.UndoBytes,
			MaxPerSlide: opt.UndoDepth,
			MinInterval: opt.UndoCoalesce,
		}),
		now:  opt.Now,
		subs: make(map[int]func(Change)),
		log:  applog.WithComponent("session"),
	}
}

// Subscribe registers fn for committed changes and returns an unsubscribe
// func. Observers run synchronously on the mutating goroutine, after the
// state lock is released, so they may read the state.
func (s *State) Subscribe(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// changeLocked builds the event for a mutation; the caller holds s.mu and
// calls notify after unlocking.
func (s *State) changeLocked(kind ChangeKind, index int) Change {
	c := Change{Kind: kind, Index: index, Active: s.active, Count: len(s.project.Slides), Exporting: s.exporting}
	if index >= 0 && index < len(s.project.Slides) {
		c.SlideID = s.project.Slides[index].ID
		c.Generating = s.generating[c.SlideID]
	}
	return c
}

func (s *State) notify(c Change) {
	s.mu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

// Project returns a deep copy of the project.
func (s *State) Project() domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.Clone()
}

func (s *State) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.Title
}

// Active returns a copy of the active slide.
func (s *State) Active() domain.Slide {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.Slides[s.active].Clone()
}

// Slide returns a copy of the slide at i.
func (s *State) Slide(i int) (domain.Slide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.project.Slides) {
		return domain.Slide{}, fmt.Errorf("slide %d: %w", i, ErrNoSlide)
	}
	return s.project.Slides[i].Clone(), nil
}

func (s *State) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *State) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.project.Slides)
}

// ReplaceActive swaps the active slide for v. The slide keeps its id; all
// other slides are untouched. A value breaking the point invariants is
// rejected and the state stays as it was.
func (s *State) ReplaceActive(v domain.Slide) error {
	s.mu.Lock()
	idx := s.active
	s.mu.Unlock()
	return s.ReplaceAt(idx, v)
}

// ReplaceAt swaps the slide at index i for v, keeping the slide id.
func (s *State) ReplaceAt(i int, v domain.Slide) error {
	s.mu.Lock()
	if i < 0 || i >= len(s.project.Slides) {
		s.mu.Unlock()
		return fmt.Errorf("slide %d: %w", i, ErrNoSlide)
	}
	c, err := s.replaceLocked(i, v)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(c)
	return nil
}

// ReplaceByID swaps the slide carrying v.ID, wherever it is in the deck.
func (s *State) ReplaceByID(v domain.Slide) error {
	s.mu.Lock()
	i := s.project.SlideIndex(v.ID)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("slide %s: %w", v.ID, ErrNoSlide)
	}
	c, err := s.replaceLocked(i, v)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(c)
	return nil
}

func (s *State) replaceLocked(i int, v domain.Slide) (Change, error) {
	prev := s.project.Slides[i]
	v = v.Clone()
	v.ID = prev.ID
	if err := v.Validate(); err != nil {
		return Change{}, fmt.Errorf("replace slide %d: %w", i, err)
	}
	if blob, err := json.Marshal(prev); err == nil {
		s.history.Push(undo.Snapshot{SlideID: prev.ID, Blob: blob, TS: s.now()})
	} else {
		s.log.Warn("undo snapshot skipped", slog.String("slide", prev.ID), slog.Any("err", err))
	}
	s.project.Slides[i] = v
	return s.changeLocked(ChangeReplace, i), nil
}

// AppendSlide adds a slide derived from the active one and activates it.
// It returns the new index.
func (s *State) AppendSlide() int {
	s.mu.Lock()
	ns := domain.NewSlideFrom(s.project.Slides[s.active])
	for s.project.SlideIndex(ns.ID) >= 0 {
		ns.ID = domain.NewID()
	}
	s.project.Slides = append(s.project.Slides, ns)
	s.active = len(s.project.Slides) - 1
	c := s.changeLocked(ChangeAppend, s.active)
	s.mu.Unlock()
	s.notify(c)
	return c.Index
}

// AppendGiven adds v as a new slide without changing the active index. An
// empty or duplicate id is replaced by a fresh one.
func (s *State) AppendGiven(v domain.Slide) (int, error) {
	v = v.Clone()
	if err := v.Validate(); err != nil {
		return -1, fmt.Errorf("append slide: %w", err)
	}
	s.mu.Lock()
	if v.ID == "" || s.project.SlideIndex(v.ID) >= 0 {
		v.ID = domain.NewID()
	}
	s.project.Slides = append(s.project.Slides, v)
	c := s.changeLocked(ChangeAppend, len(s.project.Slides)-1)
	s.mu.Unlock()
	s.notify(c)
	return c.Index, nil
}

// SetActive moves to slide i, clamped into the valid range. It returns
// the resulting index.
func (s *State) SetActive(i int) int {
	s.mu.Lock()
	n := len(s.project.Slides)
	if i < 0 {
		i = 0
	}
	if i > n-1 {
		i = n - 1
	}
	if i == s.active {
		s.mu.Unlock()
		return i
	}
	s.active = i
	c := s.changeLocked(ChangeActive, i)
	s.mu.Unlock()
	s.notify(c)
	return i
}

func (s *State) CanPrev() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active > 0
}

func (s *State) CanNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active < len(s.project.Slides)-1
}

// Next moves one slide forward; a no-op on the last slide.
func (s *State) Next() bool {
	if !s.CanNext() {
		return false
	}
	s.SetActive(s.Index() + 1)
	return true
}

// Prev moves one slide back; a no-op on the first slide.
func (s *State) Prev() bool {
	if !s.CanPrev() {
		return false
	}
	s.SetActive(s.Index() - 1)
	return true
}

// Load replaces the whole project after validating it. History and gates
// are reset and the first slide becomes active.
func (s *State) Load(p domain.Project) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	s.mu.Lock()
	s.project = p.Clone()
	s.active = 0
	s.generating = make(map[string]bool)
	s.epoch++
	s.history.Reset()
	c := s.changeLocked(ChangeLoad, 0)
	s.mu.Unlock()
	s.notify(c)
	return nil
}

// SetTitle renames the project.
func (s *State) SetTitle(title string) {
	s.mu.Lock()
	s.project.Title = title
	c := s.changeLocked(ChangeReplace, -1)
	s.mu.Unlock()
	s.notify(c)
}
