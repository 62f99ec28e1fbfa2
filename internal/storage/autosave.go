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
	"log/slog"
	"sync"
	"time"

	"infostudio/internal/domain"
	applog "infostudio/internal/log"
	"infostudio/internal/session"
)

// Autosaver records committed slide changes of a session into a History
// and, when a project file is set, rewrites that file. Work happens on a
// background goroutine; when the queue is full a change is dropped.
type Autosaver struct {
	st      *session.State
	hist    *History
	path    string
	keep    int
	q       chan domain.Slide
	cancel  func()
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	closed  bool
	onError func(error)
	log     *slog.Logger
}

// AutosaveOptions configure an Autosaver. Path may be empty.
type AutosaveOptions struct {
	Path    string
	Keep    int
	OnError func(error)
}

// Attach starts recording st. The project key in the history is opt.Path,
// or the project title when no file is attached.
func Attach(st *session.State, hist *History, opt AutosaveOptions) *Autosaver {
	a := &Autosaver{
		st:      st,
		hist:    hist,
		path:    opt.Path,
		keep:    opt.Keep,
		q:       make(chan domain.Slide, 32),
		done:    make(chan struct{}),
		onError: opt.OnError,
		log:     applog.WithComponent("autosave"),
	}
	a.cancel = st.Subscribe(a.observe)
	go a.loop()
	return a
}

func (a *Autosaver) observe(c session.Change) {
	switch c.Kind {
	case session.ChangeReplace, session.ChangeAppend, session.ChangeUndo, session.ChangeRedo:
	default:
		return
	}
	if c.Index < 0 {
		return
	}
	s, err := a.st.Slide(c.Index)
	if err != nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	select {
	case a.q <- s:
	default:
		a.log.Warn("autosave queue full, change dropped", slog.String("slide", s.ID))
	}
}

func (a *Autosaver) key() string {
	if a.path != "" {
		return a.path
	}
	return a.st.Title()
}

func (a *Autosaver) loop() {
	defer close(a.done)
	for s := range a.q {
		a.save(s)
	}
}

func (a *Autosaver) save(s domain.Slide) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.hist != nil {
		key := a.key()
		if _, err := a.hist.Record(ctx, key, s); err != nil {
			a.fail(err)
		} else if a.keep > 0 {
			if _, err := a.hist.Prune(ctx, key, s.ID, a.keep); err != nil {
				a.fail(err)
			}
		}
	}
	if a.path != "" {
		if err := Write(a.path, a.st.Project()); err != nil {
			a.fail(err)
		}
	}
}

func (a *Autosaver) fail(err error) {
	a.log.Warn("autosave failed", slog.Any("err", err))
	if a.onError != nil {
		a.onError(err)
	}
}

// Close unsubscribes, drains pending work and waits for the writer.
func (a *Autosaver) Close() {
	a.once.Do(func() {
		a.cancel()
		a.mu.Lock()
		a.closed = true
		close(a.q)
		a.mu.Unlock()
		<-a.done
	})
}
