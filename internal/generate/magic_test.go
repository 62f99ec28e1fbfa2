/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package generate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"infostudio/internal/config"
	"infostudio/internal/domain"
	"infostudio/internal/session"
)

type stubGen struct {
	content *Content
	err     error
	topic   string
	during  func()
}

func (s *stubGen) Generate(_ context.Context, topic string) (*Content, error) {
	s.topic = topic
	if s.during != nil {
		s.during()
	}
	return s.content, s.err
}

func marshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestMagicWriteApplies(t *testing.T) {
	st := session.New(domain.DefaultProject())
	c, _ := Parse(sampleJSON)
	var sawBusy bool
	g := &stubGen{content: c}
	g.during = func() { sawBusy = st.Generating(st.Active().ID) }
	before := st.Active()

	ok, err := MagicWrite(context.Background(), st, g)
	if err != nil || !ok {
		t.Fatalf("MagicWrite: ok=%v err=%v", ok, err)
	}
	if g.topic != before.Header {
		t.Fatalf("topic = %q, want header %q", g.topic, before.Header)
	}
	if !sawBusy || st.Generating(before.ID) {
		t.Fatalf("gate must be set during the request and cleared after")
	}
	after := st.Active()
	if after.Header != "Space race" || len(after.Points) != 3 || after.AccentColor != before.AccentColor {
		t.Fatalf("unexpected slide %+v", after)
	}
}

func TestMagicWriteDefaultTopic(t *testing.T) {
	p := domain.DefaultProject()
	p.Slides[0].Header = " "
	st := session.New(p)
	g := &stubGen{err: ErrSchema}
	_, _ = MagicWrite(context.Background(), st, g)
	if g.topic != DefaultTopic {
		t.Fatalf("topic = %q", g.topic)
	}
}

func TestMagicWriteFailureLeavesSlide(t *testing.T) {
	for name, g := range map[string]Generator{
		"schema":     &stubGen{err: ErrSchema},
		"transport":  &stubGen{err: errors.New("connection refused")},
		"nil":        &stubGen{},
		"credential": NewClient(config.Defaults().Generate, ""),
	} {
		t.Run(name, func(t *testing.T) {
			st := session.New(domain.DefaultProject())
			before := marshal(t, st.Active())
			ok, err := MagicWrite(context.Background(), st, g)
			if ok || err == nil {
				t.Fatalf("expected failure, got ok=%v err=%v", ok, err)
			}
			if got := marshal(t, st.Active()); got != before {
				t.Fatalf("slide changed after failed generation")
			}
			if st.Generating(st.Active().ID) {
				t.Fatalf("gate not cleared")
			}
		})
	}
}

func TestMagicWriteRejectsSecondRequest(t *testing.T) {
	st := session.New(domain.DefaultProject())
	id := st.Active().ID
	if _, ok := st.BeginGenerate(id); !ok {
		t.Fatal("BeginGenerate failed")
	}
	g := &stubGen{}
	if _, err := MagicWrite(context.Background(), st, g); !errors.Is(err, ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}
	if g.topic != "" {
		t.Fatalf("generator must not be called")
	}
	if !st.Generating(id) {
		t.Fatalf("the outstanding gate must stay set")
	}
}

func TestMagicWriteKeepsConcurrentEdits(t *testing.T) {
	st := session.New(domain.DefaultProject())
	c, _ := Parse(sampleJSON)
	g := &stubGen{content: c}
	g.during = func() {
		v := st.Active()
		v.CustomCSS = ".edited{}"
		_ = st.ReplaceActive(v)
		st.AppendSlide()
	}
	if ok, err := MagicWrite(context.Background(), st, g); !ok || err != nil {
		t.Fatalf("MagicWrite: %v", err)
	}
	first, _ := st.Slide(0)
	if first.Header != "Space race" || first.CustomCSS != ".edited{}" {
		t.Fatalf("content must land on the original slide: %+v", first)
	}
	if st.Index() != 1 {
		t.Fatalf("active index moved")
	}
}

func TestMagicWriteDropsResultAfterProjectLoad(t *testing.T) {
	st := session.New(domain.DefaultProject())
	c, _ := Parse(sampleJSON)
	g := &stubGen{content: c}
	g.during = func() {
		if err := st.Load(domain.DefaultProject()); err != nil {
			t.Errorf("load: %v", err)
		}
	}
	ok, err := MagicWrite(context.Background(), st, g)
	if ok || !errors.Is(err, session.ErrStale) {
		t.Fatalf("MagicWrite = %v, %v", ok, err)
	}
	if h := st.Active().Header; h != domain.DefaultProject().Slides[0].Header {
		t.Fatalf("stale content reached the new project: %q", h)
	}
	if st.Generating(st.Active().ID) {
		t.Fatalf("gate left set")
	}
}
