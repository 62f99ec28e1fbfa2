/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package outline

import (
	"strings"
	"testing"

	"infostudio/internal/domain"
)

func TestParseSlidesAndPoints(t *testing.T) {
	input := `Title: Energy deck
; comment line

# Solar power
> Energy from the sun
- Panels: Cheap and everywhere @energy
- Storage: Batteries
  at grid scale
- Outlook

# Wind
Turbines on land and sea
- Offshore: Strong steady winds @world
`
	o, errs := Parse(input)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if o.Title != "Energy deck" {
		t.Fatalf("unexpected title %q", o.Title)
	}
	if len(o.Slides) != 2 {
		t.Fatalf("expected 2 slides, got %d", len(o.Slides))
	}
	s0 := o.Slides[0]
	if s0.Header != "Solar power" || s0.SubHeader != "Energy from the sun" || s0.LineNo != 4 {
		t.Fatalf("unexpected first slide %+v", s0)
	}
	if len(s0.Points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(s0.Points))
	}
	if p := s0.Points[0]; p.Title != "Panels" || p.Description != "Cheap and everywhere" || p.Icon != "energy" {
		t.Fatalf("unexpected point %+v", p)
	}
	if p := s0.Points[1]; p.Description != "Batteries at grid scale" {
		t.Fatalf("continuation not joined: %q", p.Description)
	}
	if p := s0.Points[2]; p.Title != "Outlook" || p.Description != "" {
		t.Fatalf("unexpected bare point %+v", p)
	}
	if s1 := o.Slides[1]; s1.SubHeader != "Turbines on land and sea" || s1.Points[0].Icon != "world" {
		t.Fatalf("unexpected second slide %+v", s1)
	}
}

func TestParseReportsErrors(t *testing.T) {
	var b strings.Builder
	b.WriteString("- stray point\n# Full\n")
	for i := 0; i < domain.MaxPoints+1; i++ {
		b.WriteString("- P: d\n")
	}
	b.WriteString("- : no title\n")
	o, errs := Parse(b.String())
	if len(o.Slides) != 1 || len(o.Slides[0].Points) != domain.MaxPoints {
		t.Fatalf("unexpected result %+v", o)
	}
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %+v", errs)
	}
	if errs[0].Line != 1 || !strings.Contains(errs[0].Error(), "before the first slide") {
		t.Fatalf("unexpected first error %v", errs[0])
	}
}

func TestIndentedBulletIsAPoint(t *testing.T) {
	o, errs := Parse("# S\n- A: one\n  - B: two\n")
	if len(errs) != 0 || len(o.Slides[0].Points) != 2 {
		t.Fatalf("indented bullet merged: %+v %v", o.Slides[0].Points, errs)
	}
}

func TestBuildKeepsStylingAndSpreadsPoints(t *testing.T) {
	base := domain.DefaultProject().Slides[0]
	o, _ := Parse("# One\n- A: x @unknown-icon\n- B\n- C\n- D\n")
	slides := o.Build(base)
	if len(slides) != 1 {
		t.Fatalf("expected 1 slide, got %d", len(slides))
	}
	s := slides[0]
	if s.ID == base.ID || s.AccentColor != base.AccentColor || s.CustomCSS != base.CustomCSS {
		t.Fatalf("styling not derived from base: %+v", s)
	}
	want := []float64{0, 90, 180, 270}
	for i, p := range s.Points {
		if p.Angle != want[i] {
			t.Fatalf("point %d angle %v, want %v", i, p.Angle, want[i])
		}
	}
	if s.Points[0].Icon != domain.DefaultIcon {
		t.Fatalf("unknown icon kept: %q", s.Points[0].Icon)
	}
	if s.Points[1].Description != domain.PlaceholderText {
		t.Fatalf("empty description not filled: %q", s.Points[1].Description)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	p := domain.DefaultProject()
	o, errs := Parse(Format(p))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %+v", errs)
	}
	if o.Title != p.Title || len(o.Slides) != 1 {
		t.Fatalf("unexpected outline %+v", o)
	}
	src := p.Slides[0]
	got := o.Slides[0]
	if got.Header != src.Header || got.SubHeader != src.SubHeader || len(got.Points) != len(src.Points) {
		t.Fatalf("slide changed: %+v", got)
	}
	for i, pt := range got.Points {
		if pt.Title != src.Points[i].Title || pt.Description != src.Points[i].Description || pt.Icon != src.Points[i].Icon {
			t.Fatalf("point %d changed: %+v vs %+v", i, pt, src.Points[i])
		}
	}
}
