/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestSlideJSONFieldNames(t *testing.T) {
	s := DefaultProject().Slides[0]
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"mainImageUrl"`, `"subHeader"`, `"customCSS"`, `"accentColor"`, `"points"`} {
		if !strings.Contains(string(b), key) {
			t.Fatalf("json %s missing key %s", b, key)
		}
	}
	if strings.Contains(string(b), `"logoUrl"`) {
		t.Fatalf("empty logoUrl should be omitted")
	}
}

func TestCloneDoesNotAliasPoints(t *testing.T) {
	s := DefaultProject().Slides[0]
	c := s.Clone()
	c.Points[0].Title = "changed"
	c.Points = append(c.Points, Point{ID: "x"})
	if s.Points[0].Title == "changed" {
		t.Fatalf("clone shares point storage")
	}
	if len(s.Points) != 6 {
		t.Fatalf("original points length changed: %d", len(s.Points))
	}
}

func TestNewSlideFromKeepsStyle(t *testing.T) {
	base := DefaultProject().Slides[0]
	base.LogoURL = "data:image/png;base64,AAAA"
	n := NewSlideFrom(base)
	if n.ID == base.ID || n.ID == "" {
		t.Fatalf("new slide needs a fresh id, got %q", n.ID)
	}
	if n.AccentColor != base.AccentColor || n.SecondaryColor != base.SecondaryColor ||
		n.BackgroundColor != base.BackgroundColor || n.TextColor != base.TextColor ||
		n.CustomCSS != base.CustomCSS || n.MainImageURL != base.MainImageURL || n.LogoURL != base.LogoURL {
		t.Fatalf("style fields not carried over: %+v", n)
	}
	if n.Header != NewSlideHeader || n.SubHeader != NewSlideSubHeader {
		t.Fatalf("content not reset: %q / %q", n.Header, n.SubHeader)
	}
	if len(n.Points) != 2 || n.Points[0].Angle != 270 || n.Points[1].Angle != 90 {
		t.Fatalf("default points wrong: %+v", n.Points)
	}
	if n.Points[0].ID == n.Points[1].ID {
		t.Fatalf("point ids must differ")
	}
}

func TestValidate(t *testing.T) {
	p := DefaultProject()
	if err := p.Validate(); err != nil {
		t.Fatalf("default project invalid: %v", err)
	}

	bad := p.Clone()
	bad.Slides = append(bad.Slides, bad.Slides[0].Clone())
	bad.Slides[1].Points[0].Angle = 360
	for len(bad.Slides[1].Points) <= MaxPoints {
		bad.Slides[1].Points = append(bad.Slides[1].Points, Point{ID: NewID(), Angle: 10})
	}
	err := bad.Validate()
	for _, want := range []error{ErrDuplicateID, ErrAngleRange, ErrTooManyPoints} {
		if !errors.Is(err, want) {
			t.Errorf("Validate() = %v, want %v in chain", err, want)
		}
	}

	if err := (Project{}).Validate(); !errors.Is(err, ErrNoSlides) {
		t.Errorf("empty project: %v", err)
	}
}

func TestIndexLookups(t *testing.T) {
	p := DefaultProject()
	if i := p.SlideIndex("1"); i != 0 {
		t.Fatalf("SlideIndex = %d", i)
	}
	if i := p.Slides[0].PointIndex("p4"); i != 3 {
		t.Fatalf("PointIndex = %d", i)
	}
	if i := p.Slides[0].PointIndex("nope"); i != -1 {
		t.Fatalf("PointIndex missing = %d", i)
	}
}
