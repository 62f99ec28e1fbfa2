/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"slices"
	"testing"

	"infostudio/internal/domain"
	"infostudio/internal/editor"
)

func TestCounter(t *testing.T) {
	cases := []struct {
		index, count int
		want         string
	}{
		{0, 1, "1 / 1"},
		{2, 5, "3 / 5"},
		{0, 0, "0 / 0"},
	}
	for _, c := range cases {
		if got := Counter(c.index, c.count); got != c.want {
			t.Errorf("Counter(%d,%d) = %q, want %q", c.index, c.count, got, c.want)
		}
	}
}

func TestBusyLabels(t *testing.T) {
	if ExportLabel(false) == ExportLabel(true) {
		t.Fatal("export label must change while exporting")
	}
	if MagicLabel(false) == MagicLabel(true) {
		t.Fatal("magic label must change while generating")
	}
}

func TestDots(t *testing.T) {
	if got := Dots(1, 3); !slices.Equal(got, []bool{false, true, false}) {
		t.Fatalf("Dots(1,3) = %v", got)
	}
	if got := Dots(5, 2); !slices.Equal(got, []bool{false, false}) {
		t.Fatalf("out of range index marked a dot: %v", got)
	}
	if got := Dots(0, -1); len(got) != 0 {
		t.Fatalf("negative count: %v", got)
	}
}

func TestWindowTitle(t *testing.T) {
	if got := WindowTitle("", ""); got != "InfoStudio - "+domain.DefaultProjectTitle+" (unsaved)" {
		t.Fatalf("unexpected %q", got)
	}
	if got := WindowTitle("Deck", "/x/deck.infographic.json"); got != "InfoStudio - Deck [deck.infographic.json]" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestFitKeepsAspect(t *testing.T) {
	x, y, w, h := Fit(1000, 800)
	if w != 640 || h != 800 || x != 180 || y != 0 {
		t.Fatalf("wide container: %v %v %v %v", x, y, w, h)
	}
	x, y, w, h = Fit(320, 1000)
	if w != 320 || h != 400 || x != 0 || y != 300 {
		t.Fatalf("tall container: %v %v %v %v", x, y, w, h)
	}
	if _, _, w, h = Fit(0, 10); w != 0 || h != 0 {
		t.Fatal("empty container must yield zero size")
	}
}

func TestPushRecent(t *testing.T) {
	list := pushRecent([]string{"/a", "/b"}, "/b")
	if !slices.Equal(list, []string{"/b", "/a"}) {
		t.Fatalf("dedupe failed: %v", list)
	}
	if got := pushRecent(list, "  "); !slices.Equal(got, list) {
		t.Fatalf("blank path changed list: %v", got)
	}
	for i := 0; i < 20; i++ {
		list = pushRecent(list, fmt.Sprintf("/p%d", i))
	}
	if len(list) != recentMax || list[0] != "/p19" {
		t.Fatalf("cap failed: %v", list)
	}
}

func TestPointSignature(t *testing.T) {
	s := domain.DefaultProject().Slides[0]
	sig := pointSignature(s)
	s2 := s.Clone()
	s2.Points[0].Title = "renamed"
	if pointSignature(s2) != sig {
		t.Fatal("editing a field must not change the signature")
	}
	s2.Points = s2.Points[1:]
	if pointSignature(s2) == sig {
		t.Fatal("removing a point must change the signature")
	}
}

func TestTabTitles(t *testing.T) {
	seen := map[string]bool{}
	for _, tab := range editor.Tabs() {
		title := TabTitle(tab)
		if title == "" || seen[title] {
			t.Fatalf("bad title %q for %v", title, tab)
		}
		seen[title] = true
	}
}

func TestDotAt(t *testing.T) {
	// three dots span 46px; centered in 100px they start at x=27
	cases := []struct {
		x    float32
		want int
	}{
		{10, -1},
		{28, 0},
		{46, 1},
		{70, 2},
		{90, -1},
	}
	for _, c := range cases {
		if got := dotAt(c.x, 100, 3); got != c.want {
			t.Errorf("dotAt(%v) = %d, want %d", c.x, got, c.want)
		}
	}
	if dotAt(5, 100, 0) != -1 {
		t.Fatal("no dots must never hit")
	}
}
