/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/image/font/basicfont"

	"infostudio/internal/vector"
)

// basicfont.Face7x13 advances every glyph by 7px, which keeps widths exact.

func TestWrapBreaksOnSpaces(t *testing.T) {
	face := basicfont.Face7x13
	box := Wrap(face, "aaa bbb ccc", 7*7, 13, 1.2)
	if len(box.Lines) != 2 {
		t.Fatalf("want 2 lines, got %d: %+v", len(box.Lines), box.Lines)
	}
	if box.Lines[0].Text != "aaa bbb" || box.Lines[1].Text != "ccc" {
		t.Fatalf("unexpected lines: %+v", box.Lines)
	}
	if box.Lines[0].Width != 49 || box.Width != 49 {
		t.Fatalf("width: %+v", box)
	}
	if d := box.LineHeight - 15.6; d > 1e-4 || d < -1e-4 || box.Height != 2*box.LineHeight {
		t.Fatalf("height: %+v", box)
	}
}

func TestWrapNewlinesAndLongWords(t *testing.T) {
	face := basicfont.Face7x13
	box := Wrap(face, "ab\n\nabcdefghij", 28, 13, 0)
	got := make([]string, len(box.Lines))
	for i, l := range box.Lines {
		got[i] = l.Text
	}
	want := "ab||abcd|efgh|ij"
	if strings.Join(got, "|") != want {
		t.Fatalf("lines = %q, want %q", strings.Join(got, "|"), want)
	}
	if box.LineHeight != 13*1.25 {
		t.Fatalf("default line height not applied: %v", box.LineHeight)
	}
}

func TestWrapUnboundedKeepsOneLine(t *testing.T) {
	box := Wrap(basicfont.Face7x13, "one two three", 0, 13, 1)
	if len(box.Lines) != 1 || box.Lines[0].Width != 13*7 {
		t.Fatalf("unexpected: %+v", box.Lines)
	}
}

func TestOffsetXAndBaseline(t *testing.T) {
	if OffsetX(vector.AlignCenter, 20, 100) != 40 || OffsetX(vector.AlignRight, 20, 100) != 80 || OffsetX(vector.AlignLeft, 20, 100) != 0 {
		t.Fatalf("OffsetX wrong")
	}
	b := Box{LineHeight: 20, Ascent: 11, Descent: 2}
	if got := b.Baseline(100, 1); got != 100+20+3.5+11 {
		t.Fatalf("Baseline = %v", got)
	}
}

func TestDefaultLibraryFaces(t *testing.T) {
	lib := Default()
	if err := lib.Ready(context.Background()); err != nil {
		t.Fatalf("Ready: %v", err)
	}
	fc := NewFaceCache(lib)
	defer fc.Close()
	reg, err := fc.Get(false, 16)
	if err != nil {
		t.Fatalf("regular: %v", err)
	}
	again, _ := fc.Get(false, 16)
	if reg != again {
		t.Fatalf("face cache miss")
	}
	bold, err := fc.Get(true, 16)
	if err != nil {
		t.Fatalf("bold: %v", err)
	}
	if Measure(bold, "Header") <= Measure(reg, "") {
		t.Fatalf("bold face measures nothing")
	}
}

func TestCustomFontPathError(t *testing.T) {
	lib := NewFontLibrary("/definitely/missing.ttf", "")
	if err := lib.Ready(context.Background()); err == nil {
		t.Fatalf("expected error for missing font")
	}
	if _, err := lib.Face(false, 12); err == nil {
		t.Fatalf("Face should report the load error")
	}
}
