//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests exercise the Fyne widgets. They are gated behind the "fyne"
// build tag so headless CI does not need Fyne or a display:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"image"
	"strings"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"

	"infostudio/internal/domain"
	"infostudio/internal/editor"
)

func almostEqual(a, b, eps float32) bool {
	if a > b {
		return a-b <= eps
	}
	return b-a <= eps
}

func TestSlidePreview_LayoutKeepsAspect(t *testing.T) {
	test.NewTempApp(t)
	p := NewSlidePreview()
	r, ok := p.CreateRenderer().(*slidePreviewRenderer)
	if !ok {
		t.Fatalf("unexpected renderer %T", p.CreateRenderer())
	}
	r.Layout(fyne.NewSize(1000, 832))
	sz := p.img.Size()
	if !almostEqual(sz.Width, 640, 0.5) || !almostEqual(sz.Height, 800, 0.5) {
		t.Fatalf("unexpected image size %v", sz)
	}
	if pos := p.img.Position(); !almostEqual(pos.X, previewPad+(1000-2*previewPad-640)/2, 0.5) || !almostEqual(pos.Y, previewPad, 0.5) {
		t.Fatalf("image not centered: %v", pos)
	}

	img := image.NewRGBA(image.Rect(0, 0, 48, 60))
	p.SetImage(img)
	if p.img.Image != img {
		t.Fatal("SetImage did not swap the raster")
	}
}

func TestPageDots_TapSelects(t *testing.T) {
	test.NewTempApp(t)
	d := NewPageDots()
	d.Set(0, 3)
	d.Resize(fyne.NewSize(100, 26))
	got := -1
	d.OnSelect = func(i int) { got = i }
	d.Tapped(&fyne.PointEvent{Position: fyne.NewPos(70, 10)})
	if got != 2 {
		t.Fatalf("tap selected %d, want 2", got)
	}
	got = -1
	d.Tapped(&fyne.PointEvent{Position: fyne.NewPos(2, 10)})
	if got != -1 {
		t.Fatalf("tap outside the dots selected %d", got)
	}
}

func TestPointRow_EditsAndSync(t *testing.T) {
	test.NewTempApp(t)
	p := domain.Point{ID: "p1", Title: "Cars", Description: "Many", Icon: "car", Angle: 90}
	var patches []editor.PointPatch
	r := newPointRow(p, 1, func(id string, patch editor.PointPatch) {
		if id != "p1" {
			t.Errorf("patch for %q", id)
		}
		patches = append(patches, patch)
	}, func(string) {})

	if r.title.Text != "Cars" || r.icon.Selected != "car" || r.angle.Value != 90 {
		t.Fatalf("row not filled: %q %q %v", r.title.Text, r.icon.Selected, r.angle.Value)
	}
	patches = nil
	test.Type(r.title, "!")
	if len(patches) == 0 || patches[len(patches)-1].Title == nil || !strings.Contains(*patches[len(patches)-1].Title, "!") {
		t.Fatalf("typing did not patch the title: %+v", patches)
	}

	// set with identical values must not emit patches
	patches = nil
	r.title.SetText("Cars")
	patches = nil
	r.set(domain.Point{ID: "p1", Title: "Cars", Description: "Many", Icon: "car", Angle: 90})
	if len(patches) != 0 {
		t.Fatalf("sync emitted %d patches", len(patches))
	}
}
