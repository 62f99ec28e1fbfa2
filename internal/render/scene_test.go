/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"reflect"
	"testing"

	"infostudio/internal/domain"
	"infostudio/internal/vector"
)

func testSlide() domain.Slide {
	s := domain.DefaultProject().Slides[0]
	s.MainImageURL = ""
	return s
}

func TestBuildIsDeterministic(t *testing.T) {
	s := testSlide()
	a, b := Build(s), Build(s)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("two builds of the same slide differ")
	}
	if a.Width != domain.CanvasWidth || a.Height != domain.CanvasHeight {
		t.Fatalf("scene size %vx%v", a.Width, a.Height)
	}
	if a.Root.ID != CaptureID || !a.Root.HasClass("canvas-container") {
		t.Fatalf("root = %q %v", a.Root.ID, a.Root.Classes)
	}
}

func TestBuildStructure(t *testing.T) {
	s := testSlide()
	sc := Build(s)
	for _, c := range []string{
		"canvas-bg-overlay", "canvas-top-accents", "canvas-header-section", "canvas-title",
		"canvas-subtitle", "canvas-subtitle-underline", "canvas-center-visual", "canvas-center-image",
		"canvas-footer", "social-badge", "empty-logo-box", "canvas-footer-accents",
	} {
		if len(sc.FindByClass(c)) == 0 {
			t.Errorf("missing %s", c)
		}
	}
	if got := len(sc.FindByClass("canvas-point-wrapper")); got != len(s.Points) {
		t.Fatalf("wrappers = %d, want %d", got, len(s.Points))
	}
	if got := sc.FindByClass("canvas-title")[0].Text; got != s.Header {
		t.Fatalf("title = %q", got)
	}
	if n := len(sc.FindByClass("canvas-logo")); n != 0 {
		t.Fatalf("logo without url: %d", n)
	}

	s.LogoURL = "data:image/png;base64,AAAA"
	sc = Build(s)
	if len(sc.FindByClass("canvas-logo")) != 1 || len(sc.FindByClass("empty-logo-box")) != 0 {
		t.Fatalf("logo slot not switched")
	}
}

func TestPointSidesAndPlacement(t *testing.T) {
	s := testSlide()
	s.CustomCSS = ""
	s.Points = []domain.Point{
		{ID: "r", Title: "Right", Icon: "car", Angle: 0},
		{ID: "l", Title: "Left", Icon: "no-such-icon", Angle: 180},
	}
	sc := Build(s)
	wr := sc.FindByClass("canvas-point-wrapper")
	if wr[0].Ref != "r" || !wr[0].HasClass("point-right") {
		t.Fatalf("first wrapper %q %v", wr[0].Ref, wr[0].Classes)
	}
	if wr[1].Ref != "l" || !wr[1].HasClass("point-left") {
		t.Fatalf("second wrapper %q %v", wr[1].Ref, wr[1].Classes)
	}
	boxes := sc.FindByClass("canvas-point-icon-box")
	if boxes[0].Transform.B <= 0 || boxes[1].Transform.B >= 0 {
		t.Fatalf("tilts: %v %v", boxes[0].Transform, boxes[1].Transform)
	}
	icons := sc.FindByClass("canvas-point-icon")
	if icons[1].Src != domain.DefaultIcon {
		t.Fatalf("unknown icon resolved to %q", icons[1].Src)
	}
	c := PointCenter(s.Points[0])
	if got := wr[0].Frame.Center(); vector.Distance(got, c) > 1e-3 {
		t.Fatalf("wrapper center %v, want %v", got, c)
	}
	if hit := sc.HitTest(c, "canvas-point-wrapper"); hit == nil || hit.Ref != "r" {
		t.Fatalf("hit test at point center = %v", hit)
	}
}

func TestFallbackColors(t *testing.T) {
	s := testSlide()
	s.AccentColor, s.SecondaryColor, s.BackgroundColor, s.TextColor = "", "bogus", "", ""
	sc := Build(s)
	if sc.Root.Style.Fill.Color != fallbackBg {
		t.Fatalf("bg = %v", sc.Root.Style.Fill.Color)
	}
	if got := sc.FindByClass("canvas-title")[0].Style.Font.Color; got != fallbackAccent {
		t.Fatalf("title color = %v", got)
	}
	if got := sc.FindByClass("canvas-subtitle-underline")[0].Style.Fill.Color; got != fallbackSecondary {
		t.Fatalf("underline = %v", got)
	}
	if got := sc.FindByClass("canvas-subtitle")[0].Style.Font.Color; got != fallbackText {
		t.Fatalf("subtitle = %v", got)
	}
}

func TestThemeColorsFlowIntoScene(t *testing.T) {
	s := testSlide()
	s.AccentColor = "#00E1C1"
	sc := Build(s)
	want := vector.MustColor("#00E1C1", vector.Black)
	for _, n := range sc.FindByClass("canvas-point-icon-box") {
		if n.Style.Fill.Color != want {
			t.Fatalf("icon box fill %v", n.Style.Fill.Color)
		}
	}
	glow := sc.FindByClass("canvas-center-glow")[0]
	if glow.Style.Fill.Kind != vector.PaintRadial || glow.Style.Fill.Stops[0].Color.A != 64 {
		t.Fatalf("glow = %+v", glow.Style.Fill)
	}
}
