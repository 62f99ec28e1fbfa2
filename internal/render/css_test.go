/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"math"
	"testing"

	"infostudio/internal/vector"
)

func TestApplyCSSOverrides(t *testing.T) {
	s := testSlide()
	s.CustomCSS = `
.canvas-title { color: #00ff00; font-size: 20px; line-height: 1.5 }
.canvas-footer .social-badge { display: none }
#infographic-capture-area { box-shadow: none; transform: none }
.canvas-point-description { letter-spacing: 2px; opacity: 0.5 }
.canvas-title:hover { color: red }
`
	sc := Build(s)
	title := sc.FindByClass("canvas-title")[0]
	if title.Style.Font.Color != (vector.Color{G: 255, A: 255}) || title.Style.Font.Size != 20 || title.Style.Font.LineHeight != 1.5 {
		t.Fatalf("title style = %+v", title.Style.Font)
	}
	for _, b := range sc.FindByClass("social-badge") {
		if !b.Style.Hidden {
			t.Fatalf("badge visible")
		}
	}
	if sc.Root.Style.BoxShadow != nil || !sc.Root.Transform.IsIdentity() {
		t.Fatalf("root shadow/transform not cleared")
	}
	d := sc.FindByClass("canvas-point-description")[0]
	if d.Style.Extra["letter-spacing"] != "2px" || d.Style.Opacity != 0.5 {
		t.Fatalf("description style = %+v", d.Style)
	}
}

func TestApplyCSSImportantAndOrder(t *testing.T) {
	sc := Build(testSlide())
	err := ApplyCSS(sc, `.canvas-title { color: blue !important } .canvas-title { color: red } .canvas-subtitle { color: red } .canvas-subtitle { color: #111 }`)
	if err != nil {
		t.Fatal(err)
	}
	if got := sc.FindByClass("canvas-title")[0].Style.Font.Color; got != (vector.Color{B: 255, A: 255}) {
		t.Fatalf("important lost: %v", got)
	}
	if got := sc.FindByClass("canvas-subtitle")[0].Style.Font.Color; got != (vector.Color{R: 0x11, G: 0x11, B: 0x11, A: 255}) {
		t.Fatalf("later rule lost: %v", got)
	}
}

func TestApplyCSSInheritsColorAndTextShadow(t *testing.T) {
	sc := Build(testSlide())
	if err := ApplyCSS(sc, `.canvas-header-section { color: #123456; text-shadow: 1px 2px 3px rgba(0, 0, 0, 0.5) }`); err != nil {
		t.Fatal(err)
	}
	sub := sc.FindByClass("canvas-subtitle")[0]
	if sub.Style.Font.Color.Hex() != "#123456" {
		t.Fatalf("color not inherited: %v", sub.Style.Font.Color)
	}
	sh := sub.Style.TextShadow
	if sh == nil || sh.DX != 1 || sh.DY != 2 || sh.Blur != 3 || sh.Color.A != 128 {
		t.Fatalf("shadow = %+v", sh)
	}
}

func TestApplyCSSKeepsGoodRulesOnError(t *testing.T) {
	sc := Build(testSlide())
	_ = ApplyCSS(sc, `.canvas-title { color: red } .broken {`)
	if got := sc.FindByClass("canvas-title")[0].Style.Font.Color; got != (vector.Color{R: 255, A: 255}) {
		t.Fatalf("good rule dropped: %v", got)
	}
}

func TestParseHelpers(t *testing.T) {
	if px, ok := parseLength("1.5em", 10); !ok || px != 15 {
		t.Fatalf("em = %v %v", px, ok)
	}
	if _, ok := parseLength("12vw", 10); ok {
		t.Fatalf("vw accepted")
	}
	if lh, ok := parseLineHeight("24px", 12); !ok || lh != 2 {
		t.Fatalf("line-height px = %v %v", lh, ok)
	}
	if sh, ok := parseShadow("none"); !ok || sh != nil {
		t.Fatalf("none = %v %v", sh, ok)
	}
	if _, ok := parseShadow("red"); ok {
		t.Fatalf("shadow without offsets accepted")
	}
	sel, ok := parseSelector("div.canvas-footer #x .a.b")
	if !ok || len(sel) != 3 || sel[0].tag != "div" || sel[1].id != "x" || len(sel[2].classes) != 2 {
		t.Fatalf("selector = %+v %v", sel, ok)
	}
	if got := splitTop("rgba(0, 0, 0, 1) 1px", ' '); len(got) != 2 {
		t.Fatalf("splitTop = %q", got)
	}
}

func TestApplyCSSBoundsLengths(t *testing.T) {
	plain := Build(testSlide()).FindByClass("canvas-point-description")[0].Style
	sc := Build(testSlide())
	err := ApplyCSS(sc, `
.canvas-title { font-size: 99999px; text-shadow: 1px 1px 5000px red }
.canvas-subtitle { font-size: 5000em; line-height: inf }
.canvas-point-description { opacity: NaN; font-size: NaNpx }
`)
	if err != nil {
		t.Fatal(err)
	}
	title := sc.FindByClass("canvas-title")[0].Style
	if title.Font.Size != MaxFontSize {
		t.Fatalf("title font size = %v", title.Font.Size)
	}
	if title.TextShadow == nil || title.TextShadow.Blur != MaxBlur {
		t.Fatalf("shadow = %+v", title.TextShadow)
	}
	sub := sc.FindByClass("canvas-subtitle")[0].Style
	if sub.Font.Size > MaxFontSize || math.IsInf(float64(sub.Font.LineHeight), 0) {
		t.Fatalf("subtitle font = %+v", sub.Font)
	}
	d := sc.FindByClass("canvas-point-description")[0].Style
	if math.IsNaN(float64(d.Opacity)) || d.Opacity != plain.Opacity || d.Font.Size != plain.Font.Size {
		t.Fatalf("non-finite values applied: opacity %v size %v", d.Opacity, d.Font.Size)
	}
}
