/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// Color is a non-premultiplied RGBA color.
type Color struct{ R, G, B, A uint8 }

var (
	Black       = Color{0, 0, 0, 255}
	White       = Color{255, 255, 255, 255}
	Transparent = Color{0, 0, 0, 0}
)

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) { return color.NRGBA(c).RGBA() }

// NRGBA converts to the stdlib color type.
func (c Color) NRGBA() color.NRGBA { return color.NRGBA(c) }

// WithAlpha returns c with alpha replaced by a in [0,1].
func (c Color) WithAlpha(a float32) Color {
	c.A = uint8(clamp01(a)*255 + 0.5)
	return c
}

// Fade multiplies the alpha channel by f in [0,1].
func (c Color) Fade(f float32) Color {
	c.A = uint8(float32(c.A)*clamp01(f) + 0.5)
	return c
}

// Hex renders #RRGGBB, or #RRGGBBAA when not opaque.
func (c Color) Hex() string {
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// Mix blends towards o by t in RGB space; alpha is interpolated linearly.
func (c Color) Mix(o Color, t float32) Color {
	a := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	b := colorful.Color{R: float64(o.R) / 255, G: float64(o.G) / 255, B: float64(o.B) / 255}
	r, g, bl := a.BlendRgb(b, float64(clamp01(t))).Clamped().RGB255()
	alpha := float32(c.A) + (float32(o.A)-float32(c.A))*clamp01(t)
	return Color{r, g, bl, uint8(alpha + 0.5)}
}

// IsDark reports whether light text reads better on c.
func (c Color) IsDark() bool {
	l, _, _ := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Lab()
	return l < 0.62
}

// OnColor picks black or white text for a background.
func (c Color) OnColor() Color {
	if c.IsDark() {
		return White
	}
	return Black
}

// ParseColor understands the CSS forms used by slides and style overrides:
// #rgb, #rgba, #rrggbb, #rrggbbaa, rgb(), rgba(), "transparent" and the
// CSS named colors.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "":
		return Color{}, fmt.Errorf("empty color")
	case s == "transparent":
		return Transparent, nil
	case strings.HasPrefix(s, "#"):
		return parseHex(s)
	case strings.HasPrefix(s, "rgb"):
		return parseFunc(s)
	}
	if c, ok := colornames.Map[s]; ok {
		return Color{c.R, c.G, c.B, c.A}, nil
	}
	return Color{}, fmt.Errorf("unknown color %q", s)
}

// MustColor parses s and falls back to def on error.
func MustColor(s string, def Color) Color {
	c, err := ParseColor(s)
	if err != nil {
		return def
	}
	return c
}

func parseHex(s string) (Color, error) {
	body := s[1:]
	alpha := uint8(255)
	switch len(body) {
	case 4:
		a, err := strconv.ParseUint(strings.Repeat(body[3:], 2), 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("bad color %q", s)
		}
		alpha = uint8(a)
		body = body[:3]
	case 8:
		a, err := strconv.ParseUint(body[6:], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("bad color %q", s)
		}
		alpha = uint8(a)
		body = body[:6]
	}
	c, err := colorful.Hex("#" + body)
	if err != nil {
		return Color{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return Color{r, g, b, alpha}, nil
}

func parseFunc(s string) (Color, error) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return Color{}, fmt.Errorf("bad color %q", s)
	}
	parts := strings.FieldsFunc(s[open+1:end], func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
	if len(parts) != 3 && len(parts) != 4 {
		return Color{}, fmt.Errorf("bad color %q", s)
	}
	var ch [4]uint8
	ch[3] = 255
	for i, p := range parts {
		pct := strings.HasSuffix(p, "%")
		f, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
		if err != nil {
			return Color{}, fmt.Errorf("bad color %q", s)
		}
		switch {
		case i == 3 && pct:
			f = f / 100 * 255
		case i == 3:
			f *= 255
		case pct:
			f = f / 100 * 255
		}
		if f < 0 {
			f = 0
		}
		if f > 255 {
			f = 255
		}
		ch[i] = uint8(f + 0.5)
	}
	return Color{ch[0], ch[1], ch[2], ch[3]}, nil
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// PaintKind selects how a shape is filled.
type PaintKind uint8

const (
	PaintNone PaintKind = iota
	PaintSolid
	PaintLinear
	PaintRadial
)

// GradientStop is one color stop; Offset is in [0,1].
type GradientStop struct {
	Offset float32
	Color  Color
}

// Paint is a solid color or a CSS-like gradient. Linear gradients use CSS
// angle semantics (0deg points up, 90deg points right). Radial gradients
// are centered in the shape frame and reach its edge at offset 1.
type Paint struct {
	Kind  PaintKind
	Color Color
	Angle float32
	Stops []GradientStop
}

func Solid(c Color) Paint { return Paint{Kind: PaintSolid, Color: c} }

func Linear(angle float32, stops ...GradientStop) Paint {
	return Paint{Kind: PaintLinear, Angle: angle, Stops: stops}
}

func Radial(stops ...GradientStop) Paint { return Paint{Kind: PaintRadial, Stops: stops} }

// Visible reports whether the paint draws anything.
func (p Paint) Visible() bool {
	switch p.Kind {
	case PaintSolid:
		return p.Color.A > 0
	case PaintLinear, PaintRadial:
		return len(p.Stops) > 0
	}
	return false
}

// At samples a gradient at t in [0,1]; stops must be sorted by offset.
func (p Paint) At(t float32) Color {
	if p.Kind == PaintSolid || len(p.Stops) == 0 {
		return p.Color
	}
	if t <= p.Stops[0].Offset {
		return p.Stops[0].Color
	}
	for i := 1; i < len(p.Stops); i++ {
		a, b := p.Stops[i-1], p.Stops[i]
		if t <= b.Offset {
			span := b.Offset - a.Offset
			if span <= 0 {
				return b.Color
			}
			return a.Color.Mix(b.Color, (t-a.Offset)/span)
		}
	}
	return p.Stops[len(p.Stops)-1].Color
}

type Stroke struct {
	Color   Color
	Width   float32
	Enabled bool
}

// Align is horizontal text alignment.
type Align uint8

const (
	AlignCenter Align = iota
	AlignLeft
	AlignRight
)

// Font describes text styling of a text node.
type Font struct {
	Size       float32
	Bold       bool
	LineHeight float32 // multiple of Size
	Align      Align
	Color      Color
}

// Shadow is a single offset shadow.
type Shadow struct {
	DX, DY, Blur float32
	Color        Color
}

// Style carries the computed visual properties of a node. CSS overrides
// write into it; Extra keeps declarations no backend understands.
type Style struct {
	Fill       Paint
	Stroke     Stroke
	Font       Font
	Opacity    float32
	Hidden     bool
	Block      bool // display:block on text nodes
	TextShadow *Shadow
	BoxShadow  *Shadow
	Extra      map[string]string
}
