/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"image"
	"image/color"
	"math"

	"infostudio/internal/vector"
)

// gradientImage is an unbounded image sampling a gradient in destination
// pixel space. Colors come from a 256 entry lookup table.
type gradientImage struct {
	kind   vector.PaintKind
	box    vector.Rect
	dx, dy float32 // unit direction of a linear gradient
	length float32 // gradient line length of a linear gradient
	lut    [256]color.NRGBA
}

func newGradient(p vector.Paint, box vector.Rect, alpha float32) *gradientImage {
	g := &gradientImage{kind: p.Kind, box: box}
	for i := range g.lut {
		g.lut[i] = p.At(float32(i) / 255).Fade(alpha).NRGBA()
	}
	if p.Kind == vector.PaintLinear {
		// CSS angles: 0deg points up, 90deg points right.
		rad := float64(p.Angle) * math.Pi / 180
		g.dx, g.dy = float32(math.Sin(rad)), float32(-math.Cos(rad))
		g.length = float32(math.Abs(float64(box.W*g.dx)) + math.Abs(float64(box.H*g.dy)))
	}
	return g
}

func (g *gradientImage) ColorModel() color.Model { return color.NRGBAModel }

func (g *gradientImage) Bounds() image.Rectangle {
	return image.Rect(-1<<20, -1<<20, 1<<20, 1<<20)
}

func (g *gradientImage) At(x, y int) color.Color {
	c := g.box.Center()
	px, py := float32(x)+0.5-c.X, float32(y)+0.5-c.Y
	var t float32
	switch g.kind {
	case vector.PaintLinear:
		if g.length > 0 {
			t = (px*g.dx+py*g.dy)/g.length + 0.5
		}
	case vector.PaintRadial:
		rx, ry := g.box.W/2, g.box.H/2
		if rx > 0 && ry > 0 {
			t = float32(math.Hypot(float64(px/rx), float64(py/ry)))
		}
	}
	t = min(max(t, 0), 1)
	return g.lut[int(t*255+0.5)]
}

// paintSource returns the source image for filling a shape whose pixel
// bounds are box.
func paintSource(p vector.Paint, box vector.Rect, alpha float32) image.Image {
	switch p.Kind {
	case vector.PaintSolid:
		return image.NewUniform(p.Color.Fade(alpha).NRGBA())
	case vector.PaintLinear, vector.PaintRadial:
		return newGradient(p, box, alpha)
	}
	return nil
}
