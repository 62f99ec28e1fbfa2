/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes slides to files: the staged single-slide PNG
// pipeline plus PDF, ZIP and SVG carousel formats and named presets.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"infostudio/internal/domain"
	"infostudio/internal/render"
	"infostudio/internal/textlayout"
	"infostudio/internal/vector"
)

// CaptureScale is the default output pixels per canvas pixel.
const CaptureScale = 2.5

// Renderer paints slides the way every exporter captures them.
type Renderer struct {
	Fonts  *textlayout.FontLibrary
	Raster *render.Rasterizer
}

// NewRenderer returns a renderer; nil arguments select the defaults.
func NewRenderer(fonts *textlayout.FontLibrary, images *render.ImageLoader) Renderer {
	if fonts == nil {
		fonts = textlayout.Default()
	}
	return Renderer{Fonts: fonts, Raster: render.NewRasterizer(fonts, images)}
}

func (r Renderer) raster() *render.Rasterizer {
	if r.Raster == nil {
		return render.NewRasterizer(r.Fonts, nil)
	}
	return r.Raster
}

// Scene builds the capture snapshot of s.
func (r Renderer) Scene(s domain.Slide) *vector.Scene {
	return Snapshot(render.BuildWith(s, r.Fonts))
}

// Capture rasterizes an already built scene over the slide background.
func (r Renderer) Capture(ctx context.Context, sc *vector.Scene, s domain.Slide, scale float32) (*image.RGBA, error) {
	if scale <= 0 {
		scale = CaptureScale
	}
	return r.raster().Draw(ctx, sc, render.Options{Scale: scale, Background: Background(s)})
}

// Render builds and captures s in one step.
func (r Renderer) Render(ctx context.Context, s domain.Slide, scale float32) (*image.RGBA, error) {
	return r.Capture(ctx, r.Scene(s), s, scale)
}

// RenderPNG renders s and encodes it.
func (r Renderer) RenderPNG(ctx context.Context, s domain.Slide, scale float32) ([]byte, error) {
	img, err := r.Render(ctx, s, scale)
	if err != nil {
		return nil, err
	}
	return EncodePNG(img)
}

// Background is the opaque color a capture is composed on.
func Background(s domain.Slide) vector.Color {
	return vector.MustColor(s.BackgroundColor, vector.White)
}

// Snapshot copies sc for capture. The copy drops the root's preview
// shadow and transform, and its h1, p and span text gets line-height 1.2
// and block display. sc itself is not modified.
func Snapshot(sc *vector.Scene) *vector.Scene {
	c := sc.Clone()
	c.Root.Style.BoxShadow = nil
	c.Root.Transform = vector.Identity
	c.Walk(func(n *vector.Node, _ []*vector.Node) bool {
		if n.Kind == vector.KindText {
			switch n.Tag {
			case "h1", "p", "span":
				n.Style.Font.LineHeight = 1.2
				n.Style.Block = true
			}
		}
		return true
	})
	return c
}

// EncodePNG encodes img losslessly.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
