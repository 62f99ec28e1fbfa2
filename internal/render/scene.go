/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render turns a slide into a scene tree and paints scenes into
// raster images. The same scene feeds the live preview, every exporter and
// the preview server, so what the user sees is what gets written.
package render

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"infostudio/internal/domain"
	applog "infostudio/internal/log"
	"infostudio/internal/textlayout"
	"infostudio/internal/theme"
	"infostudio/internal/vector"
)

// CaptureID is the element id of the scene root.
const CaptureID = "infographic-capture-area"

// Canvas regions, in canvas pixels.
const (
	accentBand = 8
	mainLeft   = 60
	mainTop    = 190
	mainWidth  = 520
	mainHeight = 500
	footerTop  = 700
	centerSize = 200
	glowScale  = 1.4
	wrapperW   = 150
	wrapperH   = 132
	iconBox    = 52
	iconTilt   = 3
	badgeH     = 24
	badgePad   = 8
	badgeFont  = 13
	washAlpha  = 0x15
)

var (
	fallbackBg        = vector.White
	fallbackAccent    = vector.Color{R: 0xCC, A: 255}
	fallbackSecondary = vector.Color{R: 0xFF, G: 0xDE, A: 255}
	fallbackText      = vector.Color{R: 0x1A, G: 0x1A, B: 0x1A, A: 255}
)

type palette struct {
	bg, accent, secondary, text vector.Color
}

func paletteOf(s domain.Slide) palette {
	return palette{
		bg:        vector.MustColor(s.BackgroundColor, fallbackBg),
		accent:    vector.MustColor(s.AccentColor, fallbackAccent),
		secondary: vector.MustColor(s.SecondaryColor, fallbackSecondary),
		text:      vector.MustColor(s.TextColor, fallbackText),
	}
}

// Build lays out the slide with the bundled fonts. See BuildWith.
func Build(s domain.Slide) *vector.Scene { return BuildWith(s, nil) }

// BuildWith lays out the slide and applies its custom CSS. The result only
// depends on the slide and the font metrics of lib (nil selects the
// bundled fonts); images are referenced by URL and never loaded here.
func BuildWith(s domain.Slide, lib *textlayout.FontLibrary) *vector.Scene {
	faces := textlayout.NewFaceCache(lib)
	defer faces.Close()
	sc := layout(s, faces)
	if strings.TrimSpace(s.CustomCSS) != "" {
		if err := ApplyCSS(sc, s.CustomCSS); err != nil {
			applog.WithComponent("render").Warn("custom css partially applied",
				slog.String("slide", s.ID), slog.String("err", err.Error()))
		}
	}
	return sc
}

func node(kind vector.Kind, frame vector.Rect, tag string, classes ...string) *vector.Node {
	n := vector.NewNode(kind, frame, classes...)
	n.Tag = tag
	return n
}

func textNode(frame vector.Rect, tag, text string, f vector.Font, classes ...string) *vector.Node {
	n := node(vector.KindText, frame, tag, classes...)
	n.Text = text
	n.Style.Font = f
	return n
}

func fill(n *vector.Node, c vector.Color) *vector.Node {
	n.Style.Fill = vector.Solid(c)
	return n
}

func withA(c vector.Color, a uint8) vector.Color {
	c.A = a
	return c
}

func layout(s domain.Slide, faces *textlayout.FaceCache) *vector.Scene {
	p := paletteOf(s)
	w, h := float32(domain.CanvasWidth), float32(domain.CanvasHeight)

	root := fill(node(vector.KindRect, vector.R(0, 0, w, h), "div", "canvas-container", "infographic-canvas"), p.bg)
	root.ID = CaptureID
	root.Style.Font.Color = p.text
	root.Style.BoxShadow = &vector.Shadow{DY: 12, Blur: 32, Color: vector.Color{A: 38}}

	root.Add(
		overlay(p, w, h),
		topAccents(p, w),
		header(s, p, w),
		mainArea(s, p, faces),
		footer(s, p, w, h),
	)
	return &vector.Scene{Width: w, Height: h, Root: root}
}

func overlay(p palette, w, h float32) *vector.Node {
	g := node(vector.KindGroup, vector.R(0, 0, w, h), "div", "canvas-bg-overlay")
	a := node(vector.KindRect, g.Frame, "div", "canvas-bg-wash")
	a.Style.Fill = vector.Linear(135,
		vector.GradientStop{Offset: 0, Color: withA(p.accent, washAlpha)},
		vector.GradientStop{Offset: 0.5, Color: withA(p.accent, 0)})
	b := node(vector.KindRect, g.Frame, "div", "canvas-bg-wash")
	b.Style.Fill = vector.Linear(315,
		vector.GradientStop{Offset: 0, Color: withA(p.secondary, washAlpha)},
		vector.GradientStop{Offset: 0.5, Color: withA(p.secondary, 0)})
	return g.Add(a, b)
}

func topAccents(p palette, w float32) *vector.Node {
	band := w * 2 / 3
	g := node(vector.KindGroup, vector.R(0, 0, w, accentBand), "div", "canvas-top-accents")
	return g.Add(
		fill(node(vector.KindRect, vector.R(0, 0, band, accentBand), "div", "accent-band"), p.accent),
		fill(node(vector.KindRect, vector.R(band, 0, w-band, accentBand), "div", "accent-band"), p.secondary),
	)
}

func header(s domain.Slide, p palette, w float32) *vector.Node {
	g := node(vector.KindGroup, vector.R(40, 40, w-80, 134), "div", "canvas-header-section")
	title := textNode(vector.R(40, 40, w-80, 62), "h1", s.Header,
		vector.Font{Size: 36, Bold: true, LineHeight: 1.2, Color: p.accent},
		"canvas-title", "header-text", "export-text-fix")
	sub := textNode(vector.R(70, 106, w-140, 52), "p", s.SubHeader,
		vector.Font{Size: 18, LineHeight: 1.2, Color: p.text},
		"canvas-subtitle", "export-text-fix")
	line := fill(node(vector.KindRect, vector.R(w/2-40, 166, 80, 4), "div", "canvas-subtitle-underline"), p.secondary)
	line.Radius = 2
	return g.Add(title, sub, line)
}

func mainArea(s domain.Slide, p palette, faces *textlayout.FaceCache) *vector.Node {
	area := vector.R(mainLeft, mainTop, mainWidth, mainHeight)
	g := node(vector.KindGroup, area, "div", "canvas-main-area")
	g.Add(centerVisual(s, p, area))
	for _, pt := range s.Points {
		g.Add(pointNode(pt, p, faces))
	}
	return g
}

func centerVisual(s domain.Slide, p palette, area vector.Rect) *vector.Node {
	c := area.Center()
	frame := vector.R(c.X-centerSize/2, c.Y-centerSize/2, centerSize, centerSize)
	g := node(vector.KindGroup, frame, "div", "canvas-center-visual")

	glow := node(vector.KindEllipse, frame.ScaleAbout(glowScale), "div", "canvas-center-glow")
	glow.Style.Fill = vector.Radial(
		vector.GradientStop{Offset: 0, Color: withA(p.accent, 64)},
		vector.GradientStop{Offset: 0.7, Color: withA(p.accent, 26)},
		vector.GradientStop{Offset: 1, Color: withA(p.accent, 0)},
	)

	img := node(vector.KindImage, frame, "img", "canvas-center-image")
	img.ClipOval = true
	img.Src = s.MainImageURL
	img.Style.Stroke = vector.Stroke{Color: p.bg, Width: 6, Enabled: true}
	return g.Add(glow, img)
}

// PointCenter returns where the point's wrapper is centered on the canvas.
func PointCenter(pt domain.Point) vector.Pt {
	px, py := vector.Position(pt.Angle, domain.PointRadius)
	return vector.Pt{
		X: mainLeft + mainWidth*float32(px)/100,
		Y: mainTop + mainHeight*float32(py)/100,
	}
}

func pointNode(pt domain.Point, p palette, faces *textlayout.FaceCache) *vector.Node {
	px, _ := vector.Position(pt.Angle, domain.PointRadius)
	c := PointCenter(pt)
	frame := vector.R(c.X-wrapperW/2, c.Y-wrapperH/2, wrapperW, wrapperH)

	side, tilt := "point-right", float32(iconTilt)
	if vector.IsLeft(px) {
		side, tilt = "point-left", -tilt
	}
	g := node(vector.KindGroup, frame, "div", "canvas-point-wrapper", side)
	g.Ref = pt.ID

	boxFrame := vector.R(c.X-iconBox/2, frame.Y, iconBox, iconBox)
	box := fill(node(vector.KindRect, boxFrame, "div", "canvas-point-icon-box"), p.accent)
	box.Radius = 14
	box.Style.Stroke = vector.Stroke{Color: p.secondary, Width: 3, Enabled: true}
	box.Transform = vector.RotateAbout(boxFrame.Center(), tilt)
	glyph := node(vector.KindIcon, boxFrame.Inset(13, 13), "svg", "canvas-point-icon")
	glyph.Src = theme.Resolve(pt.Icon)
	glyph.Style.Font.Color = p.accent.OnColor()
	box.Add(glyph)

	bw := min(float32(wrapperW), badgeWidth(faces, pt.Title)+2*badgePad)
	badge := fill(textNode(vector.R(c.X-bw/2, frame.Y+iconBox+10, bw, badgeH), "span", pt.Title,
		vector.Font{Size: badgeFont, Bold: true, LineHeight: 1.2, Color: p.accent},
		"canvas-point-title-badge", "export-text-fix"), p.bg)
	badge.Radius = 6
	badge.Style.Stroke = vector.Stroke{Color: p.accent, Width: 2, Enabled: true}

	desc := textNode(vector.R(frame.X, frame.Y+iconBox+40, wrapperW, wrapperH-iconBox-40), "p", pt.Description,
		vector.Font{Size: 11, LineHeight: 1.2, Color: p.text},
		"canvas-point-description", "export-text-fix")
	return g.Add(box, badge, desc)
}

func badgeWidth(faces *textlayout.FaceCache, title string) float32 {
	face, err := faces.Get(true, badgeFont)
	if err != nil {
		return float32(utf8.RuneCountInString(title)) * badgeFont * 0.6
	}
	return textlayout.Measure(face, title)
}

func footer(s domain.Slide, p palette, w, h float32) *vector.Node {
	g := node(vector.KindGroup, vector.R(0, footerTop, w, h-footerTop), "div", "canvas-footer")

	badge := func(x float32, label string, c vector.Color) *vector.Node {
		b := fill(textNode(vector.R(x, 726, 36, 36), "div", label,
			vector.Font{Size: 13, Bold: true, LineHeight: 1.2, Color: c.OnColor()},
			"social-badge"), c)
		b.Radius = 8
		return b
	}
	badges := node(vector.KindGroup, vector.R(40, 726, 80, 36), "div", "footer-badges-container")
	badges.Add(badge(40, "IN", p.accent), badge(84, "IG", p.secondary))

	logoFrame := vector.R(w-160, 718, 120, 52)
	var logo *vector.Node
	if s.LogoURL != "" {
		logo = node(vector.KindImage, logoFrame, "img", "canvas-logo")
		logo.Src = s.LogoURL
		logo.Contain = true
	} else {
		logo = node(vector.KindRect, logoFrame, "div", "empty-logo-box")
		logo.Radius = 8
		logo.Style.Stroke = vector.Stroke{Color: withA(p.text, 40), Width: 1, Enabled: true}
	}

	accents := node(vector.KindGroup, vector.R(0, h-accentBand, w, accentBand), "div", "canvas-footer-accents")
	accents.Add(
		fill(node(vector.KindRect, vector.R(0, h-accentBand, w/2, accentBand), "div", "accent-band"), p.accent),
		fill(node(vector.KindRect, vector.R(w/2, h-accentBand, w/4, accentBand), "div", "accent-band"), p.secondary),
		fill(node(vector.KindRect, vector.R(w*3/4, h-accentBand, w/4, accentBand), "div", "accent-band"), p.accent),
	)
	return g.Add(badges, node(vector.KindGroup, logoFrame, "div", "footer-logo-container").Add(logo), accents)
}
