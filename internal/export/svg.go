/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"infostudio/internal/textlayout"
	"infostudio/internal/theme"
	"infostudio/internal/vector"
)

// ExportSVG writes sc as a standalone SVG document. Text is wrapped with
// the metrics of fonts (nil selects the bundled fonts) and emitted as
// positioned tspans; images keep their source URLs.
func ExportSVG(w io.Writer, sc *vector.Scene, fonts *textlayout.FontLibrary) error {
	sw := &svgWriter{faces: textlayout.NewFaceCache(fonts)}
	defer sw.faces.Close()

	sw.wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	sw.wf("<svg xmlns=\"http://www.w3.org/2000/svg\" xmlns:xlink=\"http://www.w3.org/1999/xlink\" version=\"1.1\" width=\"%gpx\" height=\"%gpx\" viewBox=\"0 0 %g %g\">\n",
		sc.Width, sc.Height, sc.Width, sc.Height)
	if sc.Root != nil {
		sw.node(sc.Root, 1)
	}
	if sw.defs.Len() > 0 {
		sw.wf("  <defs>\n%s  </defs>\n", sw.defs.String())
	}
	sw.wf("</svg>\n")
	if sw.err != nil {
		return fmt.Errorf("build svg: %w", sw.err)
	}
	_, err := w.Write(sw.buf.Bytes())
	return err
}

type svgWriter struct {
	buf   bytes.Buffer
	defs  bytes.Buffer
	faces *textlayout.FaceCache
	ids   int
	err   error
}

func (sw *svgWriter) wf(format string, args ...any) {
	if sw.err != nil {
		return
	}
	_, sw.err = fmt.Fprintf(&sw.buf, format, args...)
}

func (sw *svgWriter) nextID(prefix string) string {
	sw.ids++
	return fmt.Sprintf("%s%d", prefix, sw.ids)
}

func (sw *svgWriter) node(n *vector.Node, depth int) {
	if n.Style.Hidden {
		return
	}
	ind := strings.Repeat("  ", depth)
	group := n.Kind == vector.KindGroup || len(n.Children) > 0 || !n.Transform.IsIdentity() || n.Style.Opacity < 1
	if group {
		sw.wf("%s<g%s%s%s%s>\n", ind, idAttr(n), classAttr(n), transformAttr(n.Transform), opacityAttr(n.Style.Opacity))
		depth++
		ind += "  "
	}
	attrs := ""
	if !group {
		attrs = idAttr(n) + classAttr(n)
	}
	sw.element(n, ind, attrs)
	for _, c := range n.Children {
		sw.node(c, depth)
	}
	if group {
		sw.wf("%s</g>\n", ind[:len(ind)-2])
	}
}

func (sw *svgWriter) element(n *vector.Node, ind, attrs string) {
	st := n.Style
	f := n.Frame
	filter := ""
	if st.BoxShadow != nil && n.Kind != vector.KindGroup {
		filter = sw.shadowFilter(st.BoxShadow)
	}
	switch n.Kind {
	case vector.KindRect:
		sw.wf("%s<rect%s x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\"%s%s%s%s/>\n", ind, attrs, f.X, f.Y, f.W, f.H,
			radiusAttr(n.Radius), sw.fillAttr(st.Fill, f), strokeAttr(st.Stroke), filter)
	case vector.KindEllipse:
		sw.wf("%s<ellipse%s cx=\"%g\" cy=\"%g\" rx=\"%g\" ry=\"%g\"%s%s%s/>\n", ind, attrs, f.X+f.W/2, f.Y+f.H/2, f.W/2, f.H/2,
			sw.fillAttr(st.Fill, f), strokeAttr(st.Stroke), filter)
	case vector.KindText:
		if st.Fill.Visible() || st.Stroke.Enabled {
			sw.wf("%s<rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\"%s%s%s%s/>\n", ind, f.X, f.Y, f.W, f.H,
				radiusAttr(n.Radius), sw.fillAttr(st.Fill, f), strokeAttr(st.Stroke), filter)
		}
		sw.text(n, ind, attrs)
	case vector.KindImage:
		sw.image(n, ind, attrs)
	case vector.KindIcon:
		c := st.Font.Color
		sw.wf("%s<svg%s x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" viewBox=\"0 0 24 24\" fill=\"none\" stroke=\"%s\"%s stroke-width=\"2\" stroke-linecap=\"round\" stroke-linejoin=\"round\">%s</svg>\n",
			ind, attrs, f.X, f.Y, f.W, f.H, hexRGB(c), alphaAttr("stroke-opacity", c), theme.Body(n.Src))
	}
}

func (sw *svgWriter) text(n *vector.Node, ind, attrs string) {
	if strings.TrimSpace(n.Text) == "" {
		return
	}
	ft := n.Style.Font
	size := ft.Size
	if size <= 0 {
		size = 14
	}
	face, err := sw.faces.Get(ft.Bold, float64(size))
	if err != nil {
		sw.err = err
		return
	}
	pad := float32(0)
	if n.Style.Fill.Visible() || n.Style.Stroke.Enabled {
		pad = min(8, n.Frame.W/8)
	}
	inner := n.Frame.W - 2*pad
	box := textlayout.Wrap(face, n.Text, inner, size, ft.LineHeight)
	top := n.Frame.Y + (n.Frame.H-box.Height)/2

	anchor, x := "middle", n.Frame.X+n.Frame.W/2
	switch ft.Align {
	case vector.AlignLeft:
		anchor, x = "start", n.Frame.X+pad
	case vector.AlignRight:
		anchor, x = "end", n.Frame.X+n.Frame.W-pad
	}
	weight := "normal"
	if ft.Bold {
		weight = "bold"
	}
	style := ""
	if n.Style.Block {
		style = " style=\"display:block\""
	}
	shadow := ""
	if n.Style.TextShadow != nil {
		shadow = sw.shadowFilter(n.Style.TextShadow)
	}
	sw.wf("%s<text%s font-family=\"Go, Helvetica, Arial, sans-serif\" font-size=\"%g\" font-weight=\"%s\" text-anchor=\"%s\" fill=\"%s\"%s%s%s>",
		ind, attrs, size, weight, anchor, hexRGB(ft.Color), alphaAttr("fill-opacity", ft.Color), shadow, style)
	for i, line := range box.Lines {
		sw.wf("<tspan x=\"%g\" y=\"%g\">%s</tspan>", x, vector.FloatRound(box.Baseline(top, i), 2), escText(line.Text))
	}
	sw.wf("</text>\n")
}

func (sw *svgWriter) image(n *vector.Node, ind, attrs string) {
	if n.Src == "" {
		return
	}
	f := n.Frame
	aspect := "xMidYMid slice"
	if n.Contain {
		aspect = "xMidYMid meet"
	}
	clip := ""
	if n.ClipOval {
		id := sw.nextID("clip")
		fmt.Fprintf(&sw.defs, "    <clipPath id=\"%s\"><ellipse cx=\"%g\" cy=\"%g\" rx=\"%g\" ry=\"%g\"/></clipPath>\n", id, f.X+f.W/2, f.Y+f.H/2, f.W/2, f.H/2)
		clip = fmt.Sprintf(" clip-path=\"url(#%s)\"", id)
	}
	sw.wf("%s<image%s x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" preserveAspectRatio=\"%s\" xlink:href=\"%s\"%s/>\n",
		ind, attrs, f.X, f.Y, f.W, f.H, aspect, escAttr(n.Src), clip)
	if n.Style.Stroke.Enabled {
		if n.ClipOval {
			sw.wf("%s<ellipse cx=\"%g\" cy=\"%g\" rx=\"%g\" ry=\"%g\" fill=\"none\"%s/>\n", ind, f.X+f.W/2, f.Y+f.H/2, f.W/2, f.H/2, strokeAttr(n.Style.Stroke))
		} else {
			sw.wf("%s<rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"none\"%s/>\n", ind, f.X, f.Y, f.W, f.H, strokeAttr(n.Style.Stroke))
		}
	}
}

// fillAttr returns the fill attributes of p, adding gradient definitions.
func (sw *svgWriter) fillAttr(p vector.Paint, box vector.Rect) string {
	switch p.Kind {
	case vector.PaintSolid:
		return fmt.Sprintf(" fill=\"%s\"%s", hexRGB(p.Color), alphaAttr("fill-opacity", p.Color))
	case vector.PaintLinear, vector.PaintRadial:
		id := sw.nextID("grad")
		var stops strings.Builder
		for _, s := range p.Stops {
			fmt.Fprintf(&stops, "<stop offset=\"%g\" stop-color=\"%s\" stop-opacity=\"%g\"/>", s.Offset, hexRGB(s.Color), vector.FloatRound(float32(s.Color.A)/255, 3))
		}
		if p.Kind == vector.PaintRadial {
			fmt.Fprintf(&sw.defs, "    <radialGradient id=\"%s\">%s</radialGradient>\n", id, stops.String())
		} else {
			x1, y1, x2, y2 := linearEnds(p.Angle, box)
			fmt.Fprintf(&sw.defs, "    <linearGradient id=\"%s\" gradientUnits=\"userSpaceOnUse\" x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\">%s</linearGradient>\n",
				id, x1, y1, x2, y2, stops.String())
		}
		return fmt.Sprintf(" fill=\"url(#%s)\"", id)
	}
	return " fill=\"none\""
}

// linearEnds maps a CSS gradient angle onto the endpoints of its
// gradient line across box.
func linearEnds(angle float32, box vector.Rect) (x1, y1, x2, y2 float32) {
	c := box.Center()
	m := vector.RotateAbout(vector.Pt{}, angle)
	dir := m.Apply(vector.Pt{X: 0, Y: -1})
	half := (abs32(box.W*dir.X) + abs32(box.H*dir.Y)) / 2
	return vector.FloatRound(c.X-dir.X*half, 2), vector.FloatRound(c.Y-dir.Y*half, 2),
		vector.FloatRound(c.X+dir.X*half, 2), vector.FloatRound(c.Y+dir.Y*half, 2)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func (sw *svgWriter) shadowFilter(sh *vector.Shadow) string {
	id := sw.nextID("shadow")
	fmt.Fprintf(&sw.defs, "    <filter id=\"%s\" x=\"-20%%\" y=\"-20%%\" width=\"140%%\" height=\"140%%\"><feDropShadow dx=\"%g\" dy=\"%g\" stdDeviation=\"%g\" flood-color=\"%s\" flood-opacity=\"%g\"/></filter>\n",
		id, sh.DX, sh.DY, sh.Blur/2, hexRGB(sh.Color), vector.FloatRound(float32(sh.Color.A)/255, 3))
	return fmt.Sprintf(" filter=\"url(#%s)\"", id)
}

func idAttr(n *vector.Node) string {
	if n.ID == "" {
		return ""
	}
	return fmt.Sprintf(" id=\"%s\"", escAttr(n.ID))
}

func classAttr(n *vector.Node) string {
	if len(n.Classes) == 0 {
		return ""
	}
	return fmt.Sprintf(" class=\"%s\"", escAttr(strings.Join(n.Classes, " ")))
}

func transformAttr(m vector.Affine2D) string {
	if m.IsIdentity() {
		return ""
	}
	r := func(v float32) float32 { return vector.FloatRound(v, 4) }
	return fmt.Sprintf(" transform=\"matrix(%g %g %g %g %g %g)\"", r(m.A), r(m.B), r(m.C), r(m.D), r(m.E), r(m.F))
}

func opacityAttr(o float32) string {
	if o >= 1 {
		return ""
	}
	return fmt.Sprintf(" opacity=\"%g\"", vector.FloatRound(o, 3))
}

func radiusAttr(r float32) string {
	if r <= 0 {
		return ""
	}
	return fmt.Sprintf(" rx=\"%g\" ry=\"%g\"", r, r)
}

func strokeAttr(s vector.Stroke) string {
	if !s.Enabled || s.Width <= 0 {
		return ""
	}
	return fmt.Sprintf(" stroke=\"%s\"%s stroke-width=\"%g\"", hexRGB(s.Color), alphaAttr("stroke-opacity", s.Color), s.Width)
}

func alphaAttr(name string, c vector.Color) string {
	if c.A == 255 {
		return ""
	}
	return fmt.Sprintf(" %s=\"%g\"", name, vector.FloatRound(float32(c.A)/255, 3))
}

func hexRGB(c vector.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func escAttr(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch ch {
		case '"':
			out = append(out, "&quot;"...)
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '\n':
			out = append(out, ' ')
		case '\r':
			// skip
		default:
			out = append(out, ch)
		}
	}
	return string(out)
}

func escText(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '&':
			out = append(out, "&amp;"...)
		case '<':
			out = append(out, "&lt;"...)
		case '>':
			out = append(out, "&gt;"...)
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
