/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/transform"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	xvector "golang.org/x/image/vector"

	applog "infostudio/internal/log"
	"infostudio/internal/textlayout"
	"infostudio/internal/theme"
	"infostudio/internal/vector"
)

// Options controls one paint pass.
type Options struct {
	Scale      float32      // output pixels per canvas pixel; <= 0 means 1
	Background vector.Color // painted under the scene when not transparent
	Margin     float32      // canvas pixels of free space around the scene
}

// Rasterizer paints scenes into RGBA images.
type Rasterizer struct {
	Fonts  *textlayout.FontLibrary
	Images *ImageLoader
}

// NewRasterizer returns a rasterizer; nil arguments select the bundled
// fonts and a loader with a ten second timeout.
func NewRasterizer(fonts *textlayout.FontLibrary, images *ImageLoader) *Rasterizer {
	if fonts == nil {
		fonts = textlayout.Default()
	}
	if images == nil {
		images = NewImageLoader(0)
	}
	return &Rasterizer{Fonts: fonts, Images: images}
}

// PixelSize returns the output size for a scene at opt.
func PixelSize(sc *vector.Scene, opt Options) (int, int) {
	s := opt.scale()
	w := int(math.Ceil(float64((sc.Width + 2*opt.Margin) * s)))
	h := int(math.Ceil(float64((sc.Height + 2*opt.Margin) * s)))
	return w, h
}

func (o Options) scale() float32 {
	if o.Scale <= 0 {
		return 1
	}
	return o.Scale
}

// Draw paints sc. Images that fail to load are drawn as placeholders and
// logged; only a cancelled context or unusable fonts fail the pass.
func (r *Rasterizer) Draw(ctx context.Context, sc *vector.Scene, opt Options) (*image.RGBA, error) {
	if sc == nil || sc.Root == nil {
		return nil, fmt.Errorf("render: empty scene")
	}
	w, h := PixelSize(sc, opt)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if opt.Background.A > 0 {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(opt.Background.NRGBA()), image.Point{}, draw.Src)
	}
	s := opt.scale()
	fonts := r.Fonts
	if fonts == nil {
		fonts = textlayout.Default()
	}
	images := r.Images
	if images == nil {
		images = NewImageLoader(0)
	}
	p := &pass{
		ctx:    ctx,
		dst:    dst,
		images: images,
		faces:  textlayout.NewFaceCache(fonts),
		log:    applog.WithComponent("render"),
	}
	defer p.faces.Close()
	base := vector.Translate(opt.Margin*s, opt.Margin*s).Mul(vector.Scale(s, s))
	p.node(sc.Root, base, 1)
	if p.err != nil {
		return nil, p.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return dst, nil
}

type pass struct {
	ctx    context.Context
	dst    *image.RGBA
	images *ImageLoader
	faces  *textlayout.FaceCache
	log    *slog.Logger
	z      xvector.Rasterizer
	err    error
}

func (p *pass) node(n *vector.Node, parent vector.Affine2D, alpha float32) {
	if p.err != nil || n.Style.Hidden {
		return
	}
	if err := p.ctx.Err(); err != nil {
		p.err = err
		return
	}
	m := parent.Mul(n.Transform)
	alpha *= n.Style.Opacity
	if alpha <= 0 {
		return
	}
	if n.Kind != vector.KindGroup && n.Style.BoxShadow != nil {
		p.boxShadow(n, m, alpha)
	}
	switch n.Kind {
	case vector.KindRect, vector.KindEllipse:
		p.fillShape(n, m, alpha)
		p.stroke(n, m, alpha)
	case vector.KindText:
		p.fillShape(n, m, alpha)
		p.stroke(n, m, alpha)
		p.text(p.dst, n, m, alpha, nil)
	case vector.KindImage:
		p.image(n, m, alpha)
		p.stroke(n, m, alpha)
	case vector.KindIcon:
		p.icon(n, m, alpha)
	}
	for _, c := range n.Children {
		p.node(c, m, alpha)
	}
}

func pixelRect(b vector.Rect) image.Rectangle {
	return image.Rect(
		int(math.Floor(float64(b.X))), int(math.Floor(float64(b.Y))),
		int(math.Ceil(float64(b.X+b.W))), int(math.Ceil(float64(b.Y+b.H))),
	)
}

// linearScale is the uniform scale factor of m.
func linearScale(m vector.Affine2D) float32 {
	return float32(math.Sqrt(math.Abs(float64(m.A*m.D - m.B*m.C))))
}

// fillPath fills a pixel-space path on dst. origin is where src's (0,0)
// sits in dst.
func (p *pass) fillPath(dst *image.RGBA, path vector.Path, src image.Image, origin image.Point) {
	if src == nil || len(path.Cmds) == 0 {
		return
	}
	r := pixelRect(path.Bounds()).Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	p.z.Reset(r.Dx(), r.Dy())
	ox, oy := float32(r.Min.X), float32(r.Min.Y)
	for _, c := range path.Cmds {
		d := c.Data
		switch c.Op {
		case vector.MoveTo:
			p.z.MoveTo(d[0]-ox, d[1]-oy)
		case vector.LineTo:
			p.z.LineTo(d[0]-ox, d[1]-oy)
		case vector.QuadTo:
			p.z.QuadTo(d[0]-ox, d[1]-oy, d[2]-ox, d[3]-oy)
		case vector.CubicTo:
			p.z.CubeTo(d[0]-ox, d[1]-oy, d[2]-ox, d[3]-oy, d[4]-ox, d[5]-oy)
		case vector.Close:
			p.z.ClosePath()
		}
	}
	p.z.Draw(dst, r, src, r.Min.Sub(origin))
}

func (p *pass) fillShape(n *vector.Node, m vector.Affine2D, alpha float32) {
	if !n.Style.Fill.Visible() {
		return
	}
	path := n.Outline().Transform(m)
	p.fillPath(p.dst, path, paintSource(n.Style.Fill, path.Bounds(), alpha), image.Point{})
}

func (p *pass) stroke(n *vector.Node, m vector.Affine2D, alpha float32) {
	st := n.Style.Stroke
	if !st.Enabled || st.Width <= 0 || st.Color.A == 0 {
		return
	}
	ellipse := n.Kind == vector.KindEllipse || (n.Kind == vector.KindImage && n.ClipOval)
	ring := vector.StrokeOutline(n.Frame, n.Radius, st.Width, ellipse).Transform(m)
	p.fillPath(p.dst, ring, image.NewUniform(st.Color.Fade(alpha).NRGBA()), image.Point{})
}

// layer paints into a transparent layer covering r, blurs it by blurPx and
// composites it over dst. Blurring runs on a downscaled copy.
func (p *pass) layer(r image.Rectangle, blurPx float32, paint func(l *image.RGBA)) {
	pad := int(math.Ceil(float64(blurPx) * 2))
	r = r.Inset(-pad).Intersect(p.dst.Bounds())
	if r.Empty() {
		return
	}
	l := image.NewRGBA(r)
	paint(l)
	if blurPx <= 0.5 {
		draw.Draw(p.dst, r, l, r.Min, draw.Over)
		return
	}
	f := max(1, blurPx/3)
	sw, sh := max(1, int(float32(r.Dx())/f)), max(1, int(float32(r.Dy())/f))
	small := image.NewRGBA(image.Rect(0, 0, sw, sh))
	draw.ApproxBiLinear.Scale(small, small.Bounds(), l, r, draw.Src, nil)
	soft := blur.Gaussian(small, float64(blurPx/f))
	draw.ApproxBiLinear.Scale(p.dst, r, soft, soft.Bounds(), draw.Over, nil)
}

func (p *pass) boxShadow(n *vector.Node, m vector.Affine2D, alpha float32) {
	sh := n.Style.BoxShadow
	if sh.Color.A == 0 {
		return
	}
	k := linearScale(m)
	off := vector.Translate(sh.DX*k, sh.DY*k).Mul(m)
	path := n.Outline().Transform(off)
	src := image.NewUniform(sh.Color.Fade(alpha).NRGBA())
	p.layer(pixelRect(path.Bounds()), sh.Blur*k, func(l *image.RGBA) {
		p.fillPath(l, path, src, image.Point{})
	})
}

// textPadding is the horizontal inset of text inside a painted box.
func textPadding(n *vector.Node) float32 {
	if !n.Style.Fill.Visible() && !n.Style.Stroke.Enabled {
		return 0
	}
	return min(badgePad, n.Frame.W/8)
}

// text draws the node's lines centered vertically in its frame. A non-nil
// override replaces the text color, for shadows.
func (p *pass) text(dst *image.RGBA, n *vector.Node, m vector.Affine2D, alpha float32, override *vector.Shadow) {
	if strings.TrimSpace(n.Text) == "" {
		return
	}
	f := n.Style.Font
	col := f.Color
	if override != nil {
		col = override.Color
	} else if n.Style.TextShadow != nil && n.Style.TextShadow.Color.A > 0 {
		p.textShadow(n, m, alpha)
	}
	if col.A == 0 {
		return
	}
	size := min(f.Size, MaxFontSize)
	if size <= 0 {
		size = 14
	}
	k := linearScale(m)
	face, err := p.faces.Get(f.Bold, float64(size*k))
	if err != nil {
		p.err = fmt.Errorf("render: font: %w", err)
		return
	}
	pad := textPadding(n)
	box := textlayout.Wrap(face, n.Text, (n.Frame.W-2*pad)*k, size*k, f.LineHeight)
	origin := m.Apply(n.Frame.Min())
	if override != nil {
		origin.X += override.DX * k
		origin.Y += override.DY * k
	}
	top := origin.Y + (n.Frame.H*k-box.Height)/2
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col.Fade(alpha).NRGBA()), Face: face}
	for i, line := range box.Lines {
		if err := p.ctx.Err(); err != nil {
			p.err = err
			return
		}
		x := origin.X + pad*k + textlayout.OffsetX(f.Align, line.Width, (n.Frame.W-2*pad)*k)
		y := box.Baseline(top, i)
		d.Dot = fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
		d.DrawString(line.Text)
	}
}

func (p *pass) textShadow(n *vector.Node, m vector.Affine2D, alpha float32) {
	sh := n.Style.TextShadow
	k := linearScale(m)
	outline := n.Outline().Transform(vector.Translate(sh.DX*k, sh.DY*k).Mul(m))
	p.layer(pixelRect(outline.Bounds()), sh.Blur*k, func(l *image.RGBA) {
		p.text(l, n, m, alpha, sh)
	})
}

// pixelFrame returns the bounds of the node's frame in pixel space.
func pixelFrame(n *vector.Node, m vector.Affine2D) vector.Rect {
	path := vector.RectPath(n.Frame, 0).Transform(m)
	return path.Bounds()
}

var placeholderColor = vector.Color{R: 0xE5, G: 0xE7, B: 0xEB, A: 255}

func (p *pass) image(n *vector.Node, m vector.Affine2D, alpha float32) {
	img, err := p.images.Load(p.ctx, n.Src)
	if err != nil {
		if n.Src != "" {
			p.log.Debug("image unavailable", slog.String("class", strings.Join(n.Classes, " ")), slog.String("err", err.Error()))
		}
		if !n.Contain {
			path := n.Outline().Transform(m)
			p.fillPath(p.dst, path, image.NewUniform(placeholderColor.Fade(alpha).NRGBA()), image.Point{})
		}
		return
	}
	box := pixelRect(pixelFrame(n, m))
	if box.Empty() {
		return
	}
	if n.Contain {
		p.containImage(img, box, alpha)
		return
	}
	cover := coverImage(img, box.Dx(), box.Dy())
	if alpha < 1 {
		fade(cover, alpha)
	}
	p.fillPath(p.dst, n.Outline().Transform(m), cover, box.Min)
}

// coverImage scales img to fill w x h, cropping the overflow evenly.
func coverImage(img image.Image, w, h int) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}
	s := math.Max(float64(w)/float64(b.Dx()), float64(h)/float64(b.Dy()))
	rw := max(w, int(math.Ceil(float64(b.Dx())*s)))
	rh := max(h, int(math.Ceil(float64(b.Dy())*s)))
	scaled := transform.Resize(img, rw, rh, transform.Linear)
	x0, y0 := (rw-w)/2, (rh-h)/2
	return transform.Crop(scaled, image.Rect(x0, y0, x0+w, y0+h))
}

func (p *pass) containImage(img image.Image, box image.Rectangle, alpha float32) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	s := math.Min(float64(box.Dx())/float64(b.Dx()), float64(box.Dy())/float64(b.Dy()))
	w, h := int(float64(b.Dx())*s+0.5), int(float64(b.Dy())*s+0.5)
	x0 := box.Min.X + (box.Dx()-w)/2
	y0 := box.Min.Y + (box.Dy()-h)/2
	var opts *draw.Options
	if alpha < 1 {
		opts = &draw.Options{SrcMask: image.NewUniform(color.Alpha{A: uint8(alpha*255 + 0.5)})}
	}
	draw.CatmullRom.Scale(p.dst, image.Rect(x0, y0, x0+w, y0+h), img, b, draw.Over, opts)
}

func fade(img *image.RGBA, alpha float32) {
	f := uint32(alpha*255 + 0.5)
	for i := range img.Pix {
		img.Pix[i] = uint8(uint32(img.Pix[i]) * f / 255)
	}
}

func (p *pass) icon(n *vector.Node, m vector.Affine2D, alpha float32) {
	col := n.Style.Font.Color.Fade(alpha)
	if col.A == 0 {
		return
	}
	k := linearScale(m)
	px := int(math.Ceil(float64(n.Frame.W * k)))
	if px <= 0 {
		return
	}
	glyph, err := theme.Raster(n.Src, col, px)
	if err != nil {
		p.log.Debug("icon unavailable", slog.String("icon", n.Src), slog.String("err", err.Error()))
		return
	}
	u := n.Frame.W / float32(px)
	v := n.Frame.H / float32(px)
	s2d := m.Mul(vector.Translate(n.Frame.X, n.Frame.Y)).Mul(vector.Scale(u, v))
	aff := f64.Aff3{
		float64(s2d.A), float64(s2d.C), float64(s2d.E),
		float64(s2d.B), float64(s2d.D), float64(s2d.F),
	}
	draw.BiLinear.Transform(p.dst, aff, glyph, glyph.Bounds(), draw.Over, nil)
}
