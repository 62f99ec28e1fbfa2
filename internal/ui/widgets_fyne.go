//go:build fyne

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"infostudio/internal/domain"
	"infostudio/internal/editor"
	"infostudio/internal/theme"
)

// SlidePreview shows the rasterized active slide, fitted into the
// available space at the canvas aspect ratio.
type SlidePreview struct {
	widget.BaseWidget
	img *canvas.Image
}

func NewSlidePreview() *SlidePreview {
	p := &SlidePreview{img: canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))}
	p.img.FillMode = canvas.ImageFillStretch
	p.img.ScaleMode = canvas.ImageScaleSmooth
	p.ExtendBaseWidget(p)
	return p
}

// SetImage swaps the displayed raster. Must run on the UI goroutine.
func (p *SlidePreview) SetImage(img image.Image) {
	p.img.Image = img
	p.img.Refresh()
}

func (p *SlidePreview) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 30, G: 30, B: 34, A: 255})
	frame := canvas.NewRectangle(color.Transparent)
	frame.StrokeColor = color.RGBA{R: 0, G: 0, B: 0, A: 60}
	frame.StrokeWidth = 1
	return &slidePreviewRenderer{p: p, bg: bg, frame: frame, objects: []fyne.CanvasObject{bg, p.img, frame}}
}

type slidePreviewRenderer struct {
	p       *SlidePreview
	bg      *canvas.Rectangle
	frame   *canvas.Rectangle
	objects []fyne.CanvasObject
}

const previewPad = 16

func (r *slidePreviewRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	x, y, w, h := Fit(size.Width-2*previewPad, size.Height-2*previewPad)
	pos := fyne.NewPos(previewPad+x, previewPad+y)
	r.p.img.Move(pos)
	r.p.img.Resize(fyne.NewSize(w, h))
	r.frame.Move(pos)
	r.frame.Resize(fyne.NewSize(w, h))
}

func (r *slidePreviewRenderer) MinSize() fyne.Size {
	return fyne.NewSize(domain.CanvasWidth/2+2*previewPad, domain.CanvasHeight/2+2*previewPad)
}

func (r *slidePreviewRenderer) Refresh()                     { canvas.Refresh(r.p.img) }
func (r *slidePreviewRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *slidePreviewRenderer) Destroy()                     {}

// PageDots is the pagination row under the preview; tapping a dot
// selects that slide.
type PageDots struct {
	widget.BaseWidget
	index, count int
	OnSelect     func(int)
}

func NewPageDots() *PageDots {
	d := &PageDots{}
	d.ExtendBaseWidget(d)
	return d
}

// Set updates the active index and the number of dots.
func (d *PageDots) Set(index, count int) {
	if d.index == index && d.count == count {
		return
	}
	d.index, d.count = index, count
	d.Refresh()
}

func (d *PageDots) Tapped(e *fyne.PointEvent) {
	i := dotAt(e.Position.X, d.Size().Width, d.count)
	if i >= 0 && d.OnSelect != nil {
		d.OnSelect(i)
	}
}

func (d *PageDots) CreateRenderer() fyne.WidgetRenderer {
	r := &pageDotsRenderer{d: d}
	r.rebuild()
	return r
}

type pageDotsRenderer struct {
	d     *PageDots
	dots  []*canvas.Circle
	state []bool
}

var (
	dotOn  = color.RGBA{R: 204, G: 0, B: 0, A: 255}
	dotOff = color.RGBA{R: 160, G: 160, B: 160, A: 160}
)

func (r *pageDotsRenderer) rebuild() {
	r.state = Dots(r.d.index, r.d.count)
	if len(r.dots) != len(r.state) {
		r.dots = make([]*canvas.Circle, len(r.state))
		for i := range r.dots {
			r.dots[i] = canvas.NewCircle(dotOff)
		}
	}
	for i, on := range r.state {
		if on {
			r.dots[i].FillColor = dotOn
		} else {
			r.dots[i].FillColor = dotOff
		}
	}
}

func (r *pageDotsRenderer) Layout(size fyne.Size) {
	n := float32(len(r.dots))
	total := n*dotSize + max(n-1, 0)*dotGap
	x := (size.Width - total) / 2
	y := (size.Height - dotSize) / 2
	for _, c := range r.dots {
		c.Move(fyne.NewPos(x, y))
		c.Resize(fyne.NewSize(dotSize, dotSize))
		x += dotSize + dotGap
	}
}

func (r *pageDotsRenderer) MinSize() fyne.Size {
	n := float32(len(r.dots))
	return fyne.NewSize(n*dotSize+max(n-1, 0)*dotGap, dotSize+2*dotGap)
}

func (r *pageDotsRenderer) Refresh() {
	r.rebuild()
	r.Layout(r.d.Size())
	for _, c := range r.dots {
		c.Refresh()
	}
}

func (r *pageDotsRenderer) Objects() []fyne.CanvasObject {
	out := make([]fyne.CanvasObject, len(r.dots))
	for i, c := range r.dots {
		out[i] = c
	}
	return out
}

func (r *pageDotsRenderer) Destroy() {}

// pointRow is the editor card of one point.
type pointRow struct {
	id    string
	icon  *widget.Select
	title *widget.Entry
	desc  *widget.Entry
	angle *widget.Slider
	deg   *widget.Label
	box   fyne.CanvasObject
}

func newPointRow(p domain.Point, n int, update func(id string, patch editor.PointPatch), remove func(id string)) *pointRow {
	r := &pointRow{id: p.ID}
	id := p.ID
	r.icon = widget.NewSelect(theme.IconKeys(), func(v string) {
		update(id, editor.PointPatch{Icon: &v})
	})
	r.title = widget.NewEntry()
	r.title.SetPlaceHolder("Title")
	r.title.OnChanged = func(v string) { update(id, editor.PointPatch{Title: &v}) }
	r.desc = widget.NewMultiLineEntry()
	r.desc.SetPlaceHolder(domain.PlaceholderText)
	r.desc.SetMinRowsVisible(2)
	r.desc.OnChanged = func(v string) { update(id, editor.PointPatch{Description: &v}) }
	r.angle = widget.NewSlider(0, 359)
	r.angle.Step = 1
	r.deg = widget.NewLabel("")
	r.angle.OnChanged = func(v float64) {
		r.deg.SetText(fmt.Sprintf("%.0f°", v))
		update(id, editor.PointPatch{Angle: &v})
	}
	del := widget.NewButton("Remove", func() { remove(id) })
	del.Importance = widget.DangerImportance

	head := container.NewBorder(nil, nil, widget.NewLabel(fmt.Sprintf("Point %d", n)), del, r.icon)
	angle := container.NewBorder(nil, nil, widget.NewLabel("Angle"), r.deg, r.angle)
	r.box = widget.NewCard("", "", container.NewVBox(head, r.title, r.desc, angle))
	r.set(p)
	return r
}

// set shows p without disturbing fields that already hold its values.
func (r *pointRow) set(p domain.Point) {
	if r.icon.Selected != p.Icon {
		r.icon.SetSelected(p.Icon)
	}
	setText(r.title, p.Title)
	setText(r.desc, p.Description)
	if r.angle.Value != p.Angle {
		r.angle.SetValue(p.Angle)
	}
	r.deg.SetText(fmt.Sprintf("%.0f°", p.Angle))
}

func setText(e *widget.Entry, v string) {
	if e.Text != v {
		e.SetText(v)
	}
}

func setEnabled(d fyne.Disableable, on bool) {
	if on {
		d.Enable()
	} else {
		d.Disable()
	}
}
