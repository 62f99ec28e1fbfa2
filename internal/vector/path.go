/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "math"

// Path commands and shape builders shared by the rasterizer and SVG writer.

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	QuadTo  // quadratic bezier (cx, cy, x, y)
	CubicTo // cubic bezier (cx1, cy1, cx2, cy2, x, y)
	Close
)

type PathCmd struct {
	Op   PathOp
	Data [6]float32
}

type Path struct{ Cmds []PathCmd }

func (p *Path) MoveTo(x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, Data: [6]float32{x, y}})
}
func (p *Path) LineTo(x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, Data: [6]float32{x, y}})
}
func (p *Path) QuadTo(cx, cy, x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: QuadTo, Data: [6]float32{cx, cy, x, y}})
}
func (p *Path) CubicTo(cx1, cy1, cx2, cy2, x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: CubicTo, Data: [6]float32{cx1, cy1, cx2, cy2, x, y}})
}
func (p *Path) Close() { p.Cmds = append(p.Cmds, PathCmd{Op: Close}) }

// Transform returns a copy of p with every coordinate mapped through m.
func (p Path) Transform(m Affine2D) Path {
	out := Path{Cmds: make([]PathCmd, len(p.Cmds))}
	for i, c := range p.Cmds {
		out.Cmds[i].Op = c.Op
		n := 0
		switch c.Op {
		case MoveTo, LineTo:
			n = 1
		case QuadTo:
			n = 2
		case CubicTo:
			n = 3
		}
		for k := 0; k < n; k++ {
			q := m.Apply(Pt{c.Data[2*k], c.Data[2*k+1]})
			out.Cmds[i].Data[2*k], out.Cmds[i].Data[2*k+1] = q.X, q.Y
		}
	}
	return out
}

// Bounds returns the bounding box of all end and control points.
func (p *Path) Bounds() Rect {
	minX, minY := float32(+1e9), float32(+1e9)
	maxX, maxY := float32(-1e9), float32(-1e9)
	grow := func(x, y float32) {
		minX, minY = min(minX, x), min(minY, y)
		maxX, maxY = max(maxX, x), max(maxY, y)
	}
	for _, c := range p.Cmds {
		switch c.Op {
		case MoveTo, LineTo:
			grow(c.Data[0], c.Data[1])
		case QuadTo:
			grow(c.Data[0], c.Data[1])
			grow(c.Data[2], c.Data[3])
		case CubicTo:
			grow(c.Data[0], c.Data[1])
			grow(c.Data[2], c.Data[3])
			grow(c.Data[4], c.Data[5])
		}
	}
	if minX > maxX || minY > maxY {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// kappa is the cubic control distance for a quarter circle.
const kappa = 0.5522847498

// RectPath returns a closed rectangle, with rounded corners when radius > 0.
func RectPath(r Rect, radius float32) Path {
	var p Path
	rad := min(radius, min(r.W, r.H)/2)
	if rad <= 0 {
		p.MoveTo(r.X, r.Y)
		p.LineTo(r.X+r.W, r.Y)
		p.LineTo(r.X+r.W, r.Y+r.H)
		p.LineTo(r.X, r.Y+r.H)
		p.Close()
		return p
	}
	k := rad * kappa
	x0, y0, x1, y1 := r.X, r.Y, r.X+r.W, r.Y+r.H
	p.MoveTo(x0+rad, y0)
	p.LineTo(x1-rad, y0)
	p.CubicTo(x1-rad+k, y0, x1, y0+rad-k, x1, y0+rad)
	p.LineTo(x1, y1-rad)
	p.CubicTo(x1, y1-rad+k, x1-rad+k, y1, x1-rad, y1)
	p.LineTo(x0+rad, y1)
	p.CubicTo(x0+rad-k, y1, x0, y1-rad+k, x0, y1-rad)
	p.LineTo(x0, y0+rad)
	p.CubicTo(x0, y0+rad-k, x0+rad-k, y0, x0+rad, y0)
	p.Close()
	return p
}

// EllipsePath returns a closed ellipse inscribed in r.
func EllipsePath(r Rect) Path {
	var p Path
	cx, cy := r.X+r.W/2, r.Y+r.H/2
	rx, ry := r.W/2, r.H/2
	kx, ky := rx*kappa, ry*kappa
	p.MoveTo(cx+rx, cy)
	p.CubicTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	p.CubicTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	p.CubicTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	p.CubicTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	p.Close()
	return p
}

// StrokeOutline returns the ring between r and r inset by width: an outer
// shape and a reversed inner shape, for filling with the non-zero rule.
func StrokeOutline(r Rect, radius, width float32, ellipse bool) Path {
	inner := r.Inset(width, width)
	var outer, in Path
	if ellipse {
		outer, in = EllipsePath(r), EllipsePath(inner)
	} else {
		outer, in = RectPath(r, radius), RectPath(inner, max(0, radius-width))
	}
	outer.Cmds = append(outer.Cmds, reverse(in).Cmds...)
	return outer
}

// reverse flips the direction of a single closed subpath.
func reverse(p Path) Path {
	type seg struct {
		op  PathOp
		pts []Pt
	}
	var segs []seg
	var start, cur Pt
	for _, c := range p.Cmds {
		switch c.Op {
		case MoveTo:
			start = Pt{c.Data[0], c.Data[1]}
			cur = start
		case LineTo:
			segs = append(segs, seg{LineTo, []Pt{cur, {c.Data[0], c.Data[1]}}})
			cur = Pt{c.Data[0], c.Data[1]}
		case QuadTo:
			segs = append(segs, seg{QuadTo, []Pt{cur, {c.Data[0], c.Data[1]}, {c.Data[2], c.Data[3]}}})
			cur = Pt{c.Data[2], c.Data[3]}
		case CubicTo:
			segs = append(segs, seg{CubicTo, []Pt{cur, {c.Data[0], c.Data[1]}, {c.Data[2], c.Data[3]}, {c.Data[4], c.Data[5]}}})
			cur = Pt{c.Data[4], c.Data[5]}
		}
	}
	if cur != start {
		segs = append(segs, seg{LineTo, []Pt{cur, start}})
	}
	var out Path
	if len(segs) == 0 {
		return out
	}
	out.MoveTo(start.X, start.Y)
	for i := len(segs) - 1; i >= 0; i-- {
		s := segs[i]
		switch s.op {
		case LineTo:
			out.LineTo(s.pts[0].X, s.pts[0].Y)
		case QuadTo:
			out.QuadTo(s.pts[1].X, s.pts[1].Y, s.pts[0].X, s.pts[0].Y)
		case CubicTo:
			out.CubicTo(s.pts[2].X, s.pts[2].Y, s.pts[1].X, s.pts[1].Y, s.pts[0].X, s.pts[0].Y)
		}
	}
	out.Close()
	return out
}

// Distance is the Euclidean distance between two points.
func Distance(a, b Pt) float32 {
	dx, dy := float64(a.X-b.X), float64(a.Y-b.Y)
	return float32(math.Hypot(dx, dy))
}
