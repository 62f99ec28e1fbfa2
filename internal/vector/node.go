/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "slices"

// Kind is the drawing primitive of a node.
type Kind uint8

const (
	KindGroup Kind = iota
	KindRect
	KindEllipse
	KindText
	KindImage
	KindIcon
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindRect:
		return "rect"
	case KindEllipse:
		return "ellipse"
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindIcon:
		return "icon"
	}
	return "unknown"
}

// Node is one element of the visual tree. Frames are absolute canvas
// coordinates; Transform is applied on top of the parent's transform.
type Node struct {
	Kind      Kind
	Tag       string   // element name matched by type selectors: div, h1, p, span, img, svg
	ID        string   // element id, e.g. "infographic-capture-area"
	Classes   []string // class names matched by style overrides
	Ref       string   // domain id (point id) for hit testing
	Frame     Rect
	Radius    float32 // corner radius of rects
	ClipOval  bool    // images: clip to the inscribed ellipse
	Contain   bool    // images: letterbox instead of cover
	Transform Affine2D
	Style     Style
	Text      string // text nodes
	Src       string // image URL or icon key
	Children  []*Node
}

// NewNode returns a node with identity transform and full opacity.
func NewNode(kind Kind, frame Rect, classes ...string) *Node {
	return &Node{Kind: kind, Frame: frame, Classes: classes, Transform: Identity, Style: Style{Opacity: 1}}
}

// Add appends children and returns n for chaining.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

func (n *Node) HasClass(c string) bool { return slices.Contains(n.Classes, c) }

// Outline returns the node's shape path in local (untransformed) coordinates.
func (n *Node) Outline() Path {
	if n.Kind == KindEllipse || (n.Kind == KindImage && n.ClipOval) {
		return EllipsePath(n.Frame)
	}
	return RectPath(n.Frame, n.Radius)
}

// Clone deep-copies the subtree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Classes = slices.Clone(n.Classes)
	c.Style.Fill.Stops = slices.Clone(n.Style.Fill.Stops)
	if n.Style.TextShadow != nil {
		s := *n.Style.TextShadow
		c.Style.TextShadow = &s
	}
	if n.Style.BoxShadow != nil {
		s := *n.Style.BoxShadow
		c.Style.BoxShadow = &s
	}
	if n.Style.Extra != nil {
		c.Style.Extra = make(map[string]string, len(n.Style.Extra))
		for k, v := range n.Style.Extra {
			c.Style.Extra[k] = v
		}
	}
	c.Children = make([]*Node, len(n.Children))
	for i, ch := range n.Children {
		c.Children[i] = ch.Clone()
	}
	return &c
}

// Scene is a complete visual tree of one slide.
type Scene struct {
	Width, Height float32
	Root          *Node
}

// Clone deep-copies the scene.
func (s *Scene) Clone() *Scene {
	return &Scene{Width: s.Width, Height: s.Height, Root: s.Root.Clone()}
}

// Walk visits nodes depth-first in paint order with their ancestors
// (root first). Returning false skips the node's children.
func (s *Scene) Walk(fn func(n *Node, ancestors []*Node) bool) {
	var visit func(n *Node, anc []*Node)
	visit = func(n *Node, anc []*Node) {
		if !fn(n, anc) {
			return
		}
		anc = append(anc, n)
		for _, c := range n.Children {
			visit(c, anc)
		}
	}
	if s.Root != nil {
		visit(s.Root, nil)
	}
}

// FindByClass returns all nodes carrying class c, in paint order.
func (s *Scene) FindByClass(c string) []*Node {
	var out []*Node
	s.Walk(func(n *Node, _ []*Node) bool {
		if n.HasClass(c) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// WorldTransform composes the transforms along a root-first ancestor chain.
func WorldTransform(anc []*Node, n *Node) Affine2D {
	m := Identity
	for _, a := range anc {
		m = m.Mul(a.Transform)
	}
	return m.Mul(n.Transform)
}

// HitTest returns the top-most visible node with class c whose transformed
// frame contains p, or nil.
func (s *Scene) HitTest(p Pt, c string) *Node {
	var hit *Node
	s.Walk(func(n *Node, anc []*Node) bool {
		if n.Style.Hidden {
			return false
		}
		if n.HasClass(c) {
			q := WorldTransform(anc, n).Invert().Apply(p)
			if n.Frame.Contains(q) {
				hit = n
			}
		}
		return true
	})
	return hit
}
