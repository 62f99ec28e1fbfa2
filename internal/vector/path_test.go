/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "testing"

func TestPathBounds(t *testing.T) {
	var p Path
	p.MoveTo(10, 10)
	p.LineTo(20, 5)
	p.CubicTo(40, 0, 50, 30, 30, 40)
	p.Close()
	b := p.Bounds()
	if b.X != 10 || b.Y != 0 || b.W != 40 || b.H != 40 {
		t.Fatalf("unexpected bounds: %+v", b)
	}
	var empty Path
	if empty.Bounds() != (Rect{}) {
		t.Fatalf("empty path should have zero bounds")
	}
}

func TestRectAndEllipsePathBounds(t *testing.T) {
	r := R(5, 5, 40, 20)
	for name, p := range map[string]Path{
		"rect":    RectPath(r, 0),
		"rounded": RectPath(r, 8),
		"ellipse": EllipsePath(r),
	} {
		if b := p.Bounds(); b != r {
			t.Errorf("%s bounds = %+v, want %+v", name, b, r)
		}
	}
}

func TestTransformAndReverse(t *testing.T) {
	p := RectPath(R(0, 0, 10, 10), 0).Transform(Translate(5, 5))
	if b := p.Bounds(); b != R(5, 5, 10, 10) {
		t.Fatalf("transformed bounds: %+v", b)
	}
	ring := StrokeOutline(R(0, 0, 10, 10), 0, 2, false)
	moves := 0
	for _, c := range ring.Cmds {
		if c.Op == MoveTo {
			moves++
		}
	}
	if moves != 2 {
		t.Fatalf("ring should have two subpaths, got %d", moves)
	}
}
