/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package generate

import (
	"infostudio/internal/domain"
	"infostudio/internal/editor"
	"infostudio/internal/theme"
	"infostudio/internal/vector"
)

// ToPoints maps generated points onto slide points: every point gets a fresh
// id, angles are spread evenly in output order and unknown icons fall back
// to the default. Answers beyond MaxPoints are dropped.
func ToPoints(c *Content) []domain.Point {
	if c == nil {
		return nil
	}
	src := c.Points
	if len(src) > domain.MaxPoints {
		src = src[:domain.MaxPoints]
	}
	out := make([]domain.Point, len(src))
	for i, p := range src {
		out[i] = domain.Point{
			ID:          domain.NewID(),
			Title:       p.Title,
			Description: p.Description,
			Icon:        theme.Resolve(p.Icon),
			Angle:       vector.EvenAngle(i, len(src)),
		}
	}
	return out
}

// ToGenerated converts content into the editor's merge value.
func ToGenerated(c *Content) editor.Generated {
	return editor.Generated{Header: c.Header, SubHeader: c.SubHeader, Points: ToPoints(c)}
}
