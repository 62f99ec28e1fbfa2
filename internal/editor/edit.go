/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor implements the edit operations of the side panel. Every
// operation takes a slide value and returns a new one; inputs are never
// mutated, so callers can hand the result straight to the session.
package editor

import (
	"infostudio/internal/domain"
	"infostudio/internal/theme"
	"infostudio/internal/vector"
)

// Tab is one of the mutually exclusive editor views.
type Tab int

const (
	TabContent Tab = iota
	TabStyle
	TabCSS
)

func (t Tab) String() string {
	switch t {
	case TabContent:
		return "content"
	case TabStyle:
		return "style"
	case TabCSS:
		return "css"
	}
	return "unknown"
}

// Tabs lists the views in display order.
func Tabs() []Tab { return []Tab{TabContent, TabStyle, TabCSS} }

func SetHeader(s domain.Slide, v string) domain.Slide {
	out := s.Clone()
	out.Header = v
	return out
}

func SetSubHeader(s domain.Slide, v string) domain.Slide {
	out := s.Clone()
	out.SubHeader = v
	return out
}

// AddPoint appends a placeholder point. At MaxPoints it is a no-op.
func AddPoint(s domain.Slide) domain.Slide {
	out := s.Clone()
	if len(out.Points) >= domain.MaxPoints {
		return out
	}
	out.Points = append(out.Points, domain.Point{
		ID:          domain.NewID(),
		Title:       domain.NewPointTitle,
		Description: domain.PlaceholderText,
		Icon:        domain.DefaultIcon,
		Angle:       float64((len(s.Points) * 45) % 360),
	})
	return out
}

// RemovePoint drops the point with id; the rest keep their order and angles.
func RemovePoint(s domain.Slide, id string) domain.Slide {
	out := s.Clone()
	kept := out.Points[:0]
	for _, p := range out.Points {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	out.Points = kept
	return out
}

// PointPatch names the fields of a point to change; nil fields are kept.
type PointPatch struct {
	Icon        *string
	Title       *string
	Description *string
	Angle       *float64
}

// UpdatePoint applies patch to the point with id. Siblings are untouched;
// an unknown id yields an unchanged copy.
func UpdatePoint(s domain.Slide, id string, patch PointPatch) domain.Slide {
	out := s.Clone()
	i := out.PointIndex(id)
	if i < 0 {
		return out
	}
	p := &out.Points[i]
	if patch.Icon != nil {
		p.Icon = theme.Resolve(*patch.Icon)
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Angle != nil {
		p.Angle = vector.NormalizeAngle(*patch.Angle)
	}
	return out
}

// Generated is content produced by the generation service, already mapped
// to points.
type Generated struct {
	Header    string
	SubHeader string
	Points    []domain.Point
}

// ApplyGenerated replaces header, subheader and points; styling, images and
// custom CSS stay as they are.
func ApplyGenerated(s domain.Slide, g Generated) domain.Slide {
	out := s.Clone()
	out.Header = g.Header
	out.SubHeader = g.SubHeader
	pts := g.Points
	if len(pts) > domain.MaxPoints {
		pts = pts[:domain.MaxPoints]
	}
	out.Points = append([]domain.Point(nil), pts...)
	return out
}
