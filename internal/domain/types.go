/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the document model of an infographic project. JSON tags
// keep the field names of the project file format.

import (
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// Canvas and layout constants shared by the editor, renderer and exporter.
const (
	CanvasWidth  = 640
	CanvasHeight = 800
	MaxPoints    = 8
	PointRadius  = 38.0 // percent of the main area
	DefaultIcon  = "globe"
)

// Project is the single document edited in a session.
type Project struct {
	Title  string  `json:"title"`
	Slides []Slide `json:"slides"`
}

// Slide is one infographic. Edits never patch a Slide in place; they build
// a new value and hand it back to the session.
type Slide struct {
	ID              string  `json:"id"`
	Header          string  `json:"header"`
	SubHeader       string  `json:"subHeader"`
	MainImageURL    string  `json:"mainImageUrl"`
	LogoURL         string  `json:"logoUrl,omitempty"`
	AccentColor     string  `json:"accentColor"`
	SecondaryColor  string  `json:"secondaryColor"`
	BackgroundColor string  `json:"backgroundColor"`
	TextColor       string  `json:"textColor"`
	CustomCSS       string  `json:"customCSS"`
	Points          []Point `json:"points"`
}

// Point is one radially placed callout. Angle is in degrees, [0, 360).
type Point struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Angle       float64 `json:"angle"`
}

// ColorTheme is an immutable preset of the four slide colors.
type ColorTheme struct {
	Name      string `json:"name"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Bg        string `json:"bg"`
	Text      string `json:"text"`
}

// NewID returns a fresh unique identifier for slides and points.
func NewID() string { return uuid.NewString() }

// Clone returns a deep copy; the points slice of the copy never aliases s.
func (s Slide) Clone() Slide {
	var out Slide
	if err := copier.CopyWithOption(&out, &s, copier.Option{DeepCopy: true}); err != nil {
		out = s
		out.Points = append([]Point(nil), s.Points...)
	}
	return out
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	out := Project{Title: p.Title, Slides: make([]Slide, len(p.Slides))}
	for i, s := range p.Slides {
		out.Slides[i] = s.Clone()
	}
	return out
}

// PointIndex returns the position of the point with id, or -1.
func (s Slide) PointIndex(id string) int {
	for i, p := range s.Points {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// SlideIndex returns the position of the slide with id, or -1.
func (p Project) SlideIndex(id string) int {
	for i, s := range p.Slides {
		if s.ID == id {
			return i
		}
	}
	return -1
}
