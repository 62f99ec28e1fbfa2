/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Seed content for new projects and slides.
const (
	DefaultProjectTitle = "New infographic project"
	NewSlideHeader      = "New topic"
	NewSlideSubHeader   = "Subheader for the new slide"
	NewPointTitle       = "New point"
	PlaceholderText     = "Enter description here"
	DefaultCustomCSS    = "/* Add CSS here to customize the slide */\n.canvas-header-section {\n  text-shadow: 1px 1px 2px rgba(0,0,0,0.1);\n}"
)

// DefaultProject returns the project a fresh session starts with.
func DefaultProject() Project {
	return Project{
		Title: DefaultProjectTitle,
		Slides: []Slide{{
			ID:              "1",
			Header:          `"Made in China"`,
			SubHeader:       "The slogan driving Beijing into every home in the world",
			MainImageURL:    "https://picsum.photos/seed/china/800/800",
			AccentColor:     "#CC0000",
			SecondaryColor:  "#FFDE00",
			BackgroundColor: "#FFFFFF",
			TextColor:       "#1A1A1A",
			CustomCSS:       DefaultCustomCSS,
			Points: []Point{
				{ID: "p1", Title: "Satellites", Description: "$48.5 billion in output value in 2019", Icon: "satellite", Angle: 270},
				{ID: "p2", Title: "Cars", Description: "A global manufacturing hub. 26 million cars sold", Icon: "car", Angle: 330},
				{ID: "p3", Title: "Phones", Description: "Makes 70% of the world's smartphones", Icon: "phone", Angle: 30},
				{ID: "p4", Title: "Gold", Description: "Among the 10 countries with the largest reserves", Icon: "gold", Angle: 90},
				{ID: "p5", Title: "Technology", Description: "A world leader in advanced train manufacturing", Icon: "cpu", Angle: 150},
				{ID: "p6", Title: "Space", Description: "Global ambitions in outer space exploration", Icon: "rocket", Angle: 210},
			},
		}},
	}
}

// NewSlideFrom derives a fresh slide from base: styling, images and custom
// CSS are kept, content is reset to placeholders with two default points.
func NewSlideFrom(base Slide) Slide {
	s := base.Clone()
	s.ID = NewID()
	s.Header = NewSlideHeader
	s.SubHeader = NewSlideSubHeader
	s.Points = []Point{
		{ID: NewID(), Title: "Data 1", Description: PlaceholderText, Icon: DefaultIcon, Angle: 270},
		{ID: NewID(), Title: "Data 2", Description: PlaceholderText, Icon: "energy", Angle: 90},
	}
	return s
}
