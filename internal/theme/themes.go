/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package theme holds the read-only registries of color palettes and icon
// glyphs a slide can reference.
package theme

import (
	"strings"

	"infostudio/internal/domain"
)

var palettes = []domain.ColorTheme{
	{Name: "Chinese Red", Primary: "#CC0000", Secondary: "#FFDE00", Bg: "#FFFFFF", Text: "#1A1A1A"},
	{Name: "Investor Navy", Primary: "#0D1137", Secondary: "#00E1C1", Bg: "#FFFFFF", Text: "#334155"},
	{Name: "Innovation Cyan", Primary: "#00E1C1", Secondary: "#0D1137", Bg: "#F8FAFC", Text: "#1E293B"},
	{Name: "Analysis Fuchsia", Primary: "#FF006E", Secondary: "#3A86FF", Bg: "#FFFFFF", Text: "#2B2D42"},
	{Name: "Motion Orange", Primary: "#FB5607", Secondary: "#FFBE0B", Bg: "#FFFFFF", Text: "#14213D"},
	{Name: "Growth Lime", Primary: "#8AC926", Secondary: "#1982C4", Bg: "#FFFFFF", Text: "#2D3142"},
	{Name: "Depth Purple", Primary: "#7209B7", Secondary: "#4361EE", Bg: "#FDFCFE", Text: "#011627"},
	{Name: "Dark Mode", Primary: "#00E1C1", Secondary: "#FF006E", Bg: "#0D1137", Text: "#F8FAFC"},
}

// Themes returns the preset palettes in display order.
func Themes() []domain.ColorTheme {
	return append([]domain.ColorTheme(nil), palettes...)
}

// ByName looks a palette up by its case-insensitive name.
func ByName(name string) (domain.ColorTheme, bool) {
	for _, p := range palettes {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return domain.ColorTheme{}, false
}

// Active returns the first palette whose primary color matches the slide
// accent; the picker highlights it.
func Active(s domain.Slide) (domain.ColorTheme, bool) {
	for _, p := range palettes {
		if strings.EqualFold(p.Primary, strings.TrimSpace(s.AccentColor)) {
			return p, true
		}
	}
	return domain.ColorTheme{}, false
}
