/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"fmt"
	"strings"

	"infostudio/internal/domain"
	"infostudio/internal/vector"
)

// ColorField selects one of the four slide colors.
type ColorField string

const (
	ColorAccent     ColorField = "accent"
	ColorSecondary  ColorField = "secondary"
	ColorBackground ColorField = "background"
	ColorText       ColorField = "text"
)

// ColorFields lists the raw color pickers in display order.
func ColorFields() []ColorField {
	return []ColorField{ColorAccent, ColorSecondary, ColorBackground, ColorText}
}

// ApplyTheme overwrites exactly the four color fields.
func ApplyTheme(s domain.Slide, t domain.ColorTheme) domain.Slide {
	out := s.Clone()
	out.AccentColor = t.Primary
	out.SecondaryColor = t.Secondary
	out.BackgroundColor = t.Bg
	out.TextColor = t.Text
	return out
}

// Color returns the current value of a color field.
func Color(s domain.Slide, f ColorField) string {
	switch f {
	case ColorAccent:
		return s.AccentColor
	case ColorSecondary:
		return s.SecondaryColor
	case ColorBackground:
		return s.BackgroundColor
	case ColorText:
		return s.TextColor
	}
	return ""
}

// SetColor stores a raw color value. Values the renderer cannot parse are
// rejected and the slide is returned unchanged alongside the error.
func SetColor(s domain.Slide, f ColorField, v string) (domain.Slide, error) {
	out := s.Clone()
	v = strings.TrimSpace(v)
	if _, err := vector.ParseColor(v); err != nil {
		return out, fmt.Errorf("set %s color: %w", f, err)
	}
	switch f {
	case ColorAccent:
		out.AccentColor = v
	case ColorSecondary:
		out.SecondaryColor = v
	case ColorBackground:
		out.BackgroundColor = v
	case ColorText:
		out.TextColor = v
	default:
		return out, fmt.Errorf("unknown color field %q", f)
	}
	return out, nil
}

// SetCustomCSS stores style override text verbatim.
func SetCustomCSS(s domain.Slide, css string) domain.Slide {
	out := s.Clone()
	out.CustomCSS = css
	return out
}

// ResetCSS restores the sample override block.
func ResetCSS(s domain.Slide) domain.Slide { return SetCustomCSS(s, domain.DefaultCustomCSS) }
