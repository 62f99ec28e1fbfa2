/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package theme

import (
	"slices"
	"strings"

	"infostudio/internal/domain"
)

// Icon glyphs are 24x24 stroke drawings. The literal COLOR is replaced
// with the requested stroke color before rasterizing.
var glyphs = map[string]string{
	"train": `<rect x="4" y="3" width="16" height="14" rx="2"/><path d="M4 11h16"/>` +
		`<circle cx="8" cy="14" r="1"/><circle cx="16" cy="14" r="1"/><path d="M8 17l-2 4M16 17l2 4"/>`,
	"satellite": `<circle cx="12" cy="12" r="3"/><rect x="2" y="9" width="5" height="6"/>` +
		`<rect x="17" y="9" width="5" height="6"/><path d="M7 12h2M15 12h2M12 9V5M10 4h4"/>`,
	"car": `<path d="M5 17h14v-5l-2-5H7l-2 5z"/><path d="M5 12h14"/>` +
		`<circle cx="8" cy="17" r="2"/><circle cx="16" cy="17" r="2"/>`,
	"phone": `<rect x="7" y="2" width="10" height="20" rx="2"/><path d="M11 18h2"/>`,
	"gold":  `<circle cx="9" cy="9" r="6"/><circle cx="15" cy="15" r="6"/><path d="M8 7h1v4"/>`,
	"globe": `<circle cx="12" cy="12" r="10"/><path d="M2 12h20"/>` +
		`<path d="M12 2c2.5 2.7 4 6.2 4 10c0 3.8-1.5 7.3-4 10c-2.5-2.7-4-6.2-4-10c0-3.8 1.5-7.3 4-10z"/>`,
	"shopping": `<path d="M6 2L3 6v14c0 1.1 0.9 2 2 2h14c1.1 0 2-0.9 2-2V6l-3-4z"/><path d="M3 6h18"/>` +
		`<path d="M16 10c0 2.2-1.8 4-4 4c-2.2 0-4-1.8-4-4"/>`,
	"cpu": `<rect x="4" y="4" width="16" height="16" rx="2"/><rect x="9" y="9" width="6" height="6"/>` +
		`<path d="M9 1v3M15 1v3M9 20v3M15 20v3M20 9h3M20 14h3M1 9h3M1 14h3"/>`,
	"factory": `<path d="M2 20V8l6 4V8l6 4V4h8v16z"/><path d="M6 16h2M11 16h2M16 16h2"/>`,
	"rocket": `<path d="M12 2c3 2 5 6 5 10l-2 5H9l-2-5c0-4 2-8 5-10z"/><circle cx="12" cy="10" r="2"/>` +
		`<path d="M10 20v2M14 20v2M7 15l-3 3M17 15l3 3"/>`,
	"security": `<path d="M12 22c0 0 8-4 8-10V5l-8-3l-8 3v7c0 6 8 10 8 10z"/><path d="M9 12l2 2l4-4"/>`,
	"energy":   `<path d="M13 2L3 14h9l-1 8l10-12h-9l1-8z"/>`,
	"trend":    `<path d="M22 7l-8.5 8.5l-5-5L2 17"/><path d="M16 7h6v6"/>`,
	"target":   `<circle cx="12" cy="12" r="10"/><circle cx="12" cy="12" r="6"/><circle cx="12" cy="12" r="2"/>`,
	"chart":    `<path d="M12 20V10M18 20V4M6 20v-4M3 20h18"/>`,
	"idea": `<path d="M9 18h6M10 22h4"/>` +
		`<path d="M12 2c-3.9 0-7 3.1-7 7c0 2.4 1.2 4.5 3 5.7V17h8v-2.3c1.8-1.2 3-3.3 3-5.7c0-3.9-3.1-7-7-7z"/>`,
	"award": `<circle cx="12" cy="8" r="6"/><path d="M15.5 13L17 22l-5-3l-5 3l1.5-9"/>`,
	"world": `<circle cx="12" cy="12" r="10"/><path d="M2 12h20"/>` +
		`<path d="M12 2c-3 3-4 6-4 10c0 4 1 7 4 10M12 2c3 3 4 6 4 10c0 4-1 7-4 10"/><path d="M4 7h16M4 17h16"/>`,
}

// iconOrder keeps the registry order stable for pickers.
var iconOrder = []string{
	"train", "satellite", "car", "phone", "gold", "globe", "shopping", "cpu", "factory",
	"rocket", "security", "energy", "trend", "target", "chart", "idea", "award", "world",
}

// hintKeys is the subset of icons advertised to the generation service.
var hintKeys = []string{
	"train", "satellite", "car", "phone", "gold", "globe",
	"shopping", "cpu", "factory", "rocket", "security", "energy",
}

// IconKeys lists every registered icon key.
func IconKeys() []string { return slices.Clone(iconOrder) }

// GenerationHint lists the icon keys offered as hints in generation prompts.
func GenerationHint() []string { return slices.Clone(hintKeys) }

// Known reports whether key names a registered icon.
func Known(key string) bool {
	_, ok := glyphs[key]
	return ok
}

// Resolve maps unknown or empty keys to the default icon.
func Resolve(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if Known(key) {
		return key
	}
	return domain.DefaultIcon
}

// SVG returns a standalone SVG document for the icon drawn in hex color.
func SVG(key, hex string) string {
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="24" height="24" viewBox="0 0 24 24" fill="none" stroke="`)
	b.WriteString(hex)
	b.WriteString(`" stroke-width="2" stroke-linecap="round" stroke-linejoin="round">`)
	b.WriteString(glyphs[Resolve(key)])
	b.WriteString(`</svg>`)
	return b.String()
}

// Body returns the inner SVG markup of the icon, for embedding.
func Body(key string) string { return glyphs[Resolve(key)] }
