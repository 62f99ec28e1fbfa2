/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"infostudio/internal/config"
	"infostudio/internal/domain"
	"infostudio/internal/editor"
)

// Options configure Run.
type Options struct {
	Config      config.AppConfig
	APIKey      string
	ProjectPath string
}

const (
	exportIdle   = "Export PNG"
	exportBusy   = "Exporting…"
	magicIdle    = "Magic write"
	magicBusy    = "Writing…"
	recentMax    = 8
	previewScale = 0.75
	dotSize      = 10
	dotGap       = 8
)

// Counter renders the slide counter of the header bar.
func Counter(index, count int) string {
	if count <= 0 {
		return "0 / 0"
	}
	return fmt.Sprintf("%d / %d", index+1, count)
}

// ExportLabel is the export button caption.
func ExportLabel(exporting bool) string {
	if exporting {
		return exportBusy
	}
	return exportIdle
}

// MagicLabel is the magic-write button caption.
func MagicLabel(generating bool) string {
	if generating {
		return magicBusy
	}
	return magicIdle
}

// Dots marks the active slide among count pagination dots.
func Dots(index, count int) []bool {
	out := make([]bool, max(count, 0))
	if index >= 0 && index < len(out) {
		out[index] = true
	}
	return out
}

// WindowTitle names the project file in the title bar.
func WindowTitle(title, path string) string {
	name := strings.TrimSpace(title)
	if name == "" {
		name = domain.DefaultProjectTitle
	}
	if path == "" {
		return "InfoStudio - " + name + " (unsaved)"
	}
	return "InfoStudio - " + name + " [" + filepath.Base(path) + "]"
}

// Fit returns the offset and size of a canvas-shaped image fitted into a
// container while keeping the 640x800 aspect.
func Fit(w, h float32) (x, y, fw, fh float32) {
	if w <= 0 || h <= 0 {
		return 0, 0, 0, 0
	}
	aspect := float32(domain.CanvasWidth) / float32(domain.CanvasHeight)
	fw, fh = w, w/aspect
	if fh > h {
		fw, fh = h*aspect, h
	}
	return (w - fw) / 2, (h - fh) / 2, fw, fh
}

// pushRecent puts path first, drops duplicates and caps the list.
func pushRecent(list []string, path string) []string {
	path = strings.TrimSpace(path)
	if path == "" {
		return list
	}
	out := make([]string, 0, len(list)+1)
	out = append(out, path)
	for _, s := range list {
		if !strings.EqualFold(s, path) {
			out = append(out, s)
		}
	}
	if len(out) > recentMax {
		out = out[:recentMax]
	}
	return out
}

// pointSignature changes whenever points are added, removed or reordered.
func pointSignature(s domain.Slide) string {
	ids := make([]string, len(s.Points))
	for i, p := range s.Points {
		ids[i] = p.ID
	}
	return strings.Join(ids, ",")
}

// TabTitle is the caption of an editor tab.
func TabTitle(t editor.Tab) string {
	switch t {
	case editor.TabContent:
		return "Content"
	case editor.TabStyle:
		return "Style"
	case editor.TabCSS:
		return "Custom CSS"
	}
	return t.String()
}

// dotAt maps a tap at x inside a row of the given width to a dot index,
// or -1 when the tap is outside the row of dots. Dots are centered.
func dotAt(x, width float32, count int) int {
	if count <= 0 {
		return -1
	}
	total := float32(count)*dotSize + float32(count-1)*dotGap
	x -= (width - total) / 2
	if x < 0 || x > total {
		return -1
	}
	return min(int(x/(dotSize+dotGap)), count-1)
}
