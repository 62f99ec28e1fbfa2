/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"infostudio/internal/domain"
	"infostudio/internal/telemetry"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetInstagram PresetName = "instagram"
	PresetLinkedIn  PresetName = "linkedin"
	PresetHiRes     PresetName = "hires"
)

// Preset bundles an output format with a capture scale.
type Preset struct {
	Name        PresetName
	Format      string // png, pdf or zip
	Scale       float32
	Description string
}

var presets = []Preset{
	{Name: PresetInstagram, Format: "zip", Scale: 1.6875, Description: "Carousel of 1080x1350 PNGs"},
	{Name: PresetLinkedIn, Format: "pdf", Scale: 2, Description: "Document post, one page per slide"},
	{Name: PresetHiRes, Format: "png", Scale: CaptureScale, Description: "1600x2000 PNG per slide"},
}

// Presets lists the built-in presets.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// PresetByName looks a preset up case-insensitively.
func PresetByName(name string) (Preset, bool) {
	for _, p := range presets {
		if strings.EqualFold(string(p.Name), strings.TrimSpace(name)) {
			return p, true
		}
	}
	return Preset{}, false
}

// RunPreset exports the project with the named preset and returns the
// written files. For single-file formats out is the file path (an
// extension is added when missing); for png it is a directory.
func RunPreset(ctx context.Context, r Renderer, p domain.Project, name, out string) ([]string, error) {
	files, err := runPreset(ctx, r, p, name, out)
	props := map[string]any{"preset": strings.ToLower(strings.TrimSpace(name)), "slides": len(p.Slides)}
	if err != nil {
		telemetry.Event(telemetry.EventExportFailed, props)
		return files, err
	}
	telemetry.Event(telemetry.EventExportCompleted, props)
	return files, nil
}

func runPreset(ctx context.Context, r Renderer, p domain.Project, name, out string) ([]string, error) {
	pr, ok := PresetByName(name)
	if !ok {
		return nil, fmt.Errorf("unknown preset: %s", name)
	}
	if len(p.Slides) == 0 {
		return nil, fmt.Errorf("project has no slides")
	}
	switch pr.Format {
	case "pdf":
		path := withExt(out, ".pdf")
		if err := ExportPDF(ctx, r, p, path, PDFOptions{Scale: pr.Scale}); err != nil {
			return nil, fmt.Errorf("preset %s: %w", pr.Name, err)
		}
		return []string{path}, nil
	case "zip":
		path := withExt(out, ".zip")
		if err := ExportZip(ctx, r, p, path, ZipOptions{Scale: pr.Scale, Now: time.Now}); err != nil {
			return nil, fmt.Errorf("preset %s: %w", pr.Name, err)
		}
		return []string{path}, nil
	case "png":
		var files []string
		for i, s := range p.Slides {
			data, err := r.RenderPNG(ctx, s, pr.Scale)
			if err != nil {
				return files, fmt.Errorf("preset %s slide %d: %w", pr.Name, i+1, err)
			}
			path := filepath.Join(out, fmt.Sprintf("slide-%02d.png", i+1))
			if err := writeAtomic(path, data); err != nil {
				return files, fmt.Errorf("preset %s slide %d: %w", pr.Name, i+1, err)
			}
			files = append(files, path)
		}
		return files, nil
	}
	return nil, fmt.Errorf("unknown format: %s", pr.Format)
}

func withExt(path, ext string) string {
	if strings.EqualFold(filepath.Ext(path), ext) {
		return path
	}
	return path + ext
}
