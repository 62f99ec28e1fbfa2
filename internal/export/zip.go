/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"infostudio/internal/domain"
	"infostudio/internal/version"
)

// ZipOptions controls carousel archive export.
type ZipOptions struct {
	Scale  float32
	Slides []int // if empty, export all slides
	Now    func() time.Time
}

// Manifest describes the contents of a carousel archive.
type Manifest struct {
	Title     string          `json:"title"`
	Generator string          `json:"generator"`
	Created   time.Time       `json:"created"`
	Slides    []ManifestEntry `json:"slides"`
}

type ManifestEntry struct {
	File   string `json:"file"`
	ID     string `json:"id"`
	Header string `json:"header"`
}

// ExportZip packages one PNG per slide plus manifest.json into a ZIP at
// outPath. Entry names sort in slide order.
func ExportZip(ctx context.Context, r Renderer, p domain.Project, outPath string, opt ZipOptions) error {
	if len(p.Slides) == 0 {
		return errors.New("project has no slides")
	}
	now := time.Now
	if opt.Now != nil {
		now = opt.Now
	}
	idxs := slideIndexes(len(p.Slides), opt.Slides)
	pad := len(fmt.Sprintf("%d", len(idxs)))
	if pad < 2 {
		pad = 2
	}

	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	man := Manifest{Title: p.Title, Generator: "infostudio " + version.Version, Created: now().UTC()}
	n := 0
	for _, idx := range idxs {
		if idx < 0 || idx >= len(p.Slides) {
			continue
		}
		s := p.Slides[idx]
		data, err := r.RenderPNG(ctx, s, opt.Scale)
		if err != nil {
			return fmt.Errorf("slide %d: %w", idx+1, err)
		}
		n++
		name := fmt.Sprintf("slide-%0*d.png", pad, n)
		if err := addZipFile(zw, name, data); err != nil {
			return fmt.Errorf("zip add image: %w", err)
		}
		man.Slides = append(man.Slides, ManifestEntry{File: name, ID: s.ID, Header: s.Header})
	}

	mb, err := json.MarshalIndent(man, "", "  ")
	if err != nil {
		return fmt.Errorf("build manifest: %w", err)
	}
	if err := addZipFile(zw, "manifest.json", append(mb, '\n')); err != nil {
		return fmt.Errorf("zip add manifest: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return writeAtomic(outPath, buf.Bytes())
}

func addZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
