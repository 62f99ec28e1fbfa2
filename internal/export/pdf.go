/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"infostudio/internal/domain"
	"infostudio/internal/version"
)

// PDFOptions controls carousel PDF export. Pages are sized in points at
// one point per canvas pixel; Scale sets the raster resolution of each
// page image.
type PDFOptions struct {
	Scale  float32
	Slides []int // if empty, export all slides
}

// ExportPDF writes one page per slide into a single PDF at outPath.
func ExportPDF(ctx context.Context, r Renderer, p domain.Project, outPath string, opt PDFOptions) error {
	if len(p.Slides) == 0 {
		return errors.New("project has no slides")
	}
	w, h := float64(domain.CanvasWidth), float64(domain.CanvasHeight)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetTitle(p.Title, true)
	pdf.SetCreator("infostudio "+version.Version, true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)

	for _, idx := range slideIndexes(len(p.Slides), opt.Slides) {
		if idx < 0 || idx >= len(p.Slides) {
			continue
		}
		data, err := r.RenderPNG(ctx, p.Slides[idx], opt.Scale)
		if err != nil {
			return fmt.Errorf("slide %d: %w", idx+1, err)
		}
		name := fmt.Sprintf("slide-%d", idx+1)
		iopt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader(name, iopt, bytes.NewReader(data))
		pdf.AddPage()
		pdf.ImageOptions(name, 0, 0, w, h, false, iopt, 0, "")
		if pdf.Err() {
			return fmt.Errorf("slide %d: %w", idx+1, pdf.Error())
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return writeAtomic(outPath, buf.Bytes())
}

func slideIndexes(total int, specific []int) []int {
	if len(specific) == 0 {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
	return specific
}
