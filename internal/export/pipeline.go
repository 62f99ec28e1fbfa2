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
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"infostudio/internal/domain"
	applog "infostudio/internal/log"
	"infostudio/internal/telemetry"
	"infostudio/internal/textlayout"
)

// Stage is one step of the PNG export pipeline. Stages run strictly in
// declaration order.
type Stage int

const (
	StageAwaitFonts Stage = iota
	StageSettle
	StageSnapshot
	StageCapture
	StageEncode
	StageDownload
)

func (s Stage) String() string {
	switch s {
	case StageAwaitFonts:
		return "await-fonts"
	case StageSettle:
		return "settle"
	case StageSnapshot:
		return "snapshot"
	case StageCapture:
		return "capture"
	case StageEncode:
		return "encode"
	case StageDownload:
		return "download"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// StageError reports which stage failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("export %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// ErrBusy is returned when an export is already running on the pipeline.
var ErrBusy = errors.New("export already in progress")

// DefaultSettle is the pause between font readiness and the snapshot.
const DefaultSettle = 600 * time.Millisecond

// Result describes a written export.
type Result struct {
	Path          string
	Width, Height int
	Bytes         int
	Duration      time.Duration
}

// Pipeline exports the active slide as a PNG file. The zero value of the
// tunables selects the defaults; a negative Settle disables the pause.
type Pipeline struct {
	Renderer
	OutDir  string
	Scale   float32
	Settle  time.Duration
	Now     func() time.Time
	OnStage func(Stage)

	busy atomic.Bool
}

// NewPipeline returns a pipeline writing into outDir.
func NewPipeline(r Renderer, outDir string) *Pipeline {
	return &Pipeline{Renderer: r, OutDir: outDir}
}

// FileName is the download name of an export started at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("infographic-%d.png", t.UnixMilli())
}

// Busy reports whether a run is in progress.
func (p *Pipeline) Busy() bool { return p.busy.Load() }

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) enter(s Stage) {
	if p.OnStage != nil {
		p.OnStage(s)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run captures s and writes it into OutDir. The live slide and scene are
// never modified; on any error no output file remains.
func (p *Pipeline) Run(ctx context.Context, s domain.Slide) (Result, error) {
	if !p.busy.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer p.busy.Store(false)

	log := applog.WithOperation(applog.WithComponent("export"), "png")
	ctx = applog.WithSlide(ctx, s.ID)
	start := time.Now()
	stamp := p.now()
	fail := func(st Stage, err error) (Result, error) {
		log.ErrorContext(ctx, "export failed", slog.String("stage", st.String()), slog.String("err", err.Error()))
		telemetry.Event(telemetry.EventExportFailed, map[string]any{"format": "png", "stage": st.String()})
		return Result{}, &StageError{Stage: st, Err: err}
	}

	p.enter(StageAwaitFonts)
	fonts := p.Fonts
	if fonts == nil {
		fonts = textlayout.Default()
	}
	if err := fonts.Ready(ctx); err != nil {
		return fail(StageAwaitFonts, err)
	}

	p.enter(StageSettle)
	settle := p.Settle
	if settle == 0 {
		settle = DefaultSettle
	}
	if err := sleep(ctx, settle); err != nil {
		return fail(StageSettle, err)
	}

	p.enter(StageSnapshot)
	sc := p.Scene(s)

	p.enter(StageCapture)
	scale := p.Scale
	if scale <= 0 {
		scale = CaptureScale
	}
	img, err := p.Capture(ctx, sc, s, scale)
	if err != nil {
		return fail(StageCapture, err)
	}

	p.enter(StageEncode)
	data, err := EncodePNG(img)
	if err != nil {
		return fail(StageEncode, err)
	}

	p.enter(StageDownload)
	dir := p.OutDir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, FileName(stamp))
	if err := ctx.Err(); err != nil {
		return fail(StageDownload, err)
	}
	if err := writeAtomic(path, data); err != nil {
		return fail(StageDownload, err)
	}

	res := Result{
		Path:     path,
		Width:    img.Bounds().Dx(),
		Height:   img.Bounds().Dy(),
		Bytes:    len(data),
		Duration: time.Since(start),
	}
	log.InfoContext(ctx, "export completed",
		slog.String("path", res.Path),
		slog.Int("width", res.Width),
		slog.Int("height", res.Height),
		slog.Int("bytes", res.Bytes),
		slog.Duration("took", res.Duration))
	telemetry.Event(telemetry.EventExportCompleted, map[string]any{"format": "png", "ms": res.Duration.Milliseconds()})
	return res, nil
}
