/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package app wires configuration, the session, rendering, export,
// generation and persistence into one object shared by the CLI commands
// and the desktop shell.
package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"infostudio/internal/config"
	"infostudio/internal/domain"
	"infostudio/internal/export"
	"infostudio/internal/generate"
	"infostudio/internal/outline"
	applog "infostudio/internal/log"
	"infostudio/internal/render"
	"infostudio/internal/session"
	"infostudio/internal/storage"
	"infostudio/internal/stylepack"
	"infostudio/internal/telemetry"
	"infostudio/internal/textlayout"
	"infostudio/internal/theme"
)

// ErrNoPath is returned by Save when the project was never saved.
var ErrNoPath = errors.New("project has no file yet; use save as")

// Options configure Open.
type Options struct {
	Config      config.AppConfig
	APIKey      string
	ProjectPath string
	// Generator replaces the configured generation client when set.
	Generator generate.Generator
	// NoHistory skips opening the history database.
	NoHistory bool
	// HistoryDir overrides the directory of the SQLite history file.
	HistoryDir string
	// StyleDir overrides where style packs are installed.
	StyleDir string
}

// App is one editing session with its services.
type App struct {
	Config   config.AppConfig
	State    *session.State
	Renderer export.Renderer
	Pipeline *export.Pipeline
	Gen      generate.Generator
	History  *storage.History
	StyleDir string

	mu        sync.Mutex
	path      string
	recovered string
	auto      *storage.Autosaver
	log       *slog.Logger
}

// Open builds an App. A ProjectPath naming an existing file is loaded
// (falling back to its newest backup); a missing file starts from the
// default project and is created on the first save.
func Open(ctx context.Context, opt Options) (*App, error) {
	cfg := opt.Config
	a := &App{Config: cfg, log: applog.WithComponent("app")}

	proj := domain.DefaultProject()
	if opt.ProjectPath != "" {
		path := absPath(opt.ProjectPath)
		if _, err := os.Stat(path); err == nil {
			h, err := storage.Open(path)
			if err != nil {
				return nil, err
			}
			proj, a.recovered = h.Project, h.Recovered
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open project: %w", err)
		}
		a.path = path
	}
	a.State = session.New(proj)

	fonts := textlayout.Default()
	if cfg.Render.FontPath != "" || cfg.Render.BoldFontPath != "" {
		fonts = textlayout.NewFontLibrary(cfg.Render.FontPath, cfg.Render.BoldFontPath)
	}
	images := render.NewImageLoader(time.Duration(cfg.Render.ImageTimeoutSeconds) * time.Second)
	a.Renderer = export.NewRenderer(fonts, images)
	a.Pipeline = export.NewPipeline(a.Renderer, OutDir(cfg.Export))
	a.Pipeline.Scale = float32(cfg.Export.Scale)
	a.Pipeline.Settle = cfg.Export.SettleDelay()

	if opt.Generator != nil {
		a.Gen = opt.Generator
	} else {
		a.Gen = generate.NewClient(cfg.Generate, opt.APIKey)
	}

	cfgDir, _ := config.ConfigDir()
	a.StyleDir = opt.StyleDir
	if a.StyleDir == "" {
		a.StyleDir = stylepack.Dir(cfgDir)
	}
	if cfg.Storage.HistoryEnabled && !opt.NoHistory {
		dir := opt.HistoryDir
		if dir == "" {
			dir = cfgDir
		}
		h, err := storage.OpenHistory(ctx, dir, cfg.Storage.PostgresDSN)
		if err != nil {
			a.log.Warn("history unavailable", slog.Any("err", err))
		} else {
			a.History = h
		}
	}
	a.attach()
	return a, nil
}

// OutDir resolves the export directory: the configured one, else the
// user's Downloads folder when present, else the working directory.
func OutDir(ec config.ExportConfig) string {
	if ec.OutDir != "" {
		return ec.OutDir
	}
	if home, err := os.UserHomeDir(); err == nil {
		d := filepath.Join(home, "Downloads")
		if st, err := os.Stat(d); err == nil && st.IsDir() {
			return d
		}
	}
	return "."
}

// absPath adds the project extension and makes path absolute, so that
// history entries of one file share a key however it was named.
func absPath(path string) string {
	path = storage.WithExt(path)
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func (a *App) attach() {
	if a.auto != nil {
		a.auto.Close()
		a.auto = nil
	}
	if a.History == nil && a.path == "" {
		return
	}
	a.auto = storage.Attach(a.State, a.History, storage.AutosaveOptions{Path: a.path, Keep: a.Config.Storage.HistoryKeep})
}

// Path is the project file, or "" for an unsaved project.
func (a *App) Path() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.path
}

// Recovered names the backup the project was restored from, if any.
func (a *App) Recovered() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recovered
}

// Save writes the project to its file with a backup of the previous one.
func (a *App) Save() error {
	path := a.Path()
	if path == "" {
		return ErrNoPath
	}
	h := &storage.Handle{Path: path, Project: a.State.Project()}
	if err := storage.Save(h); err != nil {
		return err
	}
	a.log.Info("project saved", slog.String("path", path))
	return nil
}

// SaveAs writes the project to a new file and makes it current.
func (a *App) SaveAs(path string) error {
	path = absPath(path)
	h := &storage.Handle{Project: a.State.Project()}
	if err := storage.SaveAs(h, path); err != nil {
		return err
	}
	a.mu.Lock()
	a.path = h.Path
	a.mu.Unlock()
	a.attach()
	return nil
}

// OpenProject replaces the session document with the file at path.
func (a *App) OpenProject(path string) error {
	h, err := storage.Open(absPath(path))
	if err != nil {
		return err
	}
	if err := a.State.Load(h.Project); err != nil {
		return err
	}
	a.mu.Lock()
	a.path, a.recovered = h.Path, h.Recovered
	a.mu.Unlock()
	a.attach()
	return nil
}

// NewProject starts over from the default project without a file.
func (a *App) NewProject() error {
	if err := a.State.Load(domain.DefaultProject()); err != nil {
		return err
	}
	a.mu.Lock()
	a.path, a.recovered = "", ""
	a.mu.Unlock()
	a.attach()
	return nil
}

// ExportActive runs the PNG pipeline for the active slide behind the
// export gate.
func (a *App) ExportActive(ctx context.Context) (export.Result, error) {
	var res export.Result
	err := a.State.WithExport(func() error {
		var err error
		res, err = a.Pipeline.Run(ctx, a.State.Active())
		return err
	})
	return res, err
}

// ExportPreset exports the whole deck with a named preset behind the
// export gate.
func (a *App) ExportPreset(ctx context.Context, preset, out string) ([]string, error) {
	var files []string
	err := a.State.WithExport(func() error {
		var err error
		files, err = export.RunPreset(ctx, a.Renderer, a.State.Project(), preset, out)
		return err
	})
	return files, err
}

// MagicWrite generates content for the active slide.
func (a *App) MagicWrite(ctx context.Context) (bool, error) {
	return generate.MagicWrite(ctx, a.State, a.Gen)
}

// Preview rasterizes the active slide exactly as an export captures it.
func (a *App) Preview(ctx context.Context, scale float32) (*image.RGBA, error) {
	return a.Renderer.Render(ctx, a.State.Active(), scale)
}

// Themes lists the built-in themes followed by those of installed style
// packs.
func (a *App) Themes() []domain.ColorTheme {
	out := theme.Themes()
	packs, err := stylepack.Load(a.StyleDir)
	if err != nil {
		a.log.Warn("style packs unavailable", slog.Any("err", err))
	}
	return append(out, stylepack.Themes(packs)...)
}

// Snippets returns the CSS snippets of installed style packs keyed by
// "pack/name".
func (a *App) Snippets() map[string]string {
	packs, _ := stylepack.Load(a.StyleDir)
	out := map[string]string{}
	for _, p := range packs {
		for name, css := range p.CSS {
			out[p.Name+"/"+name] = css
		}
	}
	return out
}

// ExportStylePack writes the colors and custom CSS of the active slide as
// a style pack.
func (a *App) ExportStylePack(name, out string) error {
	return stylepack.Export(stylepack.FromSlide(name, a.State.Active()), out)
}

// InstallStylePack installs a pack archive for Themes and Snippets.
func (a *App) InstallStylePack(zipPath string) (int, error) {
	return stylepack.Install(a.StyleDir, zipPath)
}

// ImportOutline appends one slide per outline block, styled like the
// active slide, and takes the outline title when it names one. Parse
// problems are returned next to the number of slides added.
func (a *App) ImportOutline(text string) (int, []outline.Error, error) {
	o, problems := outline.Parse(text)
	if o.Title != "" {
		a.State.SetTitle(o.Title)
	}
	n := 0
	for _, s := range o.Build(a.State.Active()) {
		if _, err := a.State.AppendGiven(s); err != nil {
			return n, problems, err
		}
		n++
	}
	a.log.Info("outline imported", slog.Int("slides", n), slog.Int("problems", len(problems)))
	return n, problems, nil
}

// ExportOutline renders the project in outline syntax.
func (a *App) ExportOutline() string { return outline.Format(a.State.Project()) }

// Close stops autosave and releases the history database.
func (a *App) Close() error {
	if a.auto != nil {
		a.auto.Close()
	}
	var err error
	if a.History != nil {
		err = a.History.Close()
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	telemetry.Flush(ctx)
	return err
}
