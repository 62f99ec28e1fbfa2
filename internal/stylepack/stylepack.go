/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package stylepack shares color themes and CSS snippets between machines
// as zip archives. Installed packs extend the built-in theme list.
package stylepack

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"infostudio/internal/domain"
	applog "infostudio/internal/log"
	"infostudio/internal/vector"
)

const (
	manifestName = "stylepack.manifest.txt"
	themesName   = "themes.yaml"
	cssDir       = "css"
)

// Pack is the content of one style pack.
type Pack struct {
	Name   string              `yaml:"name"`
	Themes []domain.ColorTheme `yaml:"themes"`
	// CSS maps snippet names to custom CSS text.
	CSS map[string]string `yaml:"-"`
}

// Dir is where packs are installed below the config directory.
func Dir(configDir string) string { return filepath.Join(configDir, "stylepacks") }

// FromSlide captures the colors and custom CSS of s under name.
func FromSlide(name string, s domain.Slide) Pack {
	p := Pack{
		Name: name,
		Themes: []domain.ColorTheme{{
			Name:      name,
			Primary:   s.AccentColor,
			Secondary: s.SecondaryColor,
			Bg:        s.BackgroundColor,
			Text:      s.TextColor,
		}},
	}
	if strings.TrimSpace(s.CustomCSS) != "" {
		p.CSS = map[string]string{name: s.CustomCSS}
	}
	return p
}

// Export writes p as a zip archive: a manifest, themes.yaml and one
// css/<name>.css per snippet.
func Export(p Pack, destZipPath string) error {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "export").With(slog.String("pack", p.Name))
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("pack name is required")
	}
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)

	add := func(name string, data []byte) error {
		w, err := zw.Create(name)
		if err != nil {
			return fmt.Errorf("add %s: %w", name, err)
		}
		_, err = w.Write(data)
		return err
	}
	manifest := fmt.Sprintf("InfoStudio Style Pack\nName: %s\nCreated: %s\nThemes: %d\nSnippets: %d\n",
		p.Name, time.Now().Format(time.RFC3339), len(p.Themes), len(p.CSS))
	if err := add(manifestName, []byte(manifest)); err != nil {
		return err
	}
	themes, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode themes: %w", err)
	}
	if err := add(themesName, themes); err != nil {
		return err
	}
	for _, name := range sortedKeys(p.CSS) {
		if err := add(path.Join(cssDir, safeName(name)+".css"), []byte(p.CSS[name])); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		l.Error("zip build failed", slog.Any("err", err))
		return fmt.Errorf("build zip: %w", err)
	}
	l.Info("style pack exported", slog.Int("themes", len(p.Themes)), slog.Int("snippets", len(p.CSS)), slog.String("zip", destZipPath))
	return nil
}

// Install extracts a pack into dir/<pack name>. Only themes.yaml and
// css/*.css entries are taken; existing files are not overwritten and
// entries escaping the target directory are rejected. Returns the number
// of files installed.
func Install(dir, packZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("stylepack"), "install").With(slog.String("zip", packZipPath))
	if strings.TrimSpace(dir) == "" {
		return 0, errors.New("install dir is required")
	}
	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	name := safeName(strings.TrimSuffix(filepath.Base(packZipPath), filepath.Ext(packZipPath)))
	for _, f := range r.File {
		if f.Name != themesName {
			continue
		}
		p, err := readPack(f)
		if err != nil {
			return 0, err
		}
		if p.Name != "" {
			name = safeName(p.Name)
		}
	}
	root := filepath.Join(dir, name)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return 0, fmt.Errorf("ensure pack dir: %w", err)
	}

	installed := 0
	for _, f := range r.File {
		clean := path.Clean(f.Name)
		if f.FileInfo().IsDir() {
			continue
		}
		if strings.HasPrefix(clean, "../") || path.IsAbs(clean) || strings.Contains(clean, "/../") {
			return installed, fmt.Errorf("pack entry %q escapes the pack directory", f.Name)
		}
		if clean != themesName && !(path.Dir(clean) == cssDir && path.Ext(clean) == ".css") {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(clean))
		if _, err := os.Stat(target); err == nil {
			l.Warn("skip existing file", slog.String("path", target))
			continue
		}
		if err := extract(f, target); err != nil {
			return installed, err
		}
		installed++
	}
	l.Info("style pack installed", slog.String("pack", name), slog.Int("files", installed))
	return installed, nil
}

func readPack(f *zip.File) (Pack, error) {
	rc, err := f.Open()
	if err != nil {
		return Pack{}, err
	}
	defer func() { _ = rc.Close() }()
	var p Pack
	if err := yaml.NewDecoder(io.LimitReader(rc, 1<<20)).Decode(&p); err != nil {
		return Pack{}, fmt.Errorf("parse %s: %w", themesName, err)
	}
	return p, nil
}

func extract(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, io.LimitReader(rc, 1<<20)); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Load reads every installed pack below dir, in name order. Themes whose
// colors do not parse are dropped with a warning. A missing dir yields no
// packs.
func Load(dir string) ([]Pack, error) {
	l := applog.WithComponent("stylepack")
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read packs: %w", err)
	}
	var packs []Pack
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		root := filepath.Join(dir, e.Name())
		p := Pack{Name: e.Name()}
		if data, err := os.ReadFile(filepath.Join(root, themesName)); err == nil {
			var raw Pack
			if err := yaml.Unmarshal(data, &raw); err != nil {
				l.Warn("skipping unreadable pack", slog.String("pack", e.Name()), slog.Any("err", err))
				continue
			}
			for _, t := range raw.Themes {
				if err := validTheme(t); err != nil {
					l.Warn("skipping theme", slog.String("pack", e.Name()), slog.Any("err", err))
					continue
				}
				p.Themes = append(p.Themes, t)
			}
		}
		css, _ := filepath.Glob(filepath.Join(root, cssDir, "*.css"))
		for _, c := range css {
			data, err := os.ReadFile(c)
			if err != nil {
				continue
			}
			if p.CSS == nil {
				p.CSS = map[string]string{}
			}
			p.CSS[strings.TrimSuffix(filepath.Base(c), ".css")] = string(data)
		}
		packs = append(packs, p)
	}
	return packs, nil
}

// Themes flattens the themes of packs.
func Themes(packs []Pack) []domain.ColorTheme {
	var out []domain.ColorTheme
	for _, p := range packs {
		out = append(out, p.Themes...)
	}
	return out
}

func validTheme(t domain.ColorTheme) error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("theme without name")
	}
	for _, c := range []string{t.Primary, t.Secondary, t.Bg, t.Text} {
		if _, err := vector.ParseColor(c); err != nil {
			return fmt.Errorf("theme %s: %w", t.Name, err)
		}
	}
	return nil
}

// safeName reduces s to a file name without separators.
func safeName(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "pack"
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
