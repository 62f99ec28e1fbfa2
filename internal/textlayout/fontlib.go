/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package textlayout loads fonts and breaks slide text into lines.
package textlayout

import (
	"context"
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontLibrary holds a regular and a bold face. Custom TTF/OTF files replace
// the bundled Go fonts, e.g. to cover scripts the Go fonts lack.
type FontLibrary struct {
	mu          sync.Mutex
	regularPath string
	boldPath    string
	regular     *opentype.Font
	bold        *opentype.Font
	err         error
	loaded      bool
}

// NewFontLibrary returns a library that loads lazily. Empty paths select
// the bundled Go fonts; a single custom path is used for both weights.
func NewFontLibrary(regularPath, boldPath string) *FontLibrary {
	if boldPath == "" {
		boldPath = regularPath
	}
	return &FontLibrary{regularPath: regularPath, boldPath: boldPath}
}

var (
	defaultOnce sync.Once
	defaultLib  *FontLibrary
)

// Default returns the shared library with the bundled fonts.
func Default() *FontLibrary {
	defaultOnce.Do(func() { defaultLib = NewFontLibrary("", "") })
	return defaultLib
}

func parseFont(path string, fallback []byte) (*opentype.Font, error) {
	data := fallback
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font %s: %w", path, err)
		}
		data = b
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}

func (fl *FontLibrary) load() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.loaded {
		return fl.err
	}
	fl.loaded = true
	if fl.regular, fl.err = parseFont(fl.regularPath, goregular.TTF); fl.err != nil {
		return fl.err
	}
	fl.bold, fl.err = parseFont(fl.boldPath, gobold.TTF)
	return fl.err
}

// Ready blocks until both faces are parsed. It returns early if ctx ends.
func (fl *FontLibrary) Ready(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- fl.load() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Face returns a new face at sizePx pixels. Faces are not safe for
// concurrent use, so callers keep their own.
func (fl *FontLibrary) Face(bold bool, sizePx float64) (font.Face, error) {
	if err := fl.load(); err != nil {
		return nil, err
	}
	f := fl.regular
	if bold {
		f = fl.bold
	}
	if sizePx <= 0 {
		sizePx = 12
	}
	return opentype.NewFace(f, &opentype.FaceOptions{Size: sizePx, DPI: 72, Hinting: font.HintingNone})
}

// FaceCache memoizes faces for one render pass.
type FaceCache struct {
	lib   *FontLibrary
	faces map[faceKey]font.Face
}

type faceKey struct {
	bold bool
	size int // size in 1/64 px
}

func NewFaceCache(lib *FontLibrary) *FaceCache {
	if lib == nil {
		lib = Default()
	}
	return &FaceCache{lib: lib, faces: map[faceKey]font.Face{}}
}

// Get returns the cached face for the given weight and pixel size.
func (c *FaceCache) Get(bold bool, sizePx float64) (font.Face, error) {
	k := faceKey{bold: bold, size: int(sizePx*64 + 0.5)}
	if f, ok := c.faces[k]; ok {
		return f, nil
	}
	f, err := c.lib.Face(bold, sizePx)
	if err != nil {
		return nil, err
	}
	c.faces[k] = f
	return f, nil
}

// Close releases every cached face.
func (c *FaceCache) Close() {
	for k, f := range c.faces {
		_ = f.Close()
		delete(c.faces, k)
	}
}
