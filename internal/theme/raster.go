/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package theme

import (
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"infostudio/internal/vector"
)

type rasterKey struct {
	icon string
	col  vector.Color
	px   int
}

var (
	cacheMu sync.Mutex
	cache   = map[rasterKey]*image.RGBA{}
)

// Raster draws the icon at px x px in color c. Results are cached and must
// be treated as read-only by callers.
func Raster(key string, c vector.Color, px int) (*image.RGBA, error) {
	if px <= 0 {
		return nil, fmt.Errorf("icon size %d", px)
	}
	k := rasterKey{icon: Resolve(key), col: c, px: px}
	cacheMu.Lock()
	img, ok := cache[k]
	cacheMu.Unlock()
	if ok {
		return img, nil
	}

	// The stroke is drawn opaque and faded afterwards; the SVG parser only
	// reads six-digit hex colors.
	opaque := c
	opaque.A = 255
	icon, err := oksvg.ReadIconStream(strings.NewReader(SVG(k.icon, opaque.Hex())))
	if err != nil {
		return nil, fmt.Errorf("parse icon %s: %w", k.icon, err)
	}
	icon.SetTarget(0, 0, float64(px), float64(px))
	img = image.NewRGBA(image.Rect(0, 0, px, px))
	scanner := rasterx.NewScannerGV(px, px, img, img.Bounds())
	icon.Draw(rasterx.NewDasher(px, px, scanner), 1)
	if c.A != 255 {
		fade(img, c.A)
	}

	cacheMu.Lock()
	if len(cache) > 512 {
		cache = map[rasterKey]*image.RGBA{}
	}
	cache[k] = img
	cacheMu.Unlock()
	return img, nil
}

func fade(img *image.RGBA, a uint8) {
	f := uint32(a)
	for i := 0; i < len(img.Pix); i++ {
		img.Pix[i] = uint8(uint32(img.Pix[i]) * f / 255)
	}
}
