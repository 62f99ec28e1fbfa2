/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"errors"
	"fmt"
	"io"
	"os"

	"infostudio/internal/domain"
	"infostudio/internal/render"
)

// ErrNotImage is returned for uploads whose bytes are not a raster image.
var ErrNotImage = render.ErrNotImage

// SetMainImage embeds data as the center image. The bytes are stored as a
// data URL without re-encoding; on error the returned slide is unchanged.
func SetMainImage(s domain.Slide, data []byte) (domain.Slide, error) {
	out := s.Clone()
	u, err := render.DataURL(data)
	if err != nil {
		return out, fmt.Errorf("main image: %w", err)
	}
	out.MainImageURL = u
	return out, nil
}

// SetLogo embeds data as the footer logo.
func SetLogo(s domain.Slide, data []byte) (domain.Slide, error) {
	out := s.Clone()
	u, err := render.DataURL(data)
	if err != nil {
		return out, fmt.Errorf("logo: %w", err)
	}
	out.LogoURL = u
	return out, nil
}

// ClearLogo removes the footer logo; the empty logo box shows instead.
func ClearLogo(s domain.Slide) domain.Slide {
	out := s.Clone()
	out.LogoURL = ""
	return out
}

// SetMainImageURL points the center image at a remote URL.
func SetMainImageURL(s domain.Slide, url string) domain.Slide {
	out := s.Clone()
	out.MainImageURL = url
	return out
}

// ReadUpload reads a picked file, refusing anything larger than the image
// loader would accept.
func ReadUpload(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, render.DefaultMaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > render.DefaultMaxImageBytes {
		return nil, errors.New("upload exceeds the image size limit")
	}
	return data, nil
}
