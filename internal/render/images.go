/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultMaxImageBytes caps remote and inline image payloads.
const DefaultMaxImageBytes = 20 << 20

// Decoded image cache limits.
const (
	DefaultCacheEntries = 16
	DefaultCachePixels  = 64 << 20
)

var (
	ErrUnsupportedSource = errors.New("unsupported image source")
	ErrNotImage          = errors.New("payload is not an image")
)

// ImageLoader resolves image sources: data: URLs, http(s) URLs, file://
// URLs and plain file paths. Decoded images are kept in a small LRU keyed
// by a digest of the source, bounded by entry count and total pixels.
type ImageLoader struct {
	Client       *http.Client
	MaxBytes     int64
	CacheEntries int
	CachePixels  int

	mu     sync.Mutex
	cache  *lru.Cache
	pixels int
}

// NewImageLoader returns a loader whose remote fetches time out after timeout.
func NewImageLoader(timeout time.Duration) *ImageLoader {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ImageLoader{
		Client:   &http.Client{Timeout: timeout},
		MaxBytes: DefaultMaxImageBytes,
	}
}

// Load returns the decoded image for src.
func (l *ImageLoader) Load(ctx context.Context, src string) (image.Image, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, ErrUnsupportedSource
	}
	key := sha256.Sum256([]byte(src))
	if img, ok := l.cached(key); ok {
		return img, nil
	}

	data, err := l.fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	l.store(key, img)
	return img, nil
}

func (l *ImageLoader) cached(key [sha256.Size]byte) (image.Image, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cache == nil {
		return nil, false
	}
	v, ok := l.cache.Get(key)
	if !ok {
		return nil, false
	}
	return v.(image.Image), true
}

func (l *ImageLoader) store(key [sha256.Size]byte, img image.Image) {
	px := imagePixels(img)
	budget := l.CachePixels
	if budget <= 0 {
		budget = DefaultCachePixels
	}
	if px > budget {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cache == nil {
		entries := l.CacheEntries
		if entries <= 0 {
			entries = DefaultCacheEntries
		}
		l.cache = lru.New(entries)
		l.cache.OnEvicted = func(_ lru.Key, v interface{}) { l.pixels -= imagePixels(v.(image.Image)) }
	}
	if _, ok := l.cache.Get(key); ok {
		return
	}
	l.cache.Add(key, img)
	l.pixels += px
	for l.pixels > budget && l.cache.Len() > 1 {
		l.cache.RemoveOldest()
	}
}

// CacheLen reports how many decoded images are held.
func (l *ImageLoader) CacheLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cache == nil {
		return 0
	}
	return l.cache.Len()
}

func imagePixels(img image.Image) int {
	b := img.Bounds()
	return b.Dx() * b.Dy()
}

func (l *ImageLoader) limit() int64 {
	if l.MaxBytes <= 0 {
		return DefaultMaxImageBytes
	}
	return l.MaxBytes
}

func (l *ImageLoader) fetch(ctx context.Context, src string) ([]byte, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		b, _, err := ParseDataURL(src)
		return b, err
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return l.fetchHTTP(ctx, src)
	case strings.HasPrefix(src, "file://"):
		u, err := url.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedSource, err)
		}
		return l.readFile(u.Path)
	case strings.Contains(src, "://"):
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, src)
	}
	return l.readFile(src)
}

func (l *ImageLoader) readFile(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.Size() > l.limit() {
		return nil, fmt.Errorf("image %s exceeds %d bytes", path, l.limit())
	}
	return os.ReadFile(path)
}

func (l *ImageLoader) fetchHTTP(ctx context.Context, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "image/*")
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch image: %s", resp.Status)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, l.limit()+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > l.limit() {
		return nil, fmt.Errorf("image exceeds %d bytes", l.limit())
	}
	return b, nil
}

// ParseDataURL decodes a data: URL and returns its payload and media type.
func ParseDataURL(s string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, "", fmt.Errorf("%w: not a data url", ErrUnsupportedSource)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: malformed data url", ErrUnsupportedSource)
	}
	mediaType := "text/plain"
	isBase64 := false
	for i, part := range strings.Split(meta, ";") {
		switch {
		case i == 0 && part != "":
			mediaType = strings.ToLower(part)
		case part == "base64":
			isBase64 = true
		}
	}
	if !isBase64 {
		text, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", err
		}
		return []byte(text), mediaType, nil
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// Some encoders drop the padding.
		b, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, "", fmt.Errorf("data url payload: %w", err)
		}
	}
	return b, mediaType, nil
}

// DataURL encodes b as a base64 data: URL with the sniffed media type.
func DataURL(b []byte) (string, error) {
	kind, err := filetype.Match(b)
	if err != nil || !filetype.IsImage(b) {
		return "", ErrNotImage
	}
	return "data:" + kind.MIME.Value + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}

// Decode sniffs and decodes an image payload.
func Decode(b []byte) (image.Image, error) {
	if !filetype.IsImage(b) {
		return nil, ErrNotImage
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}
