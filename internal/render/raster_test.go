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
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"infostudio/internal/vector"
)

func solidPNG(t *testing.T, c color.NRGBA, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func near(a color.RGBA, b vector.Color, tol int) bool {
	d := func(x, y uint8) bool {
		v := int(x) - int(y)
		return v <= tol && v >= -tol
	}
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B)
}

func TestDrawSizeAndBands(t *testing.T) {
	s := testSlide()
	sc := Build(s)
	img, err := NewRasterizer(nil, nil).Draw(context.Background(), sc, Options{Scale: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 400 {
		t.Fatalf("bounds = %v", b)
	}
	accent := vector.MustColor(s.AccentColor, vector.Black)
	if got := img.RGBAAt(10, 1); !near(got, accent, 2) {
		t.Fatalf("top band pixel = %v, want %v", got, accent)
	}
	secondary := vector.MustColor(s.SecondaryColor, vector.Black)
	if got := img.RGBAAt(300, 1); !near(got, secondary, 2) {
		t.Fatalf("top band third = %v, want %v", got, secondary)
	}
}

func TestDrawMarginShowsBackground(t *testing.T) {
	sc := Build(testSlide())
	bg := vector.Color{B: 255, A: 255}
	img, err := NewRasterizer(nil, nil).Draw(context.Background(), sc, Options{Scale: 1, Margin: 10, Background: bg})
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 660 || b.Dy() != 820 {
		t.Fatalf("bounds = %v", b)
	}
	if got := img.RGBAAt(2, 2); got.B < 200 || got.R > 60 {
		t.Fatalf("margin pixel = %v", got)
	}
}

func TestDrawCenterImageAndTitle(t *testing.T) {
	s := testSlide()
	red := color.NRGBA{R: 255, A: 255}
	s.MainImageURL = "data:image/png;base64," + base64.StdEncoding.EncodeToString(solidPNG(t, red, 8, 4))
	sc := Build(s)
	img, err := NewRasterizer(nil, nil).Draw(context.Background(), sc, Options{Scale: 1})
	if err != nil {
		t.Fatal(err)
	}
	center := sc.FindByClass("canvas-center-image")[0].Frame.Center()
	if got := img.RGBAAt(int(center.X), int(center.Y)); got.R < 250 || got.G > 5 || got.B > 5 {
		t.Fatalf("center pixel = %v", got)
	}

	title := sc.FindByClass("canvas-title")[0]
	accent := title.Style.Font.Color
	inked := 0
	r := pixelRect(title.Frame)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if near(img.RGBAAt(x, y), accent, 30) {
				inked++
			}
		}
	}
	if inked < 100 {
		t.Fatalf("title area has %d accent pixels", inked)
	}
}

func TestDrawBrokenImageUsesPlaceholder(t *testing.T) {
	s := testSlide()
	s.MainImageURL = "data:image/png;base64,AAAA"
	sc := Build(s)
	img, err := NewRasterizer(nil, nil).Draw(context.Background(), sc, Options{Scale: 1})
	if err != nil {
		t.Fatalf("broken image failed the pass: %v", err)
	}
	c := sc.FindByClass("canvas-center-image")[0].Frame.Center()
	if got := img.RGBAAt(int(c.X), int(c.Y)); !near(got, placeholderColor, 3) {
		t.Fatalf("placeholder pixel = %v", got)
	}
}

func TestDrawCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRasterizer(nil, nil).Draw(ctx, Build(testSlide()), Options{Scale: 0.25})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}

func TestImageLoaderSources(t *testing.T) {
	blob := solidPNG(t, color.NRGBA{G: 255, A: 255}, 3, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ok.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(blob)
	}))
	defer srv.Close()

	l := NewImageLoader(2 * time.Second)
	img, err := l.Load(context.Background(), srv.URL+"/ok.png")
	if err != nil || img.Bounds().Dx() != 3 {
		t.Fatalf("http load = %v, %v", img, err)
	}
	if _, err := l.Load(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Fatalf("404 loaded")
	}

	url, err := DataURL(blob)
	if err != nil || url[:22] != "data:image/png;base64," {
		t.Fatalf("DataURL = %q, %v", url, err)
	}
	if img, err := l.Load(context.Background(), url); err != nil || img.Bounds().Dy() != 2 {
		t.Fatalf("data load = %v, %v", img, err)
	}
	if _, err := DataURL([]byte("plain text")); !errors.Is(err, ErrNotImage) {
		t.Fatalf("text accepted as image: %v", err)
	}
	if _, err := l.Load(context.Background(), "ftp://example.com/a.png"); !errors.Is(err, ErrUnsupportedSource) {
		t.Fatalf("ftp err = %v", err)
	}
	b, mt, err := ParseDataURL("data:text/plain,hello%20world")
	if err != nil || string(b) != "hello world" || mt != "text/plain" {
		t.Fatalf("plain data url = %q %q %v", b, mt, err)
	}
}

func TestDrawHugeFontStaysBounded(t *testing.T) {
	s := testSlide()
	s.CustomCSS = ".canvas-title { font-size: 99999px } .canvas-subtitle { font-size: 5000em }"
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	start := time.Now()
	if _, err := NewRasterizer(nil, nil).Draw(ctx, Build(s), Options{Scale: 0.25}); err != nil {
		t.Fatalf("draw: %v after %v", err, time.Since(start))
	}
}

func TestImageLoaderCacheIsBounded(t *testing.T) {
	l := NewImageLoader(time.Second)
	l.CacheEntries = 2
	l.CachePixels = 100
	for i := 1; i <= 4; i++ {
		url, err := DataURL(solidPNG(t, color.NRGBA{R: uint8(i), A: 255}, i, 1))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := l.Load(context.Background(), url); err != nil {
			t.Fatal(err)
		}
	}
	if n := l.CacheLen(); n != 2 {
		t.Fatalf("cached %d images, want 2", n)
	}

	big, err := DataURL(solidPNG(t, color.NRGBA{A: 255}, 20, 10))
	if err != nil {
		t.Fatal(err)
	}
	if img, err := l.Load(context.Background(), big); err != nil || img.Bounds().Dx() != 20 {
		t.Fatalf("big load = %v, %v", img, err)
	}
	if n := l.CacheLen(); n != 2 {
		t.Fatalf("image over the pixel budget was cached: %d", n)
	}

	small, err := DataURL(solidPNG(t, color.NRGBA{G: 1, A: 255}, 10, 10))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Load(context.Background(), small); err != nil {
		t.Fatal(err)
	}
	if n := l.CacheLen(); n != 1 {
		t.Fatalf("pixel budget not enforced: %d entries", n)
	}
}
