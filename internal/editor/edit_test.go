/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"infostudio/internal/domain"
	"infostudio/internal/theme"
)

func base() domain.Slide { return domain.DefaultProject().Slides[0] }

func ptr[T any](v T) *T { return &v }

func TestEditsDoNotMutateInput(t *testing.T) {
	s := base()
	orig := s.Clone()
	_ = SetHeader(s, "x")
	_ = AddPoint(s)
	_ = RemovePoint(s, "p1")
	_ = UpdatePoint(s, "p2", PointPatch{Title: ptr("y")})
	_ = ApplyTheme(s, theme.Themes()[1])
	_ = SetCustomCSS(s, "")
	if !reflect.DeepEqual(s, orig) {
		t.Fatalf("input slide was mutated")
	}
}

func TestAddPointSoftCap(t *testing.T) {
	s := domain.Slide{ID: "s"}
	for i := 0; i < domain.MaxPoints+3; i++ {
		s = AddPoint(s)
	}
	if len(s.Points) != domain.MaxPoints {
		t.Fatalf("got %d points, want %d", len(s.Points), domain.MaxPoints)
	}
	for i, p := range s.Points {
		if want := float64((i * 45) % 360); p.Angle != want {
			t.Fatalf("point %d angle %v, want %v", i, p.Angle, want)
		}
		if p.Icon != domain.DefaultIcon || p.Title != domain.NewPointTitle || p.Description != domain.PlaceholderText {
			t.Fatalf("unexpected placeholder point %+v", p)
		}
	}
	ninth := AddPoint(s)
	if !reflect.DeepEqual(ninth, s) {
		t.Fatalf("the ninth add must be a no-op")
	}
}

func TestRemovePointKeepsOrder(t *testing.T) {
	s := base()
	out := RemovePoint(s, "p3")
	if out.PointIndex("p3") >= 0 {
		t.Fatalf("p3 still present")
	}
	var want []domain.Point
	for _, p := range s.Points {
		if p.ID != "p3" {
			want = append(want, p)
		}
	}
	if !reflect.DeepEqual(out.Points, want) {
		t.Fatalf("remaining points changed:\n got %+v\nwant %+v", out.Points, want)
	}
}

func TestUpdatePoint(t *testing.T) {
	s := base()
	out := UpdatePoint(s, "p2", PointPatch{Icon: ptr("no-such-icon"), Angle: ptr(-30.0), Description: ptr("d")})
	p := out.Points[1]
	if p.Icon != domain.DefaultIcon || p.Angle != 330 || p.Description != "d" || p.Title != s.Points[1].Title {
		t.Fatalf("unexpected point %+v", p)
	}
	for i := range s.Points {
		if i != 1 && !reflect.DeepEqual(out.Points[i], s.Points[i]) {
			t.Fatalf("sibling %d changed", i)
		}
	}
	if got := UpdatePoint(s, "missing", PointPatch{Title: ptr("z")}); !reflect.DeepEqual(got, s) {
		t.Fatalf("unknown id must leave the slide unchanged")
	}
}

func TestApplyThemeTouchesOnlyColors(t *testing.T) {
	s := base()
	th, ok := theme.ByName("Dark Mode")
	if !ok {
		t.Fatal("Dark Mode theme missing")
	}
	out := ApplyTheme(s, th)
	if out.AccentColor != th.Primary || out.SecondaryColor != th.Secondary ||
		out.BackgroundColor != th.Bg || out.TextColor != th.Text {
		t.Fatalf("colors not applied: %+v", out)
	}
	out.AccentColor, out.SecondaryColor, out.BackgroundColor, out.TextColor =
		s.AccentColor, s.SecondaryColor, s.BackgroundColor, s.TextColor
	if !reflect.DeepEqual(out, s) {
		t.Fatalf("non-color fields changed")
	}
}

func TestSetColor(t *testing.T) {
	s := base()
	out, err := SetColor(s, ColorBackground, " #0D1137 ")
	if err != nil || out.BackgroundColor != "#0D1137" {
		t.Fatalf("SetColor: %v %q", err, out.BackgroundColor)
	}
	if Color(out, ColorBackground) != "#0D1137" {
		t.Fatalf("Color getter mismatch")
	}
	bad, err := SetColor(s, ColorText, "not-a-color")
	if err == nil || !reflect.DeepEqual(bad, s) {
		t.Fatalf("invalid color must be rejected, err=%v", err)
	}
}

func TestResetCSS(t *testing.T) {
	s := SetCustomCSS(base(), ".x{}")
	if ResetCSS(s).CustomCSS != domain.DefaultCustomCSS {
		t.Fatalf("ResetCSS did not restore the sample")
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestUploads(t *testing.T) {
	s := base()
	data := pngBytes(t)
	out, err := SetMainImage(s, data)
	if err != nil {
		t.Fatalf("SetMainImage: %v", err)
	}
	if !strings.HasPrefix(out.MainImageURL, "data:image/png;base64,") {
		t.Fatalf("unexpected data url prefix: %.40s", out.MainImageURL)
	}
	out, err = SetLogo(out, data)
	if err != nil || out.LogoURL == "" {
		t.Fatalf("SetLogo: %v", err)
	}
	if ClearLogo(out).LogoURL != "" {
		t.Fatalf("ClearLogo kept the logo")
	}

	same, err := SetMainImage(s, []byte("plain text"))
	if !errors.Is(err, ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}
	if !reflect.DeepEqual(same, s) {
		t.Fatalf("failed upload changed the slide")
	}
}

func TestReadUpload(t *testing.T) {
	p := filepath.Join(t.TempDir(), "pic.png")
	data := pngBytes(t)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := ReadUpload(p)
	if err != nil || !bytes.Equal(got, data) {
		t.Fatalf("ReadUpload: %v", err)
	}
	if _, err := ReadUpload(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatalf("expected error for a missing file")
	}
}

func TestApplyGenerated(t *testing.T) {
	s := base()
	pts := []domain.Point{{ID: "g1", Title: "A", Icon: "cpu"}}
	out := ApplyGenerated(s, Generated{Header: "H", SubHeader: "S", Points: pts})
	if out.Header != "H" || out.SubHeader != "S" || len(out.Points) != 1 {
		t.Fatalf("unexpected result %+v", out)
	}
	if out.CustomCSS != s.CustomCSS || out.AccentColor != s.AccentColor || out.MainImageURL != s.MainImageURL {
		t.Fatalf("styling must be preserved")
	}
	pts[0].Title = "changed"
	if out.Points[0].Title != "A" {
		t.Fatalf("result aliases the input points")
	}
}

func TestTabs(t *testing.T) {
	var names []string
	for _, tb := range Tabs() {
		names = append(names, tb.String())
	}
	if strings.Join(names, ",") != "content,style,css" {
		t.Fatalf("tabs = %v", names)
	}
}
