/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"infostudio/internal/vector"
)

// Line is one laid out line.
type Line struct {
	Text  string
	Width float32
}

// Box is the result of wrapping a text into a maximum width.
type Box struct {
	Lines      []Line
	Width      float32 // widest line
	Height     float32 // len(Lines) * LineHeight
	LineHeight float32
	Ascent     float32
	Descent    float32
}

// Measure returns the advance width of s in pixels.
func Measure(face font.Face, s string) float32 {
	return fixedToFloat(font.MeasureString(face, s))
}

func fixedToFloat(v fixed.Int26_6) float32 { return float32(v) / 64 }

// Wrap breaks text on spaces so each line fits maxWidth; explicit newlines
// always break. Words wider than maxWidth are split between runes.
// lineHeight is a multiple of the font size; sizePx is that size.
func Wrap(face font.Face, text string, maxWidth, sizePx, lineHeight float32) Box {
	if lineHeight <= 0 {
		lineHeight = 1.25
	}
	m := face.Metrics()
	box := Box{
		LineHeight: sizePx * lineHeight,
		Ascent:     fixedToFloat(m.Ascent),
		Descent:    fixedToFloat(m.Descent),
	}
	space := Measure(face, " ")
	emit := func(words []string, width float32) {
		box.Lines = append(box.Lines, Line{Text: strings.Join(words, " "), Width: width})
		if width > box.Width {
			box.Width = width
		}
	}
	for _, para := range strings.Split(text, "\n") {
		before := len(box.Lines)
		var cur []string
		var curW float32
		for _, word := range strings.Fields(para) {
			w := Measure(face, word)
			if maxWidth > 0 && w > maxWidth {
				if len(cur) > 0 {
					emit(cur, curW)
					cur, curW = nil, 0
				}
				for _, piece := range splitWord(face, word, maxWidth) {
					emit([]string{piece}, Measure(face, piece))
				}
				continue
			}
			next := w
			if len(cur) > 0 {
				next = curW + space + w
			}
			if maxWidth > 0 && len(cur) > 0 && next > maxWidth {
				emit(cur, curW)
				cur, curW = []string{word}, w
				continue
			}
			cur = append(cur, word)
			curW = next
		}
		// Empty paragraphs still take a line so blank lines survive.
		if len(cur) > 0 || len(box.Lines) == before {
			emit(cur, curW)
		}
	}
	box.Height = float32(len(box.Lines)) * box.LineHeight
	return box
}

func splitWord(face font.Face, word string, maxWidth float32) []string {
	var out []string
	start := 0
	var w float32
	for i, r := range word {
		rw := Measure(face, string(r))
		if w+rw > maxWidth && i > start {
			out = append(out, word[start:i])
			start, w = i, 0
		}
		w += rw
	}
	if start < len(word) {
		out = append(out, word[start:])
	}
	return out
}

// OffsetX returns the x offset of a line of width w inside a box of width boxW.
func OffsetX(align vector.Align, w, boxW float32) float32 {
	switch align {
	case vector.AlignCenter:
		return (boxW - w) / 2
	case vector.AlignRight:
		return boxW - w
	}
	return 0
}

// Baseline returns the baseline y of line i when the box starts at top.
// The glyph block is centered in each line box.
func (b Box) Baseline(top float32, i int) float32 {
	half := (b.LineHeight - (b.Ascent + b.Descent)) / 2
	return top + float32(i)*b.LineHeight + half + b.Ascent
}
