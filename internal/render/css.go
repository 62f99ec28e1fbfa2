/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"

	"infostudio/internal/domain"
	"infostudio/internal/vector"
)

// Bounds for user supplied lengths, in canvas pixels.
const (
	maxLength     = 2 * domain.CanvasHeight
	MaxFontSize   = domain.CanvasHeight / 4
	MaxBlur       = 64
	maxLineHeight = 10
)

// ApplyCSS parses a user stylesheet and writes its declarations into the
// computed styles of matching nodes. Later rules win over earlier ones and
// !important declarations win over both. Selectors are limited to type,
// class, id and universal compounds joined by descendant combinators;
// rules with other selectors are skipped. Declarations the renderer has no
// notion of are kept in Style.Extra.
//
// Parse errors do not stop the rules that did parse from applying; the
// returned error lists what was dropped.
func ApplyCSS(sc *vector.Scene, src string) error {
	rules, errs := parseRules(src)
	for _, important := range []bool{false, true} {
		for _, r := range rules {
			for _, sel := range r.selectors {
				sc.Walk(func(n *vector.Node, anc []*vector.Node) bool {
					if sel.matches(n, anc) {
						for _, d := range r.decls {
							if d.Important == important {
								applyDecl(n, d.Property, d.Value)
							}
						}
					}
					return true
				})
			}
		}
	}
	return errors.Join(errs...)
}

type rule struct {
	selectors []selector
	decls     []*css.Declaration
}

func parseRules(src string) ([]rule, []error) {
	var errs []error
	sheet, err := parser.Parse(src)
	if err != nil {
		// Retry block by block so one broken rule does not hide the rest.
		sheet = &css.Stylesheet{}
		for _, chunk := range splitBlocks(src) {
			s, cerr := parser.Parse(chunk)
			if cerr != nil {
				errs = append(errs, fmt.Errorf("css %q: %w", strings.TrimSpace(chunk), cerr))
				continue
			}
			sheet.Rules = append(sheet.Rules, s.Rules...)
		}
	}
	var out []rule
	for _, r := range sheet.Rules {
		if r.Kind != css.QualifiedRule || len(r.Declarations) == 0 {
			continue
		}
		var sels []selector
		for _, raw := range r.Selectors {
			if s, ok := parseSelector(raw); ok {
				sels = append(sels, s)
			}
		}
		if len(sels) > 0 {
			out = append(out, rule{selectors: sels, decls: r.Declarations})
		}
	}
	return out, errs
}

func splitBlocks(src string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range src {
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
			if depth == 0 {
				out = append(out, src[start:i+1])
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(src[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

type compound struct {
	tag     string
	id      string
	classes []string
}

func (c compound) matches(n *vector.Node) bool {
	if c.tag != "" && c.tag != "*" && c.tag != n.Tag {
		return false
	}
	if c.id != "" && c.id != n.ID {
		return false
	}
	for _, cl := range c.classes {
		if !n.HasClass(cl) {
			return false
		}
	}
	return true
}

// selector is a descendant chain; the last compound is the subject.
type selector []compound

func parseSelector(s string) (selector, bool) {
	if strings.ContainsAny(s, ">+~:[") {
		return nil, false
	}
	var out selector
	for _, tok := range strings.Fields(s) {
		c, ok := parseCompound(tok)
		if !ok {
			return nil, false
		}
		out = append(out, c)
	}
	return out, len(out) > 0
}

func parseCompound(tok string) (compound, bool) {
	var c compound
	i := strings.IndexAny(tok, ".#")
	if i < 0 {
		c.tag = strings.ToLower(tok)
		return c, true
	}
	c.tag = strings.ToLower(tok[:i])
	rest := tok[i:]
	for rest != "" {
		kind := rest[0]
		rest = rest[1:]
		j := strings.IndexAny(rest, ".#")
		if j < 0 {
			j = len(rest)
		}
		name := rest[:j]
		rest = rest[j:]
		if name == "" {
			return c, false
		}
		if kind == '#' {
			c.id = name
		} else {
			c.classes = append(c.classes, name)
		}
	}
	return c, true
}

func (s selector) matches(n *vector.Node, anc []*vector.Node) bool {
	if !s[len(s)-1].matches(n) {
		return false
	}
	k := len(s) - 2
	for i := len(anc) - 1; i >= 0 && k >= 0; i-- {
		if s[k].matches(anc[i]) {
			k--
		}
	}
	return k < 0
}

func applyDecl(n *vector.Node, prop, value string) {
	prop = strings.ToLower(strings.TrimSpace(prop))
	v := strings.TrimSpace(value)
	lv := strings.ToLower(v)
	st := &n.Style
	handled := true
	switch prop {
	case "color":
		if c, err := vector.ParseColor(v); err == nil {
			inherit(n, func(d *vector.Node) { d.Style.Font.Color = c })
		} else {
			handled = false
		}
	case "background", "background-color":
		switch {
		case lv == "none":
			st.Fill = vector.Paint{}
		case strings.Contains(lv, "gradient("):
			handled = false
		default:
			if c, err := vector.ParseColor(v); err == nil {
				st.Fill = vector.Solid(c)
			} else {
				handled = false
			}
		}
	case "border-color":
		if c, err := vector.ParseColor(v); err == nil {
			st.Stroke.Color = c
			st.Stroke.Enabled = st.Stroke.Width > 0
		} else {
			handled = false
		}
	case "border-width":
		if px, ok := parseLength(lv, st.Font.Size); ok {
			st.Stroke.Width = px
			st.Stroke.Enabled = px > 0
		} else {
			handled = false
		}
	case "border":
		handled = applyBorder(st, lv)
	case "border-radius":
		if px, ok := parseLength(lv, st.Font.Size); ok {
			n.Radius = px
		} else {
			handled = false
		}
	case "opacity":
		if f, err := strconv.ParseFloat(lv, 32); err == nil && finite(f) {
			st.Opacity = min(max(float32(f), 0), 1)
		} else {
			handled = false
		}
	case "display":
		switch lv {
		case "none":
			st.Hidden = true
		case "block":
			st.Hidden, st.Block = false, true
		case "inline", "inline-block":
			st.Hidden, st.Block = false, false
		default:
			st.Hidden = false
			handled = false
		}
	case "visibility":
		switch lv {
		case "hidden", "collapse":
			st.Hidden = true
		case "visible":
			st.Hidden = false
		default:
			handled = false
		}
	case "font-size":
		if px, ok := parseLength(lv, st.Font.Size); ok && px > 0 {
			st.Font.Size = min(px, MaxFontSize)
		} else {
			handled = false
		}
	case "font-weight":
		switch lv {
		case "bold", "bolder":
			st.Font.Bold = true
		case "normal", "lighter":
			st.Font.Bold = false
		default:
			if w, err := strconv.Atoi(lv); err == nil {
				st.Font.Bold = w >= 600
			} else {
				handled = false
			}
		}
	case "line-height":
		if lh, ok := parseLineHeight(lv, st.Font.Size); ok {
			st.Font.LineHeight = lh
		} else {
			handled = false
		}
	case "text-align":
		switch lv {
		case "left", "start":
			st.Font.Align = vector.AlignLeft
		case "right", "end":
			st.Font.Align = vector.AlignRight
		case "center":
			st.Font.Align = vector.AlignCenter
		default:
			handled = false
		}
	case "text-shadow":
		var sh *vector.Shadow
		if sh, handled = parseShadow(lv); handled {
			inherit(n, func(c *vector.Node) { c.Style.TextShadow = copyShadow(sh) })
		}
	case "box-shadow":
		st.BoxShadow, handled = parseShadow(lv)
	case "transform":
		handled = applyTransform(n, lv)
	default:
		handled = false
	}
	if !handled {
		if st.Extra == nil {
			st.Extra = map[string]string{}
		}
		st.Extra[prop] = v
	}
}

// inherit applies set to n and its subtree, for inherited properties.
func inherit(n *vector.Node, set func(*vector.Node)) {
	set(n)
	for _, ch := range n.Children {
		inherit(ch, set)
	}
}

func copyShadow(sh *vector.Shadow) *vector.Shadow {
	if sh == nil {
		return nil
	}
	c := *sh
	return &c
}

func applyBorder(st *vector.Style, v string) bool {
	if v == "none" || v == "0" {
		st.Stroke.Enabled = false
		return true
	}
	ok := false
	for _, tok := range splitTop(v, ' ') {
		if px, isLen := parseLength(tok, st.Font.Size); isLen {
			st.Stroke.Width = px
			ok = true
			continue
		}
		if c, err := vector.ParseColor(tok); err == nil {
			st.Stroke.Color = c
			ok = true
		}
	}
	st.Stroke.Enabled = st.Stroke.Width > 0
	return ok
}

func applyTransform(n *vector.Node, v string) bool {
	if v == "none" {
		n.Transform = vector.Identity
		return true
	}
	c := n.Frame.Center()
	m := vector.Identity
	for _, fn := range splitTop(v, ' ') {
		open := strings.IndexByte(fn, '(')
		if open < 0 || !strings.HasSuffix(fn, ")") {
			return false
		}
		args := strings.Split(fn[open+1:len(fn)-1], ",")
		switch fn[:open] {
		case "rotate":
			deg, ok := parseAngle(strings.TrimSpace(args[0]))
			if !ok {
				return false
			}
			m = m.Mul(vector.RotateAbout(c, deg))
		case "scale":
			sx, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 32)
			if err != nil {
				return false
			}
			sy := sx
			if len(args) > 1 {
				if sy, err = strconv.ParseFloat(strings.TrimSpace(args[1]), 32); err != nil {
					return false
				}
			}
			m = m.Mul(vector.Translate(c.X, c.Y).Mul(vector.Scale(float32(sx), float32(sy))).Mul(vector.Translate(-c.X, -c.Y)))
		case "translate":
			tx, ok := parseLength(strings.TrimSpace(args[0]), 0)
			if !ok {
				return false
			}
			var ty float32
			if len(args) > 1 {
				if ty, ok = parseLength(strings.TrimSpace(args[1]), 0); !ok {
					return false
				}
			}
			m = m.Mul(vector.Translate(tx, ty))
		default:
			return false
		}
	}
	n.Transform = m
	return true
}

func parseAngle(s string) (float32, bool) {
	switch {
	case strings.HasSuffix(s, "deg"):
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "deg"), 32)
		return float32(f), err == nil
	case strings.HasSuffix(s, "turn"):
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "turn"), 32)
		return float32(f * 360), err == nil
	case s == "0":
		return 0, true
	}
	return 0, false
}

// parseLength reads px, unitless zero, em (relative to em) and pt values.
func parseLength(s string, em float32) (float32, bool) {
	s = strings.TrimSpace(s)
	unit := 1.0
	switch {
	case strings.HasSuffix(s, "px"):
		s = strings.TrimSuffix(s, "px")
	case strings.HasSuffix(s, "rem"):
		s, unit = strings.TrimSuffix(s, "rem"), 16
	case strings.HasSuffix(s, "em"):
		if em <= 0 {
			em = 16
		}
		s, unit = strings.TrimSuffix(s, "em"), float64(em)
	case strings.HasSuffix(s, "pt"):
		s, unit = strings.TrimSuffix(s, "pt"), 4.0/3
	case s == "0":
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 32)
	if err != nil || !finite(f) {
		return 0, false
	}
	return float32(min(max(f*unit, -maxLength), maxLength)), true
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func parseLineHeight(s string, size float32) (float32, bool) {
	if s == "normal" {
		return 1.25, true
	}
	if strings.HasSuffix(s, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 32)
		return float32(min(f/100, maxLineHeight)), err == nil && finite(f) && f > 0
	}
	if f, err := strconv.ParseFloat(s, 32); err == nil {
		return float32(min(f, maxLineHeight)), finite(f) && f > 0
	}
	if px, ok := parseLength(s, size); ok && size > 0 && px > 0 {
		return min(px/size, maxLineHeight), true
	}
	return 0, false
}

// parseShadow reads the first shadow of a list: <dx> <dy> [blur] [spread]
// and an optional color. "none" clears it.
func parseShadow(s string) (*vector.Shadow, bool) {
	if s == "none" {
		return nil, true
	}
	first := splitTop(s, ',')[0]
	sh := &vector.Shadow{Color: vector.Color{A: 128}}
	var lens []float32
	for _, tok := range splitTop(first, ' ') {
		if tok == "inset" {
			continue
		}
		if px, ok := parseLength(tok, 16); ok {
			lens = append(lens, px)
			continue
		}
		c, err := vector.ParseColor(tok)
		if err != nil {
			return nil, false
		}
		sh.Color = c
	}
	if len(lens) < 2 {
		return nil, false
	}
	sh.DX, sh.DY = lens[0], lens[1]
	if len(lens) > 2 {
		sh.Blur = min(max(lens[2], 0), MaxBlur)
	}
	return sh, true
}

// splitTop splits on sep outside parentheses and drops empty parts.
func splitTop(s string, sep rune) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == sep && depth == 0:
			if part := strings.TrimSpace(s[start:i]); part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		out = append(out, part)
	}
	if len(out) == 0 {
		out = []string{""}
	}
	return out
}
