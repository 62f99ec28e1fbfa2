/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package outline

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"infostudio/internal/domain"
	"infostudio/internal/theme"
	"infostudio/internal/vector"
)

var (
	reTitle  = regexp.MustCompile(`^(?i)title:\s*(.+)$`)
	reHeader = regexp.MustCompile(`^#\s*(.*)$`)
	reSub    = regexp.MustCompile(`^(?:##|>)\s*(.*)$`)
	rePoint  = regexp.MustCompile(`^[-*]\s+(.*)$`)
	reTag    = regexp.MustCompile(`(?i)(?:^|\s)@([a-z0-9_\-]+)`)
)

// Parse reads an outline. Supported syntax:
//   - "Title: text" before the first slide names the project.
//   - "# text" starts a slide with that header.
//   - "## text" or "> text" sets the slide's subheader.
//   - "- Title: description" adds a point; "- Title" alone has an empty
//     description. An "@icon" tag anywhere on the item picks the icon.
//   - Lines indented by 2+ spaces continue the previous point's description.
//   - Lines starting with ";" are comments.
//
// Problems are reported as errors next to the best-effort result: points
// outside a slide are dropped and a slide keeps at most eight points.
func Parse(input string) (Outline, []Error) {
	var (
		o    Outline
		errs []Error
		cur  *Slide
		last *Point
	)
	scanner := bufio.NewScanner(strings.NewReader(input))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")

		if strings.HasPrefix(line, "  ") && last != nil && !rePoint.MatchString(strings.TrimSpace(line)) {
			if cont := strings.TrimSpace(line); cont != "" {
				text, icon := splitTag(cont)
				if icon != "" && last.Icon == "" {
					last.Icon = icon
				}
				last.Description = strings.TrimSpace(last.Description + " " + text)
			}
			continue
		}

		trim := strings.TrimSpace(line)
		switch {
		case trim == "":
			last = nil
		case strings.HasPrefix(trim, ";"):
		case cur == nil && reTitle.MatchString(trim):
			o.Title = strings.TrimSpace(reTitle.FindStringSubmatch(trim)[1])
		case reSub.MatchString(trim):
			m := reSub.FindStringSubmatch(trim)
			if cur == nil {
				errs = append(errs, Error{Line: lineNo, Column: 1, Message: "subheader before the first slide"})
				continue
			}
			cur.SubHeader = strings.TrimSpace(m[1])
			last = nil
		case reHeader.MatchString(trim):
			header := strings.TrimSpace(reHeader.FindStringSubmatch(trim)[1])
			if header == "" {
				errs = append(errs, Error{Line: lineNo, Column: 1, Message: "empty slide header"})
			}
			o.Slides = append(o.Slides, Slide{Header: header, LineNo: lineNo})
			cur = &o.Slides[len(o.Slides)-1]
			last = nil
		case rePoint.MatchString(trim):
			col := strings.Index(line, trim) + 1
			if cur == nil {
				errs = append(errs, Error{Line: lineNo, Column: col, Message: "point before the first slide"})
				continue
			}
			if len(cur.Points) >= domain.MaxPoints {
				errs = append(errs, Error{Line: lineNo, Column: col, Message: fmt.Sprintf("more than %d points on slide %q", domain.MaxPoints, cur.Header)})
				last = nil
				continue
			}
			p := parsePoint(rePoint.FindStringSubmatch(trim)[1])
			p.LineNo = lineNo
			if p.Title == "" {
				errs = append(errs, Error{Line: lineNo, Column: col, Message: "point without title"})
			}
			cur.Points = append(cur.Points, p)
			last = &cur.Points[len(cur.Points)-1]
		default:
			// free text continues a point or becomes the subheader
			switch {
			case last != nil:
				last.Description = strings.TrimSpace(last.Description + " " + trim)
			case cur != nil && cur.SubHeader == "" && len(cur.Points) == 0:
				cur.SubHeader = trim
			default:
				errs = append(errs, Error{Line: lineNo, Column: 1, Message: "unrecognized line"})
			}
		}
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, Error{Line: lineNo, Column: 1, Message: err.Error()})
	}
	return o, errs
}

func parsePoint(s string) Point {
	s, icon := splitTag(s)
	title, desc, _ := strings.Cut(s, ":")
	return Point{Title: strings.TrimSpace(title), Description: strings.TrimSpace(desc), Icon: icon}
}

// splitTag removes the first @tag from s and returns it lower-cased.
func splitTag(s string) (string, string) {
	loc := reTag.FindStringSubmatchIndex(s)
	if loc == nil {
		return s, ""
	}
	icon := strings.ToLower(s[loc[2]:loc[3]])
	return strings.TrimSpace(s[:loc[0]] + " " + s[loc[1]:]), icon
}

// Build derives one slide per outline block from base, which supplies
// the styling, images and custom CSS. Points are spread evenly around the
// circle; a missing icon or one outside the registry becomes the default.
func (o Outline) Build(base domain.Slide) []domain.Slide {
	out := make([]domain.Slide, 0, len(o.Slides))
	for _, b := range o.Slides {
		s := domain.NewSlideFrom(base)
		s.Header = b.Header
		s.SubHeader = b.SubHeader
		s.Points = make([]domain.Point, len(b.Points))
		for i, p := range b.Points {
			desc := p.Description
			if desc == "" {
				desc = domain.PlaceholderText
			}
			s.Points[i] = domain.Point{
				ID:          domain.NewID(),
				Title:       p.Title,
				Description: desc,
				Icon:        theme.Resolve(p.Icon),
				Angle:       vector.EvenAngle(i, len(b.Points)),
			}
		}
		out = append(out, s)
	}
	return out
}

// Format writes p in outline syntax; Parse reads it back to the same
// headers, subheaders, points and icons.
func Format(p domain.Project) string {
	var b strings.Builder
	if p.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", p.Title)
	}
	for _, s := range p.Slides {
		fmt.Fprintf(&b, "\n# %s\n", oneLine(s.Header))
		if s.SubHeader != "" {
			fmt.Fprintf(&b, "> %s\n", oneLine(s.SubHeader))
		}
		for _, pt := range s.Points {
			fmt.Fprintf(&b, "- %s: %s @%s\n", oneLine(strings.ReplaceAll(pt.Title, ":", " ")), oneLine(pt.Description), pt.Icon)
		}
	}
	return b.String()
}

func oneLine(s string) string { return strings.Join(strings.Fields(s), " ") }
