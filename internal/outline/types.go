/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package outline

import "fmt"

// Outline is a deck written as plain text. See Parse for the syntax.
type Outline struct {
	Title  string
	Slides []Slide
}

// Slide is one "# Header" block of an outline.
type Slide struct {
	Header    string
	SubHeader string
	Points    []Point
	LineNo    int // 1-based line of the header
}

// Point is one "- Title: description" item.
type Point struct {
	Title       string
	Description string
	Icon        string // from an @icon tag, may be empty
	LineNo      int
}

// Error represents a parse error with position context.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e Error) Error() string { return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message) }
