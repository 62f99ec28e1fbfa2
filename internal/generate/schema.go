/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package generate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"infostudio/internal/theme"
)

// ErrSchema means the model answer is not the expected JSON shape.
var ErrSchema = errors.New("response does not match the content schema")

// Content is the structured answer of the generation service.
type Content struct {
	Header    string         `json:"header"`
	SubHeader string         `json:"subHeader"`
	Points    []ContentPoint `json:"points"`
}

type ContentPoint struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Schema is the JSON Schema every answer is validated against.
const Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["header", "subHeader", "points"],
  "properties": {
    "header": {"type": "string"},
    "subHeader": {"type": "string"},
    "points": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title"],
        "properties": {
          "title": {"type": "string"},
          "description": {"type": "string"},
          "icon": {"type": "string"}
        }
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(Schema)

// geminiSchema is the OpenAPI-style response schema of generateContent.
var geminiSchema = mustJSON(map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"header":    map[string]any{"type": "STRING"},
		"subHeader": map[string]any{"type": "STRING"},
		"points": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"title":       map[string]any{"type": "STRING"},
					"description": map[string]any{"type": "STRING"},
					"icon": map[string]any{
						"type":        "STRING",
						"description": "One of: " + strings.Join(theme.GenerationHint(), ", "),
					},
				},
			},
		},
	},
	"required": []string{"header", "subHeader", "points"},
})

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// Parse validates raw model text and decodes it. Markdown code fences
// around the JSON are tolerated.
func Parse(raw string) (*Content, error) {
	body := stripFences(raw)
	if body == "" {
		return nil, ErrEmpty
	}
	res, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewStringLoader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if !res.Valid() {
		var msgs []string
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrSchema, strings.Join(msgs, "; "))
	}
	var c Content
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return &c, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		// language tag line
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
