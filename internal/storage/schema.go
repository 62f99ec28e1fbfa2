/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"infostudio/internal/domain"
)

//go:embed schema/infographic.schema.json
var projectSchema []byte

// ErrInvalidProject wraps schema and invariant violations of a project file.
var ErrInvalidProject = errors.New("invalid project file")

var projectSchemaLoader = gojsonschema.NewBytesLoader(projectSchema)

// ProjectSchema returns the JSON schema project files are validated against.
func ProjectSchema() []byte { return append([]byte(nil), projectSchema...) }

// Decode validates data against the project schema and the document
// invariants and decodes it.
func Decode(data []byte) (domain.Project, error) {
	res, err := gojsonschema.Validate(projectSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return domain.Project{}, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return domain.Project{}, fmt.Errorf("%w: %s", ErrInvalidProject, strings.Join(msgs, "; "))
	}
	var p domain.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Project{}, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	if err := p.Validate(); err != nil {
		return domain.Project{}, fmt.Errorf("%w: %w", ErrInvalidProject, err)
	}
	return p, nil
}

// Encode renders p in the human-readable on-disk form. Slides without
// points are written with an empty list.
func Encode(p domain.Project) ([]byte, error) {
	p = p.Clone()
	for i := range p.Slides {
		if p.Slides[i].Points == nil {
			p.Slides[i].Points = []domain.Point{}
		}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	return append(data, '\n'), nil
}
