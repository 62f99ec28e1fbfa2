/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel validation errors; Validate joins one per violation.
var (
	ErrNoSlides      = errors.New("project has no slides")
	ErrDuplicateID   = errors.New("duplicate slide id")
	ErrEmptyID       = errors.New("empty id")
	ErrTooManyPoints = errors.New("too many points")
	ErrAngleRange    = errors.New("angle out of range")
)

// Validate checks the document invariants and reports every violation.
func (p Project) Validate() error {
	var errs []error
	if len(p.Slides) == 0 {
		errs = append(errs, ErrNoSlides)
	}
	seen := make(map[string]bool, len(p.Slides))
	for i, s := range p.Slides {
		if s.ID == "" {
			errs = append(errs, fmt.Errorf("slide %d: %w", i, ErrEmptyID))
		} else if seen[s.ID] {
			errs = append(errs, fmt.Errorf("slide %d (%s): %w", i, s.ID, ErrDuplicateID))
		}
		seen[s.ID] = true
		if err := s.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("slide %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Validate checks the point invariants of a single slide.
func (s Slide) Validate() error {
	var errs []error
	if len(s.Points) > MaxPoints {
		errs = append(errs, fmt.Errorf("%d > %d: %w", len(s.Points), MaxPoints, ErrTooManyPoints))
	}
	for _, pt := range s.Points {
		if pt.ID == "" {
			errs = append(errs, fmt.Errorf("point %q: %w", pt.Title, ErrEmptyID))
		}
		if math.IsNaN(pt.Angle) || pt.Angle < 0 || pt.Angle >= 360 {
			errs = append(errs, fmt.Errorf("point %s angle %v: %w", pt.ID, pt.Angle, ErrAngleRange))
		}
	}
	return errors.Join(errs...)
}
