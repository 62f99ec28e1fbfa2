/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package log

import "context"

type ctxKey int

const (
	slideKey ctxKey = iota
	projectKey
)

// WithSlide stores the active slide id; records logged with this context
// gain a "slide" attribute.
func WithSlide(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, slideKey, id)
}

// WithProject stores the project file path; records gain a "project" attribute.
func WithProject(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, projectKey, path)
}

func slideFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(slideKey).(string)
	return s
}

func projectFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(projectKey).(string)
	return s
}
