/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package version holds build metadata. Values are overridable with
// -ldflags "-X infostudio/internal/version.Version=v1.2.3".
package version

import "fmt"

var (
	Version = "0.1.0-dev"
	Commit  = ""
	Date    = ""
)

// String renders the version with optional commit and build date.
func String() string {
	s := Version
	if Commit != "" {
		c := Commit
		if len(c) > 7 {
			c = c[:7]
		}
		s = fmt.Sprintf("%s (%s)", s, c)
	}
	if Date != "" {
		s += " built " + Date
	}
	return s
}
