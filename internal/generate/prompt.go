/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package generate

import (
	"fmt"
	"strings"

	"infostudio/internal/theme"
)

// DefaultTopic is used when the slide has no header to work from.
const DefaultTopic = "Future technology"

var languages = map[string]string{
	"ar": "Arabic",
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"fr": "French",
}

// LanguageName maps a language code to the name used in prompts; unknown
// codes are passed through.
func LanguageName(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return languages["en"]
	}
	if n, ok := languages[code]; ok {
		return n
	}
	return code
}

// Prompt builds the request text for topic.
func Prompt(topic, language string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = DefaultTopic
	}
	return fmt.Sprintf("Generate an infographic slide content in %s about: %s.\n"+
		"Provide a header, subheader, and 5 key points with short descriptions.\n"+
		"Use a professional journalistic tone.\n"+
		"For each point choose the icon from: %s.",
		LanguageName(language), topic, strings.Join(theme.GenerationHint(), ", "))
}
