/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"infostudio/internal/domain"
	"infostudio/internal/editor"
	applog "infostudio/internal/log"
	"infostudio/internal/session"
	"infostudio/internal/telemetry"
)

// MagicWrite fills the active slide with generated content for its header.
// Only one request per slide may be in flight; failures of any kind leave
// the slide as it was. It reports whether content was applied.
func MagicWrite(ctx context.Context, st *session.State, g Generator) (bool, error) {
	slide := st.Active()
	l := applog.WithOperation(applog.WithComponent("generate"), "magic_write").With(slog.String("slide", slide.ID))
	ticket, ok := st.BeginGenerate(slide.ID)
	if !ok {
		l.Info("generation already running")
		return false, ErrInFlight
	}
	defer st.EndGenerate(ticket)

	topic := strings.TrimSpace(slide.Header)
	if topic == "" {
		topic = DefaultTopic
	}
	content, err := g.Generate(applog.WithSlide(ctx, slide.ID), topic)
	switch {
	case errors.Is(err, ErrNoCredential):
		l.Warn("content generation disabled: no API key configured")
		return false, err
	case err != nil:
		telemetry.Event(telemetry.EventGenerateFailed, map[string]any{"reason": failureReason(err)})
		return false, err
	case content == nil:
		return false, ErrEmpty
	}

	// the slide may have been edited while the request ran
	err = st.ReplaceFor(ticket, func(current domain.Slide) domain.Slide {
		return editor.ApplyGenerated(current, ToGenerated(content))
	})
	if errors.Is(err, session.ErrStale) {
		l.Info("project replaced during generation, content dropped")
		return false, err
	}
	if err != nil {
		return false, fmt.Errorf("apply generated content: %w", err)
	}
	telemetry.Event(telemetry.EventGenerateCompleted, map[string]any{"points": len(content.Points)})
	l.Info("generated content applied", slog.Int("points", len(content.Points)))
	return true, nil
}

func failureReason(err error) string {
	var api *APIError
	switch {
	case errors.Is(err, ErrSchema):
		return "schema"
	case errors.Is(err, ErrEmpty):
		return "empty"
	case errors.As(err, &api):
		return fmt.Sprintf("http_%d", api.Status)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "transport"
}
