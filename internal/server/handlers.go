/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"infostudio/internal/domain"
	"infostudio/internal/export"
	"infostudio/internal/session"
	"infostudio/internal/version"
)

// maxBodyBytes bounds PUT and POST payloads; embedded images make slides large.
const maxBodyBytes = 32 << 20

type errorBody struct {
	Error string `json:"error"`
}

type slideBody struct {
	Index  int          `json:"index"`
	Active bool         `json:"active"`
	Slide  domain.Slide `json:"slide"`
}

type projectBody struct {
	Title  string         `json:"title"`
	Active int            `json:"active"`
	Slides []domain.Slide `json:"slides"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	if status >= 500 {
		s.log.Error("request failed", slog.Int("status", status), slog.Any("err", err))
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) versionInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": version.String()})
}

func (s *Server) getProject(w http.ResponseWriter, _ *http.Request) {
	p := s.st.Project()
	writeJSON(w, http.StatusOK, projectBody{Title: p.Title, Active: s.st.Index(), Slides: p.Slides})
}

// slideIndex resolves the {index} route variable; "active" names the
// active slide.
func (s *Server) slideIndex(r *http.Request) (int, error) {
	raw := mux.Vars(r)["index"]
	if raw == "active" {
		return s.st.Index(), nil
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("bad slide index %q", raw)
	}
	return i, nil
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (domain.Slide, int, bool) {
	i, err := s.slideIndex(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return domain.Slide{}, 0, false
	}
	sl, err := s.st.Slide(i)
	if err != nil {
		s.fail(w, http.StatusNotFound, err)
		return domain.Slide{}, 0, false
	}
	return sl, i, true
}

func (s *Server) getSlide(w http.ResponseWriter, r *http.Request) {
	sl, i, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, slideBody{Index: i, Active: i == s.st.Index(), Slide: sl})
}

func decodeSlide(r *http.Request) (domain.Slide, bool, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return domain.Slide{}, false, err
	}
	if len(body) > maxBodyBytes {
		return domain.Slide{}, false, errors.New("request body too large")
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.Slide{}, false, nil
	}
	var sl domain.Slide
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sl); err != nil {
		return domain.Slide{}, false, fmt.Errorf("decode slide: %w", err)
	}
	return sl, true, nil
}

func (s *Server) putSlide(w http.ResponseWriter, r *http.Request) {
	i, err := s.slideIndex(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	sl, ok, err := decodeSlide(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	if !ok {
		s.fail(w, http.StatusBadRequest, errors.New("empty body"))
		return
	}
	if err := s.st.ReplaceAt(i, sl); err != nil {
		if errors.Is(err, session.ErrNoSlide) {
			s.fail(w, http.StatusNotFound, err)
		} else {
			s.fail(w, http.StatusUnprocessableEntity, err)
		}
		return
	}
	cur, _ := s.st.Slide(i)
	writeJSON(w, http.StatusOK, slideBody{Index: i, Active: i == s.st.Index(), Slide: cur})
}

// appendSlide adds a slide. An empty body derives one from the active
// slide like the editor does; a JSON body is appended as given.
func (s *Server) appendSlide(w http.ResponseWriter, r *http.Request) {
	sl, ok, err := decodeSlide(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	var i int
	if ok {
		if i, err = s.st.AppendGiven(sl); err != nil {
			s.fail(w, http.StatusUnprocessableEntity, err)
			return
		}
	} else {
		i = s.st.AppendSlide()
	}
	cur, _ := s.st.Slide(i)
	writeJSON(w, http.StatusCreated, slideBody{Index: i, Active: i == s.st.Index(), Slide: cur})
}

func previewScale(r *http.Request) (float32, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("scale"))
	if raw == "" {
		return 1, nil
	}
	f, err := strconv.ParseFloat(raw, 32)
	if err != nil || f <= 0 || f > MaxPreviewScale {
		return 0, fmt.Errorf("scale must be in (0, %g]", MaxPreviewScale)
	}
	return float32(f), nil
}

func (s *Server) slidePNG(w http.ResponseWriter, r *http.Request) {
	sl, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	scale, err := previewScale(r)
	if err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}
	data, err := s.r.RenderPNG(r.Context(), sl, scale)
	if err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

func (s *Server) slideSVG(w http.ResponseWriter, r *http.Request) {
	sl, _, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.ExportSVG(&buf, s.r.Scene(sl), s.r.Fonts); err != nil {
		s.fail(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}
