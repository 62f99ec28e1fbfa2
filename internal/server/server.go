/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package server exposes a live session over HTTP: JSON access to the
// project and its slides, rendered PNG and SVG previews, and a websocket
// feed of every committed change.
package server

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"infostudio/internal/export"
	applog "infostudio/internal/log"
	"infostudio/internal/session"
)

// DefaultAddr is the listen address of the serve command.
const DefaultAddr = "127.0.0.1:8765"

// MaxPreviewScale bounds the scale query parameter of PNG previews.
const MaxPreviewScale = 4.0

// Options configure a Server.
type Options struct {
	// Secret enables HMAC bearer tokens on /api and /ws when non-empty.
	Secret string
}

// Server serves one session. Create it with New and release it with Close.
type Server struct {
	st     *session.State
	r      export.Renderer
	secret string
	hub    *hub
	router *mux.Router
	log    *slog.Logger
	unsub  func()
}

// New wires the routes without auth and subscribes the websocket hub to st.
func New(st *session.State, r export.Renderer) *Server {
	return NewWithOptions(st, r, Options{})
}

// NewWithOptions is New with explicit options.
func NewWithOptions(st *session.State, r export.Renderer, opt Options) *Server {
	s := &Server{
		st:     st,
		r:      r,
		secret: opt.Secret,
		hub:    newHub(),
		log:    applog.WithComponent("server"),
	}
	s.unsub = st.Subscribe(s.hub.broadcast)
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	r.HandleFunc("/version", s.versionInfo).Methods(http.MethodGet)
	r.Handle("/ws", s.requireToken(http.HandlerFunc(s.serveWS))).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireToken)
	api.HandleFunc("/project", s.getProject).Methods(http.MethodGet)
	api.HandleFunc("/slides", s.appendSlide).Methods(http.MethodPost)
	api.HandleFunc("/slides/{index}", s.getSlide).Methods(http.MethodGet)
	api.HandleFunc("/slides/{index}", s.putSlide).Methods(http.MethodPut)
	api.HandleFunc("/slides/{index}/png", s.slidePNG).Methods(http.MethodGet)
	api.HandleFunc("/slides/{index}/svg", s.slideSVG).Methods(http.MethodGet)
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Close stops broadcasting and disconnects websocket clients.
func (s *Server) Close() {
	if s.unsub != nil {
		s.unsub()
	}
	s.hub.close()
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("preview server listening", slog.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.hub.close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack is needed by the websocket upgrade.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("took", time.Since(start)))
	})
}
