/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// EnvSecret enables bearer-token auth of the /api and /ws routes.
const EnvSecret = "IFS_SERVE_SECRET"

var errUnauthorized = errors.New("unauthorized")

type tokenClaims struct {
	Sub string `json:"sub"`
	Exp int64  `json:"exp"` // unix seconds
}

// SignToken issues a token for subject, valid until exp.
func SignToken(secret, subject string, exp time.Time) (string, error) {
	if secret == "" {
		return "", errors.New("empty secret")
	}
	b, err := json.Marshal(tokenClaims{Sub: subject, Exp: exp.Unix()})
	if err != nil {
		return "", err
	}
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write(b)
	payload := base64.RawURLEncoding.EncodeToString(b)
	signature := base64.RawURLEncoding.EncodeToString(h.Sum(nil))
	return payload + "." + signature, nil
}

// VerifyToken checks signature and expiry and returns the subject.
func VerifyToken(secret, token string, now time.Time) (string, error) {
	payload, sig, ok := strings.Cut(token, ".")
	if !ok {
		return "", errors.New("invalid token format")
	}
	payloadB, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", errors.New("invalid token payload")
	}
	sigB, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", errors.New("invalid token signature")
	}
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write(payloadB)
	if !hmac.Equal(h.Sum(nil), sigB) {
		return "", errors.New("bad signature")
	}
	var claims tokenClaims
	if err := json.Unmarshal(payloadB, &claims); err != nil {
		return "", errors.New("bad claims")
	}
	if claims.Exp < now.Unix() {
		return "", errors.New("token expired")
	}
	if claims.Sub == "" {
		claims.Sub = "preview"
	}
	return claims.Sub, nil
}

// bearer extracts the token from the Authorization header or, for
// websocket clients that cannot set headers, the token query parameter.
func bearer(r *http.Request) string {
	const prefix = "bearer "
	if auth := r.Header.Get("Authorization"); len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return r.URL.Query().Get("token")
}

// requireToken rejects requests without a valid token. With an empty
// secret every request passes.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.secret == "" {
			next.ServeHTTP(w, r)
			return
		}
		tok := bearer(r)
		if tok == "" {
			s.fail(w, http.StatusUnauthorized, errUnauthorized)
			return
		}
		sub, err := VerifyToken(s.secret, tok, time.Now())
		if err != nil {
			s.log.Warn("rejected token", slog.String("path", r.URL.Path), slog.Any("err", err))
			s.fail(w, http.StatusUnauthorized, errUnauthorized)
			return
		}
		s.log.Debug("authorized", slog.String("sub", sub), slog.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}
