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
	"net/http"
	"time"
)

// APIError is a non-2xx answer of a generation service.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s - %s", e.Status, e.Type, e.Message)
}

// Temporary reports whether retrying the request can help.
func (e *APIError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var api *APIError
	if errors.As(err, &api) {
		return api.Temporary()
	}
	var tr *transportError
	return errors.As(err, &tr)
}

// transportError wraps a failure to reach the service at all.
type transportError struct{ err error }

func (t *transportError) Error() string { return "send request: " + t.err.Error() }
func (t *transportError) Unwrap() error { return t.err }

// withRetry runs fn up to retries+1 times with exponential backoff starting
// at base. Only transient failures are retried.
func withRetry(ctx context.Context, retries int, base time.Duration, fn func() error) error {
	if base <= 0 {
		base = time.Second
	}
	var lastErr error
	for i := 0; i <= retries; i++ {
		if i > 0 {
			backoff := base << uint(i-1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}
	if retries == 0 {
		return lastErr
	}
	return fmt.Errorf("failed after %d retries: %w", retries, lastErr)
}
