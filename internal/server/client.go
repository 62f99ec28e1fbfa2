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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"infostudio/internal/domain"
)

// Client talks to a running preview server.
type Client struct {
	BaseURL string
	Token   string // bearer token, optional
	client  *http.Client
}

// NewClient creates a client. baseURL may include a trailing slash.
func NewClient(baseURL string, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return nil, err
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		var eb errorBody
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb) == nil && eb.Error != "" {
			return nil, fmt.Errorf("server %s %s: %s: %s", method, u.Path, resp.Status, eb.Error)
		}
		return nil, fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, dest any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(dest)
}

// Project fetches the served project.
func (c *Client) Project(ctx context.Context) (domain.Project, int, error) {
	var pb projectBody
	if err := c.doJSON(ctx, http.MethodGet, "/api/project", nil, &pb); err != nil {
		return domain.Project{}, 0, err
	}
	return domain.Project{Title: pb.Title, Slides: pb.Slides}, pb.Active, nil
}

// Slide fetches slide i.
func (c *Client) Slide(ctx context.Context, i int) (domain.Slide, error) {
	var sb slideBody
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/slides/%d", i), nil, &sb); err != nil {
		return domain.Slide{}, err
	}
	return sb.Slide, nil
}

// PutSlide replaces slide i and returns the stored value.
func (c *Client) PutSlide(ctx context.Context, i int, s domain.Slide) (domain.Slide, error) {
	var sb slideBody
	if err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/slides/%d", i), s, &sb); err != nil {
		return domain.Slide{}, err
	}
	return sb.Slide, nil
}

// AppendSlide appends s, or a slide derived from the active one when s is
// nil, and returns the new index.
func (c *Client) AppendSlide(ctx context.Context, s *domain.Slide) (int, error) {
	var body any
	if s != nil {
		body = s
	}
	var sb slideBody
	if err := c.doJSON(ctx, http.MethodPost, "/api/slides", body, &sb); err != nil {
		return -1, err
	}
	return sb.Index, nil
}

// PNG renders slide i at scale on the server.
func (c *Client) PNG(ctx context.Context, i int, scale float32) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/slides/%d/png?scale=%g", i, scale), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
