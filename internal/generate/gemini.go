/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package generate

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
)

const (
	DefaultGeminiModel    = "gemini-3-flash-preview"
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com"
)

// Gemini calls the generateContent REST method with a JSON response schema.
type Gemini struct {
	APIKey     string
	Model      string
	Endpoint   string
	MaxRetries int
	Backoff    time.Duration
	HTTP       *http.Client
}

func NewGemini(apiKey, model string) *Gemini {
	if model == "" || strings.HasPrefix(model, "claude") {
		model = DefaultGeminiModel
	}
	return &Gemini{
		APIKey:   apiKey,
		Model:    model,
		Endpoint: DefaultGeminiEndpoint,
		Backoff:  time.Second,
		HTTP:     &http.Client{Timeout: 60 * time.Second},
	}
}

func (g *Gemini) Name() string { return "gemini" }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		ResponseMimeType string          `json:"responseMimeType"`
		ResponseSchema   json.RawMessage `json:"responseSchema"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Complete sends prompt and returns the concatenated text parts of the
// first candidate.
func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	var req geminiRequest
	req.Contents = []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}}
	req.GenerationConfig.ResponseMimeType = "application/json"
	req.GenerationConfig.ResponseSchema = json.RawMessage(geminiSchema)
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent", strings.TrimRight(g.Endpoint, "/"), url.PathEscape(g.Model))

	var text string
	err = withRetry(ctx, g.MaxRetries, g.Backoff, func() error {
		var e error
		text, e = g.do(ctx, u, body)
		return e
	})
	return text, err
}

func (g *Gemini) do(ctx context.Context, u string, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.APIKey)

	resp, err := g.HTTP.Do(httpReq)
	if err != nil {
		return "", &transportError{err}
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var ge geminiError
		if json.Unmarshal(respBody, &ge) == nil && ge.Error.Message != "" {
			return "", &APIError{Status: resp.StatusCode, Type: ge.Error.Status, Message: ge.Error.Message}
		}
		return "", &APIError{Status: resp.StatusCode, Type: "http", Message: strings.TrimSpace(string(respBody))}
	}
	var gr geminiResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(gr.Candidates) == 0 {
		if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt blocked: %s", gr.PromptFeedback.BlockReason)
		}
		return "", ErrEmpty
	}
	var sb strings.Builder
	for _, p := range gr.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return "", ErrEmpty
	}
	return sb.String(), nil
}
