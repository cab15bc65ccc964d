/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
	Temperature      float64 `json:"temperature"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

type geminiResponse struct {
	Candidates     []geminiCandidate `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

type geminiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GeminiClient calls the Gemini generateContent REST endpoint.
type GeminiClient struct {
	http   *resty.Client
	apiKey string
	model  string
}

// NewGeminiClient returns a Gemini client for cfg.
func NewGeminiClient(cfg Config) *GeminiClient {
	baseURL := cfg.GeminiBaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}

	model := cfg.GeminiModel
	if model == "" {
		model = DefaultGeminiModel
	}

	return &GeminiClient{
		http:   newHTTPClient(baseURL, cfg),
		apiKey: cfg.GeminiAPIKey,
		model:  model,
	}
}

// Generate asks the model for a JSON answer to prompt.
func (c *GeminiClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	req := geminiRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: prompt}},
		}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			Temperature:      0.2,
		},
	}
	if system != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}

	logger.Debug("Calling Gemini", "model", c.model, "prompt_chars", len(prompt))

	var (
		result  geminiResponse
		failure geminiError
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", c.apiKey).
		SetBody(req).
		SetResult(&result).
		SetError(&failure).
		Post("/v1beta/models/" + c.model + ":generateContent")
	if err != nil {
		return "", fmt.Errorf("%w: failed to call Gemini: %v", ErrUpstream, err)
	}

	if resp.IsError() {
		message := failure.Error.Message
		if message == "" {
			message = strings.TrimSpace(resp.String())
		}

		logger.Error("Gemini returned an error", "status_code", resp.StatusCode(), "message", message)

		return "", fmt.Errorf("%w: Gemini returned status %d: %s", ErrUpstream, resp.StatusCode(), message)
	}

	if len(result.Candidates) == 0 {
		if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked: %s", ErrUpstream, result.PromptFeedback.BlockReason)
		}

		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}
