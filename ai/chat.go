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

// OpenAI-compatible request/response structures
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	Stream         bool                `json:"stream"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ChatClient calls an OpenAI-compatible chat completion endpoint, such as
// the one served by Ollama.
type ChatClient struct {
	http  *resty.Client
	model string
}

// NewChatClient returns a chat completion client for cfg.OllamaURL.
func NewChatClient(cfg Config) *ChatClient {
	return &ChatClient{
		http:  newHTTPClient(cfg.OllamaURL, cfg),
		model: cfg.OllamaModel,
	}
}

// Generate sends a non-streaming chat completion request.
func (c *ChatClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}

	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	logger.Debug("Calling chat completion", "model", c.model, "prompt_chars", len(prompt))

	var result chatResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model:          c.model,
			Messages:       messages,
			ResponseFormat: &chatResponseFormat{Type: "json_object"},
		}).
		SetResult(&result).
		SetError(&result).
		Post("/v1/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%w: failed to call chat completion: %v", ErrUpstream, err)
	}

	if resp.IsError() || result.Error != nil {
		message := strings.TrimSpace(resp.String())
		if result.Error != nil {
			message = result.Error.Message
		}

		logger.Error("Chat completion returned an error", "status_code", resp.StatusCode(), "message", message)

		return "", fmt.Errorf("%w: chat completion returned status %d: %s", ErrUpstream, resp.StatusCode(), message)
	}

	if len(result.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(result.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}

	return text, nil
}
