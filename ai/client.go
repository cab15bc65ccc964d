/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package ai talks to the generative model that reads lab reports and writes
// health insights.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/humaidq/labwise/logging"
)

// Provider names accepted in Config.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// Defaults applied when Config leaves a field empty.
const (
	DefaultGeminiModel = "gemini-1.5-pro"
	DefaultTimeout     = 120 * time.Second
	DefaultRetryCount  = 2
)

var logger = logging.Logger(logging.SourceAI)

// Client generates a text completion for a system instruction and a prompt.
type Client interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Config selects and configures the provider.
type Config struct {
	Provider string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	OllamaURL   string
	OllamaModel string

	Timeout    time.Duration
	RetryCount int
}

// NewClient builds the client for cfg.Provider. It returns ErrNotConfigured
// when the provider is known but its credentials or endpoint are missing.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY must be set", ErrNotConfigured)
		}

		return NewGeminiClient(cfg), nil
	case ProviderOllama:
		if cfg.OllamaURL == "" || cfg.OllamaModel == "" {
			return nil, fmt.Errorf("%w: OLLAMA_URL and OLLAMA_MODEL must be set", ErrNotConfigured)
		}

		return NewChatClient(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

// Disabled is the client used when no provider is configured. Every call
// fails with ErrNotConfigured.
type Disabled struct {
	Reason error
}

// Generate always fails.
func (d Disabled) Generate(context.Context, string, string) (string, error) {
	if d.Reason != nil {
		return "", d.Reason
	}

	return "", ErrNotConfigured
}

func newHTTPClient(baseURL string, cfg Config) *resty.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	// Zero picks the default; a negative count disables retries.
	retries := cfg.RetryCount
	switch {
	case retries == 0:
		retries = DefaultRetryCount
	case retries < 0:
		retries = 0
	}

	return resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(retryable).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
}

// retryable retries transport errors, rate limiting and server errors.
func retryable(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}

	code := resp.StatusCode()

	return code == 429 || code >= 500
}
