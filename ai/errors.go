/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ai

import "errors"

var (
	// ErrNotConfigured is returned when no generative provider is set up.
	ErrNotConfigured = errors.New("generative AI provider is not configured")
	// ErrUpstream wraps failures reported by the provider.
	ErrUpstream = errors.New("generative AI provider request failed")
	// ErrEmptyResponse is returned when the provider answered without text.
	ErrEmptyResponse = errors.New("generative AI provider returned no text")
	// ErrUnknownProvider is returned for an unsupported provider name.
	ErrUnknownProvider = errors.New("unknown AI provider")
)
