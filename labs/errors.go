/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import "errors"

var (
	// ErrValidation marks input that is missing required fields or has values
	// of the wrong shape. Nothing is written when it is returned.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned by stores when the requested record is absent.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamFormat marks generative output that is not the expected JSON.
	ErrUpstreamFormat = errors.New("upstream response has an unexpected format")
	// ErrDuplicate is returned by stores when a uniqueness constraint is hit.
	ErrDuplicate = errors.New("duplicate record")
)
