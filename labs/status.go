/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package labs holds the lab report domain: classification of observed values
// against reference ranges, merging of parsed reports into per-test
// histories, trend projection and the per-user health insight report.
package labs

// Status is the classification of a value against a reference range.
type Status string

const (
	StatusLow    Status = "Low"
	StatusNormal Status = "Normal"
	StatusHigh   Status = "High"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusLow, StatusNormal, StatusHigh:
		return true
	}

	return false
}

// Classify places value relative to [min, max]. Bounds are inclusive and are
// not checked for min <= max, so an inverted range classifies by whichever
// comparison fires first.
func Classify(value, min, max float64) Status {
	if value < min {
		return StatusLow
	}

	if value > max {
		return StatusHigh
	}

	return StatusNormal
}

// Classify places value relative to the range.
func (r ReferenceRange) Classify(value float64) Status {
	return Classify(value, r.Min, r.Max)
}
