/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObservedRange is a reference range as read from a report. Either bound may
// be missing.
type ObservedRange struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// Resolve turns the observed range into a stored range, defaulting absent
// bounds to zero.
func (r *ObservedRange) Resolve() ReferenceRange {
	var out ReferenceRange
	if r == nil {
		return out
	}

	if r.Min != nil {
		out.Min = *r.Min
	}

	if r.Max != nil {
		out.Max = *r.Max
	}

	return out
}

// Observation is one parsed test line of a lab report.
type Observation struct {
	TestName       string         `json:"testName"`
	TestCategory   string         `json:"testCategory"`
	Value          *float64       `json:"value"`
	Unit           string         `json:"unit"`
	ReferenceRange *ObservedRange `json:"referenceRange,omitempty"`
}

// Extraction is the structured content of one lab report.
type Extraction struct {
	TestResults []Observation `json:"testResults"`
	ReportDate  *string       `json:"reportDate"`
}

// Batch is an ingestion unit: the observations of one report. A nil ReportID
// gets a fresh id and a zero ReportDate means today.
type Batch struct {
	ReportID     uuid.UUID
	ReportDate   time.Time
	Observations []Observation
}

// Validate checks that the observation carries every required field.
func (o Observation) Validate() error {
	switch {
	case strings.TrimSpace(o.TestName) == "":
		return fmt.Errorf("%w: testName is required", ErrValidation)
	case strings.TrimSpace(o.TestCategory) == "":
		return fmt.Errorf("%w: testCategory is required for %q", ErrValidation, o.TestName)
	case strings.TrimSpace(o.Unit) == "":
		return fmt.Errorf("%w: unit is required for %q", ErrValidation, o.TestName)
	case o.Value == nil:
		return fmt.Errorf("%w: value is required for %q", ErrValidation, o.TestName)
	case math.IsNaN(*o.Value) || math.IsInf(*o.Value, 0):
		return fmt.Errorf("%w: value for %q is not a finite number", ErrValidation, o.TestName)
	}

	if r := o.ReferenceRange; r != nil {
		if (r.Min != nil && !finite(*r.Min)) || (r.Max != nil && !finite(*r.Max)) {
			return fmt.Errorf("%w: reference range for %q is not finite", ErrValidation, o.TestName)
		}
	}

	return nil
}

// ValidateObservations validates a whole batch. The first failure is
// returned with its position.
func ValidateObservations(observations []Observation) error {
	for i, o := range observations {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("observation %d: %w", i, err)
		}
	}

	return nil
}

// NormalizeTestName derives the key a test is stored and grouped under:
// trimmed, inner whitespace collapsed and lower-cased.
func NormalizeTestName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// CalendarDate drops the time of day from t, keeping its calendar date in
// its own location.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var reportDateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02-Jan-2006",
}

// ResolveReportDate parses the report date of an extraction. A missing or
// blank date resolves to the calendar date of now.
func ResolveReportDate(raw *string, now time.Time) (time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return CalendarDate(now), nil
	}

	value := strings.TrimSpace(*raw)
	for _, layout := range reportDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return CalendarDate(t), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: unrecognized report date %q", ErrValidation, value)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
