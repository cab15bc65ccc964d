/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Synthesizer stores generated insight reports.
type Synthesizer struct {
	store HealthReportStore
}

// NewSynthesizer returns a synthesizer writing to store.
func NewSynthesizer(store HealthReportStore) *Synthesizer {
	return &Synthesizer{store: store}
}

// Synthesize replaces the generated sections of the user's report with
// payload, creating the report if the user has none. Sections missing from
// payload are cleared.
func (s *Synthesizer) Synthesize(ctx context.Context, userID uuid.UUID, payload InsightPayload) (*HealthReport, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}

	report, err := s.store.UpsertInsights(ctx, userID, payload.normalized())
	if err != nil {
		return nil, fmt.Errorf("failed to store health report: %w", err)
	}

	return report, nil
}

// CleanEntries trims user supplied list entries and drops blank ones.
func CleanEntries(entries []string) []string {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if trimmed := strings.TrimSpace(entry); trimmed != "" {
			out = append(out, trimmed)
		}
	}

	return out
}

func (p InsightPayload) normalized() InsightPayload {
	p.HealthTrends = emptyIfNil(p.HealthTrends)
	p.DietaryRecommendations = emptyIfNil(p.DietaryRecommendations)
	p.LifestyleSuggestions = emptyIfNil(p.LifestyleSuggestions)
	p.Warnings = emptyIfNil(p.Warnings)
	p.SupplementsMedications = emptyIfNil(p.SupplementsMedications)
	p.ComparativeInsights = emptyIfNil(p.ComparativeInsights)

	for i := range p.DietaryRecommendations {
		p.DietaryRecommendations[i].RecommendedFoods = emptyIfNil(p.DietaryRecommendations[i].RecommendedFoods)
	}

	p.AdditionalInsights = strings.TrimSpace(p.AdditionalInsights)

	return p
}

func (p InsightPayload) empty() bool {
	return len(p.HealthTrends) == 0 &&
		len(p.DietaryRecommendations) == 0 &&
		len(p.LifestyleSuggestions) == 0 &&
		len(p.Warnings) == 0 &&
		len(p.SupplementsMedications) == 0 &&
		len(p.ComparativeInsights) == 0 &&
		p.AdditionalInsights == ""
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}

	return s
}
