/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/humaidq/labwise/labs"
)

// HealthReportStore persists the per-user health insight report.
type HealthReportStore struct{}

const healthReportColumns = `id, user_id, user_reported_symptoms, user_medications,
	health_trends, dietary_recommendations, lifestyle_suggestions, warnings,
	supplements_medications, comparative_insights, additional_insights,
	created_at, updated_at`

func scanHealthReport(row pgx.Row) (*labs.HealthReport, error) {
	var (
		report   labs.HealthReport
		sections [6][]byte
	)

	if err := row.Scan(
		&report.ID,
		&report.UserID,
		&report.UserReportedSymptoms,
		&report.UserMedications,
		&sections[0],
		&sections[1],
		&sections[2],
		&sections[3],
		&sections[4],
		&sections[5],
		&report.AdditionalInsights,
		&report.CreatedAt,
		&report.UpdatedAt,
	); err != nil {
		return nil, err
	}

	targets := []any{
		&report.HealthTrends,
		&report.DietaryRecommendations,
		&report.LifestyleSuggestions,
		&report.Warnings,
		&report.SupplementsMedications,
		&report.ComparativeInsights,
	}

	for i, target := range targets {
		if err := json.Unmarshal(sections[i], target); err != nil {
			return nil, fmt.Errorf("failed to decode report section %d: %w", i, err)
		}
	}

	if report.UserReportedSymptoms == nil {
		report.UserReportedSymptoms = []string{}
	}

	if report.UserMedications == nil {
		report.UserMedications = []string{}
	}

	return &report, nil
}

func encodeSections(p labs.InsightPayload) ([]string, error) {
	sections := []any{
		p.HealthTrends,
		p.DietaryRecommendations,
		p.LifestyleSuggestions,
		p.Warnings,
		p.SupplementsMedications,
		p.ComparativeInsights,
	}

	out := make([]string, len(sections))

	for i, section := range sections {
		encoded, err := json.Marshal(section)
		if err != nil {
			return nil, fmt.Errorf("failed to encode report section %d: %w", i, err)
		}

		out[i] = string(encoded)
	}

	return out, nil
}

// UpsertInsights creates the user's report or replaces its generated
// sections. Symptoms and medications are left as they are.
func (HealthReportStore) UpsertInsights(ctx context.Context, userID uuid.UUID, payload labs.InsightPayload) (*labs.HealthReport, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	sections, err := encodeSections(payload)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO health_reports (
			user_id, health_trends, dietary_recommendations, lifestyle_suggestions,
			warnings, supplements_medications, comparative_insights, additional_insights
		)
		VALUES ($1, $2::jsonb, $3::jsonb, $4::jsonb, $5::jsonb, $6::jsonb, $7::jsonb, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			health_trends = EXCLUDED.health_trends,
			dietary_recommendations = EXCLUDED.dietary_recommendations,
			lifestyle_suggestions = EXCLUDED.lifestyle_suggestions,
			warnings = EXCLUDED.warnings,
			supplements_medications = EXCLUDED.supplements_medications,
			comparative_insights = EXCLUDED.comparative_insights,
			additional_insights = EXCLUDED.additional_insights,
			updated_at = NOW()
		RETURNING ` + healthReportColumns

	report, err := scanHealthReport(pool.QueryRow(ctx, query,
		userID,
		sections[0],
		sections[1],
		sections[2],
		sections[3],
		sections[4],
		sections[5],
		payload.AdditionalInsights,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert health report: %w", err)
	}

	return report, nil
}

// GetHealthReport returns the user's report or labs.ErrNotFound.
func (HealthReportStore) GetHealthReport(ctx context.Context, userID uuid.UUID) (*labs.HealthReport, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	report, err := scanHealthReport(pool.QueryRow(ctx,
		`SELECT `+healthReportColumns+` FROM health_reports WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, labs.ErrNotFound
		}

		return nil, fmt.Errorf("failed to get health report: %w", err)
	}

	return report, nil
}

// SetSymptoms replaces the user's reported symptoms, creating an empty
// report if needed.
func (s HealthReportStore) SetSymptoms(ctx context.Context, userID uuid.UUID, symptoms []string) (*labs.HealthReport, error) {
	return s.setList(ctx, userID, "user_reported_symptoms", symptoms)
}

// SetMedications replaces the user's medications, creating an empty report
// if needed.
func (s HealthReportStore) SetMedications(ctx context.Context, userID uuid.UUID, medications []string) (*labs.HealthReport, error) {
	return s.setList(ctx, userID, "user_medications", medications)
}

func (HealthReportStore) setList(ctx context.Context, userID uuid.UUID, column string, values []string) (*labs.HealthReport, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	if values == nil {
		values = []string{}
	}

	ident := pgx.Identifier{column}.Sanitize()
	query := fmt.Sprintf(`
		INSERT INTO health_reports (user_id, %[1]s)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			%[1]s = EXCLUDED.%[1]s,
			updated_at = NOW()
		RETURNING %[2]s`, ident, healthReportColumns)

	report, err := scanHealthReport(pool.QueryRow(ctx, query, userID, values))
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", column, err)
	}

	return report, nil
}

// DeleteHealthReport removes the user's report or returns labs.ErrNotFound.
func (HealthReportStore) DeleteHealthReport(ctx context.Context, userID uuid.UUID) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	command, err := pool.Exec(ctx, `DELETE FROM health_reports WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete health report: %w", err)
	}

	if command.RowsAffected() == 0 {
		return labs.ErrNotFound
	}

	return nil
}
