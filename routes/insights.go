/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"net/http"

	"github.com/flamego/flamego"
	"github.com/google/uuid"

	"github.com/humaidq/labwise/ai"
	"github.com/humaidq/labwise/db"
	"github.com/humaidq/labwise/labs"
	"github.com/humaidq/labwise/logging"
)

var aiLogger = logging.Logger(logging.SourceAI)

// InsightSynthesizer stores a generated insight report for a user.
type InsightSynthesizer interface {
	Synthesize(ctx context.Context, userID uuid.UUID, payload labs.InsightPayload) (*labs.HealthReport, error)
}

type symptomsRequest struct {
	Symptoms []string `json:"symptoms"`
}

type medicationsRequest struct {
	Medications []string `json:"medications"`
}

// GenerateInsights synthesizes a health report from trends posted by the
// client.
func GenerateInsights(c flamego.Context, user *db.User, client ai.Client, synth InsightSynthesizer) {
	var trends labs.Trends
	if err := decodeJSON(c, &trends); err != nil {
		writeError(c, err)
		return
	}

	if len(trends) == 0 {
		writeError(c, errTrendsRequired)
		return
	}

	synthesizeInsights(c, user, client, synth, trends)
}

// RefreshInsights synthesizes a health report from the stored trends.
func RefreshInsights(c flamego.Context, user *db.User, results LabResults, client ai.Client, synth InsightSynthesizer) {
	trends, err := labs.ProjectTrends(c.Request().Context(), results, user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	if len(trends) == 0 {
		writeError(c, errNoLabData)
		return
	}

	synthesizeInsights(c, user, client, synth, trends)
}

func synthesizeInsights(c flamego.Context, user *db.User, client ai.Client, synth InsightSynthesizer, trends labs.Trends) {
	ctx := c.Request().Context()

	prompt, err := ai.HealthInsightsPrompt(trends)
	if err != nil {
		writeError(c, err)
		return
	}

	raw, err := client.Generate(ctx, ai.HealthInsightsSystem, prompt)
	if err != nil {
		writeError(c, err)
		return
	}

	payload, err := labs.ParseInsights(raw)
	if err != nil {
		aiLogger.Warn("Discarding unusable insights",
			"user_id", user.ID,
			"error", err,
			"response", raw,
		)
		writeError(c, err)

		return
	}

	report, err := synth.Synthesize(ctx, user.ID, payload)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, report, "health insights generated successfully")
}

// GetHealthReport returns the user's health report.
func GetHealthReport(c flamego.Context, user *db.User, reports labs.HealthReportStore) {
	report, err := reports.GetHealthReport(c.Request().Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, report, "health report fetched successfully")
}

// UpdateSymptoms replaces the user's reported symptoms.
func UpdateSymptoms(c flamego.Context, user *db.User, reports labs.HealthReportStore) {
	var req symptomsRequest
	if err := decodeJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	if req.Symptoms == nil {
		writeError(c, badRequest("symptoms must be an array"))
		return
	}

	report, err := reports.SetSymptoms(c.Request().Context(), user.ID, labs.CleanEntries(req.Symptoms))
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, report, "symptoms updated successfully")
}

// UpdateMedications replaces the user's medications.
func UpdateMedications(c flamego.Context, user *db.User, reports labs.HealthReportStore) {
	var req medicationsRequest
	if err := decodeJSON(c, &req); err != nil {
		writeError(c, err)
		return
	}

	if req.Medications == nil {
		writeError(c, badRequest("medications must be an array"))
		return
	}

	report, err := reports.SetMedications(c.Request().Context(), user.ID, labs.CleanEntries(req.Medications))
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, report, "medications updated successfully")
}

// DeleteHealthReport removes the user's health report.
func DeleteHealthReport(c flamego.Context, user *db.User, reports labs.HealthReportStore) {
	if err := reports.DeleteHealthReport(c.Request().Context(), user.ID); err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, struct{}{}, "health report deleted successfully")
}
