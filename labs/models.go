/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import (
	"time"

	"github.com/google/uuid"
)

// ReferenceRange is the normal interval for a test. Absent bounds are zero.
type ReferenceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// TestRecord is one observed value of a test. Records are append-only and
// their status is fixed when they are written.
type TestRecord struct {
	ReportID uuid.UUID `json:"reportId"`
	Value    float64   `json:"value"`
	Date     time.Time `json:"date"`
	Status   Status    `json:"status"`
}

// TestResult is the history of one test for one user. TestKey is unique per
// user and Records keep insertion order.
type TestResult struct {
	ID             uuid.UUID      `json:"id"`
	UserID         uuid.UUID      `json:"userId"`
	TestName       string         `json:"testName"`
	TestKey        string         `json:"testKey"`
	TestCategory   string         `json:"testCategory"`
	Unit           string         `json:"unit"`
	ReferenceRange ReferenceRange `json:"referenceRange"`
	Records        []TestRecord   `json:"records"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// HealthTrend describes how one test has moved over time.
type HealthTrend struct {
	TestName      string `json:"test_name"`
	Observation   string `json:"observation"`
	TrendAnalysis string `json:"trend_analysis"`
}

// DietaryRecommendation pairs a deficiency with foods that address it.
type DietaryRecommendation struct {
	Deficiency       string   `json:"deficiency"`
	RecommendedFoods []string `json:"recommended_foods"`
}

// LifestyleSuggestion pairs a condition with an activity.
type LifestyleSuggestion struct {
	Condition        string `json:"condition"`
	ExerciseActivity string `json:"exercise_activity"`
}

// Warning flags a test at a critical level.
type Warning struct {
	TestName        string `json:"test_name"`
	CriticalLevel   string `json:"critical_level"`
	SuggestedAction string `json:"suggested_action"`
}

// SupplementMedication suggests a supplement for a deficiency.
type SupplementMedication struct {
	Deficiency          string `json:"deficiency"`
	SuggestedSupplement string `json:"suggested_supplement"`
	Caution             string `json:"caution"`
}

// ComparativeInsight compares the previous and current value of a test.
type ComparativeInsight struct {
	TestName       string `json:"test_name"`
	PreviousValue  string `json:"previous_value"`
	CurrentValue   string `json:"current_value"`
	ChangeAnalysis string `json:"change_analysis"`
}

// InsightPayload holds the generated sections of a health report.
type InsightPayload struct {
	HealthTrends           []HealthTrend           `json:"health_trends"`
	DietaryRecommendations []DietaryRecommendation `json:"dietary_recommendations"`
	LifestyleSuggestions   []LifestyleSuggestion   `json:"lifestyle_suggestions"`
	Warnings               []Warning               `json:"warnings"`
	SupplementsMedications []SupplementMedication  `json:"supplements_medications"`
	ComparativeInsights    []ComparativeInsight    `json:"comparative_insights"`
	AdditionalInsights     string                  `json:"additional_insights"`
}

// HealthReport is the single insight report kept per user. The symptom and
// medication lists are edited by the user and survive re-synthesis.
type HealthReport struct {
	ID                   uuid.UUID `json:"id"`
	UserID               uuid.UUID `json:"userId"`
	UserReportedSymptoms []string  `json:"user_reported_symptoms"`
	UserMedications      []string  `json:"user_medications"`
	InsightPayload
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
