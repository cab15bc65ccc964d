/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import (
	"context"

	"github.com/google/uuid"
)

// TestResultLister lists every test result of a user with its records in
// insertion order.
type TestResultLister interface {
	ListTestResults(ctx context.Context, userID uuid.UUID) ([]TestResult, error)
}

// TestResultStore persists test results. Implementations must enforce
// uniqueness of (UserID, TestKey) and report a violation as ErrDuplicate.
type TestResultStore interface {
	TestResultLister

	// FindTestResult returns the result for the key with its records, or
	// ErrNotFound.
	FindTestResult(ctx context.Context, userID uuid.UUID, testKey string) (*TestResult, error)
	// CreateTestResult inserts the result together with its records in one
	// write and fills in ID and timestamps.
	CreateTestResult(ctx context.Context, result *TestResult) error
	// AppendTestRecords adds records to an existing result in one write.
	AppendTestRecords(ctx context.Context, resultID uuid.UUID, records []TestRecord) error
}

// HealthReportStore persists the one health report each user has.
type HealthReportStore interface {
	// UpsertInsights creates the report or replaces its generated sections,
	// leaving symptoms and medications untouched.
	UpsertInsights(ctx context.Context, userID uuid.UUID, payload InsightPayload) (*HealthReport, error)
	GetHealthReport(ctx context.Context, userID uuid.UUID) (*HealthReport, error)
	SetSymptoms(ctx context.Context, userID uuid.UUID, symptoms []string) (*HealthReport, error)
	SetMedications(ctx context.Context, userID uuid.UUID, medications []string) (*HealthReport, error)
	DeleteHealthReport(ctx context.Context, userID uuid.UUID) error
}
