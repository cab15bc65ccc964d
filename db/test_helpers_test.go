// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/labwise/labs"
)

func testContext() context.Context {
	return context.Background()
}

func floatPtr(value float64) *float64 {
	return &value
}

func mustCreateUser(t *testing.T, username string) *User {
	t.Helper()

	user, err := UserStore{}.CreateUser(testContext(), CreateUserInput{
		Username:     username,
		Email:        username + "@example.com",
		Fullname:     "Test " + username,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		Gender:       GenderOther,
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()

	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", value, err)
	}

	return parsed
}

func observation(name string, value float64, min, max float64) labs.Observation {
	return labs.Observation{
		TestName:       name,
		TestCategory:   "Blood Chemistry",
		Value:          floatPtr(value),
		Unit:           "mg/dL",
		ReferenceRange: &labs.ObservedRange{Min: floatPtr(min), Max: floatPtr(max)},
	}
}

func mustIngest(t *testing.T, userID uuid.UUID, date string, observations ...labs.Observation) []labs.TestResult {
	t.Helper()

	results, err := labs.NewMerger(LabStore{}).Ingest(testContext(), userID, labs.Batch{
		ReportDate:   mustDate(t, date),
		Observations: observations,
	})
	if err != nil {
		t.Fatalf("failed to ingest: %v", err)
	}

	return results
}
