// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package labs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

func withRange(o Observation, min, max float64) Observation {
	o.ReferenceRange = &ObservedRange{Min: floatPtr(min), Max: floatPtr(max)}
	return o
}

func day(value string) time.Time {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		panic(err)
	}

	return t
}

func TestIngestCreatesResultForNewTest(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	merger := NewMerger(store)
	userID := uuid.New()

	results, err := merger.Ingest(context.Background(), userID, Batch{
		ReportDate:   day("2024-01-01"),
		Observations: []Observation{withRange(observation("Glucose", 130), 70, 100)},
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if len(results) != 1 || store.count(userID) != 1 {
		t.Fatalf("expected one test result, got %d returned and %d stored", len(results), store.count(userID))
	}

	result := results[0]
	if result.TestKey != "glucose" || result.TestName != "Glucose" {
		t.Fatalf("unexpected name/key: %q/%q", result.TestName, result.TestKey)
	}

	if len(result.Records) != 1 {
		t.Fatalf("expected one record, got %d", len(result.Records))
	}

	record := result.Records[0]
	if record.Status != StatusHigh {
		t.Fatalf("expected glucose 130 with range 70-100 to be High, got %q", record.Status)
	}

	if record.ReportID == uuid.Nil {
		t.Fatal("expected a generated report id")
	}

	if !record.Date.Equal(day("2024-01-01")) {
		t.Fatalf("unexpected record date %v", record.Date)
	}
}

func TestIngestAppendsAndKeepsStoredRange(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	merger := NewMerger(store)
	userID := uuid.New()
	ctx := context.Background()

	if _, err := merger.Ingest(ctx, userID, Batch{
		ReportDate:   day("2024-01-01"),
		Observations: []Observation{withRange(observation("Glucose", 85), 70, 100)},
	}); err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}

	// The second report prints a wider range; 105 must still be High
	// against the stored 70-100.
	results, err := merger.Ingest(ctx, userID, Batch{
		ReportDate:   day("2024-02-01"),
		Observations: []Observation{withRange(observation("  glucose ", 105), 60, 140)},
	})
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}

	if store.count(userID) != 1 {
		t.Fatalf("expected a single test result, got %d", store.count(userID))
	}

	result := results[0]
	if len(result.Records) != 2 {
		t.Fatalf("expected two records, got %d", len(result.Records))
	}

	if result.ReferenceRange != (ReferenceRange{Min: 70, Max: 100}) {
		t.Fatalf("stored range changed to %+v", result.ReferenceRange)
	}

	if got := result.Records[1].Status; got != StatusHigh {
		t.Fatalf("expected append to classify against stored range, got %q", got)
	}

	if got := result.Records[0].Status; got != StatusNormal {
		t.Fatalf("existing record status changed to %q", got)
	}
}

func TestIngestGroupsDuplicateNamesInOneBatch(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	merger := NewMerger(store)
	userID := uuid.New()

	results, err := merger.Ingest(context.Background(), userID, Batch{
		Observations: []Observation{
			withRange(observation("Glucose", 90), 70, 100),
			observation("Hemoglobin", 14),
			withRange(observation("GLUCOSE", 60), 50, 200),
		},
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if len(results) != 2 || store.count(userID) != 2 {
		t.Fatalf("expected two test results, got %d", len(results))
	}

	glucose := results[0]
	if glucose.TestKey != "glucose" || len(glucose.Records) != 2 {
		t.Fatalf("unexpected glucose result: %+v", glucose)
	}

	if glucose.Records[1].Status != StatusLow {
		t.Fatalf("expected second glucose record to use the first range, got %q", glucose.Records[1].Status)
	}

	if glucose.Records[0].ReportID != glucose.Records[1].ReportID {
		t.Fatal("records of one batch must share the report id")
	}
}

func TestIngestRejectsInvalidBatchWithoutWrites(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	merger := NewMerger(store)
	userID := uuid.New()

	bad := observation("Hemoglobin", 14)
	bad.Unit = ""

	_, err := merger.Ingest(context.Background(), userID, Batch{
		Observations: []Observation{observation("Glucose", 90), bad},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	if store.count(userID) != 0 {
		t.Fatal("expected no writes for an invalid batch")
	}

	if _, err := merger.Ingest(context.Background(), uuid.Nil, Batch{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing user, got %v", err)
	}
}

func TestIngestDefaultsReportDateToToday(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	merger := NewMerger(store)
	merger.now = func() time.Time { return time.Date(2024, 5, 6, 17, 45, 0, 0, time.UTC) }

	results, err := merger.Ingest(context.Background(), uuid.New(), Batch{
		Observations: []Observation{observation("Glucose", 90)},
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if got := results[0].Records[0].Date; !got.Equal(day("2024-05-06")) {
		t.Fatalf("expected today's date, got %v", got)
	}
}

func TestIngestRetriesAfterCreationRace(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	merger := NewMerger(store)
	userID := uuid.New()

	raced := false

	store.beforeCreate = func(result *TestResult) {
		if raced {
			return
		}

		raced = true

		competitor := &TestResult{
			UserID:         result.UserID,
			TestName:       "Glucose",
			TestKey:        result.TestKey,
			TestCategory:   "Blood Chemistry",
			Unit:           "mg/dL",
			ReferenceRange: ReferenceRange{Min: 70, Max: 100},
			Records:        []TestRecord{{ReportID: uuid.New(), Value: 80, Date: day("2024-01-01"), Status: StatusNormal}},
		}
		if err := store.CreateTestResult(context.Background(), competitor); err != nil {
			panic(err)
		}
	}

	results, err := merger.Ingest(context.Background(), userID, Batch{
		ReportDate:   day("2024-01-02"),
		Observations: []Observation{withRange(observation("Glucose", 120), 0, 200)},
	})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if store.count(userID) != 1 {
		t.Fatalf("expected one test result after race, got %d", store.count(userID))
	}

	result := results[0]
	if len(result.Records) != 2 {
		t.Fatalf("expected the losing write to append, got %d records", len(result.Records))
	}

	if result.Records[1].Status != StatusHigh {
		t.Fatalf("expected append after race to use the winner's range, got %q", result.Records[1].Status)
	}
}

func TestIngestCommitsKeysIndependently(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	store.failKey = "hemoglobin"
	merger := NewMerger(store)
	userID := uuid.New()

	results, err := merger.Ingest(context.Background(), userID, Batch{
		Observations: []Observation{
			observation("Glucose", 90),
			observation("Hemoglobin", 14),
			observation("Ferritin", 40),
		},
	})
	if !errors.Is(err, errInjected) {
		t.Fatalf("expected injected failure to be returned, got %v", err)
	}

	if len(results) != 2 || store.count(userID) != 2 {
		t.Fatalf("expected the other two keys committed, got %d returned, %d stored", len(results), store.count(userID))
	}

	for _, r := range results {
		if r.TestKey == "hemoglobin" {
			t.Fatal("failed key must not be reported as committed")
		}
	}
}

func TestIngestKeepsUsersApart(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	merger := NewMerger(store)
	alice, bob := uuid.New(), uuid.New()
	ctx := context.Background()

	for i, user := range []uuid.UUID{alice, bob, alice} {
		if _, err := merger.Ingest(ctx, user, Batch{
			Observations: []Observation{observation("Glucose", float64(80+i))},
		}); err != nil {
			t.Fatalf("ingest %d failed: %v", i, err)
		}
	}

	aliceResults, _ := store.ListTestResults(ctx, alice)
	bobResults, _ := store.ListTestResults(ctx, bob)

	if len(aliceResults[0].Records) != 2 || len(bobResults[0].Records) != 1 {
		t.Fatalf("records leaked between users: alice=%d bob=%d",
			len(aliceResults[0].Records), len(bobResults[0].Records))
	}
}

func TestIngestManyKeysConcurrently(t *testing.T) {
	t.Parallel()

	store := newMemoryStore()
	merger := NewMerger(store)
	userID := uuid.New()

	var observations []Observation
	for i := range 25 {
		observations = append(observations, observation(fmt.Sprintf("Test %02d", i), float64(i)))
	}

	results, err := merger.Ingest(context.Background(), userID, Batch{Observations: observations})
	if err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	if len(results) != 25 {
		t.Fatalf("expected 25 results, got %d", len(results))
	}

	for i, r := range results {
		if want := fmt.Sprintf("test %02d", i); r.TestKey != want {
			t.Fatalf("result %d has key %q, want %q", i, r.TestKey, want)
		}
	}
}
