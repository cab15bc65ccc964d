/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/humaidq/labwise/logging"
)

const (
	// mergeConcurrency bounds how many test keys of one batch are merged at
	// the same time.
	mergeConcurrency = 4
	// maxMergeAttempts is the initial attempt plus one retry after losing a
	// creation race.
	maxMergeAttempts = 2
)

var ingestLogger = logging.Logger(logging.SourceIngest)

// Merger folds parsed observations into each user's per-test histories.
type Merger struct {
	store TestResultStore
	now   func() time.Time
}

// NewMerger returns a merger writing to store.
func NewMerger(store TestResultStore) *Merger {
	return &Merger{store: store, now: time.Now}
}

type observationGroup struct {
	key          string
	observations []Observation
}

// Ingest merges a batch into the user's test results and returns the results
// it committed. The batch is validated as a whole before anything is written.
// Each test key is then committed on its own, so a failure on one key is
// joined into the returned error while the others stay committed.
func (m *Merger) Ingest(ctx context.Context, userID uuid.UUID, batch Batch) ([]TestResult, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}

	if err := ValidateObservations(batch.Observations); err != nil {
		return nil, err
	}

	reportID := batch.ReportID
	if reportID == uuid.Nil {
		reportID = uuid.New()
	}

	reportDate := batch.ReportDate
	if reportDate.IsZero() {
		reportDate = m.now()
	}

	reportDate = CalendarDate(reportDate)

	groups := groupObservations(batch.Observations)
	results := make([]*TestResult, len(groups))
	errs := make([]error, len(groups))

	var g errgroup.Group
	g.SetLimit(mergeConcurrency)

	for i, group := range groups {
		g.Go(func() error {
			result, err := m.mergeGroup(ctx, userID, reportID, reportDate, group)
			if err != nil {
				errs[i] = fmt.Errorf("failed to merge %q: %w", group.key, err)
				return nil
			}

			results[i] = result

			return nil
		})
	}

	_ = g.Wait()

	committed := make([]TestResult, 0, len(groups))
	for _, result := range results {
		if result != nil {
			committed = append(committed, *result)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		ingestLogger.Error("Batch partially merged",
			"user_id", userID,
			"report_id", reportID,
			"committed", len(committed),
			"keys", len(groups),
			"error", err,
		)
	} else {
		ingestLogger.Info("Batch merged",
			"user_id", userID,
			"report_id", reportID,
			"keys", len(groups),
			"observations", len(batch.Observations),
		)
	}

	return committed, err
}

func (m *Merger) mergeGroup(ctx context.Context, userID, reportID uuid.UUID, date time.Time, group observationGroup) (*TestResult, error) {
	for attempt := 1; attempt <= maxMergeAttempts; attempt++ {
		existing, err := m.store.FindTestResult(ctx, userID, group.key)
		switch {
		case err == nil:
			records := buildRecords(group.observations, existing.ReferenceRange, reportID, date)
			if err := m.store.AppendTestRecords(ctx, existing.ID, records); err != nil {
				return nil, err
			}

			existing.Records = append(existing.Records, records...)

			return existing, nil
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}

		first := group.observations[0]
		created := &TestResult{
			UserID:         userID,
			TestName:       strings.TrimSpace(first.TestName),
			TestKey:        group.key,
			TestCategory:   strings.TrimSpace(first.TestCategory),
			Unit:           strings.TrimSpace(first.Unit),
			ReferenceRange: first.ReferenceRange.Resolve(),
		}
		created.Records = buildRecords(group.observations, created.ReferenceRange, reportID, date)

		err = m.store.CreateTestResult(ctx, created)
		if err == nil {
			return created, nil
		}

		if !errors.Is(err, ErrDuplicate) {
			return nil, err
		}

		ingestLogger.Warn("Test result created concurrently, retrying as append",
			"user_id", userID,
			"test_key", group.key,
			"attempt", attempt,
		)
	}

	return nil, fmt.Errorf("%w: test result %q kept conflicting", ErrDuplicate, group.key)
}

// groupObservations buckets observations by test key, keeping first-seen
// key order and the order of observations within a key.
func groupObservations(observations []Observation) []observationGroup {
	index := make(map[string]int)

	var groups []observationGroup

	for _, o := range observations {
		key := NormalizeTestName(o.TestName)

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, observationGroup{key: key})
		}

		groups[i].observations = append(groups[i].observations, o)
	}

	return groups
}

// buildRecords classifies every observation against rng, which is the stored
// range for existing results and the parsed range for new ones.
func buildRecords(observations []Observation, rng ReferenceRange, reportID uuid.UUID, date time.Time) []TestRecord {
	records := make([]TestRecord, 0, len(observations))
	for _, o := range observations {
		records = append(records, TestRecord{
			ReportID: reportID,
			Value:    *o.Value,
			Date:     date,
			Status:   rng.Classify(*o.Value),
		})
	}

	return records
}
