/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/humaidq/labwise/labs"
)

// LabStore persists test results and their records.
type LabStore struct{}

const testResultSelect = `
	SELECT r.id, r.user_id, r.test_name, r.test_key, r.test_category, r.unit,
		r.reference_min, r.reference_max, r.created_at, r.updated_at,
		rec.seq, rec.report_id, rec.value, rec.observed_on, rec.status
	FROM test_results r
	LEFT JOIN test_records rec ON rec.test_result_id = r.id`

// insertRecordsQuery appends unnested records in array order, so the serial
// seq matches the order of the slice.
const insertRecordsQuery = `
	INSERT INTO test_records (test_result_id, report_id, value, observed_on, status)
	SELECT target.id, rec.report_id::uuid, rec.value, rec.observed_on, rec.status
	FROM target,
		unnest($2::text[], $3::float8[], $4::date[], $5::text[])
			WITH ORDINALITY AS rec(report_id, value, observed_on, status, ord)
	ORDER BY rec.ord`

type recordColumns struct {
	reportIDs []string
	values    []float64
	dates     []time.Time
	statuses  []string
}

func splitRecords(records []labs.TestRecord) recordColumns {
	cols := recordColumns{
		reportIDs: make([]string, len(records)),
		values:    make([]float64, len(records)),
		dates:     make([]time.Time, len(records)),
		statuses:  make([]string, len(records)),
	}

	for i, r := range records {
		cols.reportIDs[i] = r.ReportID.String()
		cols.values[i] = r.Value
		cols.dates[i] = labs.CalendarDate(r.Date)
		cols.statuses[i] = string(r.Status)
	}

	return cols
}

// FindTestResult returns the user's result for a test key with its records.
func (LabStore) FindTestResult(ctx context.Context, userID uuid.UUID, testKey string) (*labs.TestResult, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, testResultSelect+`
		WHERE r.user_id = $1 AND r.test_key = $2
		ORDER BY rec.seq`, userID, testKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query test result: %w", err)
	}

	results, err := collectTestResults(rows)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return nil, labs.ErrNotFound
	}

	return &results[0], nil
}

// ListTestResults returns all of a user's results, oldest first, each with
// its records in insertion order.
func (LabStore) ListTestResults(ctx context.Context, userID uuid.UUID) ([]labs.TestResult, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, testResultSelect+`
		WHERE r.user_id = $1
		ORDER BY r.created_at, r.id, rec.seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query test results: %w", err)
	}

	return collectTestResults(rows)
}

// CreateTestResult inserts a result and its initial records in one
// transaction. A result that already exists for the key returns
// labs.ErrDuplicate.
func (LabStore) CreateTestResult(ctx context.Context, result *labs.TestResult) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start test result transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("Failed to rollback test result creation", "error", err)
		}
	}()

	err = tx.QueryRow(ctx, `
		INSERT INTO test_results (user_id, test_name, test_key, test_category, unit, reference_min, reference_max)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		result.UserID,
		result.TestName,
		result.TestKey,
		result.TestCategory,
		result.Unit,
		result.ReferenceRange.Min,
		result.ReferenceRange.Max,
	).Scan(&result.ID, &result.CreatedAt, &result.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return labs.ErrDuplicate
		}

		return fmt.Errorf("failed to insert test result: %w", err)
	}

	if len(result.Records) > 0 {
		cols := splitRecords(result.Records)
		if _, err := tx.Exec(ctx, `WITH target AS (SELECT $1::uuid AS id)`+insertRecordsQuery,
			result.ID, cols.reportIDs, cols.values, cols.dates, cols.statuses); err != nil {
			return fmt.Errorf("failed to insert test records: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return labs.ErrDuplicate
		}

		return fmt.Errorf("failed to commit test result: %w", err)
	}

	return nil
}

// AppendTestRecords appends records to a result in a single statement and
// bumps its updated_at.
func (LabStore) AppendTestRecords(ctx context.Context, resultID uuid.UUID, records []labs.TestRecord) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	if len(records) == 0 {
		return nil
	}

	cols := splitRecords(records)

	command, err := pool.Exec(ctx, `
		WITH target AS (
			UPDATE test_results SET updated_at = NOW() WHERE id = $1 RETURNING id
		)`+insertRecordsQuery,
		resultID, cols.reportIDs, cols.values, cols.dates, cols.statuses)
	if err != nil {
		return fmt.Errorf("failed to append test records: %w", err)
	}

	if command.RowsAffected() == 0 {
		return labs.ErrNotFound
	}

	return nil
}

func collectTestResults(rows pgx.Rows) ([]labs.TestResult, error) {
	defer rows.Close()

	var results []labs.TestResult

	index := make(map[uuid.UUID]int)

	for rows.Next() {
		var (
			r        labs.TestResult
			seq      *int64
			reportID *uuid.UUID
			value    *float64
			observed *time.Time
			status   *string
		)

		if err := rows.Scan(
			&r.ID,
			&r.UserID,
			&r.TestName,
			&r.TestKey,
			&r.TestCategory,
			&r.Unit,
			&r.ReferenceRange.Min,
			&r.ReferenceRange.Max,
			&r.CreatedAt,
			&r.UpdatedAt,
			&seq,
			&reportID,
			&value,
			&observed,
			&status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan test result: %w", err)
		}

		i, ok := index[r.ID]
		if !ok {
			r.Records = []labs.TestRecord{}
			i = len(results)
			index[r.ID] = i
			results = append(results, r)
		}

		if seq == nil {
			continue
		}

		results[i].Records = append(results[i].Records, labs.TestRecord{
			ReportID: *reportID,
			Value:    *value,
			Date:     labs.CalendarDate(*observed),
			Status:   labs.Status(*status),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating test results: %w", err)
	}

	return results, nil
}
