/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// TrendPoint is one dated value in a trend series.
type TrendPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// Trends maps normalized test keys to their series, oldest first.
type Trends map[string][]TrendPoint

// ProjectTrends reads every test result of the user and projects them into
// per-test series.
func ProjectTrends(ctx context.Context, lister TestResultLister, userID uuid.UUID) (Trends, error) {
	results, err := lister.ListTestResults(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list test results: %w", err)
	}

	return BuildTrends(results), nil
}

type datedPoint struct {
	at    time.Time
	point TrendPoint
}

// BuildTrends groups records by test key and sorts each series by date. The
// sort is stable, so records sharing a date keep the order in which they were
// inserted.
func BuildTrends(results []TestResult) Trends {
	series := make(map[string][]datedPoint)

	for _, result := range results {
		key := result.TestKey
		if key == "" {
			key = NormalizeTestName(result.TestName)
		}

		for _, record := range result.Records {
			day := CalendarDate(record.Date)
			series[key] = append(series[key], datedPoint{
				at:    day,
				point: TrendPoint{Date: day.Format(time.DateOnly), Value: record.Value},
			})
		}
	}

	trends := make(Trends, len(series))

	for key, points := range series {
		slices.SortStableFunc(points, func(a, b datedPoint) int {
			return a.at.Compare(b.at)
		})

		out := make([]TrendPoint, len(points))
		for i, p := range points {
			out[i] = p.point
		}

		trends[key] = out
	}

	return trends
}
