// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package labs

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type resultKey struct {
	userID uuid.UUID
	key    string
}

// memoryStore is an in-memory TestResultStore and HealthReportStore.
type memoryStore struct {
	mu      sync.Mutex
	results map[resultKey]*TestResult
	order   []resultKey
	reports map[uuid.UUID]*HealthReport

	creates int
	appends int

	// beforeCreate runs with the lock released before a create is applied.
	beforeCreate func(result *TestResult)
	failKey      string
}

var errInjected = errors.New("injected failure")

func newMemoryStore() *memoryStore {
	return &memoryStore{
		results: make(map[resultKey]*TestResult),
		reports: make(map[uuid.UUID]*HealthReport),
	}
}

func cloneResult(r *TestResult) *TestResult {
	out := *r
	out.Records = slices.Clone(r.Records)
	return &out
}

func (s *memoryStore) FindTestResult(_ context.Context, userID uuid.UUID, testKey string) (*TestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.results[resultKey{userID, testKey}]
	if !ok {
		return nil, ErrNotFound
	}

	return cloneResult(r), nil
}

func (s *memoryStore) CreateTestResult(_ context.Context, result *TestResult) error {
	if result.TestKey == s.failKey {
		return errInjected
	}

	if s.beforeCreate != nil {
		s.beforeCreate(result)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := resultKey{result.UserID, result.TestKey}
	if _, ok := s.results[k]; ok {
		return ErrDuplicate
	}

	now := time.Now()
	result.ID = uuid.New()
	result.CreatedAt = now
	result.UpdatedAt = now
	s.results[k] = cloneResult(result)
	s.order = append(s.order, k)
	s.creates++

	return nil
}

func (s *memoryStore) AppendTestRecords(_ context.Context, resultID uuid.UUID, records []TestRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.results {
		if r.ID == resultID {
			r.Records = append(r.Records, records...)
			r.UpdatedAt = time.Now()
			s.appends++
			return nil
		}
	}

	return ErrNotFound
}

func (s *memoryStore) ListTestResults(_ context.Context, userID uuid.UUID) ([]TestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []TestResult

	for _, k := range s.order {
		if k.userID == userID {
			out = append(out, *cloneResult(s.results[k]))
		}
	}

	return out, nil
}

func (s *memoryStore) count(userID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0

	for k := range s.results {
		if k.userID == userID {
			n++
		}
	}

	return n
}

func (s *memoryStore) UpsertInsights(_ context.Context, userID uuid.UUID, payload InsightPayload) (*HealthReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[userID]
	if !ok {
		report = &HealthReport{
			ID:                   uuid.New(),
			UserID:               userID,
			UserReportedSymptoms: []string{},
			UserMedications:      []string{},
			CreatedAt:            time.Now(),
		}
		s.reports[userID] = report
	}

	report.InsightPayload = payload
	report.UpdatedAt = time.Now()

	out := *report

	return &out, nil
}

func (s *memoryStore) GetHealthReport(_ context.Context, userID uuid.UUID) (*HealthReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[userID]
	if !ok {
		return nil, ErrNotFound
	}

	out := *report

	return &out, nil
}

func (s *memoryStore) SetSymptoms(_ context.Context, userID uuid.UUID, symptoms []string) (*HealthReport, error) {
	return s.setList(userID, func(r *HealthReport) { r.UserReportedSymptoms = symptoms })
}

func (s *memoryStore) SetMedications(_ context.Context, userID uuid.UUID, medications []string) (*HealthReport, error) {
	return s.setList(userID, func(r *HealthReport) { r.UserMedications = medications })
}

func (s *memoryStore) setList(userID uuid.UUID, apply func(*HealthReport)) (*HealthReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[userID]
	if !ok {
		report = &HealthReport{
			ID:                   uuid.New(),
			UserID:               userID,
			UserReportedSymptoms: []string{},
			UserMedications:      []string{},
			InsightPayload:       InsightPayload{}.normalized(),
			CreatedAt:            time.Now(),
		}
		s.reports[userID] = report
	}

	apply(report)

	out := *report

	return &out, nil
}

func (s *memoryStore) DeleteHealthReport(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[userID]; !ok {
		return ErrNotFound
	}

	delete(s.reports, userID)

	return nil
}
