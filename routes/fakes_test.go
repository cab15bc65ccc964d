// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/flamego/flamego"
	"github.com/google/uuid"

	"github.com/humaidq/labwise/ai"
	"github.com/humaidq/labwise/auth"
	"github.com/humaidq/labwise/db"
	"github.com/humaidq/labwise/labs"
)

var errTestBoom = errors.New("boom")

type fakeUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*db.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[uuid.UUID]*db.User)}
}

func (s *fakeUserStore) CreateUser(_ context.Context, input db.CreateUserInput) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, user := range s.users {
		if user.Username == input.Username || user.Email == input.Email {
			return nil, db.ErrUserExists
		}
	}

	now := time.Now()
	user := &db.User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		Fullname:     input.Fullname,
		PasswordHash: input.PasswordHash,
		Gender:       input.Gender,
		DateOfBirth:  input.DateOfBirth,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[user.ID] = user

	copied := *user

	return &copied, nil
}

func (s *fakeUserStore) GetUserByID(_ context.Context, id uuid.UUID) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, db.ErrUserNotFound
	}

	copied := *user

	return &copied, nil
}

func (s *fakeUserStore) GetUserByLogin(_ context.Context, login string) (*db.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	login = strings.ToLower(strings.TrimSpace(login))
	for _, user := range s.users {
		if user.Username == login || user.Email == login {
			copied := *user
			return &copied, nil
		}
	}

	return nil, db.ErrUserNotFound
}

func (s *fakeUserStore) SetRefreshTokenHash(_ context.Context, id uuid.UUID, hash *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return db.ErrUserNotFound
	}

	user.RefreshTokenHash = hash

	return nil
}

func (s *fakeUserStore) refreshHash(id uuid.UUID) *string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.users[id].RefreshTokenHash
}

type fakeLabResults struct {
	results []labs.TestResult
	err     error
}

func (f *fakeLabResults) ListTestResults(_ context.Context, userID uuid.UUID) ([]labs.TestResult, error) {
	if f.err != nil {
		return nil, f.err
	}

	var out []labs.TestResult

	for _, result := range f.results {
		if result.UserID == userID {
			out = append(out, result)
		}
	}

	return out, nil
}

func (f *fakeLabResults) FindTestResult(_ context.Context, userID uuid.UUID, key string) (*labs.TestResult, error) {
	for _, result := range f.results {
		if result.UserID == userID && result.TestKey == key {
			copied := result
			return &copied, nil
		}
	}

	return nil, labs.ErrNotFound
}

type fakeReports struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*labs.HealthReport
}

func newFakeReports() *fakeReports {
	return &fakeReports{reports: make(map[uuid.UUID]*labs.HealthReport)}
}

func (f *fakeReports) ensure(userID uuid.UUID) *labs.HealthReport {
	report, ok := f.reports[userID]
	if !ok {
		report = &labs.HealthReport{
			ID:                   uuid.New(),
			UserID:               userID,
			UserReportedSymptoms: []string{},
			UserMedications:      []string{},
		}
		f.reports[userID] = report
	}

	return report
}

func (f *fakeReports) UpsertInsights(_ context.Context, userID uuid.UUID, payload labs.InsightPayload) (*labs.HealthReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	report := f.ensure(userID)
	report.InsightPayload = payload
	copied := *report

	return &copied, nil
}

func (f *fakeReports) GetHealthReport(_ context.Context, userID uuid.UUID) (*labs.HealthReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	report, ok := f.reports[userID]
	if !ok {
		return nil, labs.ErrNotFound
	}

	copied := *report

	return &copied, nil
}

func (f *fakeReports) SetSymptoms(_ context.Context, userID uuid.UUID, symptoms []string) (*labs.HealthReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	report := f.ensure(userID)
	report.UserReportedSymptoms = symptoms
	copied := *report

	return &copied, nil
}

func (f *fakeReports) SetMedications(_ context.Context, userID uuid.UUID, medications []string) (*labs.HealthReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	report := f.ensure(userID)
	report.UserMedications = medications
	copied := *report

	return &copied, nil
}

func (f *fakeReports) DeleteHealthReport(_ context.Context, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.reports[userID]; !ok {
		return labs.ErrNotFound
	}

	delete(f.reports, userID)

	return nil
}

type fakeAI struct {
	mu       sync.Mutex
	response string
	err      error
	systems  []string
	prompts  []string
}

func (f *fakeAI) Generate(_ context.Context, system, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.systems = append(f.systems, system)
	f.prompts = append(f.prompts, prompt)

	return f.response, f.err
}

type fakeExtractor struct {
	text      string
	err       error
	stagedAt  string
	stagedSaw string
}

func (f *fakeExtractor) Supports(mimeType string) bool {
	return mimeType == "application/pdf" || mimeType == "text/plain"
}

func (f *fakeExtractor) Extract(_ context.Context, _ string, path string) (string, error) {
	f.stagedAt = path

	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	f.stagedSaw = string(content)

	return f.text, f.err
}

type fakeIngester struct {
	batches []labs.Batch
	err     error
	// failKey makes the merge of that test key fail while the others commit.
	failKey string
}

func (f *fakeIngester) Ingest(_ context.Context, userID uuid.UUID, batch labs.Batch) ([]labs.TestResult, error) {
	if f.err != nil {
		return nil, f.err
	}

	if err := labs.ValidateObservations(batch.Observations); err != nil {
		return nil, err
	}

	f.batches = append(f.batches, batch)

	var mergeErr error

	results := make([]labs.TestResult, 0, len(batch.Observations))
	for _, obs := range batch.Observations {
		if labs.NormalizeTestName(obs.TestName) == f.failKey {
			mergeErr = errors.Join(mergeErr, errTestBoom)
			continue
		}

		rng := obs.ReferenceRange.Resolve()
		results = append(results, labs.TestResult{
			ID:             uuid.New(),
			UserID:         userID,
			TestName:       obs.TestName,
			TestKey:        labs.NormalizeTestName(obs.TestName),
			ReferenceRange: rng,
			Records: []labs.TestRecord{{
				ReportID: batch.ReportID,
				Value:    *obs.Value,
				Date:     batch.ReportDate,
				Status:   rng.Classify(*obs.Value),
			}},
		})
	}

	return results, mergeErr
}

type fakeSynth struct {
	reports *fakeReports
}

func (f *fakeSynth) Synthesize(ctx context.Context, userID uuid.UUID, payload labs.InsightPayload) (*labs.HealthReport, error) {
	return f.reports.UpsertInsights(ctx, userID, payload)
}

type fakePinger struct {
	err error
}

func (f fakePinger) Ping(context.Context) error {
	return f.err
}

type testEnv struct {
	users     *fakeUserStore
	tokens    *auth.TokenIssuer
	results   *fakeLabResults
	reports   *fakeReports
	ai        *fakeAI
	extractor *fakeExtractor
	ingester  *fakeIngester
	pinger    fakePinger
	uploadDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens, err := auth.NewTokenIssuer(auth.TokenConfig{
		AccessSecret:  "access-secret-for-tests",
		RefreshSecret: "refresh-secret-for-tests",
	})
	if err != nil {
		t.Fatalf("failed to create token issuer: %v", err)
	}

	return &testEnv{
		users:     newFakeUserStore(),
		tokens:    tokens,
		results:   &fakeLabResults{},
		reports:   newFakeReports(),
		ai:        &fakeAI{},
		extractor: &fakeExtractor{},
		ingester:  &fakeIngester{},
		uploadDir: t.TempDir(),
	}
}

func (e *testEnv) app() *flamego.Flame {
	f := flamego.New()
	f.Map(e.tokens)
	f.Map(CookieConfig{Secure: true})
	f.Map(UploadConfig{Dir: e.uploadDir, MaxBytes: 1024})
	f.MapTo(e.users, (*UserStore)(nil))
	f.MapTo(e.results, (*LabResults)(nil))
	f.MapTo(e.reports, (*labs.HealthReportStore)(nil))
	f.MapTo(e.ai, (*ai.Client)(nil))
	f.MapTo(e.extractor, (*TextExtractor)(nil))
	f.MapTo(e.ingester, (*Ingester)(nil))
	f.MapTo(&fakeSynth{reports: e.reports}, (*InsightSynthesizer)(nil))
	f.MapTo(e.pinger, (*Pinger)(nil))

	f.Get("/healthz", Healthz)

	f.Group("/users", func() {
		f.Post("/register", Register)
		f.Post("/login", Login)
		f.Post("/refresh-token", RefreshToken)
	})

	f.Group("", func() {
		f.Post("/users/logout", Logout)
		f.Get("/users/me", CurrentUser)
		f.Post("/reports/upload", UploadReport)
		f.Post("/observations", IngestObservations)
		f.Get("/trends", GetTrends)
		f.Get("/trends/{test}/chart", GetTrendChart)
		f.Get("/charts", GetTrendCharts)
		f.Get("/tests", ListTests)
		f.Post("/insights", GenerateInsights)
		f.Post("/insights/refresh", RefreshInsights)
		f.Get("/health-report", GetHealthReport)
		f.Put("/health-report/symptoms", UpdateSymptoms)
		f.Put("/health-report/medications", UpdateMedications)
		f.Delete("/health-report", DeleteHealthReport)
	}, RequireAuth)

	f.NotFound(NotFound)

	return f
}

// signIn creates a user and returns it with a valid access token.
func (e *testEnv) signIn(t *testing.T, username string) (*db.User, string) {
	t.Helper()

	hash, err := auth.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user, err := e.users.CreateUser(context.Background(), db.CreateUserInput{
		Username:     username,
		Email:        username + "@example.com",
		Fullname:     "Test User",
		PasswordHash: hash,
		Gender:       db.GenderOther,
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	token, err := e.tokens.IssueAccess(auth.Subject{ID: user.ID, Email: user.Email, Username: user.Username})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	return user, token
}

func performJSON(t *testing.T, f *flamego.Flame, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}

		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, req)

	return rec
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int) envelope {
	t.Helper()

	if rec.Code != wantStatus {
		t.Fatalf("expected status %d, got %d: %s", wantStatus, rec.Code, rec.Body.String())
	}

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode envelope %q: %v", rec.Body.String(), err)
	}

	if env.StatusCode != wantStatus {
		t.Fatalf("envelope status %d, want %d", env.StatusCode, wantStatus)
	}

	if env.Success != (wantStatus < http.StatusBadRequest) {
		t.Fatalf("envelope success %v for status %d", env.Success, wantStatus)
	}

	return env
}
