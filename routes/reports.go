/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/flamego/flamego"
	"github.com/google/uuid"

	"github.com/humaidq/labwise/ai"
	"github.com/humaidq/labwise/db"
	"github.com/humaidq/labwise/extract"
	"github.com/humaidq/labwise/labs"
	"github.com/humaidq/labwise/logging"
)

// DefaultMaxUploadBytes is the largest report accepted by UploadReport.
const DefaultMaxUploadBytes = 5 << 20

// multipartOverhead is the room left in the request body limit for
// boundaries, part headers and small form fields around the report file.
const multipartOverhead = 64 << 10

var ingestLogger = logging.Logger(logging.SourceIngest)

// TextExtractor turns a stored document into plain text.
type TextExtractor interface {
	Supports(mimeType string) bool
	Extract(ctx context.Context, mimeType, path string) (string, error)
}

// Ingester merges a batch of observations into a user's test results.
type Ingester interface {
	Ingest(ctx context.Context, userID uuid.UUID, batch labs.Batch) ([]labs.TestResult, error)
}

// UploadConfig controls where uploaded reports are staged.
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

type ingestResponse struct {
	ReportID    uuid.UUID         `json:"reportId"`
	ReportDate  string            `json:"reportDate"`
	TestResults []labs.TestResult `json:"testResults"`
}

// UploadReport extracts the text of an uploaded report, asks the AI service
// to structure it and ingests the resulting observations.
func UploadReport(
	c flamego.Context,
	user *db.User,
	cfg UploadConfig,
	extractor TextExtractor,
	client ai.Client,
	ingester Ingester,
) {
	path, mimeType, err := stageUpload(c, cfg, extractor)
	if err != nil {
		writeError(c, err)
		return
	}

	defer removeStagedFile(path)

	ctx := c.Request().Context()

	text, err := extractor.Extract(ctx, mimeType, path)
	if err != nil {
		writeError(c, err)
		return
	}

	raw, err := client.Generate(ctx, ai.LabReportSystem, ai.LabReportPrompt(text))
	if err != nil {
		writeError(c, err)
		return
	}

	extraction, err := labs.ParseExtraction(raw)
	if err != nil {
		ingestLogger.Warn("Discarding unusable extraction",
			"user_id", user.ID,
			"error", err,
			"response", raw,
		)
		writeError(c, err)

		return
	}

	ingestExtraction(c, user, ingester, extraction, labs.ErrUpstreamFormat)
}

// IngestObservations ingests an already structured extraction.
func IngestObservations(c flamego.Context, user *db.User, ingester Ingester) {
	var extraction labs.Extraction
	if err := decodeJSON(c, &extraction); err != nil {
		writeError(c, err)
		return
	}

	if len(extraction.TestResults) == 0 {
		writeError(c, badRequest("testResults must contain at least one observation"))
		return
	}

	ingestExtraction(c, user, ingester, &extraction, labs.ErrValidation)
}

// ingestExtraction resolves the report date and merges the observations
// under a new report id. dateErr classifies an unreadable report date.
func ingestExtraction(c flamego.Context, user *db.User, ingester Ingester, extraction *labs.Extraction, dateErr error) {
	date, err := labs.ResolveReportDate(extraction.ReportDate, time.Now())
	if err != nil {
		writeError(c, fmt.Errorf("%w: %v", dateErr, err))
		return
	}

	reportID := uuid.New()

	results, err := ingester.Ingest(c.Request().Context(), user.ID, labs.Batch{
		ReportID:     reportID,
		ReportDate:   date,
		Observations: extraction.TestResults,
	})
	response := ingestResponse{
		ReportID:    reportID,
		ReportDate:  date.Format(time.DateOnly),
		TestResults: results,
	}
	if response.TestResults == nil {
		response.TestResults = []labs.TestResult{}
	}

	if err != nil {
		// Keys merged before the failure stay stored; report them.
		writeErrorData(c, err, response)
		return
	}

	writeJSON(c, http.StatusCreated, response, "lab report processed successfully")
}

// stageUpload copies the multipart "report" file into the upload directory
// and returns its path and detected MIME type.
func stageUpload(c flamego.Context, cfg UploadConfig, extractor TextExtractor) (string, string, error) {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}

	bodyLimit := maxBytes + multipartOverhead

	r := c.Request().Request
	if r.ContentLength > bodyLimit {
		return "", "", errReportTooLarge
	}

	r.Body = http.MaxBytesReader(c.ResponseWriter(), r.Body, bodyLimit)

	file, header, err := r.FormFile("report")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", "", errReportTooLarge
		}

		return "", "", errReportRequired
	}

	defer func() {
		_ = file.Close()
	}()

	if header.Size > maxBytes {
		return "", "", errReportTooLarge
	}

	mimeType := extract.DetectType(header.Filename, header.Header.Get("Content-Type"))
	if !extractor.Supports(mimeType) {
		return "", "", fmt.Errorf("%w: %s", extract.ErrUnsupportedType, header.Filename)
	}

	staged, err := os.CreateTemp(cfg.Dir, "report-*"+extract.Extension(mimeType))
	if err != nil {
		return "", "", fmt.Errorf("failed to stage upload: %w", err)
	}

	if _, err := io.Copy(staged, file); err != nil {
		_ = staged.Close()
		removeStagedFile(staged.Name())

		return "", "", fmt.Errorf("failed to stage upload: %w", err)
	}

	if err := staged.Close(); err != nil {
		removeStagedFile(staged.Name())
		return "", "", fmt.Errorf("failed to stage upload: %w", err)
	}

	return staged.Name(), mimeType, nil
}

func removeStagedFile(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		ingestLogger.Warn("Failed to remove staged upload", "path", path, "error", err)
	}
}
