/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/flamego/flamego"

	"github.com/humaidq/labwise/ai"
	"github.com/humaidq/labwise/auth"
	"github.com/humaidq/labwise/db"
	"github.com/humaidq/labwise/extract"
	"github.com/humaidq/labwise/labs"
)

const maxJSONBodyBytes = 1 << 20

// apiResponse is the envelope every JSON endpoint answers with.
type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

func writeJSON(c flamego.Context, status int, data any, message string) {
	w := c.ResponseWriter()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	}); err != nil {
		logger.Error("Failed to write response", "path", c.Request().URL.Path, "error", err)
	}
}

// writeError maps err onto a status code and writes it as an envelope.
// Unrecognized errors are logged and hidden behind a generic message.
func writeError(c flamego.Context, err error) {
	writeErrorData(c, err, nil)
}

// writeErrorData is writeError with a data payload, for failures that still
// produced partial results.
func writeErrorData(c flamego.Context, err error, data any) {
	status, message := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed",
			"method", c.Request().Method,
			"path", c.Request().URL.Path,
			"error", err,
		)
	}

	writeJSON(c, status, data, message)
}

func statusForError(err error) (int, string) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.status, apiErr.message
	}

	switch {
	case errors.Is(err, labs.ErrValidation),
		errors.Is(err, extract.ErrUnsupportedType),
		errors.Is(err, extract.ErrNoText):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, labs.ErrNotFound), errors.Is(err, db.ErrUserNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, db.ErrUserExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrPasswordMismatch):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, labs.ErrUpstreamFormat),
		errors.Is(err, ai.ErrUpstream),
		errors.Is(err, ai.ErrEmptyResponse):
		return http.StatusBadGateway, "the AI service returned an unusable response"
	case errors.Is(err, ai.ErrNotConfigured), errors.Is(err, ai.ErrUnknownProvider):
		return http.StatusServiceUnavailable, "the AI service is not configured"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func decodeJSON(c flamego.Context, v any) error {
	body := http.MaxBytesReader(c.ResponseWriter(), c.Request().Request.Body, maxJSONBodyBytes)
	defer func() {
		_ = body.Close()
	}()

	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is required")
		}

		return errInvalidJSON
	}

	return nil
}
