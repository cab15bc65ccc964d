/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import "net/http"

// apiError is an error raised at the HTTP boundary that already knows its
// status code.
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string {
	return e.message
}

func badRequest(message string) *apiError {
	return &apiError{status: http.StatusBadRequest, message: message}
}

var (
	errUnauthorized       = &apiError{status: http.StatusUnauthorized, message: "unauthorized request"}
	errInvalidCredentials = &apiError{status: http.StatusUnauthorized, message: "invalid user credentials"}
	errInvalidRefresh     = &apiError{status: http.StatusUnauthorized, message: "refresh token is expired or used"}
	errInvalidJSON        = badRequest("request body must be valid JSON")
	errReportRequired     = badRequest("report file is required")
	errReportTooLarge     = &apiError{status: http.StatusRequestEntityTooLarge, message: "report file exceeds the upload limit"}
	errTrendsRequired     = badRequest("trends data is required")
	errNoLabData          = badRequest("no lab results recorded yet")
)
