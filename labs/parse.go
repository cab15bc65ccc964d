/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package labs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var codeFencePattern = regexp.MustCompile("(?s)^```[A-Za-z0-9_-]*[ \t]*\n?(.*?)\\s*```$")

// StripCodeFence removes a markdown code fence around text, if present.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if m := codeFencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	return text
}

// ParseExtraction decodes generated lab report JSON and validates every
// observation. Any deviation from the expected shape is reported as
// ErrUpstreamFormat.
func ParseExtraction(raw string) (*Extraction, error) {
	body := StripCodeFence(raw)

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFormat, err)
	}

	results, ok := probe["testResults"]
	if !ok || !isJSONArray(results) {
		return nil, fmt.Errorf("%w: testResults must be an array", ErrUpstreamFormat)
	}

	var extraction Extraction
	if err := json.Unmarshal([]byte(body), &extraction); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFormat, err)
	}

	if err := ValidateObservations(extraction.TestResults); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFormat, err)
	}

	if _, err := ResolveReportDate(extraction.ReportDate, time.Now()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFormat, err)
	}

	return &extraction, nil
}

// ParseInsights decodes a generated insight report. Missing sections decode
// as empty, but a response with no content at all is rejected.
func ParseInsights(raw string) (InsightPayload, error) {
	var payload InsightPayload

	body := StripCodeFence(raw)
	if !isJSONObject([]byte(body)) {
		return payload, fmt.Errorf("%w: insights must be a JSON object", ErrUpstreamFormat)
	}

	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return payload, fmt.Errorf("%w: %v", ErrUpstreamFormat, err)
	}

	payload = payload.normalized()
	if payload.empty() {
		return payload, fmt.Errorf("%w: insights contain no sections", ErrUpstreamFormat)
	}

	return payload, nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func isJSONObject(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
