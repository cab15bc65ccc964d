/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ai

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

// System instructions sent with each prompt.
const (
	LabReportSystem      = "You read medical laboratory reports and return their results as strict JSON. Never add commentary."
	HealthInsightsSystem = "You are a careful clinical assistant. You review lab result trends and return structured, non-alarmist guidance as strict JSON."
)

//go:embed prompts/lab_report.txt
var labReportTemplate string

//go:embed prompts/health_insights.txt
var healthInsightsTemplate string

// LabReportPrompt builds the extraction prompt for the text of one report.
func LabReportPrompt(reportText string) string {
	var sb strings.Builder

	sb.WriteString(labReportTemplate)
	sb.WriteString("\n")
	sb.WriteString(strings.TrimSpace(reportText))
	sb.WriteString("\n")

	return sb.String()
}

// HealthInsightsPrompt builds the insight prompt for a set of trends.
func HealthInsightsPrompt(trends any) (string, error) {
	encoded, err := json.MarshalIndent(trends, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode trends: %w", err)
	}

	var sb strings.Builder

	sb.WriteString(healthInsightsTemplate)
	sb.WriteString("\n")
	sb.Write(encoded)
	sb.WriteString("\n")

	return sb.String(), nil
}
