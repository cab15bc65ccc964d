/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"bytes"
	"context"
	"net/http"

	"github.com/flamego/flamego"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/google/uuid"

	"github.com/humaidq/labwise/db"
	"github.com/humaidq/labwise/labs"
)

// LabResults reads stored test results.
type LabResults interface {
	labs.TestResultLister
	FindTestResult(ctx context.Context, userID uuid.UUID, testKey string) (*labs.TestResult, error)
}

// GetTrends returns the user's trends keyed by test.
func GetTrends(c flamego.Context, user *db.User, results LabResults) {
	trends, err := labs.ProjectTrends(c.Request().Context(), results, user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, trends, "trends fetched successfully")
}

// ListTests returns every stored test result with its records.
func ListTests(c flamego.Context, user *db.User, results LabResults) {
	list, err := results.ListTestResults(c.Request().Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	if list == nil {
		list = []labs.TestResult{}
	}

	writeJSON(c, http.StatusOK, list, "test results fetched successfully")
}

// GetTrendChart renders the history of one test as an HTML line chart.
func GetTrendChart(c flamego.Context, user *db.User, results LabResults) {
	key := labs.NormalizeTestName(c.Param("test"))

	result, err := results.FindTestResult(c.Request().Context(), user.ID, key)
	if err != nil {
		writeError(c, err)
		return
	}

	renderCharts(c, result.TestName, buildTrendChart(*result))
}

// GetTrendCharts renders one chart per stored test on a single page.
func GetTrendCharts(c flamego.Context, user *db.User, results LabResults) {
	list, err := results.ListTestResults(c.Request().Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	if len(list) == 0 {
		writeError(c, errNoLabData)
		return
	}

	lines := make([]components.Charter, 0, len(list))
	for _, result := range list {
		lines = append(lines, buildTrendChart(result))
	}

	renderCharts(c, "Lab trends", lines...)
}

func renderCharts(c flamego.Context, title string, lines ...components.Charter) {
	page := components.NewPage()
	page.PageTitle = title
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(lines...)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		writeError(c, err)
		return
	}

	w := c.ResponseWriter()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// buildTrendChart plots the records of result by date with the stored
// reference range as dashed mark lines.
func buildTrendChart(result labs.TestResult) *charts.Line {
	var points []labs.TrendPoint
	for _, series := range labs.BuildTrends([]labs.TestResult{result}) {
		points = series
	}

	xAxis := make([]string, 0, len(points))
	yData := make([]opts.LineData, 0, len(points))

	var dataMin, dataMax float64

	for i, point := range points {
		xAxis = append(xAxis, point.Date)
		yData = append(yData, opts.LineData{Value: point.Value})

		if i == 0 || point.Value < dataMin {
			dataMin = point.Value
		}

		if i == 0 || point.Value > dataMax {
			dataMax = point.Value
		}
	}

	rng := result.ReferenceRange
	hasRange := rng.Min != 0 || rng.Max != 0

	// Keep the reference range in view with some padding, widening to the
	// data when it falls outside.
	var yAxisMin, yAxisMax interface{}

	if hasRange && rng.Max > rng.Min {
		padding := (rng.Max - rng.Min) * 0.1
		minVal := rng.Min - padding
		maxVal := rng.Max + padding

		if len(points) > 0 && dataMin < minVal {
			minVal = dataMin - (dataMax-dataMin)*0.05
		}

		if len(points) > 0 && dataMax > maxVal {
			maxVal = dataMax + (dataMax-dataMin)*0.05
		}

		yAxisMin = minVal
		yAxisMax = maxVal
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    result.TestName,
			Subtitle: result.TestCategory,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: result.Unit,
			Min:  yAxisMin,
			Max:  yAxisMax,
		}),
	)

	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(true),
			ShowSymbol: opts.Bool(true),
		}),
		charts.WithMarkPointNameTypeItemOpts(
			opts.MarkPointNameTypeItem{Name: "Max", Type: "max"},
			opts.MarkPointNameTypeItem{Name: "Min", Type: "min"},
		),
	}

	if hasRange {
		markLineItems := []interface{}{
			opts.MarkLineNameYAxisItem{Name: "Ref Min", YAxis: rng.Min},
			opts.MarkLineNameYAxisItem{Name: "Ref Max", YAxis: rng.Max},
		}

		seriesOpts = append(seriesOpts, func(s *charts.SingleSeries) {
			s.MarkLines = &opts.MarkLines{
				Data: markLineItems,
				MarkLineStyle: opts.MarkLineStyle{
					Symbol: []string{"none", "none"},
					LineStyle: &opts.LineStyle{
						Color: "rgba(128, 128, 128, 0.6)",
						Type:  "dashed",
						Width: 1.5,
					},
				},
			}
		})
	}

	line.SetXAxis(xAxis).
		AddSeries(result.TestName, yData).
		SetSeriesOptions(seriesOpts...)

	return line
}
