// Package chart infers whether a query result can be visualized and, when
// it can, projects the rows into a labels/datasets shape that charting
// front ends consume directly.
package chart

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Type names the inferred visualization family.
type Type string

const (
	TypeCategorical Type = "categorical"
	TypeTimeSeries  Type = "time_series"
)

// Dataset is one plotted series.
type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// Spec is the chart-ready projection of a query result.
type Spec struct {
	Type     Type      `json:"type"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// IsChartable reports whether the result shape supports a chart. The
// decision uses only column count, row count, and sampled value kinds.
// Ambiguous shapes are rejected.
func IsChartable(columns []string, rows [][]any) bool {
	return Generate(columns, rows) != nil
}

// Generate returns a chart spec for the result, or nil when no chart can
// be derived. A single scalar and an empty result never chart.
func Generate(columns []string, rows [][]any) *Spec {
	if len(rows) == 0 || len(columns) < 2 {
		return nil
	}
	for _, row := range rows {
		if len(row) != len(columns) {
			return nil
		}
	}

	labelIndex := -1
	timeLike := false
	for i, column := range columns {
		if columnIsTimeLike(column, columnValues(rows, i)) {
			labelIndex = i
			timeLike = true
			break
		}
	}
	if labelIndex == -1 {
		for i := range columns {
			if columnIsCategorical(columnValues(rows, i)) {
				labelIndex = i
				break
			}
		}
	}
	if labelIndex == -1 {
		return nil
	}

	var datasets []Dataset
	for i, column := range columns {
		if i == labelIndex {
			continue
		}
		values, ok := numericColumn(columnValues(rows, i))
		if !ok {
			continue
		}
		datasets = append(datasets, Dataset{Label: column, Data: values})
	}
	if len(datasets) == 0 {
		return nil
	}

	labels := make([]string, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, formatLabel(row[labelIndex]))
	}

	chartType := TypeCategorical
	if timeLike {
		chartType = TypeTimeSeries
	}
	return &Spec{Type: chartType, Labels: labels, Datasets: datasets}
}

func columnValues(rows [][]any, index int) []any {
	values := make([]any, 0, len(rows))
	for _, row := range rows {
		values = append(values, row[index])
	}
	return values
}

var timeLikeNames = []string{
	"fecha", "date", "mes", "month", "dia", "day",
	"año", "year", "semana", "week", "trimestre", "quarter",
}

var timeShapedPattern = regexp.MustCompile(`^\d{4}-\d{2}(-\d{2})?([T ].*)?$`)

func columnIsTimeLike(name string, values []any) bool {
	lowered := strings.ToLower(name)
	named := false
	for _, fragment := range timeLikeNames {
		if strings.Contains(lowered, fragment) {
			named = true
			break
		}
	}

	shaped := 0
	for _, value := range values {
		switch typed := value.(type) {
		case time.Time:
			shaped++
		case string:
			if timeShapedPattern.MatchString(strings.TrimSpace(typed)) {
				shaped++
			}
		}
	}
	if shaped == len(values) && len(values) > 0 {
		return true
	}
	return named && shaped > 0
}

func columnIsCategorical(values []any) bool {
	for _, value := range values {
		switch value.(type) {
		case string, bool:
		case time.Time:
			return false
		case nil:
			return false
		default:
			return false
		}
	}
	return len(values) > 0
}

func numericColumn(values []any) ([]float64, bool) {
	numbers := make([]float64, 0, len(values))
	for _, value := range values {
		number, ok := asFloat(value)
		if !ok {
			return nil, false
		}
		numbers = append(numbers, number)
	}
	return numbers, true
}

func asFloat(value any) (float64, bool) {
	switch typed := value.(type) {
	case int:
		return float64(typed), true
	case int32:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case float32:
		return float64(typed), true
	case float64:
		return typed, true
	case string:
		number, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, false
		}
		return number, true
	default:
		return 0, false
	}
}

func formatLabel(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case time.Time:
		return typed.Format("2006-01-02")
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", typed)
	}
}
