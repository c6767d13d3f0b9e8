package charts

import (
	"time"
)

// Suggestion is an auto-chosen chart for a tabular result. Type is one of
// line, bar, scatter, histogram; an empty Type means no obvious chart.
type Suggestion struct {
	Type string `json:"type"`
	X    string `json:"x,omitempty"`
	Y    string `json:"y,omitempty"`
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Suggest picks a chart from the column shapes: time+numeric makes a line,
// categorical+numeric a bar, two numerics a scatter, a single numeric a
// histogram.
func Suggest(columns []string, rows [][]any) Suggestion {
	if len(columns) == 0 || len(rows) == 0 {
		return Suggestion{}
	}

	numeric := make([]string, 0)
	temporal := make([]string, 0)
	categorical := make([]string, 0)

	for i, column := range columns {
		switch classifyColumn(i, rows) {
		case kindNumeric:
			numeric = append(numeric, column)
		case kindTime:
			temporal = append(temporal, column)
		default:
			categorical = append(categorical, column)
		}
	}

	switch {
	case len(temporal) > 0 && len(numeric) > 0:
		return Suggestion{Type: "line", X: temporal[0], Y: numeric[0]}
	case len(categorical) > 0 && len(numeric) > 0:
		return Suggestion{Type: "bar", X: categorical[0], Y: numeric[0]}
	case len(numeric) >= 2:
		return Suggestion{Type: "scatter", X: numeric[0], Y: numeric[1]}
	case len(numeric) == 1:
		return Suggestion{Type: "histogram", Y: numeric[0]}
	default:
		return Suggestion{}
	}
}

type columnKind int

const (
	kindCategorical columnKind = iota
	kindNumeric
	kindTime
)

func classifyColumn(index int, rows [][]any) columnKind {
	numericCount := 0
	timeCount := 0
	nonNil := 0

	for _, row := range rows {
		if index >= len(row) || row[index] == nil {
			continue
		}
		nonNil++
		switch value := row[index].(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			numericCount++
		case time.Time:
			timeCount++
		case string:
			if parsesAsTime(value) {
				timeCount++
			}
		}
	}
	if nonNil == 0 {
		return kindCategorical
	}

	// A fifth of the values (at least 3) must parse as timestamps before a
	// string column counts as temporal.
	timeThreshold := nonNil / 5
	if timeThreshold < 3 {
		timeThreshold = 3
	}
	switch {
	case numericCount == nonNil:
		return kindNumeric
	case timeCount >= timeThreshold || timeCount == nonNil:
		return kindTime
	default:
		return kindCategorical
	}
}

func parsesAsTime(value string) bool {
	for _, layout := range timeLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}
