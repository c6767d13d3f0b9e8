package charts

import (
	"testing"
	"time"
)

func TestSuggestLineForTimeSeries(t *testing.T) {
	rows := [][]any{
		{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 10.0},
		{time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), 12.5},
		{time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 9.0},
	}
	got := Suggest([]string{"month", "revenue"}, rows)
	if got.Type != "line" || got.X != "month" || got.Y != "revenue" {
		t.Fatalf("suggestion = %+v", got)
	}
}

func TestSuggestBarForCategoryAndMetric(t *testing.T) {
	rows := [][]any{
		{"Prospecting", int64(4)},
		{"Closed Won", int64(9)},
	}
	got := Suggest([]string{"stage", "deals"}, rows)
	if got.Type != "bar" || got.X != "stage" || got.Y != "deals" {
		t.Fatalf("suggestion = %+v", got)
	}
}

func TestSuggestScatterForTwoNumerics(t *testing.T) {
	rows := [][]any{
		{1.5, 100.0},
		{2.5, 180.0},
	}
	got := Suggest([]string{"qty", "value"}, rows)
	if got.Type != "scatter" || got.X != "qty" || got.Y != "value" {
		t.Fatalf("suggestion = %+v", got)
	}
}

func TestSuggestHistogramForSingleNumeric(t *testing.T) {
	rows := [][]any{{12.0}, {18.5}, {7.25}}
	got := Suggest([]string{"deal_size"}, rows)
	if got.Type != "histogram" || got.Y != "deal_size" {
		t.Fatalf("suggestion = %+v", got)
	}
}

func TestSuggestDateStringsCountAsTemporal(t *testing.T) {
	rows := [][]any{
		{"2025-01-01", 1.0},
		{"2025-02-01", 2.0},
		{"2025-03-01", 3.0},
	}
	got := Suggest([]string{"day", "count"}, rows)
	if got.Type != "line" || got.X != "day" {
		t.Fatalf("suggestion = %+v", got)
	}
}

func TestSuggestNothingForTextOnlyOrEmptyResults(t *testing.T) {
	if got := Suggest([]string{"name"}, [][]any{{"Acme"}, {"Globex"}}); got.Type != "" {
		t.Fatalf("suggestion = %+v", got)
	}
	if got := Suggest([]string{"a"}, nil); got.Type != "" {
		t.Fatalf("suggestion = %+v", got)
	}
	if got := Suggest(nil, [][]any{{1}}); got.Type != "" {
		t.Fatalf("suggestion = %+v", got)
	}
}

func TestSuggestIgnoresNullsWhenClassifying(t *testing.T) {
	rows := [][]any{
		{"north", nil},
		{"south", 4.0},
	}
	got := Suggest([]string{"region", "total"}, rows)
	if got.Type != "bar" || got.Y != "total" {
		t.Fatalf("suggestion = %+v", got)
	}
}
