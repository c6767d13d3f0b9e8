package crm

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/crmlens/crmlens/internal/observability"
)

// Result is a tabular query result.
type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

// Executor is the execution sink. Callers are responsible for only handing
// it validated, bounded, read-only statements; the executor itself treats
// the text as opaque and returns the engine's error verbatim for the
// repair loop.
type Executor struct {
	DB *sql.DB
}

func NewExecutor(db *sql.DB) *Executor {
	return &Executor{DB: db}
}

func (e *Executor) Execute(ctx context.Context, sqlText string) (Result, error) {
	if strings.TrimSpace(sqlText) == "" {
		return Result{}, fmt.Errorf("sql is required")
	}

	start := time.Now()
	rows, err := e.DB.QueryContext(ctx, sqlText)
	if err != nil {
		observability.ObserveQueryExecution("error", time.Since(start))
		return Result{}, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		observability.ObserveQueryExecution("error", time.Since(start))
		return Result{}, err
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			observability.ObserveQueryExecution("error", time.Since(start))
			return Result{}, err
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		observability.ObserveQueryExecution("error", time.Since(start))
		return Result{}, err
	}

	elapsed := time.Since(start)
	observability.ObserveQueryExecution("ok", elapsed)
	return Result{Columns: columns, Rows: resultRows, Duration: elapsed}, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}
