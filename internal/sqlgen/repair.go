package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/crmlens/crmlens/internal/llm"
	"github.com/crmlens/crmlens/internal/observability"
)

const repairRules = `You are a senior data analyst. A DuckDB SELECT query failed; produce a corrected single SELECT query.
Rules: SELECT-only, no DDL/DML, no comments, no code fences, no trailing semicolon.
Use a LIMIT clause, never TOP. Use only columns and tables from the schema provided.`

// Repair attempts to fix a query that was rejected by the execution sink.
// It first tries the pure dialect-normalization transform, which captures
// the common vendor-syntax defect at zero latency and cost; only when that
// does not change the text does it make a single model-assisted attempt.
// Returns ErrNoRepair when no usable corrected query can be produced.
func (g *Generator) Repair(ctx context.Context, question, schemaSnapshot, failedSQL, errText string) (Query, error) {
	base := StripFences(failedSQL)
	cheap := NormalizeDialect(base)
	if cheap != base && IsReadOnly(cheap) {
		observability.ObserveRepair("normalize")
		return Query{SQL: EnsureLimit(cheap, g.RowLimit), Backend: "normalizer"}, nil
	}

	system := DomainContext + "\n\n" + repairRules
	user := fmt.Sprintf("Schema:\n%s\n\nQuestion: %s\n\nThis query failed:\n%s\n\nDatabase error:\n%s\n\nReturn only the corrected SQL (no explanation).",
		schemaSnapshot, strings.TrimSpace(question), base, strings.TrimSpace(errText))

	for _, backend := range g.Backends {
		raw, err := backend.Complete(ctx, llm.Request{
			System:      system,
			User:        user,
			Temperature: generateTemperature,
		})
		if err != nil {
			observability.ObserveCompletion(backend.Name(), "repair", "error")
			continue
		}
		observability.ObserveCompletion(backend.Name(), "repair", "ok")

		sqlText := Normalize(raw)
		if !IsReadOnly(sqlText) {
			observability.ObserveRepair("rejected")
			return Query{}, ErrNoRepair
		}
		observability.ObserveRepair("model")
		return Query{SQL: EnsureLimit(sqlText, g.RowLimit), Backend: backend.Name()}, nil
	}
	observability.ObserveRepair("unavailable")
	return Query{}, ErrNoRepair
}
