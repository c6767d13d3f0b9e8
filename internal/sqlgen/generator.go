package sqlgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/crmlens/crmlens/internal/llm"
	"github.com/crmlens/crmlens/internal/observability"
)

const (
	// DefaultRowLimit is appended to statements that validate without a
	// bound of their own.
	DefaultRowLimit = 1000

	generateTemperature = 0.1
)

var (
	// ErrNoBackend means no completion backend is configured or reachable.
	ErrNoBackend = errors.New("no completion backend available")
	// ErrNoRepair means the repair loop could not produce a usable query;
	// the caller should surface the original execution error unchanged.
	ErrNoRepair = errors.New("no usable repair")
)

// ValidationError carries completion output that failed the read-only check.
type ValidationError struct {
	Backend string
	Output  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("backend %s returned a non read-only statement", e.Backend)
}

// Query is a normalized, validated, bounded statement ready for execution.
type Query struct {
	SQL     string
	Backend string
}

const generateRules = `You are a senior data analyst. Generate a single DuckDB SELECT query only.
Rules: SELECT-only, no DDL/DML, no comments, no code fences, no trailing semicolon.
Use a LIMIT clause, never TOP. Prefer explicit JOINs. Use only columns and tables from the schema provided.`

// Generator turns free-text questions into validated read-only DuckDB
// queries using the priority-ordered completion backends.
type Generator struct {
	Backends []llm.Backend
	RowLimit int
}

func NewGenerator(backends []llm.Backend, rowLimit int) *Generator {
	if rowLimit <= 0 {
		rowLimit = DefaultRowLimit
	}
	return &Generator{Backends: backends, RowLimit: rowLimit}
}

// Generate builds a domain-primed prompt from the schema snapshot and the
// question, asks the first usable backend for a statement, and normalizes
// and validates the reply. A backend that answers is authoritative: when
// its output fails the read-only check the call fails without consulting
// the next backend.
func (g *Generator) Generate(ctx context.Context, question, schemaSnapshot string) (Query, error) {
	system := DomainContext + "\n\n" + generateRules
	user := fmt.Sprintf("Schema:\n%s\n\nQuestion: %s\n\nReturn only the SQL (no explanation).",
		schemaSnapshot, strings.TrimSpace(question))

	for _, backend := range g.Backends {
		raw, err := backend.Complete(ctx, llm.Request{
			System:      system,
			User:        user,
			Temperature: generateTemperature,
		})
		if err != nil {
			observability.ObserveCompletion(backend.Name(), "generate", "error")
			continue
		}
		observability.ObserveCompletion(backend.Name(), "generate", "ok")

		sqlText := Normalize(raw)
		if !IsReadOnly(sqlText) {
			observability.ObserveGeneration(backend.Name(), "rejected")
			return Query{}, &ValidationError{Backend: backend.Name(), Output: sqlText}
		}
		observability.ObserveGeneration(backend.Name(), "ok")
		return Query{SQL: EnsureLimit(sqlText, g.RowLimit), Backend: backend.Name()}, nil
	}
	return Query{}, ErrNoBackend
}
