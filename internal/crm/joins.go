package crm

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

// ForeignKey is one discovered FK edge.
type ForeignKey struct {
	FromTable  string
	FromColumn string
	ToTable    string
	ToColumn   string
}

// JoinStep connects one table to the already-connected set.
type JoinStep struct {
	LeftTable   string
	LeftColumn  string
	RightTable  string
	RightColumn string
}

var fkTextRe = regexp.MustCompile(`(?i)FOREIGN KEY\s*\(([^)]+)\)\s*REFERENCES\s+(\w+)\s*\(([^)]+)\)`)

// ForeignKeys discovers FK edges by parsing DuckDB constraint text. Only
// single-column keys are considered; composite keys are skipped.
func ForeignKeys(ctx context.Context, db *sql.DB) ([]ForeignKey, error) {
	rows, err := db.QueryContext(ctx, `
SELECT table_name, constraint_text
FROM duckdb_constraints()
WHERE constraint_type = 'FOREIGN KEY'
ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("list foreign keys: %w", err)
	}
	defer func() { _ = rows.Close() }()

	fks := make([]ForeignKey, 0)
	for rows.Next() {
		var table, constraintText string
		if err := rows.Scan(&table, &constraintText); err != nil {
			return nil, fmt.Errorf("scan foreign key row: %w", err)
		}
		match := fkTextRe.FindStringSubmatch(constraintText)
		if match == nil {
			continue
		}
		fromCol := strings.Trim(strings.TrimSpace(match[1]), `"`)
		toCol := strings.Trim(strings.TrimSpace(match[3]), `"`)
		if strings.Contains(fromCol, ",") || strings.Contains(toCol, ",") {
			continue
		}
		fks = append(fks, ForeignKey{
			FromTable:  table,
			FromColumn: fromCol,
			ToTable:    match[2],
			ToColumn:   toCol,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign key rows: %w", err)
	}
	return fks, nil
}

// PlanJoins greedily links each requested table to the first table via any
// FK edge, in either direction. Tables that cannot be connected are left
// out of the plan.
func PlanJoins(tables []string, fks []ForeignKey) []JoinStep {
	if len(tables) < 2 {
		return nil
	}

	edges := make([]edge, 0, len(fks)*2)
	for _, fk := range fks {
		edges = append(edges, edge{fk.FromTable, fk.FromColumn, fk.ToTable, fk.ToColumn})
		edges = append(edges, edge{fk.ToTable, fk.ToColumn, fk.FromTable, fk.FromColumn})
	}

	connected := map[string]bool{tables[0]: true}
	remaining := make([]string, 0, len(tables)-1)
	remaining = append(remaining, tables[1:]...)

	plan := make([]JoinStep, 0, len(remaining))
	for {
		progress := false
		next := remaining[:0]
		for _, table := range remaining {
			step, found := linkTable(table, connected, edges)
			if !found {
				next = append(next, table)
				continue
			}
			plan = append(plan, step)
			connected[table] = true
			progress = true
		}
		remaining = next
		if !progress || len(remaining) == 0 {
			break
		}
	}
	return plan
}

type edge struct {
	t1, c1, t2, c2 string
}

func linkTable(table string, connected map[string]bool, edges []edge) (JoinStep, bool) {
	for _, e := range edges {
		if e.t1 == table && connected[e.t2] {
			return JoinStep{LeftTable: e.t2, LeftColumn: e.c2, RightTable: e.t1, RightColumn: e.c1}, true
		}
	}
	return JoinStep{}, false
}

// FlattenSelect builds a LEFT JOIN SELECT over the join plan with
// table_column aliases to avoid name collisions, bounded by limit.
func FlattenSelect(ctx context.Context, db *sql.DB, tables []string, plan []JoinStep, limit int) (string, error) {
	if len(tables) == 0 {
		return "", fmt.Errorf("at least one table is required")
	}
	if limit <= 0 {
		limit = 200
	}

	selectCols := make([]string, 0)
	for _, table := range tables {
		columns, err := TableColumns(ctx, db, table)
		if err != nil {
			return "", err
		}
		for _, column := range columns {
			selectCols = append(selectCols, fmt.Sprintf("%s.%s AS %s",
				QuoteIdent(table), QuoteIdent(column), QuoteIdent(table+"_"+column)))
		}
	}
	if len(selectCols) == 0 {
		return "", fmt.Errorf("no columns found for tables %v", tables)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(selectCols, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(QuoteIdent(tables[0]))
	for _, step := range plan {
		sb.WriteString(fmt.Sprintf(" LEFT JOIN %s ON %s.%s = %s.%s",
			QuoteIdent(step.RightTable),
			QuoteIdent(step.LeftTable), QuoteIdent(step.LeftColumn),
			QuoteIdent(step.RightTable), QuoteIdent(step.RightColumn)))
	}
	sb.WriteString(fmt.Sprintf(" LIMIT %d", limit))
	return sb.String(), nil
}
