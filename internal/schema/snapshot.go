package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/crmlens/crmlens/internal/crm"
)

// DefaultMaxColumns caps the columns listed per table so very wide tables
// do not blow up the prompt.
const DefaultMaxColumns = 20

// Provider derives a compact textual schema snapshot from the live CRM
// store on every call. Nothing is cached: the snapshot always reflects the
// database as it is right now.
type Provider struct {
	DB         *sql.DB
	MaxColumns int
}

func NewProvider(db *sql.DB) *Provider {
	return &Provider{DB: db, MaxColumns: DefaultMaxColumns}
}

// Snapshot renders tables, columns and FK edges as:
//
//	- Table(col, col, ...)
//	Foreign keys:
//	  - t.from -> ref.to
func (p *Provider) Snapshot(ctx context.Context) (string, error) {
	maxColumns := p.MaxColumns
	if maxColumns <= 0 {
		maxColumns = DefaultMaxColumns
	}

	tables, err := crm.ListTables(ctx, p.DB)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(tables)+2)
	for _, table := range tables {
		columns, err := crm.TableColumns(ctx, p.DB, table)
		if err != nil {
			return "", err
		}
		if len(columns) > maxColumns {
			columns = columns[:maxColumns]
		}
		lines = append(lines, fmt.Sprintf("- %s(%s)", table, strings.Join(columns, ", ")))
	}

	fks, err := crm.ForeignKeys(ctx, p.DB)
	if err != nil {
		return "", err
	}
	if len(fks) > 0 {
		lines = append(lines, "", "Foreign keys:")
		for _, fk := range fks {
			lines = append(lines, fmt.Sprintf("  - %s.%s -> %s.%s", fk.FromTable, fk.FromColumn, fk.ToTable, fk.ToColumn))
		}
	}
	return strings.Join(lines, "\n"), nil
}
