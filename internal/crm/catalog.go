package crm

import (
	"context"
	"database/sql"
)

// Catalog bundles the metadata queries behind one receiver so HTTP handlers
// can depend on a small interface instead of the raw connection.
type Catalog struct {
	DB *sql.DB
}

func NewCatalog(db *sql.DB) *Catalog {
	return &Catalog{DB: db}
}

func (c *Catalog) Tables(ctx context.Context) ([]string, error) {
	return ListTables(ctx, c.DB)
}

func (c *Catalog) Columns(ctx context.Context, table string) ([]string, error) {
	return TableColumns(ctx, c.DB, table)
}

func (c *Catalog) ForeignKeys(ctx context.Context) ([]ForeignKey, error) {
	return ForeignKeys(ctx, c.DB)
}

// Flatten plans FK joins for the requested tables and renders the bounded
// LEFT JOIN SELECT over them.
func (c *Catalog) Flatten(ctx context.Context, tables []string, limit int) (string, []JoinStep, error) {
	fks, err := ForeignKeys(ctx, c.DB)
	if err != nil {
		return "", nil, err
	}
	plan := PlanJoins(tables, fks)
	sqlText, err := FlattenSelect(ctx, c.DB, tables, plan, limit)
	if err != nil {
		return "", nil, err
	}
	return sqlText, plan, nil
}
