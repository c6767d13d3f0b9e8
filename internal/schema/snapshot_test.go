package schema

import (
	"context"
	"database/sql"
	"regexp"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestSnapshotRendersTablesColumnsAndForeignKeys(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(`information_schema\.tables`).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("account").AddRow("opportunity"))

	columnsQuery := regexp.QuoteMeta(`
SELECT column_name
FROM information_schema.columns
WHERE table_schema = 'main' AND table_name = ?
ORDER BY ordinal_position`)
	mock.ExpectQuery(columnsQuery).
		WithArgs("account").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("account_id").AddRow("account_name"))
	mock.ExpectQuery(columnsQuery).
		WithArgs("opportunity").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("opportunity_id").AddRow("account_id"))

	mock.ExpectQuery(`duckdb_constraints`).
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "constraint_text"}).
			AddRow("opportunity", `FOREIGN KEY (account_id) REFERENCES account(account_id)`))

	snapshot, err := NewProvider(db).Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	want := strings.Join([]string{
		"- account(account_id, account_name)",
		"- opportunity(opportunity_id, account_id)",
		"",
		"Foreign keys:",
		"  - opportunity.account_id -> account.account_id",
	}, "\n")
	if snapshot != want {
		t.Fatalf("snapshot = %q, want %q", snapshot, want)
	}
	assertSQLMock(t, mock)
}

func TestSnapshotCapsWideColumnLists(t *testing.T) {
	db, mock := newSQLMock(t)

	mock.ExpectQuery(`information_schema\.tables`).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("wide"))

	columnRows := sqlmock.NewRows([]string{"column_name"})
	columnRows.AddRow("col_a").AddRow("col_b").AddRow("col_c")
	mock.ExpectQuery(`information_schema\.columns`).
		WithArgs("wide").
		WillReturnRows(columnRows)

	mock.ExpectQuery(`duckdb_constraints`).
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "constraint_text"}))

	provider := NewProvider(db)
	provider.MaxColumns = 2
	snapshot, err := provider.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snapshot != "- wide(col_a, col_b)" {
		t.Fatalf("snapshot = %q", snapshot)
	}
	assertSQLMock(t, mock)
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}
