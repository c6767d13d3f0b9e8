package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/crmlens/crmlens/internal/crm"
	"github.com/crmlens/crmlens/internal/sqlgen"
)

const defaultPreviewRows = 10

type tableInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

type resultPayload struct {
	Columns    []string `json:"columns"`
	Rows       [][]any  `json:"rows"`
	RowCount   int      `json:"row_count"`
	DurationMs int64    `json:"duration_ms"`
}

func toResultPayload(result crm.Result) resultPayload {
	return resultPayload{
		Columns:    result.Columns,
		Rows:       result.Rows,
		RowCount:   len(result.Rows),
		DurationMs: result.Duration.Milliseconds(),
	}
}

func handleCRMSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_MISSING", "schema provider is not configured", false, nil)
		return
	}
	snapshot, err := deps.Schema.Snapshot(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_UNAVAILABLE", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"schema": snapshot})
}

func handleCRMTables(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Catalog == nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "CATALOG_MISSING", "crm catalog is not configured", false, nil)
		return
	}
	tables, err := deps.Catalog.Tables(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "CATALOG_UNAVAILABLE", err.Error(), true, nil)
		return
	}

	infos := make([]tableInfo, 0, len(tables))
	for _, table := range tables {
		columns, err := deps.Catalog.Columns(r.Context(), table)
		if err != nil {
			writeError(r.Context(), w, http.StatusInternalServerError, "CATALOG_UNAVAILABLE", err.Error(), true, nil)
			return
		}
		infos = append(infos, tableInfo{Name: table, Columns: columns})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": infos})
}

func handleCRMPreview(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Catalog == nil || deps.Executor == nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "CATALOG_MISSING", "crm catalog is not configured", false, nil)
		return
	}
	table := r.PathValue("table")

	tables, err := deps.Catalog.Tables(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "CATALOG_UNAVAILABLE", err.Error(), true, nil)
		return
	}
	known := false
	for _, candidate := range tables {
		if candidate == table {
			known = true
			break
		}
	}
	if !known {
		writeError(r.Context(), w, http.StatusNotFound, "TABLE_NOT_FOUND", fmt.Sprintf("table %q does not exist", table), false, nil)
		return
	}

	limit := deps.PreviewRows
	if limit <= 0 {
		limit = defaultPreviewRows
	}
	result, err := deps.Executor.Execute(r.Context(), fmt.Sprintf("SELECT * FROM %s LIMIT %d", crm.QuoteIdent(table), limit))
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "PREVIEW_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, toResultPayload(result))
}

type queryRequest struct {
	SQL string `json:"sql"`
}

func handleCRMQuery(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Executor == nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "EXECUTOR_MISSING", "query executor is not configured", false, nil)
		return
	}
	var req queryRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
		return
	}

	sqlText := sqlgen.Normalize(req.SQL)
	if !sqlgen.IsReadOnly(sqlText) {
		writeError(r.Context(), w, http.StatusUnprocessableEntity, "NOT_READ_ONLY", "only read-only SELECT statements are allowed", false, nil)
		return
	}
	rowLimit := deps.RowLimit
	if rowLimit <= 0 {
		rowLimit = sqlgen.DefaultRowLimit
	}
	sqlText = sqlgen.EnsureLimit(sqlText, rowLimit)

	result, err := deps.Executor.Execute(r.Context(), sqlText)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_FAILED", err.Error(), false, map[string]any{"sql": sqlText})
		return
	}
	payload := toResultPayload(result)
	writeJSON(w, http.StatusOK, map[string]any{
		"sql":         sqlText,
		"columns":     payload.Columns,
		"rows":        payload.Rows,
		"row_count":   payload.RowCount,
		"duration_ms": payload.DurationMs,
	})
}

type flattenRequest struct {
	Tables []string `json:"tables"`
	Limit  int      `json:"limit,omitempty"`
}

func handleCRMFlatten(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Catalog == nil || deps.Executor == nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "CATALOG_MISSING", "crm catalog is not configured", false, nil)
		return
	}
	var req flattenRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if len(req.Tables) == 0 {
		writeError(r.Context(), w, http.StatusBadRequest, "TABLES_REQUIRED", "at least one table is required", false, nil)
		return
	}

	sqlText, plan, err := deps.Catalog.Flatten(r.Context(), req.Tables, req.Limit)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "FLATTEN_FAILED", err.Error(), false, nil)
		return
	}
	result, err := deps.Executor.Execute(r.Context(), sqlText)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_FAILED", err.Error(), false, map[string]any{"sql": sqlText})
		return
	}
	payload := toResultPayload(result)
	writeJSON(w, http.StatusOK, map[string]any{
		"sql":         sqlText,
		"plan":        plan,
		"columns":     payload.Columns,
		"rows":        payload.Rows,
		"row_count":   payload.RowCount,
		"duration_ms": payload.DurationMs,
	})
}
