package api

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/crmlens/crmlens/internal/archive"
	"github.com/crmlens/crmlens/internal/auth"
	"github.com/crmlens/crmlens/internal/export"
	"github.com/crmlens/crmlens/internal/sqlgen"
)

type exportRequest struct {
	SQL  string `json:"sql"`
	Name string `json:"name,omitempty"`
}

func handleExport(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Archive == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "ARCHIVE_DISABLED", "object archive is not configured", false, nil)
		return
	}
	if deps.Executor == nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "EXECUTOR_MISSING", "query executor is not configured", false, nil)
		return
	}
	if identity, ok := auth.IdentityFromContext(r.Context()); ok && !identity.HasRole(auth.RoleExporter) && !identity.HasRole(auth.RoleAdmin) {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", "exporter role required", false, nil)
		return
	}

	var req exportRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", false, nil)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "result"
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

	encoded, err := export.Encode(name, result)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "EXPORT_FAILED", err.Error(), false, nil)
		return
	}
	key, err := archive.ExportKey(name, time.Now())
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_EXPORT_NAME", err.Error(), false, nil)
		return
	}

	info, err := deps.Archive.Put(r.Context(), key, bytes.NewReader(encoded.Data), int64(len(encoded.Data)),
		archive.PutOptions{ContentType: "application/octet-stream"})
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "ARCHIVE_UNAVAILABLE", err.Error(), true, nil)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"key":          key,
		"sql":          sqlText,
		"record_count": encoded.RecordCount,
		"size_bytes":   info.Size,
	})
}
