package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crmlens/crmlens/internal/archive"
	"github.com/crmlens/crmlens/internal/config"
	"github.com/crmlens/crmlens/internal/crm"
	"github.com/crmlens/crmlens/internal/filings"
	"github.com/crmlens/crmlens/internal/intent"
	"github.com/crmlens/crmlens/internal/llm"
	"github.com/crmlens/crmlens/internal/news"
	"github.com/crmlens/crmlens/internal/observability"
	"github.com/crmlens/crmlens/internal/sessions"
	"github.com/crmlens/crmlens/internal/sqlgen"
)

type ReadinessCheck func(ctx context.Context) error

type IntentClassifier interface {
	Classify(ctx context.Context, question string) intent.Intent
}

type SQLGenerator interface {
	Generate(ctx context.Context, question, schemaSnapshot string) (sqlgen.Query, error)
	Repair(ctx context.Context, question, schemaSnapshot, failedSQL, errText string) (sqlgen.Query, error)
}

type SchemaProvider interface {
	Snapshot(ctx context.Context) (string, error)
}

type QueryExecutor interface {
	Execute(ctx context.Context, sqlText string) (crm.Result, error)
}

type CRMCatalog interface {
	Tables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]string, error)
	ForeignKeys(ctx context.Context) ([]crm.ForeignKey, error)
	Flatten(ctx context.Context, tables []string, limit int) (string, []crm.JoinStep, error)
}

type FilingSource interface {
	Recent10K(ctx context.Context, companyOrTicker string) ([]filings.Filing, error)
	DocumentText(ctx context.Context, url string, maxChars int) (string, error)
}

type NewsSource interface {
	Search(ctx context.Context, query string) ([]news.Item, error)
}

type SessionStore interface {
	GetOrCreateSession(ctx context.Context, name string) (sessions.Session, error)
	ListSessions(ctx context.Context) ([]sessions.Session, error)
	ListTurns(ctx context.Context, sessionID int64) ([]sessions.Turn, error)
	SaveTurn(ctx context.Context, in sessions.SaveTurnInput) (sessions.Turn, error)
	SaveFeedback(ctx context.Context, turnID int64, vote, comment string) (sessions.Feedback, error)
}

type ObjectArchive interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, opts archive.PutOptions) (archive.ObjectInfo, error)
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	AuthMiddleware    func(http.Handler) http.Handler
	DependencyTimeout time.Duration
	Classifier        IntentClassifier
	Generator         SQLGenerator
	Backends          []llm.Backend
	Schema            SchemaProvider
	Executor          QueryExecutor
	Catalog           CRMCatalog
	Filings           FilingSource
	News              NewsSource
	Sessions          SessionStore
	Archive           ObjectArchive
	DocumentMaxChars  int
	RowLimit          int
	PreviewRows       int
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	protected := http.NewServeMux()
	protected.HandleFunc("POST /v1/ask", func(w http.ResponseWriter, r *http.Request) {
		handleAsk(deps, w, r)
	})
	protected.HandleFunc("POST /v1/intent", func(w http.ResponseWriter, r *http.Request) {
		handleIntent(deps, w, r)
	})
	protected.HandleFunc("POST /v1/clarify", func(w http.ResponseWriter, r *http.Request) {
		handleClarify(deps, w, r)
	})
	protected.HandleFunc("GET /v1/crm/schema", func(w http.ResponseWriter, r *http.Request) {
		handleCRMSchema(deps, w, r)
	})
	protected.HandleFunc("GET /v1/crm/tables", func(w http.ResponseWriter, r *http.Request) {
		handleCRMTables(deps, w, r)
	})
	protected.HandleFunc("GET /v1/crm/tables/{table}/preview", func(w http.ResponseWriter, r *http.Request) {
		handleCRMPreview(deps, w, r)
	})
	protected.HandleFunc("POST /v1/crm/query", func(w http.ResponseWriter, r *http.Request) {
		handleCRMQuery(deps, w, r)
	})
	protected.HandleFunc("POST /v1/crm/flatten", func(w http.ResponseWriter, r *http.Request) {
		handleCRMFlatten(deps, w, r)
	})
	protected.HandleFunc("GET /v1/filings", func(w http.ResponseWriter, r *http.Request) {
		handleFilings(deps, w, r)
	})
	protected.HandleFunc("POST /v1/filings/summary", func(w http.ResponseWriter, r *http.Request) {
		handleFilingsSummary(deps, w, r)
	})
	protected.HandleFunc("GET /v1/news", func(w http.ResponseWriter, r *http.Request) {
		handleNews(deps, w, r)
	})
	protected.HandleFunc("POST /v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		handleCreateSession(deps, w, r)
	})
	protected.HandleFunc("GET /v1/sessions", func(w http.ResponseWriter, r *http.Request) {
		handleListSessions(deps, w, r)
	})
	protected.HandleFunc("GET /v1/sessions/{id}/turns", func(w http.ResponseWriter, r *http.Request) {
		handleListTurns(deps, w, r)
	})
	protected.HandleFunc("POST /v1/feedback", func(w http.ResponseWriter, r *http.Request) {
		handleFeedback(deps, w, r)
	})
	protected.HandleFunc("POST /v1/exports", func(w http.ResponseWriter, r *http.Request) {
		handleExport(deps, w, r)
	})

	var protectedHandler http.Handler = protected
	if cfg.Auth.Required {
		if deps.AuthMiddleware == nil {
			if deps.Logger != nil {
				deps.Logger.Error("auth required but auth middleware missing")
			}
			protectedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(r.Context(), w, http.StatusInternalServerError, "AUTH_MIDDLEWARE_MISSING", "auth middleware is required by configuration", false, nil)
			})
		} else {
			protectedHandler = deps.AuthMiddleware(protectedHandler)
		}
	}
	mux.Handle("POST /v1/ask", protectedHandler)
	mux.Handle("POST /v1/intent", protectedHandler)
	mux.Handle("POST /v1/clarify", protectedHandler)
	mux.Handle("GET /v1/crm/schema", protectedHandler)
	mux.Handle("GET /v1/crm/tables", protectedHandler)
	mux.Handle("GET /v1/crm/tables/{table}/preview", protectedHandler)
	mux.Handle("POST /v1/crm/query", protectedHandler)
	mux.Handle("POST /v1/crm/flatten", protectedHandler)
	mux.Handle("GET /v1/filings", protectedHandler)
	mux.Handle("POST /v1/filings/summary", protectedHandler)
	mux.Handle("GET /v1/news", protectedHandler)
	mux.Handle("POST /v1/sessions", protectedHandler)
	mux.Handle("GET /v1/sessions", protectedHandler)
	mux.Handle("GET /v1/sessions/{id}/turns", protectedHandler)
	mux.Handle("POST /v1/feedback", protectedHandler)
	mux.Handle("POST /v1/exports", protectedHandler)

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

func CheckCRMConfig(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if cfg.CRM.DatabasePath == "" {
			return errors.New("crm database path is not configured")
		}
		return nil
	}
}

func CheckSessionsDSN(cfg config.Config) ReadinessCheck {
	return func(_ context.Context) error {
		if cfg.Sessions.DSN == "" {
			return errors.New("sessions dsn is not configured")
		}
		return nil
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, target any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON: "+err.Error(), false, nil)
		return false
	}
	return true
}
