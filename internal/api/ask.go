package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/crmlens/crmlens/internal/charts"
	"github.com/crmlens/crmlens/internal/filings"
	"github.com/crmlens/crmlens/internal/intent"
	"github.com/crmlens/crmlens/internal/news"
	"github.com/crmlens/crmlens/internal/sessions"
	"github.com/crmlens/crmlens/internal/sqlgen"
)

const offtopicAnswer = "I can answer questions about the CRM database, SEC 10-K filings, and recent company news. Please rephrase your question in one of those areas."

type askRequest struct {
	Question string `json:"question"`
	Session  string `json:"session,omitempty"`
	Clarify  bool   `json:"clarify,omitempty"`
}

type askResponse struct {
	Intent            string             `json:"intent"`
	Label             string             `json:"label"`
	Answer            string             `json:"answer,omitempty"`
	ClarifiedQuestion string             `json:"clarified_question,omitempty"`
	SQL               string             `json:"sql,omitempty"`
	Backend           string             `json:"backend,omitempty"`
	Repaired          bool               `json:"repaired,omitempty"`
	Columns           []string           `json:"columns,omitempty"`
	Rows              [][]any            `json:"rows,omitempty"`
	RowCount          int                `json:"row_count"`
	DurationMs        int64              `json:"duration_ms,omitempty"`
	Chart             *charts.Suggestion `json:"chart,omitempty"`
	Filings           []filings.Filing   `json:"filings,omitempty"`
	News              []news.Item        `json:"news,omitempty"`
	TurnID            int64              `json:"turn_id,omitempty"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}
	if deps.Classifier == nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "CLASSIFIER_MISSING", "intent classifier is not configured", false, nil)
		return
	}

	resolved := deps.Classifier.Classify(r.Context(), question)
	resp := askResponse{Intent: string(resolved), Label: resolved.Label()}

	switch resolved {
	case intent.Database:
		handleDatabaseAsk(deps, w, r, question, req, &resp)
	case intent.Filing:
		handleFilingAsk(deps, w, r, question, &resp)
	case intent.News:
		handleNewsAsk(deps, w, r, question, &resp)
	default:
		resp.Answer = offtopicAnswer
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleDatabaseAsk(deps Dependencies, w http.ResponseWriter, r *http.Request, question string, req askRequest, resp *askResponse) {
	if deps.Schema == nil || deps.Generator == nil || deps.Executor == nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "PIPELINE_MISSING", "query pipeline is not configured", false, nil)
		return
	}

	snapshot, err := deps.Schema.Snapshot(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_UNAVAILABLE", err.Error(), true, nil)
		return
	}

	if req.Clarify {
		clarified := sqlgen.Clarify(r.Context(), deps.Backends, question, snapshot)
		if clarified != question {
			resp.ClarifiedQuestion = clarified
			question = clarified
		}
	}

	generated, err := deps.Generator.Generate(r.Context(), question, snapshot)
	if err != nil {
		var validationErr *sqlgen.ValidationError
		switch {
		case errors.Is(err, sqlgen.ErrNoBackend):
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NO_BACKEND", "no completion backend is available", true, nil)
		case errors.As(err, &validationErr):
			writeError(r.Context(), w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", validationErr.Error(), false,
				map[string]any{"backend": validationErr.Backend, "output": validationErr.Output})
		default:
			writeError(r.Context(), w, http.StatusInternalServerError, "GENERATION_FAILED", err.Error(), true, nil)
		}
		return
	}

	result, execErr := deps.Executor.Execute(r.Context(), generated.SQL)
	if execErr != nil {
		repaired, repairErr := deps.Generator.Repair(r.Context(), question, snapshot, generated.SQL, execErr.Error())
		if repairErr != nil {
			// Original engine error, unchanged, so the caller sees what the
			// database actually said.
			writeError(r.Context(), w, http.StatusBadRequest, "QUERY_FAILED", execErr.Error(), false,
				map[string]any{"sql": generated.SQL})
			return
		}
		generated = repaired
		resp.Repaired = true
		result, execErr = deps.Executor.Execute(r.Context(), generated.SQL)
		if execErr != nil {
			writeError(r.Context(), w, http.StatusBadRequest, "QUERY_FAILED", execErr.Error(), false,
				map[string]any{"sql": generated.SQL})
			return
		}
	}

	resp.SQL = generated.SQL
	resp.Backend = generated.Backend
	resp.Columns = result.Columns
	resp.Rows = result.Rows
	resp.RowCount = len(result.Rows)
	resp.DurationMs = result.Duration.Milliseconds()
	if suggestion := charts.Suggest(result.Columns, result.Rows); suggestion.Type != "" {
		resp.Chart = &suggestion
	}

	recordTurn(deps, r, req.Session, strings.TrimSpace(req.Question), resp)
	writeJSON(w, http.StatusOK, *resp)
}

func handleFilingAsk(deps Dependencies, w http.ResponseWriter, r *http.Request, question string, resp *askResponse) {
	if deps.Filings == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "FILINGS_DISABLED", "filings source is not configured", false, nil)
		return
	}
	items, err := deps.Filings.Recent10K(r.Context(), question)
	if err != nil {
		if errors.Is(err, filings.ErrCompanyNotFound) {
			resp.Answer = "No SEC-registered company matched the question. Try a ticker symbol or the registered company name."
			writeJSON(w, http.StatusOK, *resp)
			return
		}
		writeError(r.Context(), w, http.StatusBadGateway, "FILINGS_UNAVAILABLE", err.Error(), true, nil)
		return
	}
	resp.Filings = items
	writeJSON(w, http.StatusOK, *resp)
}

func handleNewsAsk(deps Dependencies, w http.ResponseWriter, r *http.Request, question string, resp *askResponse) {
	if deps.News == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "NEWS_DISABLED", "news source is not configured", false, nil)
		return
	}
	items, err := deps.News.Search(r.Context(), question)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "NEWS_UNAVAILABLE", err.Error(), true, nil)
		return
	}
	resp.News = items
	writeJSON(w, http.StatusOK, *resp)
}

// recordTurn persists the answered question when a session name was given.
// Persistence problems never fail the answer.
func recordTurn(deps Dependencies, r *http.Request, sessionName, question string, resp *askResponse) {
	sessionName = strings.TrimSpace(sessionName)
	if deps.Sessions == nil || sessionName == "" {
		return
	}

	session, err := deps.Sessions.GetOrCreateSession(r.Context(), sessionName)
	if err != nil {
		logTurnFailure(deps, r, err)
		return
	}
	chartType := ""
	if resp.Chart != nil {
		chartType = resp.Chart.Type
	}
	turn, err := deps.Sessions.SaveTurn(r.Context(), sessions.SaveTurnInput{
		SessionID:         session.SessionID,
		Intent:            resp.Intent,
		Question:          question,
		ClarifiedQuestion: resp.ClarifiedQuestion,
		SQLText:           resp.SQL,
		RowCount:          resp.RowCount,
		ChartType:         chartType,
	})
	if err != nil {
		logTurnFailure(deps, r, err)
		return
	}
	resp.TurnID = turn.TurnID
}

func logTurnFailure(deps Dependencies, r *http.Request, err error) {
	if deps.Logger != nil {
		deps.Logger.WarnContext(r.Context(), "failed to record session turn", slog.Any("error", err))
	}
}

type intentRequest struct {
	Question string `json:"question"`
}

func handleIntent(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}
	if deps.Classifier == nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "CLASSIFIER_MISSING", "intent classifier is not configured", false, nil)
		return
	}
	resolved := deps.Classifier.Classify(r.Context(), question)
	writeJSON(w, http.StatusOK, map[string]any{
		"intent": string(resolved),
		"label":  resolved.Label(),
	})
}

func handleClarify(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	var req intentRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}

	schemaHint := ""
	if deps.Schema != nil {
		if snapshot, err := deps.Schema.Snapshot(r.Context()); err == nil {
			schemaHint = snapshot
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"question":  question,
		"clarified": sqlgen.Clarify(r.Context(), deps.Backends, question, schemaHint),
	})
}
