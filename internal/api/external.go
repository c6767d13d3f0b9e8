package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/crmlens/crmlens/internal/archive"
	"github.com/crmlens/crmlens/internal/filings"
)

func handleFilings(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Filings == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "FILINGS_DISABLED", "filings source is not configured", false, nil)
		return
	}
	company := strings.TrimSpace(r.URL.Query().Get("company"))
	if company == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "COMPANY_REQUIRED", "company query parameter is required", false, nil)
		return
	}

	items, err := deps.Filings.Recent10K(r.Context(), company)
	if err != nil {
		if errors.Is(err, filings.ErrCompanyNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "COMPANY_NOT_FOUND", "no SEC-registered company matched", false, nil)
			return
		}
		writeError(r.Context(), w, http.StatusBadGateway, "FILINGS_UNAVAILABLE", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"company": company, "filings": items})
}

type summaryRequest struct {
	URL string `json:"url"`
}

func handleFilingsSummary(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Filings == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "FILINGS_DISABLED", "filings source is not configured", false, nil)
		return
	}
	var req summaryRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	docURL := strings.TrimSpace(req.URL)
	if docURL == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "URL_REQUIRED", "url is required", false, nil)
		return
	}

	text, err := deps.Filings.DocumentText(r.Context(), docURL, deps.DocumentMaxChars)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "DOCUMENT_UNAVAILABLE", err.Error(), true, nil)
		return
	}
	archiveFilingText(deps, r, docURL, text)

	summary, err := filings.SummarizeBusinessPriorities(r.Context(), deps.Backends, text)
	if err != nil {
		if errors.Is(err, filings.ErrNoSummary) {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NO_BACKEND", "no completion backend produced a summary", true, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "SUMMARY_FAILED", err.Error(), false, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"url": docURL, "summary": summary})
}

// archiveFilingText caches the extracted document text alongside future
// exports. Best effort: failures are logged, never surfaced.
func archiveFilingText(deps Dependencies, r *http.Request, docURL, text string) {
	if deps.Archive == nil {
		return
	}
	parsed, err := url.Parse(docURL)
	if err != nil {
		return
	}
	// Archive URLs end in .../data/{cik}/{accession}/{document}.
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(segments) < 3 {
		return
	}
	key, err := archive.FilingKey(segments[len(segments)-3], segments[len(segments)-2], segments[len(segments)-1]+".txt")
	if err != nil {
		return
	}
	if _, err := deps.Archive.Put(r.Context(), key, strings.NewReader(text), int64(len(text)), archive.PutOptions{ContentType: "text/plain"}); err != nil {
		if deps.Logger != nil {
			deps.Logger.WarnContext(r.Context(), "failed to archive filing text", slog.Any("error", err))
		}
	}
}

func handleNews(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.News == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "NEWS_DISABLED", "news source is not configured", false, nil)
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUERY_REQUIRED", "q query parameter is required", false, nil)
		return
	}

	items, err := deps.News.Search(r.Context(), query)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "NEWS_UNAVAILABLE", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "items": items})
}
