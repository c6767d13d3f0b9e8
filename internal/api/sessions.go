package api

import (
	"net/http"
	"strconv"
	"strings"
)

type createSessionRequest struct {
	Name string `json:"name"`
}

func handleCreateSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "SESSIONS_DISABLED", "session store is not configured", false, nil)
		return
	}
	var req createSessionRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "NAME_REQUIRED", "session name is required", false, nil)
		return
	}

	session, err := deps.Sessions.GetOrCreateSession(r.Context(), name)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SESSION_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func handleListSessions(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "SESSIONS_DISABLED", "session store is not configured", false, nil)
		return
	}
	list, err := deps.Sessions.ListSessions(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SESSION_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": list})
}

func handleListTurns(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "SESSIONS_DISABLED", "session store is not configured", false, nil)
		return
	}
	sessionID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || sessionID <= 0 {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_SESSION_ID", "session id must be a positive integer", false, nil)
		return
	}

	turns, err := deps.Sessions.ListTurns(r.Context(), sessionID)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SESSION_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session_id": sessionID, "turns": turns})
}

type feedbackRequest struct {
	TurnID  int64  `json:"turn_id"`
	Vote    string `json:"vote"`
	Comment string `json:"comment,omitempty"`
}

func handleFeedback(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Sessions == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "SESSIONS_DISABLED", "session store is not configured", false, nil)
		return
	}
	var req feedbackRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.TurnID <= 0 {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_TURN_ID", "turn_id must be a positive integer", false, nil)
		return
	}
	vote := strings.ToLower(strings.TrimSpace(req.Vote))
	if vote != "up" && vote != "down" {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_VOTE", `vote must be "up" or "down"`, false, nil)
		return
	}

	feedback, err := deps.Sessions.SaveFeedback(r.Context(), req.TurnID, vote, strings.TrimSpace(req.Comment))
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "FEEDBACK_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusCreated, feedback)
}
