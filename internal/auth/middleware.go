package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/crmlens/crmlens/internal/observability"
)

type contextKey string

const identityKey contextKey = "auth_identity"

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok
}

// Middleware authenticates every request with the validator and stores the
// resolved identity on the request context. Keys arrive either in X-API-Key
// or as a bearer token.
func Middleware(logger *slog.Logger, validator APIKeyValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, present := apiKeyFromRequest(r)
			if !present {
				denyRequest(w, r, logger, "missing API key")
				return
			}
			identity, ok := validator.Validate(r.Context(), key)
			if !ok {
				denyRequest(w, r, logger, "invalid API key")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func apiKeyFromRequest(r *http.Request) (string, bool) {
	if key := strings.TrimSpace(r.Header.Get("X-API-Key")); key != "" {
		return key, true
	}
	if token, ok := strings.CutPrefix(strings.TrimSpace(r.Header.Get("Authorization")), "Bearer "); ok {
		token = strings.TrimSpace(token)
		return token, token != ""
	}
	return "", false
}

func denyRequest(w http.ResponseWriter, r *http.Request, logger *slog.Logger, reason string) {
	traceID := observability.TraceIDFromContext(r.Context())
	if logger != nil {
		logger.WarnContext(r.Context(), "request rejected",
			slog.String("trace_id", traceID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("reason", reason),
		)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="crmlens"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error_code": "UNAUTHORIZED",
		"message":    reason,
		"retryable":  false,
		"context":    nil,
		"trace_id":   traceID,
	})
}
