package intent

import (
	"context"
	"strings"

	"github.com/crmlens/crmlens/internal/llm"
	"github.com/crmlens/crmlens/internal/observability"
)

const classifyInstruction = "Classify the question into exactly one of: " +
	"database | filing | news | offtopic. Reply with ONLY the label."

// Router resolves a question to an intent. Classification is total: every
// backend failure is swallowed and the database intent is the documented
// default, since a CRM lookup is the safest wrong answer.
type Router struct {
	Backends []llm.Backend
}

func NewRouter(backends []llm.Backend) *Router {
	return &Router{Backends: backends}
}

func (r *Router) Classify(ctx context.Context, question string) Intent {
	if matched, ok := ClassifyByKeywords(question); ok {
		observability.ObserveIntentDecision(string(matched), "keyword")
		return matched
	}

	q := strings.ToLower(strings.TrimSpace(question))
	for _, backend := range r.Backends {
		reply, err := backend.Complete(ctx, llm.Request{
			System:      classifyInstruction,
			User:        q,
			Temperature: 0,
		})
		if err != nil {
			observability.ObserveCompletion(backend.Name(), "classify", "error")
			continue
		}
		observability.ObserveCompletion(backend.Name(), "classify", "ok")
		if matched, ok := Parse(reply); ok {
			observability.ObserveIntentDecision(string(matched), backend.Name())
			return matched
		}
	}

	observability.ObserveIntentDecision(string(Database), "default")
	return Database
}
