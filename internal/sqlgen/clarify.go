package sqlgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/crmlens/crmlens/internal/llm"
)

const clarifyInstruction = "You are a helpful product analyst. Rewrite the user's question " +
	"into a clearer, crisper version suitable for converting to SQL. " +
	"Keep ONE sentence if possible. Do not add fields not requested."

// Clarify rewrites a vague question into a crisper one-sentence form. Best
// effort: any backend failure falls back to the trimmed original question.
func Clarify(ctx context.Context, backends []llm.Backend, question, schemaHint string) string {
	user := strings.TrimSpace(question)
	if strings.TrimSpace(schemaHint) != "" {
		user = fmt.Sprintf("Schema hint:\n%s\n\nQuestion:\n%s\n\nRewrite clearly:", schemaHint, user)
	}
	for _, backend := range backends {
		reply, err := backend.Complete(ctx, llm.Request{
			System:      clarifyInstruction,
			User:        user,
			Temperature: 0.2,
		})
		if err != nil {
			continue
		}
		rewritten := strings.Trim(strings.TrimSpace(reply), `"`)
		if rewritten != "" {
			return rewritten
		}
	}
	return strings.TrimSpace(question)
}
