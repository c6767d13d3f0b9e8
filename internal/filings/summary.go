package filings

import (
	"context"
	"fmt"
	"strings"

	"github.com/crmlens/crmlens/internal/llm"
	"github.com/crmlens/crmlens/internal/observability"
)

const summarizeInstruction = "From the following 10-K text, extract ONLY the company's primary " +
	"business priorities for the next 12-24 months. Focus on growth drivers, product/market " +
	"priorities, operating initiatives, capital allocation, and risks explicitly tied to " +
	"priorities. Output concise bullet points."

// ErrNoSummary is returned when every configured model backend fails to
// produce a summary.
var ErrNoSummary = fmt.Errorf("no model backend produced a summary")

// SummarizeBusinessPriorities condenses filing text into near-term business
// priorities. Backends are tried in configured order; the first non-empty
// answer wins.
func SummarizeBusinessPriorities(ctx context.Context, backends []llm.Backend, documentText string) (string, error) {
	documentText = strings.TrimSpace(documentText)
	if documentText == "" {
		return "", fmt.Errorf("document text is empty")
	}

	user := "=== 10-K TEXT START ===\n" + documentText + "\n=== 10-K TEXT END ==="
	for _, backend := range backends {
		reply, err := backend.Complete(ctx, llm.Request{
			System:      summarizeInstruction,
			User:        user,
			Temperature: 0.2,
		})
		if err != nil {
			observability.ObserveCompletion(backend.Name(), "summarize", "error")
			continue
		}
		summary := strings.TrimSpace(reply)
		if summary == "" {
			observability.ObserveCompletion(backend.Name(), "summarize", "empty")
			continue
		}
		observability.ObserveCompletion(backend.Name(), "summarize", "ok")
		return summary, nil
	}
	return "", ErrNoSummary
}
