package intent

import "strings"

// Fixed vocabularies for the lexical gate. Filing phrases outrank news
// phrases; CRM vocabulary deliberately has no tier here so that plain CRM
// questions escalate to the model tie-break.
var filingPhrases = []string{
	"10k", "10-k", "annual report", "form 10-k", "risk factors", "md&a",
	"management discussion", "sec filing", "sec filings", "filing", "filings",
}

var newsPhrases = []string{
	"news", "headline", "headlines", "press", "press release", "article",
	"coverage", "latest", "recent", "what's new", "update", "updates",
	"today", "breaking",
}

// ClassifyByKeywords is the zero-latency pre-classifier. It returns false
// when no vocabulary matches, signalling escalation to the tie-break.
func ClassifyByKeywords(question string) (Intent, bool) {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return "", false
	}
	if containsAny(q, filingPhrases) {
		return Filing, true
	}
	if containsAny(q, newsPhrases) {
		return News, true
	}
	return "", false
}

func containsAny(q string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	return false
}
