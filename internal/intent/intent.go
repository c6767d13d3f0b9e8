package intent

import "strings"

// Intent is the fulfillment path chosen for a question.
type Intent string

const (
	Database Intent = "database"
	Filing   Intent = "filing"
	News     Intent = "news"
	Offtopic Intent = "offtopic"
)

func (i Intent) Valid() bool {
	switch i {
	case Database, Filing, News, Offtopic:
		return true
	default:
		return false
	}
}

// Label is the human-readable form handed to UI consumers.
func (i Intent) Label() string {
	switch i {
	case Database:
		return "CRM database"
	case Filing:
		return "SEC filings"
	case News:
		return "News"
	case Offtopic:
		return "Off topic"
	default:
		return string(i)
	}
}

// Parse maps a completion reply onto an intent. Only an exact label match
// (after trim and lowercase) is accepted.
func Parse(raw string) (Intent, bool) {
	candidate := Intent(strings.ToLower(strings.TrimSpace(raw)))
	if candidate.Valid() {
		return candidate, true
	}
	return "", false
}
