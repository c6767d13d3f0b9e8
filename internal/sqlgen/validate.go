package sqlgen

import (
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`[a-z_][a-z0-9_]*`)

// Tokens that mark a statement as mutating or administrative. Token-level
// matching keeps column names like created_at or updated_by out of scope.
var deniedTokens = map[string]struct{}{
	"insert":   {},
	"update":   {},
	"delete":   {},
	"drop":     {},
	"alter":    {},
	"create":   {},
	"truncate": {},
	"replace":  {},
	"attach":   {},
	"pragma":   {},
	"vacuum":   {},
	"reindex":  {},
}

// IsReadOnly reports whether the statement is a plain SELECT with no
// mutating or administrative tokens anywhere in its text. It is a lexical
// category check, not a parser: syntax errors are left for execution time.
func IsReadOnly(sqlText string) bool {
	lowered := strings.ToLower(strings.TrimSpace(sqlText))
	tokens := wordRe.FindAllString(lowered, -1)
	if len(tokens) == 0 || tokens[0] != "select" {
		return false
	}
	for _, token := range tokens {
		if _, denied := deniedTokens[token]; denied {
			return false
		}
	}
	return true
}
