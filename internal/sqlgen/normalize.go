package sqlgen

import (
	"fmt"
	"regexp"
	"strings"
)

// One compiled pattern per transform so each stays independently testable.
var (
	fenceOpenRe     = regexp.MustCompile("^```[a-zA-Z]*[ \t]*\n?")
	fenceCloseRe    = regexp.MustCompile("\n?[ \t]*```$")
	topRe           = regexp.MustCompile(`(?is)^(\s*select)\s+top\s+(\d+)\s+`)
	limitRe         = regexp.MustCompile(`(?i)\s*\blimit\s+(\d+)\b`)
	likeNoCaseRe    = regexp.MustCompile(`(?i)\blike\b(\s+(?:'[^']*'|\?|[\w.]+))\s+collate\s+nocase\b`)
	collateNoCaseRe = regexp.MustCompile(`(?i)\s+collate\s+nocase\b`)
	quotedBoolRe    = regexp.MustCompile(`(?i)(=|<>|!=)\s*'(true|false)'`)
)

// StripFences removes markdown code-fence delimiters and trailing statement
// terminators from raw completion output.
func StripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = fenceOpenRe.ReplaceAllString(trimmed, "")
	trimmed = fenceCloseRe.ReplaceAllString(trimmed, "")
	trimmed = strings.TrimSpace(trimmed)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}

// NormalizeDialect maps vendor-specific SQL forms onto DuckDB syntax. The
// transform order is fixed: TOP rewrite, case-insensitive match rewrite,
// boolean-literal rewrite, multi-LIMIT collapse. Already-normalized input
// passes through unchanged.
func NormalizeDialect(sqlText string) string {
	sqlText = topToLimit(sqlText)
	sqlText = rewriteNoCaseMatch(sqlText)
	sqlText = rewriteBooleanLiterals(sqlText)
	sqlText = collapseLimits(sqlText)
	return sqlText
}

// Normalize is the full post-processing pipeline applied to raw completion
// text before validation.
func Normalize(raw string) string {
	return NormalizeDialect(StripFences(raw))
}

// EnsureLimit appends the default row bound when the statement carries no
// LIMIT clause, capping result size for the execution sink and UI.
func EnsureLimit(sqlText string, bound int) string {
	if limitRe.MatchString(sqlText) {
		return sqlText
	}
	return fmt.Sprintf("%s LIMIT %d", strings.TrimSpace(sqlText), bound)
}

// topToLimit rewrites the T-SQL "SELECT TOP n" prefix into a trailing
// DuckDB LIMIT clause.
func topToLimit(sqlText string) string {
	match := topRe.FindStringSubmatch(sqlText)
	if match == nil {
		return sqlText
	}
	bound := match[2]
	rewritten := topRe.ReplaceAllString(sqlText, "${1} ")
	return strings.TrimSpace(rewritten) + " LIMIT " + bound
}

// rewriteNoCaseMatch converts SQLite-style "LIKE x COLLATE NOCASE" into
// DuckDB ILIKE, dropping any stray COLLATE NOCASE left behind.
func rewriteNoCaseMatch(sqlText string) string {
	sqlText = likeNoCaseRe.ReplaceAllString(sqlText, "ILIKE${1}")
	return collateNoCaseRe.ReplaceAllString(sqlText, "")
}

// rewriteBooleanLiterals converts quoted boolean comparisons ('true'/'false')
// into DuckDB boolean literals.
func rewriteBooleanLiterals(sqlText string) string {
	return quotedBoolRe.ReplaceAllStringFunc(sqlText, func(match string) string {
		parts := quotedBoolRe.FindStringSubmatch(match)
		return parts[1] + " " + strings.ToUpper(parts[2])
	})
}

// collapseLimits keeps a single LIMIT clause carrying the first occurrence's
// bound when the model echoed more than one.
func collapseLimits(sqlText string) string {
	matches := limitRe.FindAllStringSubmatch(sqlText, -1)
	if len(matches) < 2 {
		return sqlText
	}
	bound := matches[0][1]
	stripped := strings.TrimSpace(limitRe.ReplaceAllString(sqlText, ""))
	return stripped + " LIMIT " + bound
}
