// internal/core/classifier.go
package core

import (
	"regexp"
	"strings"
)

// WriteKeywords are the statement keywords that mark SQL as mutating.
var WriteKeywords = []string{"insert", "update", "delete", "drop", "create", "alter", "truncate"}

// RE2's \b only knows ASCII word characters, so the boundary is spelled out
// with Unicode letters, numbers and underscore.
var writeKeywordRegex = regexp.MustCompile(
	`(?:^|[^\p{L}\p{N}_])(?:` + strings.Join(WriteKeywords, "|") + `)(?:[^\p{L}\p{N}_]|$)`)

// normalizeSQL lowercases and trims the statement for prefix checks.
func normalizeSQL(sql string) string {
	return strings.ToLower(strings.TrimSpace(sql))
}

// IsSelect reports whether the statement starts with SELECT (any case,
// leading whitespace ignored). Only these statements return rows.
func IsSelect(sql string) bool {
	return strings.HasPrefix(normalizeSQL(sql), "select")
}

// IsReadOnly decides whether sql may run under a read-only key.
//
// This is a keyword heuristic, not a parser. Statements starting with SELECT
// are always read-only. Otherwise any whole-word write keyword makes the
// statement mutating, and everything else is read-only.
//
// Known limitations: keywords inside string literals, comments or
// identifiers (`select` excepted) are matched as if they were statements, and
// text such as "select 1; drop table t" is treated as read-only. The MySQL
// connector is never opened with multi-statement support, so the driver
// refuses the second statement.
func IsReadOnly(sql string) bool {
	normalized := normalizeSQL(sql)
	if strings.HasPrefix(normalized, "select") {
		return true
	}
	return !writeKeywordRegex.MatchString(normalized)
}
