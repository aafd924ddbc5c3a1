// Package sqlguard is the safety boundary between generated SQL and the
// warehouse. It enforces single-statement, read-only, row-capped queries.
// It deliberately does not validate identifiers against the schema: a wrong
// table name is a recoverable execution error, not a dangerous query.
package sqlguard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultRowCap is appended to queries that do not limit themselves.
// Generation is assumed imperfect, not malicious, so a missing limit is
// repaired rather than rejected.
const DefaultRowCap = 100

// UnsafeQueryError carries the rejection reason for internal logging. The
// reason is never shown to end users.
type UnsafeQueryError struct {
	Reason string
}

func (e *UnsafeQueryError) Error() string {
	return "unsafe query: " + e.Reason
}

// Write, DDL and transaction-control keywords. Matched word-bounded and
// case-insensitively over the raw text so comments cannot hide them.
var forbiddenKeywords = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|create|alter|truncate|grant|revoke|merge|copy|call|vacuum|execute|begin|commit|rollback|set|into)\b`)

var limitPattern = regexp.MustCompile(`(?i)\blimit\s+(\d+)\b`)

func Sanitize(raw string) (string, error) {
	return SanitizeWithCap(raw, DefaultRowCap)
}

// SanitizeWithCap validates raw generated SQL and returns an executable,
// row-capped statement. Idempotent: sanitizing an already-safe statement
// returns it unchanged.
func SanitizeWithCap(raw string, rowCap int) (string, error) {
	if rowCap <= 0 {
		rowCap = DefaultRowCap
	}

	trimmed := stripTrailingSemicolons(raw)
	if trimmed == "" {
		return "", &UnsafeQueryError{Reason: "empty statement"}
	}

	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "select") && !strings.HasPrefix(lower, "with") {
		return "", &UnsafeQueryError{Reason: "statement is not a read-only SELECT/WITH query"}
	}
	if strings.Contains(trimmed, ";") {
		return "", &UnsafeQueryError{Reason: "multiple statements are not allowed"}
	}
	if match := forbiddenKeywords.FindString(trimmed); match != "" {
		return "", &UnsafeQueryError{Reason: fmt.Sprintf("disallowed keyword %q", strings.ToUpper(match))}
	}

	return enforceRowCap(trimmed, rowCap), nil
}

func enforceRowCap(sqlText string, rowCap int) string {
	if !limitPattern.MatchString(sqlText) {
		return sqlText + fmt.Sprintf(" LIMIT %d", rowCap)
	}
	return limitPattern.ReplaceAllStringFunc(sqlText, func(match string) string {
		digits := limitPattern.FindStringSubmatch(match)[1]
		value, err := strconv.Atoi(digits)
		if err != nil || value <= rowCap {
			return match
		}
		return fmt.Sprintf("LIMIT %d", rowCap)
	})
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
