package gateway

import (
	"regexp"
	"strings"
)

// ReadOnlyError explains why CheckReadOnly rejected a statement.
type ReadOnlyError struct {
	Code    string
	Message string
}

func (e *ReadOnlyError) Error() string { return e.Message }

func rejectSQL(code, msg string) error {
	return &ReadOnlyError{Code: code, Message: msg}
}

// CheckReadOnly accepts a single SELECT or WITH statement without comments
// or data-changing keywords outside string literals. It is a coarse filter
// for operator-typed SQL handed to Execute, not a parser.
func CheckReadOnly(sqlText string) error {
	q := strings.TrimSpace(sqlText)
	if q == "" {
		return rejectSQL("SQL_QUERY_REQUIRED", "Query is required")
	}

	stripped := stripStringLiterals(q)
	if strings.Contains(stripped, ";") {
		return rejectSQL("SQL_MULTI_STATEMENT", "Multiple statements are not allowed")
	}

	lower := strings.ToLower(stripped)
	if strings.Contains(lower, "--") || strings.Contains(lower, "/*") || strings.Contains(lower, "*/") {
		return rejectSQL("SQL_COMMENTS_NOT_ALLOWED", "SQL comments are not allowed")
	}

	if !leadingKeyword.MatchString(lower) {
		return rejectSQL("SQL_NOT_READ_ONLY", "Only SELECT queries are allowed")
	}
	if writeKeyword.MatchString(lower) {
		return rejectSQL("SQL_NOT_READ_ONLY", "Only SELECT queries are allowed")
	}
	return nil
}

var (
	leadingKeyword = regexp.MustCompile(`^(select|with)(\s|$)`)
	writeKeyword   = regexp.MustCompile(`\b(insert|update|delete|merge|truncate|drop|alter|create|exec|execute|grant|revoke|into)\b`)
)

// stripStringLiterals removes '...' literals, honoring doubled quotes.
func stripStringLiterals(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inString {
			if ch == '\'' {
				if i+1 < len(s) && s[i+1] == '\'' {
					i++
					continue
				}
				inString = false
			}
			continue
		}
		if ch == '\'' {
			inString = true
			continue
		}
		b.WriteByte(ch)
	}

	return b.String()
}
