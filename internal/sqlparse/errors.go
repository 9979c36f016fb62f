package sqlparse

import "fmt"

// ParseError reports a syntax failure carrying a 1-based line/column and a
// caret pointer into the offending source line.
type ParseError struct {
	File    string
	Line    int
	Column  int
	Message string
	// SourceLine is the raw text of the failing line, used to render the
	// caret; empty when unavailable (e.g. errors surfaced from a query
	// against sqlite_master rather than a file).
	SourceLine string
}

func (e *ParseError) Error() string {
	loc := fmt.Sprintf("%s:%d:%d", e.File, e.Line, e.Column)
	if e.SourceLine == "" {
		return fmt.Sprintf("%s: %s", loc, e.Message)
	}
	caret := ""
	for i := 0; i < e.Column-1; i++ {
		caret += " "
	}
	caret += "^"
	return fmt.Sprintf("%s: %s\n%s\n%s", loc, e.Message, e.SourceLine, caret)
}

// hintTrailingComma detects one special-cased hint: a
// comma immediately preceding a close-paren in the failing region.
func hintTrailingComma(src string) bool {
	for i := 0; i < len(src); i++ {
		if src[i] != ',' {
			continue
		}
		j := i + 1
		for j < len(src) && (src[j] == ' ' || src[j] == '\n' || src[j] == '\t' || src[j] == '\r') {
			j++
		}
		if j < len(src) && src[j] == ')' {
			return true
		}
	}
	return false
}
