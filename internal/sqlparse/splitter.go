package sqlparse

import "strings"

// statement is one lexical unit of source: the SQL text of a single
// CREATE/INSERT statement (without its terminating semicolon) together with
// any comment lines immediately following it, and the 1-based line number
// the statement started on (for parse-error reporting).
type statement struct {
	sql      string
	line     int
	comments []string
}

// splitStatements breaks a schema source into statements the way
// migration.go's ExecString splits a script for execution: split on `;`
// outside single-quoted strings, but never inside a `CREATE TRIGGER ... END`
// body, which itself contains semicolons. Unlike ExecString, this splitter
// also captures the run of `--` comment lines that trails each statement,
// since those lines carry the QueryBy/QueryLike annotations attached to
// the preceding CREATE TABLE/VIEW.
func splitStatements(src string) []statement {
	var out []statement
	var buf strings.Builder
	var comments []string
	lineNo := 1
	stmtLine := 1
	inQuote := byte(0)
	triggerDepth := 0
	sawTriggerKeyword := false

	flushStatement := func() {
		s := strings.TrimSpace(buf.String())
		if s != "" {
			out = append(out, statement{sql: s, line: stmtLine, comments: comments})
		}
		buf.Reset()
		comments = nil
	}

	lines := strings.Split(src, "\n")
	for _, rawLine := range lines {
		trimmed := strings.TrimSpace(rawLine)
		if buf.Len() == 0 && trimmed == "" {
			lineNo++
			continue
		}
		if buf.Len() == 0 && strings.HasPrefix(trimmed, "--") {
			comments = append(comments, trimmed)
			lineNo++
			continue
		}
		if buf.Len() == 0 {
			// Comments accumulated since the last statement flushed trail
			// that statement (they sit between it and this new one), not
			// the one about to start: attach them there before resetting.
			if len(comments) > 0 && len(out) > 0 {
				out[len(out)-1].comments = append(out[len(out)-1].comments, comments...)
			}
			stmtLine = lineNo
			comments = nil
		}

		upper := strings.ToUpper(trimmed)
		if strings.Contains(upper, "CREATE TRIGGER") {
			sawTriggerKeyword = true
		}

		for i := 0; i < len(rawLine); i++ {
			c := rawLine[i]
			buf.WriteByte(c)
			if inQuote != 0 {
				if c == inQuote {
					inQuote = 0
				}
				continue
			}
			switch c {
			case '\'', '"':
				inQuote = c
			case ';':
				if sawTriggerKeyword {
					// Count the BEGIN/END words buffered so far, so a
					// semicolon inside the trigger body does not end it.
					triggerDepth = 0
					for _, w := range strings.Fields(strings.ToUpper(buf.String())) {
						switch strings.TrimRight(w, ";") {
						case "BEGIN":
							triggerDepth++
						case "END":
							triggerDepth--
						}
					}
				}
				if triggerDepth == 0 {
					flushStatement()
					sawTriggerKeyword = false
				}
			}
		}
		if strings.TrimSpace(buf.String()) == "" {
			buf.Reset()
		} else {
			buf.WriteByte('\n')
		}

		if sawTriggerKeyword {
			words := strings.Fields(upper)
			for _, w := range words {
				switch w {
				case "BEGIN":
					triggerDepth++
				case "END":
					if triggerDepth > 0 {
						triggerDepth--
					}
				}
			}
		}
		lineNo++
	}
	if len(comments) > 0 && len(out) > 0 {
		out[len(out)-1].comments = append(out[len(out)-1].comments, comments...)
	}
	flushStatement()
	return out
}
