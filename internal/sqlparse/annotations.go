package sqlparse

import (
	"fmt"
	"strings"

	"github.com/corvid-labs/sqlshift/internal/sqlast"
)

// annotationKind identifies which of the four comment-annotation forms a
// `-- Foo(...)` line names.
type annotationKind int

const (
	annoQueryBy annotationKind = iota
	annoQueryLike
	annoQueryByOrInsert
	annoInsertOrIgnore
	annoNone
)

func classifyAnnotation(line string) (annotationKind, string) {
	line = strings.TrimSpace(strings.TrimPrefix(line, "--"))
	line = strings.TrimSpace(line)
	switch {
	case hasCallPrefix(line, "QueryBy"):
		return annoQueryBy, argsOf(line, "QueryBy")
	case hasCallPrefix(line, "QueryLike"):
		return annoQueryLike, argsOf(line, "QueryLike")
	case hasCallPrefix(line, "QueryByOrInsert"):
		return annoQueryByOrInsert, argsOf(line, "QueryByOrInsert")
	case hasCallPrefix(line, "QueryByOrCreate"):
		return annoQueryByOrInsert, argsOf(line, "QueryByOrCreate")
	case hasCallPrefix(line, "InsertOrIgnore"):
		return annoInsertOrIgnore, argsOf(line, "InsertOrIgnore")
	default:
		return annoNone, ""
	}
}

func hasCallPrefix(line, name string) bool {
	if !strings.HasPrefix(line, name) {
		return false
	}
	rest := strings.TrimSpace(line[len(name):])
	return strings.HasPrefix(rest, "(")
}

func argsOf(line, name string) string {
	rest := strings.TrimSpace(line[len(name):])
	rest = strings.TrimPrefix(rest, "(")
	if idx := strings.LastIndex(rest, ")"); idx >= 0 {
		rest = rest[:idx]
	}
	return rest
}

func splitArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// applyAnnotations resolves the comment lines trailing a CREATE TABLE/VIEW
// against its (already parsed) columns, appending to the appropriate slice
// on the table or erroring per the column-resolution rule. Views never
// carry annotations in this parser (query annotations name table columns),
// so applyAnnotations is only ever called with a *sqlast.CreateTable.
func applyAnnotations(file string, line int, comments []string, table *sqlast.CreateTable) error {
	for _, c := range comments {
		kind, args := classifyAnnotation(c)
		if kind == annoNone {
			continue
		}
		cols := splitArgs(args)
		for _, col := range cols {
			if _, ok := table.Column(col); !ok {
				return &ParseError{
					File: file, Line: line, Column: 1,
					Message: fmt.Sprintf("Non-existent column '%s'. Available columns: %s", col, availableColumns(table)),
				}
			}
		}
		anno := sqlast.Anno{Columns: cols}
		switch kind {
		case annoQueryBy:
			table.QueryBy = append(table.QueryBy, anno)
		case annoQueryLike:
			if len(cols) != 1 {
				return &ParseError{File: file, Line: line, Column: 1, Message: "QueryLike must name exactly one column"}
			}
			table.QueryLike = append(table.QueryLike, anno)
		case annoQueryByOrInsert:
			table.QueryByOrInsert = append(table.QueryByOrInsert, anno)
		case annoInsertOrIgnore:
			table.InsertOrIgnore = append(table.InsertOrIgnore, anno)
		}
	}
	return nil
}

func availableColumns(table *sqlast.CreateTable) string {
	names := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}
