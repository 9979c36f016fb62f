package sqlparse

import (
	"strings"
	"unicode"

	"github.com/corvid-labs/sqlshift/internal/sqlast"
)

// tokenize splits a view/trigger body into the verbatim token stream
// sqlast.CreateView/CreateTrigger store, so the DDL generator can
// reserialize it byte-stable up to normalized whitespace.
func tokenize(body string) []sqlast.Token {
	var toks []sqlast.Token
	runes := []rune(body)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == ',':
			toks = append(toks, sqlast.Token{Text: ",", Kind: sqlast.TokenComma})
			i++
		case r == '.':
			toks = append(toks, sqlast.Token{Text: ".", Kind: sqlast.TokenDot})
			i++
		case r == '(':
			toks = append(toks, sqlast.Token{Text: "(", Kind: sqlast.TokenOpenParen})
			i++
		case r == ')':
			toks = append(toks, sqlast.Token{Text: ")", Kind: sqlast.TokenCloseParen})
			i++
		case r == '\'':
			j := i + 1
			for j < len(runes) {
				if runes[j] == '\'' {
					if j+1 < len(runes) && runes[j+1] == '\'' {
						j += 2
						continue
					}
					break
				}
				j++
			}
			if j < len(runes) {
				j++
			}
			toks = append(toks, sqlast.Token{Text: string(runes[i:j]), Kind: sqlast.TokenOther})
			i = j
		case unicode.IsLetter(r) || r == '_' || r == '"' || r == '`':
			j := i
			if r == '"' || r == '`' {
				closer := r
				j++
				for j < len(runes) && runes[j] != closer {
					j++
				}
				if j < len(runes) {
					j++
				}
			} else {
				for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_') {
					j++
				}
			}
			toks = append(toks, sqlast.Token{Text: string(runes[i:j]), Kind: sqlast.TokenWord})
			i = j
		case unicode.IsDigit(r):
			j := i
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			toks = append(toks, sqlast.Token{Text: string(runes[i:j]), Kind: sqlast.TokenWord})
			i = j
		default:
			toks = append(toks, sqlast.Token{Text: string(r), Kind: sqlast.TokenOther})
			i++
		}
	}
	return toks
}

// Reassemble renders a view/trigger token stream back to text with the
// spacing rules the DDL generator also follows when re-emitting these
// bodies: no space before , . ) ; no space after ( . ; single space
// otherwise. Exported so internal/ddlgen can reuse it verbatim instead of
// re-deriving the same rule.
func Reassemble(toks []sqlast.Token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 {
			prev := toks[i-1]
			needSpace := true
			switch t.Kind {
			case sqlast.TokenComma, sqlast.TokenDot, sqlast.TokenCloseParen:
				needSpace = false
			}
			if prev.Kind == sqlast.TokenOpenParen || prev.Kind == sqlast.TokenDot {
				needSpace = false
			}
			if needSpace {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

// dependencies scans a view/trigger body's token stream for `FROM <ident>`
// and `JOIN <ident>` occurrences, then subtracts names bound by a leading
// WITH clause (CTEs are not real tables/views, so referencing one must not
// create a dependency-graph edge to a same-named real relation).
func dependencies(toks []sqlast.Token) []string {
	bound := map[string]bool{}
	seen := map[string]bool{}
	var out []string

	if len(toks) > 0 && strings.EqualFold(toks[0].Text, "WITH") {
		depth := 0
		expectName := true
		for i := 1; i < len(toks); i++ {
			t := toks[i]
			switch t.Kind {
			case sqlast.TokenOpenParen:
				depth++
			case sqlast.TokenCloseParen:
				depth--
			}
			if depth == 0 {
				if t.Kind == sqlast.TokenWord && expectName && !isKeyword(t.Text) {
					bound[strings.ToLower(unquote(t.Text))] = true
					expectName = false
				} else if t.Kind == sqlast.TokenComma {
					expectName = true
				} else if strings.EqualFold(t.Text, "AS") {
					// name already captured; body follows in parens
				}
			}
			if depth == 0 && strings.EqualFold(t.Text, "SELECT") && i > 1 {
				// main query begins once we leave the last CTE's parens;
				// heuristically stop scanning for bound names here.
				goto scan
			}
		}
	}
scan:
	for i, t := range toks {
		if t.Kind != sqlast.TokenWord {
			continue
		}
		if !strings.EqualFold(t.Text, "FROM") && !strings.EqualFold(t.Text, "JOIN") {
			continue
		}
		if i+1 >= len(toks) {
			continue
		}
		next := toks[i+1]
		if next.Kind != sqlast.TokenWord || isKeyword(next.Text) {
			continue
		}
		name := strings.ToLower(unquote(next.Text))
		if bound[name] || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '`' && s[len(s)-1] == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

var keywords = map[string]bool{
	"SELECT": true, "WHERE": true, "GROUP": true, "ORDER": true, "LIMIT": true,
	"AS": true, "ON": true, "INNER": true, "LEFT": true, "RIGHT": true,
	"OUTER": true, "CROSS": true, "NATURAL": true, "UNION": true, "ALL": true,
	"HAVING": true, "WITH": true, "VALUES": true,
}

func isKeyword(s string) bool {
	return keywords[strings.ToUpper(s)]
}
