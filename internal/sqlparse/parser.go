package sqlparse

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	rsql "github.com/rqlite/sql"

	"github.com/corvid-labs/sqlshift/internal/sqlast"
)

// ParseFile is the B-component entry point: (filename, sql source) -> AST,
// per the contract. It splits the source into statements the way
// migration.go's ExecString does (comment-and-trigger aware, see
// splitter.go), parses each with rqlite/sql, converts the result into the
// sqlast model, and attaches the `-- QueryBy(...)`-family comment lines
// trailing a CREATE TABLE statement to that table. Annotation lines that
// trail any other statement (view, index, trigger, insert) are ignored.
func ParseFile(filename, source string) (*sqlast.SqlFile, error) {
	file := sqlast.NewSqlFile()
	stmts := splitStatements(source)

	var lastTable *sqlast.CreateTable
	for _, st := range stmts {
		parser := rsql.NewParser(strings.NewReader(st.sql + ";"))
		parsed, err := parser.ParseStatement()
		if err != nil {
			if err == io.EOF {
				continue
			}
			return nil, wrapParseError(filename, st, err)
		}

		switch s := parsed.(type) {
		case *rsql.CreateTableStatement:
			table, convErr := convertTable(s)
			if convErr != nil {
				return nil, &ParseError{File: filename, Line: st.line, Column: 1, Message: convErr.Error()}
			}
			if err := applyAnnotations(filename, st.line, st.comments, &table); err != nil {
				return nil, err
			}
			file.AddTable(table)
			lastTable = ptrTable(file, table.Name)
		case *rsql.CreateIndexStatement:
			idx, convErr := convertIndex(s)
			if convErr != nil {
				return nil, &ParseError{File: filename, Line: st.line, Column: 1, Message: convErr.Error()}
			}
			file.AddIndex(idx)
			lastTable = nil
		case *rsql.CreateViewStatement:
			view, convErr := convertView(s, st.sql)
			if convErr != nil {
				return nil, &ParseError{File: filename, Line: st.line, Column: 1, Message: convErr.Error()}
			}
			file.AddView(view)
			lastTable = nil
		case *rsql.CreateTriggerStatement:
			trig, convErr := convertTrigger(s, st.sql)
			if convErr != nil {
				return nil, &ParseError{File: filename, Line: st.line, Column: 1, Message: convErr.Error()}
			}
			file.AddTrigger(trig)
			lastTable = nil
		case *rsql.InsertStatement:
			ins, convErr := convertInsert(s)
			if convErr != nil {
				return nil, &ParseError{File: filename, Line: st.line, Column: 1, Message: convErr.Error()}
			}
			file.Inserts = append(file.Inserts, ins)
			lastTable = nil
		default:
			lastTable = nil
		}
		_ = lastTable
	}
	return file, nil
}

func ptrTable(f *sqlast.SqlFile, name string) *sqlast.CreateTable {
	t := f.Tables[name]
	return &t
}

func wrapParseError(filename string, st statement, err error) *ParseError {
	msg := err.Error()
	pe := &ParseError{File: filename, Line: st.line, Column: 1, Message: msg, SourceLine: firstLine(st.sql)}
	if hintTrailingComma(st.sql) {
		pe.Message = fmt.Sprintf("%s (hint: trailing comma before ')' near line %d)", msg, st.line)
	}
	return pe
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func identName(i *rsql.Ident) string {
	if i == nil {
		return ""
	}
	return i.Name
}

func exprIdentName(e rsql.Expr) (string, bool) {
	id, ok := e.(*rsql.Ident)
	if !ok {
		return "", false
	}
	return identName(id), true
}

func convertTable(stmt *rsql.CreateTableStatement) (sqlast.CreateTable, error) {
	name := identName(stmt.Name)
	if name == "" {
		return sqlast.CreateTable{}, fmt.Errorf("table name is empty")
	}
	table := sqlast.CreateTable{Name: name}

	for _, colDef := range stmt.Columns {
		typeName := ""
		if colDef.Type != nil {
			typeName = identName(colDef.Type.Name)
		}
		col := sqlast.ColumnDef{
			Name:       identName(colDef.Name),
			ColumnType: sqlast.ParseSqlType(typeName),
		}
		for _, constraint := range colDef.Constraints {
			cc, err := convertColumnConstraint(constraint)
			if err != nil {
				return sqlast.CreateTable{}, err
			}
			col.Constraints = append(col.Constraints, cc)
		}
		table.Columns = append(table.Columns, col)
	}

	for _, constraint := range stmt.Constraints {
		tc, ok, err := convertTableConstraint(constraint)
		if err != nil {
			return sqlast.CreateTable{}, err
		}
		if ok {
			table.Constraints = append(table.Constraints, tc)
		}
	}

	if err := validateTable(table); err != nil {
		return sqlast.CreateTable{}, err
	}
	return table, nil
}

func validateTable(t sqlast.CreateTable) error {
	seen := map[string]bool{}
	for _, c := range t.Columns {
		lower := strings.ToLower(c.Name)
		if seen[lower] {
			return fmt.Errorf("duplicate column name %q in table %q", c.Name, t.Name)
		}
		seen[lower] = true
	}
	pkCount := 0
	for _, c := range t.Columns {
		if c.IsPrimaryKey() {
			pkCount++
		}
	}
	for _, con := range t.Constraints {
		if _, ok := con.PrimaryKey(); ok {
			pkCount++
		}
	}
	if pkCount > 1 {
		return fmt.Errorf("table %q declares more than one primary key", t.Name)
	}
	return nil
}

func convertColumnConstraint(constraint rsql.Constraint) (sqlast.ColumnConstraint, error) {
	switch c := constraint.(type) {
	case *rsql.NotNullConstraint:
		return sqlast.NotNullConstraint(), nil
	case *rsql.PrimaryKeyConstraint:
		return sqlast.PrimaryKeyConstraint(sqlast.PrimaryKey{IsAutoincrement: c.Autoincrement.IsValid()}), nil
	case *rsql.UniqueConstraint:
		return sqlast.UniqueConstraint(nil), nil
	case *rsql.DefaultConstraint:
		expr, err := convertExpr(c.Expr)
		if err != nil {
			return sqlast.ColumnConstraint{}, err
		}
		return sqlast.DefaultConstraint(expr), nil
	case *rsql.CheckConstraint:
		return sqlast.CheckConstraint([]string{exprTokens(c.Expr)}), nil
	case *rsql.ForeignKeyConstraint:
		fk := sqlast.ForeignKey{RefTable: identName(c.ForeignTable)}
		for _, fc := range c.ForeignColumns {
			fk.RefColumns = append(fk.RefColumns, identName(fc))
		}
		applyForeignKeyArgs(&fk, c.Args)
		return sqlast.ForeignKeyConstraint(fk), nil
	default:
		return sqlast.ColumnConstraint{}, fmt.Errorf("unsupported column constraint %T", constraint)
	}
}

func convertTableConstraint(constraint rsql.Constraint) (sqlast.ColumnConstraint, bool, error) {
	switch tc := constraint.(type) {
	case *rsql.PrimaryKeyConstraint:
		pk := sqlast.PrimaryKey{}
		for _, c := range tc.Columns {
			pk.Columns = append(pk.Columns, identName(c))
		}
		if tc.Name != nil {
			n := identName(tc.Name)
			pk.ConstraintName = &n
		}
		return sqlast.PrimaryKeyConstraint(pk), true, nil
	case *rsql.UniqueConstraint:
		var cols []string
		for _, c := range tc.Columns {
			if n, ok := exprIdentName(c.X); ok {
				cols = append(cols, n)
			}
		}
		return sqlast.UniqueConstraint(cols), true, nil
	case *rsql.ForeignKeyConstraint:
		fk := sqlast.ForeignKey{RefTable: identName(tc.ForeignTable)}
		for _, c := range tc.Columns {
			fk.Columns = append(fk.Columns, identName(c))
		}
		for _, fc := range tc.ForeignColumns {
			fk.RefColumns = append(fk.RefColumns, identName(fc))
		}
		applyForeignKeyArgs(&fk, tc.Args)
		return sqlast.ForeignKeyConstraint(fk), true, nil
	default:
		return sqlast.ColumnConstraint{}, false, nil
	}
}

func applyForeignKeyArgs(fk *sqlast.ForeignKey, args []*rsql.ForeignKeyArg) {
	for _, arg := range args {
		a, ok := foreignKeyArgAction(arg)
		if !ok {
			continue
		}
		if arg.OnUpdate.IsValid() {
			fk.OnUpdate = &a
		} else if arg.OnDelete.IsValid() {
			fk.OnDelete = &a
		}
	}
}

func foreignKeyArgAction(arg *rsql.ForeignKeyArg) (sqlast.FkAction, bool) {
	switch {
	case arg.Cascade.IsValid():
		return sqlast.Cascade, true
	case arg.Restrict.IsValid():
		return sqlast.Restrict, true
	case arg.SetNull.IsValid():
		return sqlast.SetNull, true
	case arg.SetDefault.IsValid():
		return sqlast.SetDefault, true
	case arg.NoAction.IsValid():
		return sqlast.NoAction, true
	default:
		return sqlast.NoAction, false
	}
}

func convertExpr(e rsql.Expr) (sqlast.Expr, error) {
	if e == nil {
		return sqlast.Expr{}, fmt.Errorf("nil default expression")
	}
	switch v := e.(type) {
	case *rsql.StringLit:
		return sqlast.String(v.Value), nil
	case *rsql.NumberLit:
		if i, err := strconv.ParseInt(v.Value, 10, 64); err == nil {
			return sqlast.Integer(i), nil
		}
		if f, err := strconv.ParseFloat(v.Value, 64); err == nil {
			return sqlast.Real(f), nil
		}
		return sqlast.RawValue(v.Value), nil
	default:
		return sqlast.RawValue(e.String()), nil
	}
}

func exprTokens(e rsql.Expr) string {
	if e == nil {
		return ""
	}
	return e.String()
}

func convertIndex(stmt *rsql.CreateIndexStatement) (sqlast.CreateIndex, error) {
	name := identName(stmt.Name)
	if name == "" {
		return sqlast.CreateIndex{}, fmt.Errorf("index name is empty")
	}
	idx := sqlast.CreateIndex{
		Name:     name,
		Table:    identName(stmt.Table),
		IsUnique: stmt.Unique.IsValid(),
	}
	for _, c := range stmt.Columns {
		if n, ok := exprIdentName(c.X); ok {
			idx.Columns = append(idx.Columns, n)
		}
	}
	return idx, nil
}

func convertView(stmt *rsql.CreateViewStatement, raw string) (sqlast.CreateView, error) {
	name := identName(stmt.Name)
	if name == "" {
		return sqlast.CreateView{}, fmt.Errorf("view name is empty")
	}
	body := bodyAfterAs(raw)
	toks := tokenize(body)
	return sqlast.CreateView{
		Name:         name,
		SqlTokens:    toks,
		Dependencies: dependencies(toks),
	}, nil
}

func convertTrigger(stmt *rsql.CreateTriggerStatement, raw string) (sqlast.CreateTrigger, error) {
	name := identName(stmt.Name)
	if name == "" {
		return sqlast.CreateTrigger{}, fmt.Errorf("trigger name is empty")
	}
	table := identName(stmt.Table)
	toks := tokenize(raw)
	return sqlast.CreateTrigger{
		Name:         name,
		TableName:    table,
		SqlTokens:    toks,
		Dependencies: dependencies(toks),
	}, nil
}

func bodyAfterAs(raw string) string {
	upper := strings.ToUpper(raw)
	idx := strings.Index(upper, " AS ")
	if idx < 0 {
		return raw
	}
	return raw[idx+4:]
}

func convertInsert(stmt *rsql.InsertStatement) (sqlast.InsertInto, error) {
	ins := sqlast.InsertInto{Table: stmt.Table.Name.String()}
	for _, c := range stmt.Columns {
		ins.Columns = append(ins.Columns, c.Name.String())
	}
	for _, row := range stmt.ValueLists {
		var exprs []sqlast.Expr
		for _, e := range row.Exprs {
			conv, err := convertExpr(e)
			if err != nil {
				return sqlast.InsertInto{}, err
			}
			exprs = append(exprs, conv)
		}
		if len(exprs) != len(ins.Columns) {
			return sqlast.InsertInto{}, fmt.Errorf("insert into %s: value count %d does not match column count %d", ins.Table, len(exprs), len(ins.Columns))
		}
		ins.Values = append(ins.Values, exprs)
	}
	return ins, nil
}
