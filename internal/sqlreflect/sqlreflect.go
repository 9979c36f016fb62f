// Package sqlreflect builds a sqlast.CreateTable from a Go struct type
// (interface-only: external type descriptors feed the same AST the parser
// produces). StructReflector is the one reference
// implementation, reading `db`/`sqlt` struct tags the way the rest of this
// module's `db` tags drive sqlx scanning.
//
// The tag-parsing shape (iterate exported fields, split a single struct tag
// into comma-separated directives) follows ariga/atlas's schemahcl
// extension.go `specFields`/tag-lookup pattern; the specific directives
// (primarykey, autoincrement, notnull, unique, fk=table.column) are this
// package's own, there being no prior equivalent — sqlt only reads rows
// into structs, it never reflects structs into schema.
package sqlreflect

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/corvid-labs/sqlshift/internal/dbx"
	"github.com/corvid-labs/sqlshift/internal/sqlast"
)

// Reflector builds schema AST fragments from external type descriptors.
// It is interface-only: a host may supply any implementation
// (e.g. one reading protobuf descriptors) that satisfies this surface.
type Reflector interface {
	ReflectTable(v any) (sqlast.CreateTable, error)
}

// StructReflector reflects plain Go structs annotated with `db`/`sqlt`
// struct tags into sqlast.CreateTable values.
type StructReflector struct {
	// TableName overrides the table name derived from the struct's type
	// name; when empty, Naming lower-cases the type name.
	TableName string
	// Naming converts a Go identifier (type or field name) to a SQL
	// identifier. Defaults to the same snake_case mapper internal/dbx uses
	// for sqlx's default MapperFunc, so a struct reflected here and scanned
	// via internal/dbx agree on column names without extra tags.
	Naming func(string) string
}

func (r StructReflector) namingFunc() func(string) string {
	if r.Naming != nil {
		return r.Naming
	}
	return dbx.SnakeCase
}

// ReflectTable builds a CreateTable from v, which must be a struct or a
// pointer to one. Field order in the struct becomes column order.
func (r StructReflector) ReflectTable(v any) (sqlast.CreateTable, error) {
	rt := reflect.TypeOf(v)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return sqlast.CreateTable{}, fmt.Errorf("sqlreflect: %T is not a struct or struct pointer", v)
	}

	naming := r.namingFunc()
	name := r.TableName
	if name == "" {
		name = naming(rt.Name())
	}

	table := sqlast.CreateTable{Name: name}
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		col, skip, err := reflectField(field, naming)
		if err != nil {
			return sqlast.CreateTable{}, fmt.Errorf("sqlreflect: table %s field %s: %w", name, field.Name, err)
		}
		if skip {
			continue
		}
		table.Columns = append(table.Columns, col)
	}
	return table, nil
}

// ReflectFile builds a sqlast.SqlFile from one or more struct values, one
// table per value, in the order given.
func (r StructReflector) ReflectFile(values ...any) (*sqlast.SqlFile, error) {
	file := sqlast.NewSqlFile()
	for _, v := range values {
		table, err := r.ReflectTable(v)
		if err != nil {
			return nil, err
		}
		file.AddTable(table)
	}
	return file, nil
}

func reflectField(field reflect.StructField, naming func(string) string) (col sqlast.ColumnDef, skip bool, err error) {
	dbTag := field.Tag.Get("db")
	if dbTag == "-" {
		return sqlast.ColumnDef{}, true, nil
	}
	colName := dbTag
	if colName == "" {
		colName = naming(field.Name)
	}

	col = sqlast.ColumnDef{Name: colName, ColumnType: goTypeAffinity(field.Type)}

	directives := strings.Split(field.Tag.Get("sqlt"), ",")
	nullable := isNillableType(field.Type)
	for _, d := range directives {
		d = strings.TrimSpace(d)
		switch {
		case d == "":
			continue
		case d == "notnull":
			col.Constraints = append(col.Constraints, sqlast.NotNullConstraint())
		case d == "primarykey":
			col.Constraints = append(col.Constraints, sqlast.PrimaryKeyConstraint(sqlast.PrimaryKey{}))
		case d == "autoincrement":
			col.Constraints = append(col.Constraints, sqlast.AutoincrementConstraint())
		case d == "unique":
			col.Constraints = append(col.Constraints, sqlast.UniqueConstraint([]string{colName}))
		case strings.HasPrefix(d, "fk="):
			fk, ferr := parseFKDirective(strings.TrimPrefix(d, "fk="))
			if ferr != nil {
				return sqlast.ColumnDef{}, false, ferr
			}
			col.Constraints = append(col.Constraints, sqlast.ForeignKeyConstraint(fk))
		default:
			return sqlast.ColumnDef{}, false, fmt.Errorf("unrecognized sqlt directive %q", d)
		}
	}
	if !nullable && !col.IsPrimaryKey() {
		hasNotNull := false
		for _, c := range col.Constraints {
			if c.IsNotNull() {
				hasNotNull = true
			}
		}
		if !hasNotNull {
			col.Constraints = append(col.Constraints, sqlast.NotNullConstraint())
		}
	}
	return col, false, nil
}

// parseFKDirective parses `fk=table.column` into a ForeignKey naming this
// field as the local (owning) column.
func parseFKDirective(spec string) (sqlast.ForeignKey, error) {
	parts := strings.SplitN(spec, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return sqlast.ForeignKey{}, fmt.Errorf("malformed fk directive %q, want table.column", spec)
	}
	return sqlast.ForeignKey{RefTable: parts[0], RefColumns: []string{parts[1]}}, nil
}

func isNillableType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	default:
		return false
	}
}

var timeType = reflect.TypeOf(time.Time{})

// goTypeAffinity maps a Go field's type to the closest SqlType affinity,
// unwrapping one level of pointer (nullable columns are still typed).
func goTypeAffinity(t reflect.Type) sqlast.SqlType {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType {
		return sqlast.Timestamp
	}
	switch t.Kind() {
	case reflect.String:
		return sqlast.Text
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Bool:
		return sqlast.IntegerType
	case reflect.Float32, reflect.Float64:
		return sqlast.RealType
	default:
		return sqlast.Flexible
	}
}
