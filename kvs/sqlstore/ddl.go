// Package sqlstore implements a kvs.Store on top of database/sql, grounded
// on original_source/frid/kvs/dbsql.py's _SqlBaseStore: a table's columns
// are partitioned into key columns, a frid/text/blob "catch-all" column,
// and plain value columns that map 1:1 onto mapping keys.
//
// dbsql.py discovers that partition by reflecting a live SQLAlchemy Table.
// This port has no SQLAlchemy, and reflecting a live schema would mean a
// database round trip before a Store can even be constructed. Instead
// ParseCreateTable reads the same CREATE TABLE statement the operator
// would hand the database anyway and walks its AST with TiDB's SQL
// parser — the same parser and AST-walk idiom internal/apply/analyzer.go
// uses to classify migration DDL, repurposed here to classify a table's
// columns instead of a statement's risk.
package sqlstore

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"
)

// ColKind classifies a column's storage affinity, mirroring dbsql.py's
// _match_dtype column-type checks (String/LargeBinary/Numeric/...).
type ColKind int

const (
	ColOther ColKind = iota
	ColText
	ColBlob
	ColNumeric
	ColBoolean
	ColDateTime
)

// Column describes one column of a parsed CREATE TABLE statement.
type Column struct {
	Name         string
	Kind         ColKind
	HasDefault   bool
	IsPrimaryKey bool
}

// Schema is the result of parsing a CREATE TABLE statement: enough to
// drive the same key/value/frid column discovery dbsql.py performs
// against a reflected Table.
type Schema struct {
	Table   string
	Columns []Column
}

// PrimaryKey returns the names of the columns marked primary key, in
// declaration order — mirroring table.primary_key.columns.
func (s *Schema) PrimaryKey() []string {
	var out []string
	for _, c := range s.Columns {
		if c.IsPrimaryKey {
			out = append(out, c.Name)
		}
	}
	return out
}

// Column looks up a column by name.
func (s *Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ParseCreateTable parses a single "CREATE TABLE ..." statement into a
// Schema. Any other statement kind, or a DDL string containing more than
// one statement, is an error.
func ParseCreateTable(ddl string) (*Schema, error) {
	p := parser.New()
	stmtNodes, _, err := p.Parse(ddl, "", "")
	if err != nil {
		return nil, fmt.Errorf("sqlstore: parsing DDL: %w", err)
	}
	if len(stmtNodes) != 1 {
		return nil, fmt.Errorf("sqlstore: expected exactly one statement, got %d", len(stmtNodes))
	}
	create, ok := stmtNodes[0].(*ast.CreateTableStmt)
	if !ok {
		return nil, fmt.Errorf("sqlstore: statement is not CREATE TABLE")
	}
	schema := &Schema{Table: create.Table.Name.O}
	pkNames := map[string]bool{}
	for _, c := range create.Constraints {
		if c.Tp == ast.ConstraintPrimaryKey {
			for _, key := range c.Keys {
				pkNames[key.Column.Name.O] = true
			}
		}
	}
	for _, col := range create.Cols {
		column := Column{
			Name: col.Name.Name.O,
			Kind: classifyFieldType(col.Tp),
		}
		for _, opt := range col.Options {
			switch opt.Tp {
			case ast.ColumnOptionPrimaryKey:
				column.IsPrimaryKey = true
			case ast.ColumnOptionDefaultValue:
				column.HasDefault = true
			}
		}
		if pkNames[column.Name] {
			column.IsPrimaryKey = true
		}
		schema.Columns = append(schema.Columns, column)
	}
	return schema, nil
}

// classifyFieldType maps a column's declared SQL type string onto a
// ColKind, mirroring _match_dtype's isinstance(column.type, String) /
// LargeBinary / Numeric / Boolean / DateTime checks. Matching on the
// rendered type name rather than TiDB's internal type codes keeps this
// resilient to exactly which FieldType accessor a given parser version
// exposes.
func classifyFieldType(tp interface{ String() string }) ColKind {
	if tp == nil {
		return ColOther
	}
	t := strings.ToLower(tp.String())
	switch {
	case strings.Contains(t, "char") || strings.Contains(t, "text") || strings.Contains(t, "enum"):
		return ColText
	case strings.Contains(t, "blob") || strings.Contains(t, "binary"):
		return ColBlob
	case strings.Contains(t, "bool"):
		return ColBoolean
	case strings.Contains(t, "date") || strings.Contains(t, "time"):
		return ColDateTime
	case strings.Contains(t, "int") || strings.Contains(t, "decimal") ||
		strings.Contains(t, "float") || strings.Contains(t, "double") ||
		strings.Contains(t, "numeric"):
		return ColNumeric
	default:
		return ColOther
	}
}
