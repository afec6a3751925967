package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/factstore/internal/queryir"
)

// Columns is the fixed projection of every fact query, in scan order.
var Columns = []string{
	"ordinal",
	"factId",
	"itemId",
	"attribute",
	"value",
	"numericValue",
	"type",
	"flags",
	"timestamp",
}

// DefaultTable is the table each drive stores its facts in.
const DefaultTable = "facts"

// SQLCompiler compiles planned query shapes to parameterized SQL for SQLite.
//
// Every statement carries an ORDER BY: timestamp DESC with ordinal DESC as
// tiebreaker, so rows written within the same second still come back newest
// first. Values are never
// interpolated; placeholders follow the order of queryir.Args.
type SQLCompiler struct {
	Table string
}

// NewSQLCompiler creates a compiler for the default facts table.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Table: DefaultTable}
}

// where lists the filter columns of each shape in bind order.
var where = map[queryir.Shape][]string{
	queryir.ShapeItemAttributeValue: {"itemId = ?", "attribute = ?", "value = ?"},
	queryir.ShapeItemAttribute:      {"itemId = ?", "attribute = ?"},
	queryir.ShapeAttributeValue:     {"attribute = ?", "value = ?"},
	queryir.ShapeItem:               {"itemId = ?"},
	queryir.ShapeAttribute:          {"attribute = ?"},
	queryir.ShapeValue:              {"value = ?"},
	queryir.ShapeAll:                nil,
	queryir.ShapeItemAttributeRange: {"itemId = ?", "attribute = ?", "numericValue >= ?", "numericValue <= ?"},
	queryir.ShapeAttributeRange:     {"attribute = ?", "numericValue >= ?", "numericValue <= ?"},
	queryir.ShapeRange:              {"numericValue >= ?", "numericValue <= ?"},
	queryir.ShapeDateRange:          {"timestamp >= ?", "timestamp <= ?"},
	queryir.ShapeMostRecent:         {"itemId = ?", "attribute = ?"},
}

// CompileShape returns the SQL text for shape.
func (c *SQLCompiler) CompileShape(shape queryir.Shape) (string, error) {
	filters, ok := where[shape]
	if !ok {
		return "", fmt.Errorf("compile: unknown shape %d", int(shape))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(Columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(c.table())
	if len(filters) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(filters, " AND "))
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(orderKey(shape))
	if shape == queryir.ShapeMostRecent {
		b.WriteString(" LIMIT 1")
	}
	return b.String(), nil
}

// Compile plans q and returns its SQL and bind parameters.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	shape, err := queryir.Plan(q)
	if err != nil {
		return "", nil, err
	}
	sql, err := c.CompileShape(shape)
	if err != nil {
		return "", nil, err
	}
	args, err := queryir.Args(q, shape)
	if err != nil {
		return "", nil, fmt.Errorf("compile: %w", err)
	}
	return sql, args, nil
}

// CompileInsert returns the INSERT statement for one fact. Parameters are
// Columns without ordinal, which SQLite assigns.
func (c *SQLCompiler) CompileInsert() string {
	cols := Columns[1:]
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", c.table(), strings.Join(cols, ", "), placeholders)
}

// CompileAfterOrdinal returns the statement listing facts appended after
// an ordinal, oldest first. Ordinals are local to one drive.
func (c *SQLCompiler) CompileAfterOrdinal() string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE ordinal > ? ORDER BY ordinal ASC", strings.Join(Columns, ", "), c.table())
}

// CompileLastOrdinal returns the statement reading the highest ordinal, or
// 0 for an empty table.
func (c *SQLCompiler) CompileLastOrdinal() string {
	return fmt.Sprintf("SELECT COALESCE(MAX(ordinal), 0) FROM %s", c.table())
}

// CompileDeleteOrdinal returns the administrative delete-by-ordinal statement.
func (c *SQLCompiler) CompileDeleteOrdinal() string {
	return fmt.Sprintf("DELETE FROM %s WHERE ordinal = ?", c.table())
}

func (c *SQLCompiler) table() string {
	if c.Table == "" {
		return DefaultTable
	}
	return c.Table
}

// orderKey returns the ORDER BY clause shared by every shape.
func orderKey(queryir.Shape) string {
	return "timestamp DESC, ordinal DESC"
}
