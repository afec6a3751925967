package querysql

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/factstore/internal/queryir"
)

func TestCompileShape_Golden(t *testing.T) {
	compiler := NewSQLCompiler()

	var b strings.Builder
	for _, shape := range queryir.Shapes {
		sql, err := compiler.CompileShape(shape)
		require.NoError(t, err)
		b.WriteString(shape.String())
		b.WriteString(": ")
		b.WriteString(sql)
		b.WriteString("\n")
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "shapes", []byte(b.String()))
}

func TestCompileShape_EveryShapeOrdered(t *testing.T) {
	compiler := NewSQLCompiler()

	for _, shape := range queryir.Shapes {
		t.Run(shape.String(), func(t *testing.T) {
			sql, err := compiler.CompileShape(shape)
			require.NoError(t, err)
			assert.Contains(t, sql, "ORDER BY")
			if shape.Ordered() {
				assert.Contains(t, sql, "ORDER BY timestamp DESC")
			}
		})
	}
}

func TestCompileShape_Unknown(t *testing.T) {
	_, err := NewSQLCompiler().CompileShape(queryir.Shape(99))
	require.Error(t, err)
}

func TestCompile_PlaceholdersMatchArgs(t *testing.T) {
	compiler := NewSQLCompiler()
	s := queryir.Ptr

	queries := []queryir.Query{
		queryir.FactQuery{ItemID: s("i1"), Attribute: s("name"), Value: s("Alice")},
		queryir.FactQuery{Attribute: s("name")},
		queryir.FactQuery{},
		queryir.ValueRangeQuery{ItemID: s("i1"), Attribute: s("age"), Min: 18, Max: 65},
		queryir.ValueRangeQuery{Min: 0, Max: 1},
		queryir.DateRangeQuery{AtOrAfter: s("2024-01-01 00:00:00"), AtOrBefore: s("2024-02-01 00:00:00")},
		queryir.MostRecentQuery{ItemID: "i1", Attribute: "name"},
	}

	for _, q := range queries {
		sql, args, err := compiler.Compile(q)
		require.NoError(t, err)
		assert.Equal(t, strings.Count(sql, "?"), len(args), sql)
	}
}

func TestCompile_ValuesNeverInterpolated(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, args, err := compiler.Compile(queryir.FactQuery{
		Attribute: queryir.Ptr("name"),
		Value:     queryir.Ptr("Robert'); DROP TABLE facts;--"),
	})
	require.NoError(t, err)
	assert.NotContains(t, sql, "DROP")
	assert.Equal(t, []any{"name", "Robert'); DROP TABLE facts;--"}, args)
}

func TestCompile_UnsupportedShape(t *testing.T) {
	_, _, err := NewSQLCompiler().Compile(queryir.FactQuery{ItemID: queryir.Ptr("i1"), Value: queryir.Ptr("v")})
	assert.ErrorIs(t, err, queryir.ErrUnsupportedQueryShape)
}

func TestCompileInsert(t *testing.T) {
	sql := NewSQLCompiler().CompileInsert()
	assert.Equal(t,
		"INSERT INTO facts (factId, itemId, attribute, value, numericValue, type, flags, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		sql)
}

func TestCompiler_CustomTable(t *testing.T) {
	c := &SQLCompiler{Table: "facts_archive"}
	sql, err := c.CompileShape(queryir.ShapeItem)
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM facts_archive WHERE")
	assert.Equal(t, "DELETE FROM facts_archive WHERE ordinal = ?", c.CompileDeleteOrdinal())
}

func TestCompileOrdinalStatements(t *testing.T) {
	c := NewSQLCompiler()
	assert.Equal(t,
		"SELECT ordinal, factId, itemId, attribute, value, numericValue, type, flags, timestamp FROM facts WHERE ordinal > ? ORDER BY ordinal ASC",
		c.CompileAfterOrdinal())
	assert.Equal(t, "SELECT COALESCE(MAX(ordinal), 0) FROM facts", c.CompileLastOrdinal())
}
