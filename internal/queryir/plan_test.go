package queryir

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanFactQuery(t *testing.T) {
	s := Ptr

	tests := []struct {
		name  string
		query FactQuery
		want  Shape
	}{
		{"item attribute value", FactQuery{ItemID: s("i1"), Attribute: s("name"), Value: s("Alice")}, ShapeItemAttributeValue},
		{"item attribute", FactQuery{ItemID: s("i1"), Attribute: s("name")}, ShapeItemAttribute},
		{"attribute value", FactQuery{Attribute: s("name"), Value: s("Alice")}, ShapeAttributeValue},
		{"item", FactQuery{ItemID: s("i1")}, ShapeItem},
		{"attribute", FactQuery{Attribute: s("name")}, ShapeAttribute},
		{"value", FactQuery{Value: s("Alice")}, ShapeValue},
		{"none", FactQuery{}, ShapeAll},
		{"empty strings still count as present", FactQuery{ItemID: s("")}, ShapeItem},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, err := Plan(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, shape)

			// Pointer form plans identically.
			q := tt.query
			shape, err = Plan(&q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, shape)
		})
	}
}

func TestPlanValueRangeQuery(t *testing.T) {
	s := Ptr

	tests := []struct {
		name  string
		query ValueRangeQuery
		want  Shape
	}{
		{"item attribute range", ValueRangeQuery{ItemID: s("i1"), Attribute: s("age"), Min: 1, Max: 2}, ShapeItemAttributeRange},
		{"attribute range", ValueRangeQuery{Attribute: s("age"), Min: 1, Max: 2}, ShapeAttributeRange},
		{"range", ValueRangeQuery{Min: 1, Max: 2}, ShapeRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, err := Plan(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, shape)
		})
	}
}

func TestPlanDateAndMostRecent(t *testing.T) {
	shape, err := Plan(DateRangeQuery{AtOrAfter: Ptr("2024-01-01 00:00:00"), AtOrBefore: Ptr("2024-12-31 23:59:59")})
	require.NoError(t, err)
	assert.Equal(t, ShapeDateRange, shape)

	shape, err = Plan(MostRecentQuery{ItemID: "i1", Attribute: "name"})
	require.NoError(t, err)
	assert.Equal(t, ShapeMostRecent, shape)
}

func TestPlanUnsupported(t *testing.T) {
	tests := []struct {
		name   string
		query  Query
		reason string
	}{
		{"item value without attribute", FactQuery{ItemID: Ptr("i1"), Value: Ptr("x")}, "itemId and value"},
		{"item range without attribute", ValueRangeQuery{ItemID: Ptr("i1"), Min: 0, Max: 1}, "itemId and range"},
		{"date range lower bound only", DateRangeQuery{AtOrAfter: Ptr("2024-01-01 00:00:00")}, "both bounds"},
		{"date range upper bound only", DateRangeQuery{AtOrBefore: Ptr("2024-01-01 00:00:00")}, "both bounds"},
		{"date range no bounds", DateRangeQuery{}, "both bounds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, err := Plan(tt.query)
			require.Error(t, err)
			assert.Equal(t, Shape(0), shape)
			assert.ErrorIs(t, err, ErrUnsupportedQueryShape)
			assert.True(t, IsUnsupportedShape(err))

			var shapeErr *UnsupportedShapeError
			require.True(t, errors.As(err, &shapeErr))
			assert.Contains(t, shapeErr.Reason, tt.reason)
		})
	}
}

func TestPlanNil(t *testing.T) {
	_, err := Plan(nil)
	require.Error(t, err)
	assert.False(t, IsUnsupportedShape(err))
}

// Every shape is reachable from exactly one filter combination.
func TestPlanCoversEveryShape(t *testing.T) {
	s := Ptr
	seen := map[Shape]int{}

	opts := []*string{nil, s("x")}
	for _, item := range opts {
		for _, attr := range opts {
			for _, value := range opts {
				if shape, err := Plan(FactQuery{ItemID: item, Attribute: attr, Value: value}); err == nil {
					seen[shape]++
				}
			}
			if shape, err := Plan(ValueRangeQuery{ItemID: item, Attribute: attr}); err == nil {
				seen[shape]++
			}
		}
	}
	for _, after := range opts {
		for _, before := range opts {
			if shape, err := Plan(DateRangeQuery{AtOrAfter: after, AtOrBefore: before}); err == nil {
				seen[shape]++
			}
		}
	}
	if shape, err := Plan(MostRecentQuery{}); err == nil {
		seen[shape]++
	}

	for _, shape := range Shapes {
		assert.Equal(t, 1, seen[shape], "shape %s", shape)
	}
	assert.Len(t, seen, len(Shapes))
}

func TestArgs(t *testing.T) {
	s := Ptr

	tests := []struct {
		name  string
		query Query
		want  []any
	}{
		{"item attribute value", FactQuery{ItemID: s("i1"), Attribute: s("name"), Value: s("Alice")}, []any{"i1", "name", "Alice"}},
		{"attribute value", FactQuery{Attribute: s("name"), Value: s("Alice")}, []any{"name", "Alice"}},
		{"value", FactQuery{Value: s("Alice")}, []any{"Alice"}},
		{"all", FactQuery{}, []any{}},
		{"item attribute range", ValueRangeQuery{ItemID: s("i1"), Attribute: s("age"), Min: 1, Max: 9}, []any{"i1", "age", 1.0, 9.0}},
		{"range", &ValueRangeQuery{Min: -1, Max: 1}, []any{-1.0, 1.0}},
		{"date range", DateRangeQuery{AtOrAfter: s("a"), AtOrBefore: s("b")}, []any{"a", "b"}},
		{"most recent", MostRecentQuery{ItemID: "i1", Attribute: "name"}, []any{"i1", "name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shape, err := Plan(tt.query)
			require.NoError(t, err)
			args, err := Args(tt.query, shape)
			require.NoError(t, err)
			assert.Equal(t, tt.want, args)
		})
	}
}

func TestArgsShapeMismatch(t *testing.T) {
	_, err := Args(FactQuery{}, ShapeItem)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plans to all")

	_, err = Args(FactQuery{ItemID: Ptr("i1"), Value: Ptr("v")}, ShapeItem)
	assert.ErrorIs(t, err, ErrUnsupportedQueryShape)
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "item_attribute_value", ShapeItemAttributeValue.String())
	assert.Equal(t, "date_range", ShapeDateRange.String())
	assert.Equal(t, "unknown", Shape(0).String())
	for _, shape := range Shapes {
		assert.NotEqual(t, "unknown", shape.String())
	}
}

func TestShapeOrdered(t *testing.T) {
	assert.True(t, ShapeAll.Ordered())
	assert.False(t, ShapeMostRecent.Ordered())
	assert.True(t, ShapeItem.Ordered())
	assert.True(t, ShapeDateRange.Ordered())
}
