package queryir

import (
	"errors"
	"fmt"
)

// ErrUnsupportedQueryShape is matched by every *UnsupportedShapeError.
var ErrUnsupportedQueryShape = errors.New("unsupported query shape")

// UnsupportedShapeError reports a filter combination with no lookup.
type UnsupportedShapeError struct {
	Query  Query
	Reason string
}

func (e *UnsupportedShapeError) Error() string {
	return fmt.Sprintf("unsupported query shape %T: %s", e.Query, e.Reason)
}

// Is makes errors.Is(err, ErrUnsupportedQueryShape) true.
func (e *UnsupportedShapeError) Is(target error) bool {
	return target == ErrUnsupportedQueryShape
}

// IsUnsupportedShape returns true if err is or wraps an unsupported shape error.
func IsUnsupportedShape(err error) bool {
	return errors.Is(err, ErrUnsupportedQueryShape)
}

func unsupported(q Query, reason string) error {
	return &UnsupportedShapeError{Query: q, Reason: reason}
}

// Plan selects the single lookup shape for q.
func Plan(q Query) (Shape, error) {
	switch query := q.(type) {
	case FactQuery:
		return planFacts(query)
	case *FactQuery:
		return planFacts(*query)
	case ValueRangeQuery:
		return planValueRange(query)
	case *ValueRangeQuery:
		return planValueRange(*query)
	case DateRangeQuery:
		return planDateRange(query)
	case *DateRangeQuery:
		return planDateRange(*query)
	case MostRecentQuery, *MostRecentQuery:
		return ShapeMostRecent, nil
	case nil:
		return 0, fmt.Errorf("plan: nil query")
	default:
		return 0, fmt.Errorf("plan: unknown query type %T", q)
	}
}

func planFacts(q FactQuery) (Shape, error) {
	item, attr, value := q.ItemID != nil, q.Attribute != nil, q.Value != nil

	switch {
	case item && attr && value:
		return ShapeItemAttributeValue, nil
	case item && attr:
		return ShapeItemAttribute, nil
	case attr && value:
		return ShapeAttributeValue, nil
	case item && value:
		return 0, unsupported(q, "itemId and value without attribute")
	case item:
		return ShapeItem, nil
	case attr:
		return ShapeAttribute, nil
	case value:
		return ShapeValue, nil
	default:
		return ShapeAll, nil
	}
}

func planValueRange(q ValueRangeQuery) (Shape, error) {
	item, attr := q.ItemID != nil, q.Attribute != nil

	switch {
	case item && attr:
		return ShapeItemAttributeRange, nil
	case item:
		return 0, unsupported(q, "itemId and range without attribute")
	case attr:
		return ShapeAttributeRange, nil
	default:
		return ShapeRange, nil
	}
}

func planDateRange(q DateRangeQuery) (Shape, error) {
	if q.AtOrAfter == nil || q.AtOrBefore == nil {
		return 0, unsupported(q, "date range needs both bounds")
	}
	return ShapeDateRange, nil
}

// Args returns the bind parameters of q for shape, in backend order.
// shape must be the shape Plan selects for q.
func Args(q Query, shape Shape) ([]any, error) {
	planned, err := Plan(q)
	if err != nil {
		return nil, err
	}
	if planned != shape {
		return nil, fmt.Errorf("args: %T plans to %s, not %s", q, planned, shape)
	}

	switch query := deref(q).(type) {
	case FactQuery:
		args := make([]any, 0, 3)
		for _, f := range []*string{query.ItemID, query.Attribute, query.Value} {
			if f != nil {
				args = append(args, *f)
			}
		}
		return args, nil
	case ValueRangeQuery:
		args := make([]any, 0, 4)
		for _, f := range []*string{query.ItemID, query.Attribute} {
			if f != nil {
				args = append(args, *f)
			}
		}
		return append(args, query.Min, query.Max), nil
	case DateRangeQuery:
		return []any{*query.AtOrAfter, *query.AtOrBefore}, nil
	case MostRecentQuery:
		return []any{query.ItemID, query.Attribute}, nil
	}
	return nil, fmt.Errorf("args: unknown query type %T", q)
}

func deref(q Query) Query {
	switch query := q.(type) {
	case *FactQuery:
		return *query
	case *ValueRangeQuery:
		return *query
	case *DateRangeQuery:
		return *query
	case *MostRecentQuery:
		return *query
	}
	return q
}
