// Package queryir describes fact lookups as data and selects the lookup
// shape a drive executes for each of them.
//
// A caller builds one of the Query types with optional filters (nil means
// "no constraint on this field") and hands it to Plan. Plan picks exactly one
// Shape, or returns an *UnsupportedShapeError for filter combinations that
// have no lookup:
//
//	itemId + value without attribute
//	itemId + numeric range without attribute
//	a date range with fewer than two bounds
//
// Query is a sealed interface: only types in this package implement it, so
// backends can switch over it exhaustively.
//
//	switch q := query.(type) {
//	case FactQuery:
//	case ValueRangeQuery:
//	case DateRangeQuery:
//	case MostRecentQuery:
//	}
//
// Shapes are backend neutral. internal/querysql maps each one to SQL, and
// Args returns the bind parameters in the order every backend expects:
// itemId, attribute, value, min, max, atOrAfter, atOrBefore, skipping the
// fields the shape does not use.
package queryir
