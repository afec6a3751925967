package queryir

// Query is a fact lookup request.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// FactQuery filters facts by equality on any subset of itemId, attribute and
// value. A nil field is unconstrained; all nil is a full scan.
type FactQuery struct {
	ItemID    *string
	Attribute *string
	Value     *string
}

func (FactQuery) queryNode() {}

// ValueRangeQuery filters facts whose numericValue lies in [Min, Max],
// optionally narrowed by itemId and attribute.
type ValueRangeQuery struct {
	ItemID    *string
	Attribute *string
	Min       float64
	Max       float64
}

func (ValueRangeQuery) queryNode() {}

// DateRangeQuery filters facts by timestamp, inclusive at both ends. Both
// bounds are required; they use ir.TimestampLayout.
type DateRangeQuery struct {
	AtOrAfter  *string
	AtOrBefore *string
}

func (DateRangeQuery) queryNode() {}

// MostRecentQuery selects the newest fact for one (itemId, attribute) pair.
type MostRecentQuery struct {
	ItemID    string
	Attribute string
}

func (MostRecentQuery) queryNode() {}

// Ptr returns a pointer to s, for filling optional filters inline.
func Ptr(s string) *string {
	return &s
}

// Shape identifies one supported lookup. Each drive prepares one statement
// per shape.
type Shape int

const (
	ShapeItemAttributeValue Shape = iota + 1
	ShapeItemAttribute
	ShapeAttributeValue
	ShapeItem
	ShapeAttribute
	ShapeValue
	ShapeAll
	ShapeItemAttributeRange
	ShapeAttributeRange
	ShapeRange
	ShapeDateRange
	ShapeMostRecent
)

// Shapes lists every supported shape in declaration order.
var Shapes = []Shape{
	ShapeItemAttributeValue,
	ShapeItemAttribute,
	ShapeAttributeValue,
	ShapeItem,
	ShapeAttribute,
	ShapeValue,
	ShapeAll,
	ShapeItemAttributeRange,
	ShapeAttributeRange,
	ShapeRange,
	ShapeDateRange,
	ShapeMostRecent,
}

var shapeNames = map[Shape]string{
	ShapeItemAttributeValue: "item_attribute_value",
	ShapeItemAttribute:      "item_attribute",
	ShapeAttributeValue:     "attribute_value",
	ShapeItem:               "item",
	ShapeAttribute:          "attribute",
	ShapeValue:              "value",
	ShapeAll:                "all",
	ShapeItemAttributeRange: "item_attribute_range",
	ShapeAttributeRange:     "attribute_range",
	ShapeRange:              "range",
	ShapeDateRange:          "date_range",
	ShapeMostRecent:         "most_recent",
}

func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return "unknown"
}

// Ordered reports whether rows of this shape come back as a newest-first
// list. The most-recent lookup returns at most one row.
func (s Shape) Ordered() bool {
	return s != ShapeMostRecent
}
