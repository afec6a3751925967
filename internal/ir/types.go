package ir

import (
	"fmt"
	"time"
)

// TimestampLayout is the storage format for Fact.Timestamp.
// Second resolution, local time, sorts lexically in chronological order.
const TimestampLayout = "2006-01-02 15:04:05"

// FactType discriminates which payload field of a Fact carries the value.
type FactType string

const (
	TypeString    FactType = "string"
	TypeNumber    FactType = "number"
	TypeItemID    FactType = "itemId"
	TypeTimestamp FactType = "timestamp"
	TypeBoolean   FactType = "boolean"
	TypeNull      FactType = "null"
)

// Valid reports whether t is one of the known fact types.
func (t FactType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeItemID, TypeTimestamp, TypeBoolean, TypeNull:
		return true
	}
	return false
}

// IsNumeric reports whether facts of this type carry their payload in NumericValue.
func (t FactType) IsNumeric() bool {
	return t == TypeNumber || t == TypeTimestamp
}

// Flags is the per-fact bit field.
type Flags int

// FlagRemoved marks a soft-deleted fact (bit 0).
const FlagRemoved Flags = 1 << 0

// Removed reports whether the removed bit is set.
func (f Flags) Removed() bool {
	return f&FlagRemoved != 0
}

// Well-known attributes written by item creation, deletion and relationships.
const (
	AttrCreated          = "created"
	AttrType             = "type"
	AttrRelationshipType = "relationshipType"
	AttrFromItemID       = "fromItemId"
	AttrToItemID         = "toItemId"
	AttrDeleted          = "deleted"
	AttrSuccessor        = "successor"

	// ItemTypeRelationship is the value of the type fact on relationship items.
	ItemTypeRelationship = "relationship"
)

// Fact is one immutable entity-attribute-value record.
type Fact struct {
	Ordinal      int64    `json:"ordinal"`       // Assigned by the drive, unique per drive
	FactID       string   `json:"fact_id"`       // Shared by facts written as one edit
	ItemID       string   `json:"item_id"`
	Attribute    string   `json:"attribute"`
	Value        string   `json:"value"`         // Payload for non-numeric types
	NumericValue float64  `json:"numeric_value"` // Payload for numeric types, 0 otherwise
	Type         FactType `json:"type"`
	Flags        Flags    `json:"flags"`
	Timestamp    string   `json:"timestamp"` // TimestampLayout
}

// Removed reports whether the fact carries the soft-delete marker.
func (f Fact) Removed() bool {
	return f.Flags.Removed()
}

// Typed decodes the payload according to Type.
func (f Fact) Typed() (TypedValue, error) {
	return decodeTypedValue(f)
}

// SameContent reports whether two facts are equal in every field except Ordinal and FactID.
func (f Fact) SameContent(other Fact) bool {
	return f.ItemID == other.ItemID &&
		f.Attribute == other.Attribute &&
		f.Value == other.Value &&
		f.NumericValue == other.NumericValue &&
		f.Type == other.Type &&
		f.Flags == other.Flags &&
		f.Timestamp == other.Timestamp
}

// String returns a compact representation for logs and text output.
func (f Fact) String() string {
	if f.Type.IsNumeric() {
		return fmt.Sprintf("[%d %s %s=%g (%s) %s]", f.Ordinal, f.ItemID, f.Attribute, f.NumericValue, f.Type, f.Timestamp)
	}
	return fmt.Sprintf("[%d %s %s=%q (%s) %s]", f.Ordinal, f.ItemID, f.Attribute, f.Value, f.Type, f.Timestamp)
}

// FormatTimestamp renders t in the storage layout using t's location.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a stored timestamp in the local time zone.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
