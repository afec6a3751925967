package ir

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// TypedValue is a fact payload together with its type tag.
// Construct with the helpers below; the zero value is an empty string.
type TypedValue struct {
	Type   FactType
	Text   string
	Number float64
}

// String creates a string-typed value.
func String(s string) TypedValue {
	return TypedValue{Type: TypeString, Text: s}
}

// Number creates a number-typed value.
func Number(n float64) TypedValue {
	return TypedValue{Type: TypeNumber, Number: n}
}

// ItemRef creates an itemId-typed value pointing at another item.
func ItemRef(itemID string) TypedValue {
	return TypedValue{Type: TypeItemID, Text: itemID}
}

// Timestamp creates a timestamp-typed value.
// The numeric payload is Unix seconds; the text payload is the storage layout.
func Timestamp(t time.Time) TypedValue {
	return TypedValue{Type: TypeTimestamp, Text: FormatTimestamp(t), Number: float64(t.Unix())}
}

// Bool creates a boolean-typed value.
func Bool(b bool) TypedValue {
	return TypedValue{Type: TypeBoolean, Text: strconv.FormatBool(b)}
}

// Null creates a null-typed value.
func Null() TypedValue {
	return TypedValue{Type: TypeNull, Text: "null"}
}

// Apply copies the payload and type into f.
func (v TypedValue) Apply(f *Fact) {
	t := v.Type
	if t == "" {
		t = TypeString
	}
	f.Type = t
	f.Value = v.Text
	if t.IsNumeric() {
		f.NumericValue = v.Number
	} else {
		f.NumericValue = 0
	}
}

// Time returns the value as a time for timestamp-typed values.
func (v TypedValue) Time() (time.Time, bool) {
	if v.Type != TypeTimestamp {
		return time.Time{}, false
	}
	return time.Unix(int64(v.Number), 0), true
}

// decodeTypedValue reads the payload of f back into a TypedValue.
func decodeTypedValue(f Fact) (TypedValue, error) {
	switch f.Type {
	case "", TypeString:
		return String(f.Value), nil
	case TypeNumber:
		return Number(f.NumericValue), nil
	case TypeTimestamp:
		return TypedValue{Type: TypeTimestamp, Text: f.Value, Number: f.NumericValue}, nil
	case TypeItemID:
		return ItemRef(f.Value), nil
	case TypeBoolean:
		b, err := strconv.ParseBool(f.Value)
		if err != nil {
			return TypedValue{}, fmt.Errorf("decode boolean fact %s.%s: %w", f.ItemID, f.Attribute, err)
		}
		return Bool(b), nil
	case TypeNull:
		return Null(), nil
	default:
		// Unknown tags are kept verbatim; the type set is open.
		return TypedValue{Type: f.Type, Text: f.Value, Number: f.NumericValue}, nil
	}
}

// ErrBadValue is returned by ParseTypedValue when text does not parse as
// the requested type.
var ErrBadValue = errors.New("invalid value")

// ParseTypedValue builds a TypedValue of type t from its textual form.
// Null ignores text.
func ParseTypedValue(t FactType, text string) (TypedValue, error) {
	switch t {
	case TypeNull:
		return Null(), nil
	case TypeString:
		return String(text), nil
	case TypeItemID:
		return ItemRef(text), nil
	case TypeNumber:
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return TypedValue{}, fmt.Errorf("%w: %q is not a number", ErrBadValue, text)
		}
		return Number(n), nil
	case TypeTimestamp:
		ts, err := ParseTimestamp(text)
		if err != nil {
			return TypedValue{}, fmt.Errorf("%w: %q is not a timestamp (%s)", ErrBadValue, text, TimestampLayout)
		}
		return Timestamp(ts), nil
	case TypeBoolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return TypedValue{}, fmt.Errorf("%w: %q is not a boolean", ErrBadValue, text)
		}
		return Bool(b), nil
	default:
		return TypedValue{}, fmt.Errorf("%w: unknown fact type %q", ErrBadValue, t)
	}
}
