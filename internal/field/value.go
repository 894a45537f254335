package field

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Type tags how a raw input string is parsed.
type Type int

const (
	TypeString Type = iota
	TypeDecimal
)

func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeDecimal:
		return "decimal"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// ParseType maps the tag used in definition files ("str", "decimal").
func ParseType(tag string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "", "str", "string":
		return TypeString, nil
	case "decimal":
		return TypeDecimal, nil
	default:
		return TypeString, fmt.Errorf("unknown field type %q", tag)
	}
}

// Parse converts raw into a Value of type t.
func (t Type) Parse(raw string) (Value, error) {
	trimmed := strings.TrimSpace(raw)
	switch t {
	case TypeDecimal:
		d, err := decimal.NewFromString(trimmed)
		if err != nil {
			return Value{}, err
		}
		return Value{typ: TypeDecimal, raw: trimmed, dec: d}, nil
	default:
		return Value{typ: TypeString, raw: trimmed}, nil
	}
}

// Value is a typed, validated field value.
type Value struct {
	typ Type
	raw string
	dec decimal.Decimal
}

func StringValue(s string) Value {
	return Value{typ: TypeString, raw: s}
}

func DecimalValue(d decimal.Decimal) Value {
	return Value{typ: TypeDecimal, raw: d.String(), dec: d}
}

func (v Value) Type() Type { return v.typ }

// String returns the textual form. For decimals it is the input as typed
// (after trimming), so "0.010" round-trips unchanged.
func (v Value) String() string { return v.raw }

// Decimal returns the decimal form; zero for string values.
func (v Value) Decimal() decimal.Decimal {
	if v.typ != TypeDecimal {
		return decimal.Zero
	}
	return v.dec
}

// Equal compares numerically for decimals and textually otherwise.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	if v.typ == TypeDecimal {
		return v.dec.Equal(o.dec)
	}
	return v.raw == o.raw
}
