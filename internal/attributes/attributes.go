// Package attributes stores typed key/value attributes on documents and
// searches them, either per document, across a site via the equality
// index, or as a batched membership check over a known document set.
package attributes

import (
	"strconv"

	apperrors "docstore/pkg/errors"
)

// ValueType tags how an attribute value is stored and compared.
type ValueType string

const (
	// TypeKeyOnly marks a flag attribute with no value.
	TypeKeyOnly ValueType = "KEY_ONLY"
	TypeString  ValueType = "STRING"
	TypeNumber  ValueType = "NUMBER"
	TypeBoolean ValueType = "BOOLEAN"
)

// Value is one typed attribute value. Exactly one of the payload fields
// is meaningful, selected by Type.
type Value struct {
	Type    ValueType
	String  string
	Number  float64
	Boolean bool
}

// KeyOnly returns the valueless flag form.
func KeyOnly() Value {
	return Value{Type: TypeKeyOnly}
}

// NewString wraps a string attribute value.
func NewString(s string) Value {
	return Value{Type: TypeString, String: s}
}

// NewNumber wraps a numeric attribute value.
func NewNumber(n float64) Value {
	return Value{Type: TypeNumber, Number: n}
}

// NewBoolean wraps a boolean attribute value.
func NewBoolean(b bool) Value {
	return Value{Type: TypeBoolean, Boolean: b}
}

// Encode renders the value in its sort-key form. Encoding is pure, so
// the same value always lands on the same key.
func (v Value) Encode() string {
	switch v.Type {
	case TypeString:
		return v.String
	case TypeNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case TypeBoolean:
		return strconv.FormatBool(v.Boolean)
	default:
		return ""
	}
}

// Validate rejects values whose type tag is unknown.
func (v Value) Validate() error {
	switch v.Type {
	case TypeKeyOnly, TypeString, TypeNumber, TypeBoolean:
		return nil
	default:
		return apperrors.NewValidation("unknown attribute value type: " + string(v.Type))
	}
}
