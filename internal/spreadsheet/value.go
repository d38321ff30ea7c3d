// Package spreadsheet turns a grid-data spreadsheet response into column-keyed records
// and joins records across sheets.
package spreadsheet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies the active variant of a Value.
type Kind int

const (
	KindEmpty Kind = iota
	KindNumber
	KindText
	KindBool
	KindFormula
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindFormula:
		return "formula"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is one slot of a cell: exactly one of number, text, bool, formula or empty.
// The zero Value is Empty.
type Value struct {
	kind    Kind
	number  float64
	text    string
	boolean bool
}

// Number returns a number Value.
func Number(n float64) Value { return Value{kind: KindNumber, number: n} }

// Text returns a text Value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Formula returns a formula Value holding the verbatim source expression.
func Formula(expr string) Value { return Value{kind: KindFormula, text: expr} }

// Empty returns the empty Value.
func Empty() Value { return Value{} }

// Kind reports the active variant.
func (v Value) Kind() Kind { return v.kind }

// AsNumber returns the number payload and whether v is a number.
func (v Value) AsNumber() (float64, bool) { return v.number, v.kind == KindNumber }

// AsText returns the text payload and whether v is text.
func (v Value) AsText() (string, bool) { return v.text, v.kind == KindText }

// AsBool returns the boolean payload and whether v is a bool.
func (v Value) AsBool() (bool, bool) { return v.boolean, v.kind == KindBool }

// AsFormula returns the formula source and whether v is a formula.
func (v Value) AsFormula() (string, bool) { return v.text, v.kind == KindFormula }

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return formatNumber(v.number)
	case KindText:
		return strconv.Quote(v.text)
	case KindBool:
		return strconv.FormatBool(v.boolean)
	case KindFormula:
		return strconv.Quote(v.text)
	default:
		return "empty"
	}
}

// formatNumber renders n as the shortest decimal that round-trips, without exponent.
func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// extendedValue mirrors the upstream ExtendedValue object.
type extendedValue struct {
	NumberValue  *float64 `json:"numberValue,omitempty"`
	StringValue  *string  `json:"stringValue,omitempty"`
	BoolValue    *bool    `json:"boolValue,omitempty"`
	FormulaValue *string  `json:"formulaValue,omitempty"`
}

// UnmarshalJSON decodes an ExtendedValue object. Keys are tried in the order number,
// string, bool, formula; an object with none of them is Empty.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("extended value must be a JSON object, got %s", truncate(trimmed, 32))
	}

	var raw extendedValue
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("failed to decode extended value: %w", err)
	}

	switch {
	case raw.NumberValue != nil:
		*v = Number(*raw.NumberValue)
	case raw.StringValue != nil:
		*v = Text(*raw.StringValue)
	case raw.BoolValue != nil:
		*v = Bool(*raw.BoolValue)
	case raw.FormulaValue != nil:
		*v = Formula(*raw.FormulaValue)
	default:
		*v = Empty()
	}
	return nil
}

// MarshalJSON encodes v back into the ExtendedValue shape.
func (v Value) MarshalJSON() ([]byte, error) {
	var raw extendedValue
	switch v.kind {
	case KindNumber:
		raw.NumberValue = &v.number
	case KindText:
		raw.StringValue = &v.text
	case KindBool:
		raw.BoolValue = &v.boolean
	case KindFormula:
		raw.FormulaValue = &v.text
	}
	return json.Marshal(raw)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
