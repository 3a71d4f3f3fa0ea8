package jsonstream

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Kind identifies which alternative of the generic JSON value union a Value
// holds. This is the intermediate representation the tokenizer produces and
// the mapper consumes; it is never the user's target type.
type Kind int

// The generic-value kinds the tokenizer can produce.
const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDecimal
	KindString
	KindList
	KindMap
	numKinds
)

var kindStrings = [numKinds]string{
	"<null>", "<boolean>", "<integer>", "<number>", "<decimal>",
	"<string>", "<array>", "<object>",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "<unknown>"
	}
	return kindStrings[k]
}

// entry is one key/value pair of an insertion-ordered JSON object.
type entry struct {
	key string
	val *Value
}

// Value is a structured, generic JSON value: one of null, boolean, integer,
// floating number, decimal, string, ordered array, or insertion-ordered
// object. It is the intermediate form between the tokenizer and the Mapper;
// see Mapper for conversion into a user's target Go type.
type Value struct {
	kind    Kind
	boolV   bool
	intV    int64
	floatV  float64
	decV    decimal.Decimal
	strV    string
	listV   []*Value
	entries []entry
}

// Null returns the JSON null value.
func Null() *Value { return &Value{kind: KindNull} }

// Bool wraps a boolean as a Value.
func Bool(b bool) *Value { return &Value{kind: KindBool, boolV: b} }

// Int wraps an integer as a Value.
func Int(i int64) *Value { return &Value{kind: KindInt, intV: i} }

// Float wraps a floating-point number as a Value.
func Float(f float64) *Value { return &Value{kind: KindFloat, floatV: f} }

// DecimalValue wraps an arbitrary-precision decimal as a Value.
func DecimalValue(d decimal.Decimal) *Value { return &Value{kind: KindDecimal, decV: d} }

// String wraps a string as a Value.
func String(s string) *Value { return &Value{kind: KindString, strV: s} }

// List wraps an ordered sequence of values as a Value.
func List(vs []*Value) *Value { return &Value{kind: KindList, listV: vs} }

// Object wraps an insertion-ordered mapping as a Value.
func Object(keys []string, vals []*Value) *Value {
	es := make([]entry, len(keys))
	for i := range keys {
		es[i] = entry{key: keys[i], val: vals[i]}
	}
	return &Value{kind: KindMap, entries: es}
}

// Kind reports which alternative of the value union this Value holds.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether this Value is JSON null.
func (v *Value) IsNull() bool { return v.Kind() == KindNull }

// AsBool returns the boolean value, or ok=false if this isn't a boolean.
func (v *Value) AsBool() (b bool, ok bool) {
	if v.Kind() != KindBool {
		return false, false
	}
	return v.boolV, true
}

// AsInt returns the integer value, or ok=false if this isn't an integer.
func (v *Value) AsInt() (i int64, ok bool) {
	if v.Kind() != KindInt {
		return 0, false
	}
	return v.intV, true
}

// AsFloat returns the value as a float64. Integers widen losslessly for
// values within float64's exact-integer range; decimals are converted via
// Float64, discarding its exactness flag.
func (v *Value) AsFloat() (f float64, ok bool) {
	switch v.Kind() {
	case KindFloat:
		return v.floatV, true
	case KindInt:
		return float64(v.intV), true
	case KindDecimal:
		f, _ = v.decV.Float64()
		return f, true
	}
	return 0, false
}

// AsDecimal returns the value as a decimal.Decimal, or ok=false if this is
// not a numeric kind.
func (v *Value) AsDecimal() (d decimal.Decimal, ok bool) {
	switch v.Kind() {
	case KindDecimal:
		return v.decV, true
	case KindInt:
		return decimal.NewFromInt(v.intV), true
	case KindFloat:
		return decimal.NewFromFloat(v.floatV), true
	}
	return decimal.Decimal{}, false
}

// AsString returns the string value, or ok=false if this isn't a string.
func (v *Value) AsString() (s string, ok bool) {
	if v.Kind() != KindString {
		return "", false
	}
	return v.strV, true
}

// AsList returns the array elements, or ok=false if this isn't an array.
func (v *Value) AsList() (vs []*Value, ok bool) {
	if v.Kind() != KindList {
		return nil, false
	}
	return v.listV, true
}

// AsObject returns the object's keys and values in insertion order, or
// ok=false if this isn't an object.
func (v *Value) AsObject() (keys []string, vals []*Value, ok bool) {
	if v.Kind() != KindMap {
		return nil, nil, false
	}
	keys = make([]string, len(v.entries))
	vals = make([]*Value, len(v.entries))
	for i, e := range v.entries {
		keys[i] = e.key
		vals[i] = e.val
	}
	return keys, vals, true
}

// Lookup returns the value of the object member named k, and whether it was
// present, rather than silently substituting null for an absent key.
func (v *Value) Lookup(k string) (*Value, bool) {
	if v.Kind() != KindMap {
		return nil, false
	}
	for _, e := range v.entries {
		if e.key == k {
			return e.val, true
		}
	}
	return nil, false
}

// valueDepth reports the maximum nesting depth of v: 1 for a scalar (or
// empty array/object), and 1+max(child depths) for a non-empty array or
// object.
func valueDepth(v *Value) int {
	if v == nil {
		return 1
	}
	switch v.kind {
	case KindList:
		max := 0
		for _, e := range v.listV {
			if d := valueDepth(e); d > max {
				max = d
			}
		}
		return max + 1
	case KindMap:
		max := 0
		for _, e := range v.entries {
			if d := valueDepth(e.val); d > max {
				max = d
			}
		}
		return max + 1
	}
	return 1
}

// valueSize reports the total number of nodes in v, counting v itself and
// every nested element or member value.
func valueSize(v *Value) int {
	if v == nil {
		return 1
	}
	switch v.kind {
	case KindList:
		n := 1
		for _, e := range v.listV {
			n += valueSize(e)
		}
		return n
	case KindMap:
		n := 1
		for _, e := range v.entries {
			n += valueSize(e.val)
		}
		return n
	}
	return 1
}

// jsonTypeName returns the JSON type name (as used by the `accept` tag
// grammar) for v's kind: "string", "number", "boolean", "null", "array", or
// "object".
func jsonTypeName(v *Value) string {
	switch v.Kind() {
	case KindString:
		return "string"
	case KindInt, KindFloat, KindDecimal:
		return "number"
	case KindBool:
		return "boolean"
	case KindList:
		return "array"
	case KindMap:
		return "object"
	}
	return "null"
}

// acceptsKind reports whether v's JSON type is among names, the JSON type
// names parsed from a member's `accept` tag. An empty names list is
// unrestricted.
func acceptsKind(names []string, v *Value) bool {
	if len(names) == 0 {
		return true
	}
	want := jsonTypeName(v)
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}

// String renders a debug (not valid-JSON-guaranteed) representation of the
// value.
func (v *Value) String() string {
	if v == nil {
		return "null"
	}
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.boolV {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.intV, 10)
	case KindFloat:
		return strconv.FormatFloat(v.floatV, 'g', -1, 64)
	case KindDecimal:
		return v.decV.String()
	case KindString:
		return strconv.Quote(v.strV)
	case KindList:
		str := "["
		for i, e := range v.listV {
			if i > 0 {
				str += ", "
			}
			str += e.String()
		}
		return str + "]"
	case KindMap:
		str := "{"
		for i, e := range v.entries {
			if i > 0 {
				str += ", "
			}
			str += strconv.Quote(e.key) + ": " + e.val.String()
		}
		return str + "}"
	}
	return "<unknown>"
}
