// Package props defines the structured property values attached to outgoing
// events and profile updates.
//
// Value is a closed variant: String, Number, Bool, Null, List and Map. The
// zero Value is Null. Map values are ordered (see Properties) so serialized
// payloads keep insertion order.
package props

import (
	"encoding/json"
	"math"
	"strconv"
)

// Kind identifies the variant stored in a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "null"
	}
}

// Value is an immutable structured property value.
type Value struct {
	kind    Kind
	str     string
	num     float64
	integer int64
	isInt   bool
	boolean bool
	list    []Value
	obj     *Properties
}

// Null returns the null value.
func Null() Value { return Value{} }

// String wraps s.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bool wraps b.
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Int wraps an integral number. It serializes without a fraction.
func Int(i int64) Value {
	return Value{kind: KindNumber, integer: i, num: float64(i), isInt: true}
}

// Float wraps a floating point number. Non-finite numbers cannot be
// serialized; use FromAny to have them rejected.
func Float(f float64) Value { return Value{kind: KindNumber, num: f} }

// List wraps values, copying them.
func List(values ...Value) Value {
	out := make([]Value, len(values))
	for i, v := range values {
		out[i] = v.Clone()
	}
	return Value{kind: KindList, list: out}
}

// Map wraps a copy of p.
func Map(p Properties) Value {
	clone := p.Clone()
	return Value{kind: KindMap, obj: &clone}
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.boolean, true
}

func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// AsInt returns the integral number stored in v. Floats with no fractional
// part are accepted.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	if v.isInt {
		return v.integer, true
	}
	if v.num == math.Trunc(v.num) && !math.IsInf(v.num, 0) {
		return int64(v.num), true
	}
	return 0, false
}

// AsList returns a copy of the list elements.
func (v Value) AsList() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	out := make([]Value, len(v.list))
	for i, item := range v.list {
		out[i] = item.Clone()
	}
	return out, true
}

// Len returns the number of list elements or map entries.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		if v.obj == nil {
			return 0
		}
		return v.obj.Len()
	default:
		return 0
	}
}

// AsMap returns a copy of the map entries.
func (v Value) AsMap() (Properties, bool) {
	if v.kind != KindMap {
		return Properties{}, false
	}
	if v.obj == nil {
		return Properties{}, true
	}
	return v.obj.Clone(), true
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		out := make([]Value, len(v.list))
		for i, item := range v.list {
			out[i] = item.Clone()
		}
		v.list = out
	case KindMap:
		if v.obj != nil {
			clone := v.obj.Clone()
			v.obj = &clone
		}
	}
	return v
}

// Equal reports deep equality. Numbers compare numerically and map entry
// order is ignored.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == other.str
	case KindBool:
		return v.boolean == other.boolean
	case KindNumber:
		if v.isInt && other.isInt {
			return v.integer == other.integer
		}
		return v.num == other.num
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		left, _ := v.AsMap()
		right, _ := other.AsMap()
		return left.Equal(right)
	}
	return false
}

// String renders v as text. Strings render raw; containers render as JSON.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.boolean)
	case KindNumber:
		if v.isInt {
			return strconv.FormatInt(v.integer, 10)
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		payload, err := json.Marshal(v)
		if err != nil {
			return "<invalid>"
		}
		return string(payload)
	}
}

// Interface converts v into plain Go values: nil, string, bool, int64,
// float64, []any and map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		return v.boolean
	case KindNumber:
		if v.isInt {
			return v.integer
		}
		return v.num
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		if v.obj == nil {
			return map[string]any{}
		}
		return v.obj.ToMap()
	default:
		return nil
	}
}
