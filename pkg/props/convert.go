package props

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	// ErrUnsupportedValue marks Go values that have no wire representation.
	ErrUnsupportedValue = errors.New("props: unsupported value")
	// ErrEmptyKey marks property maps carrying an empty key.
	ErrEmptyKey = errors.New("props: property name must not be empty")
	// ErrOddPairs marks Of calls with a dangling key.
	ErrOddPairs = errors.New("props: key/value pairs must be even")
)

// TimeLayout is used for time.Time values.
const TimeLayout = "2006-01-02T15:04:05"

func wrapKey(key string, err error) error {
	return fmt.Errorf("props: key %q: %w", key, err)
}

// FromAny converts plain Go values into a Value. Supported inputs are nil,
// strings, booleans, integer and float kinds, json.Number, time.Time (UTC,
// TimeLayout), Value, Properties, slices of those and string keyed maps.
func FromAny(input any) (Value, error) {
	switch v := input.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v.Clone(), nil
	case Properties:
		return Map(v), nil
	case *Properties:
		if v == nil {
			return Null(), nil
		}
		return Map(*v), nil
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint:
		return Int(int64(v)), nil
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return Float(float64(v)), nil
		}
		return Int(int64(v)), nil
	case float32:
		return finite(float64(v))
	case float64:
		return finite(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := v.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
		}
		return finite(f)
	case time.Time:
		return String(v.UTC().Format(TimeLayout)), nil
	case []Value:
		return List(v...), nil
	case []string:
		out := make([]Value, len(v))
		for i, s := range v {
			out[i] = String(s)
		}
		return Value{kind: KindList, list: out}, nil
	case []any:
		out := make([]Value, len(v))
		for i, item := range v {
			converted, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("props: index %d: %w", i, err)
			}
			out[i] = converted
		}
		return Value{kind: KindList, list: out}, nil
	case map[string]string:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var p Properties
		for _, key := range keys {
			if key == "" {
				return Value{}, ErrEmptyKey
			}
			p.Set(key, String(v[key]))
		}
		return Value{kind: KindMap, obj: &p}, nil
	case map[string]any:
		p, err := FromMap(v)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindMap, obj: &p}, nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, input)
	}
}

func finite(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("%w: non-finite number %v", ErrUnsupportedValue, f)
	}
	return Float(f), nil
}
