package props

import "sort"

// Properties is an insertion-ordered map of property name to Value. The zero
// value is an empty, ready to use map. Properties is not safe for concurrent
// mutation; owners guard it with their own lock.
type Properties struct {
	keys   []string
	values map[string]Value
}

// Len returns the number of entries.
func (p Properties) Len() int {
	return len(p.keys)
}

// Get returns the value stored under key.
func (p Properties) Get(key string) (Value, bool) {
	if p.values == nil {
		return Value{}, false
	}
	v, ok := p.values[key]
	if !ok {
		return Value{}, false
	}
	return v.Clone(), true
}

// Has reports whether key is present.
func (p Properties) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Keys returns the keys in insertion order.
func (p Properties) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Range calls fn for each entry in insertion order until fn returns false.
func (p Properties) Range(fn func(key string, value Value) bool) {
	for _, key := range p.keys {
		if !fn(key, p.values[key]) {
			return
		}
	}
}

// Set stores value under key. Existing keys keep their position.
func (p *Properties) Set(key string, value Value) {
	if p.values == nil {
		p.values = make(map[string]Value)
	}
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value.Clone()
}

// SetAny converts value with FromAny and stores it.
func (p *Properties) SetAny(key string, value any) error {
	if key == "" {
		return ErrEmptyKey
	}
	v, err := FromAny(value)
	if err != nil {
		return err
	}
	p.Set(key, v)
	return nil
}

// SetOnce stores value only when key is absent and reports whether it did.
func (p *Properties) SetOnce(key string, value Value) bool {
	if p.Has(key) {
		return false
	}
	p.Set(key, value)
	return true
}

// Delete removes key.
func (p *Properties) Delete(key string) {
	if _, exists := p.values[key]; !exists {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i:i], p.keys[i+1:]...)
			break
		}
	}
}

// Merge upserts every entry of other, overwriting existing keys.
func (p *Properties) Merge(other Properties) {
	other.Range(func(key string, value Value) bool {
		p.Set(key, value)
		return true
	})
}

// MergeMissing copies entries of other whose keys are absent.
func (p *Properties) MergeMissing(other Properties) {
	other.Range(func(key string, value Value) bool {
		p.SetOnce(key, value)
		return true
	})
}

// Clone returns a deep copy.
func (p Properties) Clone() Properties {
	if len(p.keys) == 0 {
		return Properties{}
	}
	out := Properties{
		keys:   make([]string, len(p.keys)),
		values: make(map[string]Value, len(p.keys)),
	}
	copy(out.keys, p.keys)
	for key, value := range p.values {
		out.values[key] = value.Clone()
	}
	return out
}

// Equal reports whether both maps hold equal values for the same keys,
// ignoring order.
func (p Properties) Equal(other Properties) bool {
	if p.Len() != other.Len() {
		return false
	}
	for _, key := range p.keys {
		right, ok := other.values[key]
		if !ok || !p.values[key].Equal(right) {
			return false
		}
	}
	return true
}

// ToMap converts the entries to plain Go values.
func (p Properties) ToMap() map[string]any {
	out := make(map[string]any, len(p.keys))
	for _, key := range p.keys {
		out[key] = p.values[key].Interface()
	}
	return out
}

// FromMap converts a plain Go map. Keys are inserted in sorted order since Go
// maps carry none.
func FromMap(m map[string]any) (Properties, error) {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out Properties
	for _, key := range keys {
		if err := out.SetAny(key, m[key]); err != nil {
			return Properties{}, wrapKey(key, err)
		}
	}
	return out, nil
}

// Of builds Properties from alternating key/value arguments.
func Of(pairs ...any) (Properties, error) {
	if len(pairs)%2 != 0 {
		return Properties{}, ErrOddPairs
	}
	var out Properties
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok || key == "" {
			return Properties{}, ErrEmptyKey
		}
		if err := out.SetAny(key, pairs[i+1]); err != nil {
			return Properties{}, wrapKey(key, err)
		}
	}
	return out, nil
}
