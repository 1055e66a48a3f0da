package props

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestPropertiesKeepInsertionOrder(t *testing.T) {
	var p Properties
	p.Set("b", Int(1))
	p.Set("a", String("x"))
	p.Set("b", Int(2))

	keys := p.Keys()
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Fatalf("unexpected key order: %v", keys)
	}
	got, ok := p.Get("b")
	if !ok || !got.Equal(Int(2)) {
		t.Fatalf("expected overwritten value 2, got %v", got)
	}

	payload, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != `{"b":2,"a":"x"}` {
		t.Fatalf("unexpected payload %s", payload)
	}
}

func TestPropertiesSetOnceNeverOverwrites(t *testing.T) {
	var p Properties
	p.Set("plan", String("pro"))
	if p.SetOnce("plan", String("free")) {
		t.Fatalf("expected SetOnce to skip existing key")
	}
	var other Properties
	other.Set("plan", String("trial"))
	other.Set("seats", Int(3))
	p.MergeMissing(other)

	plan, _ := p.Get("plan")
	if s, _ := plan.AsString(); s != "pro" {
		t.Fatalf("expected plan=pro, got %q", s)
	}
	if !p.Has("seats") {
		t.Fatalf("expected missing key to be merged")
	}
}

func TestPropertiesDeleteAndClone(t *testing.T) {
	var p Properties
	p.Set("a", Int(1))
	p.Set("b", Int(2))
	p.Set("c", Int(3))

	clone := p.Clone()
	p.Delete("b")

	if p.Len() != 2 || p.Has("b") {
		t.Fatalf("expected b removed, got %v", p.Keys())
	}
	if clone.Len() != 3 || !clone.Has("b") {
		t.Fatalf("expected clone untouched, got %v", clone.Keys())
	}
	keys := p.Keys()
	if keys[0] != "a" || keys[1] != "c" {
		t.Fatalf("unexpected order after delete: %v", keys)
	}
}

func TestFromAnyConvertsNestedValues(t *testing.T) {
	when := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	v, err := FromAny(map[string]any{
		"count":  3,
		"ratio":  0.5,
		"tags":   []any{"a", true, nil},
		"nested": map[string]any{"k": "v"},
		"when":   when,
	})
	if err != nil {
		t.Fatalf("from any: %v", err)
	}
	m, ok := v.AsMap()
	if !ok {
		t.Fatalf("expected map, got %s", v.Kind())
	}
	count, _ := m.Get("count")
	if i, ok := count.AsInt(); !ok || i != 3 {
		t.Fatalf("expected count=3, got %v", count)
	}
	tags, _ := m.Get("tags")
	if tags.Len() != 3 {
		t.Fatalf("expected 3 tags, got %d", tags.Len())
	}
	whenValue, _ := m.Get("when")
	if whenValue.String() != "2024-03-01T10:30:00" {
		t.Fatalf("unexpected time rendering %q", whenValue.String())
	}
}

func TestFromAnyRejectsMalformedInput(t *testing.T) {
	cases := map[string]any{
		"nan":     math.NaN(),
		"inf":     math.Inf(1),
		"channel": make(chan int),
		"nested":  []any{struct{}{}},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := FromAny(input); !errors.Is(err, ErrUnsupportedValue) {
				t.Fatalf("expected ErrUnsupportedValue, got %v", err)
			}
		})
	}

	if _, err := FromMap(map[string]any{"": 1}); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}

func TestValueJSONPreservesOrderAndIntegers(t *testing.T) {
	raw := `{"z":1,"a":[1.5,"x",null,{"q":true}],"m":{"b":2,"a":1}}`
	var v Value
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != raw {
		t.Fatalf("expected %s, got %s", raw, out)
	}
}

func TestValueEqualAndString(t *testing.T) {
	if !Int(1).Equal(Float(1)) {
		t.Fatalf("expected numeric equality across int/float")
	}
	if String("1").Equal(Int(1)) {
		t.Fatalf("expected different kinds to differ")
	}
	left := List(String("a"), Int(1))
	right := List(String("a"), Int(1))
	if !left.Equal(right) {
		t.Fatalf("expected equal lists")
	}
	if Int(42).String() != "42" || Float(1.25).String() != "1.25" || Null().String() != "null" {
		t.Fatalf("unexpected string rendering")
	}
	if left.String() != `["a",1]` {
		t.Fatalf("unexpected list rendering %s", left.String())
	}
}

func TestPropertiesUnmarshalRejectsNonObject(t *testing.T) {
	var p Properties
	if err := json.Unmarshal([]byte(`[1,2]`), &p); err == nil {
		t.Fatalf("expected error for array payload")
	}
	if err := json.Unmarshal([]byte(`null`), &p); err != nil || p.Len() != 0 {
		t.Fatalf("expected null to decode as empty, got %v %d", err, p.Len())
	}
}

func TestOfBuildsOrderedProperties(t *testing.T) {
	p, err := Of("b", 1, "a", "x")
	if err != nil {
		t.Fatalf("of: %v", err)
	}
	if keys := p.Keys(); keys[0] != "b" || keys[1] != "a" {
		t.Fatalf("unexpected order %v", keys)
	}
	if _, err := Of("dangling"); !errors.Is(err, ErrOddPairs) {
		t.Fatalf("expected ErrOddPairs, got %v", err)
	}
}
