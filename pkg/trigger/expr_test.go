package trigger

import (
	"errors"
	"strings"
	"testing"
)

func TestExprEvaluatorMatchesEventAndProperties(t *testing.T) {
	evaluator := NewExprEvaluator()
	in := purchaseInput(t)

	cases := []struct {
		selector string
		want     bool
	}{
		{`event == "purchase"`, true},
		{`event == "purchase" && properties.amount > 40`, true},
		{`properties.plan == "free"`, false},
		{`"vip" in properties.tags`, true},
		{`event_time.Year() == 2024`, true},
	}
	for _, tc := range cases {
		got, err := evaluator.Evaluate(in, tc.selector)
		if err != nil {
			t.Fatalf("%s: %v", tc.selector, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.selector, tc.want, got)
		}
	}
}

func TestExprEvaluatorUsesProgramCache(t *testing.T) {
	cache := NewMemoryProgramCache()
	evaluator := NewExprEvaluator(WithProgramCache(cache))
	in := purchaseInput(t)

	for i := 0; i < 3; i++ {
		if _, err := evaluator.Evaluate(in, `event == "purchase"`); err != nil {
			t.Fatalf("evaluate: %v", err)
		}
	}
	if cache.Len() != 1 {
		t.Fatalf("expected one cached program, got %d", cache.Len())
	}
	if _, ok := cache.Get(cacheKey(EngineExpr, `event == "purchase"`)); !ok {
		t.Fatalf("expected engine-scoped cache key")
	}
}

func TestExprEvaluatorCallsRegistryFunctions(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("hasPrefix", func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, errors.New("hasPrefix expects 2 args")
		}
		s, _ := args[0].(string)
		prefix, _ := args[1].(string)
		return strings.HasPrefix(s, prefix), nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	evaluator := NewExprEvaluator(WithFunctionRegistry(registry))
	got, err := evaluator.Evaluate(purchaseInput(t), `hasprefix(event, "pur")`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got != true {
		t.Fatalf("expected registry function result true, got %v", got)
	}
}

func TestExprEvaluatorCompileError(t *testing.T) {
	evaluator := NewExprEvaluator()
	_, err := evaluator.Compile(`event ==`)
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T %v", err, err)
	}
	if evalErr.Engine != EngineExpr || evalErr.Selector != `event ==` {
		t.Fatalf("unexpected metadata %+v", evalErr)
	}
	if _, err := evaluator.Compile(""); !errors.Is(err, ErrEmptySelector) {
		t.Fatalf("expected ErrEmptySelector, got %v", err)
	}
}
