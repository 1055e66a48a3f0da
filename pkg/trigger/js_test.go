//go:build js_eval

package trigger

import "testing"

func TestJSEvaluatorMatchesEventAndProperties(t *testing.T) {
	evaluator, err := NewEvaluator(EngineJS, WithProgramCache(NewMemoryProgramCache()))
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	got, err := evaluator.Evaluate(purchaseInput(t), `event === "purchase" && properties.amount > 40`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got != true {
		t.Fatalf("expected true, got %v", got)
	}
}

func TestJSEvaluatorCallsRegistryFunctions(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("isvip", func(args ...any) (any, error) {
		return args[0] == "pro", nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	evaluator := NewJSEvaluator(WithFunctionRegistry(registry))
	got, err := evaluator.Evaluate(purchaseInput(t), `isvip(properties.plan)`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got != true {
		t.Fatalf("expected true, got %v", got)
	}
}
