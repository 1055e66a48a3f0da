package trigger

import (
	"errors"
	"testing"
)

func TestMatcherEmptySelectorMatches(t *testing.T) {
	m := NewMatcher(nil)
	ok, err := m.Match(purchaseInput(t), "")
	if err != nil || !ok {
		t.Fatalf("expected empty selector to match, got %v %v", ok, err)
	}
	if m.Engine() != EngineExpr {
		t.Fatalf("expected default expr engine, got %s", m.Engine())
	}
}

func TestMatcherLogsEvaluations(t *testing.T) {
	var events []EvaluatorLogEvent
	m := NewMatcher(NewCELEvaluator(), WithEvaluatorLogger(EvaluatorLoggerFunc(func(e EvaluatorLogEvent) {
		events = append(events, e)
	})))

	ok, err := m.Match(purchaseInput(t), `event == "purchase"`)
	if err != nil || !ok {
		t.Fatalf("expected match, got %v %v", ok, err)
	}
	if len(events) != 1 || !events[0].Matched || events[0].Engine != EngineCEL || events[0].Event != "purchase" {
		t.Fatalf("unexpected log events %+v", events)
	}
}

func TestMatcherRejectsNonBooleanResults(t *testing.T) {
	var logged error
	m := NewMatcher(NewExprEvaluator(), WithEvaluatorLogger(EvaluatorLoggerFunc(func(e EvaluatorLogEvent) {
		logged = e.Err
	})))

	ok, err := m.Match(purchaseInput(t), `properties.amount + 1`)
	if ok || !errors.Is(err, ErrNonBoolean) {
		t.Fatalf("expected ErrNonBoolean, got %v %v", ok, err)
	}
	if !errors.Is(logged, ErrNonBoolean) {
		t.Fatalf("expected error reported to logger, got %v", logged)
	}
}

func TestNewEvaluatorSelectsEngine(t *testing.T) {
	for engine, want := range map[string]string{"": EngineExpr, "expr": EngineExpr, "CEL": EngineCEL} {
		e, err := NewEvaluator(engine)
		if err != nil {
			t.Fatalf("%q: %v", engine, err)
		}
		if e.Engine() != want {
			t.Fatalf("%q: expected %s, got %s", engine, want, e.Engine())
		}
	}
	if _, err := NewEvaluator("lua"); !errors.Is(err, ErrUnknownEngine) {
		t.Fatalf("expected ErrUnknownEngine, got %v", err)
	}
	if ValidEngine("lua") || !ValidEngine("js") {
		t.Fatalf("unexpected ValidEngine results")
	}
}
