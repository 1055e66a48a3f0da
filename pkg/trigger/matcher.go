package trigger

import (
	"fmt"
	"time"
)

// Matcher turns selector results into match decisions and reports every
// evaluation to an EvaluatorLogger.
type Matcher struct {
	evaluator Evaluator
	logger    EvaluatorLogger
	now       func() time.Time
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithEvaluatorLogger attaches an evaluator logger to the matcher.
func WithEvaluatorLogger(logger EvaluatorLogger) MatcherOption {
	return func(m *Matcher) {
		if logger == nil {
			m.logger = noopEvaluatorLogger{}
			return
		}
		m.logger = logger
	}
}

// NewMatcher wraps evaluator. A nil evaluator falls back to expr.
func NewMatcher(evaluator Evaluator, opts ...MatcherOption) *Matcher {
	if evaluator == nil {
		evaluator = NewExprEvaluator()
	}
	m := &Matcher{
		evaluator: evaluator,
		logger:    noopEvaluatorLogger{},
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Engine reports the wrapped evaluator engine.
func (m *Matcher) Engine() string {
	return m.evaluator.Engine()
}

// Match reports whether selector accepts in. An empty selector matches every
// event. Non-boolean results are errors.
func (m *Matcher) Match(in Input, selector string) (bool, error) {
	if selector == "" {
		return true, nil
	}
	start := m.now()
	result, err := m.evaluator.Evaluate(in, selector)
	matched := false
	if err == nil {
		b, ok := result.(bool)
		if !ok {
			err = wrapEvaluationError(m.evaluator.Engine(), selector, in.Event, fmt.Errorf("%w: got %T", ErrNonBoolean, result))
		}
		matched = b
	}
	err = wrapEvaluationError(m.evaluator.Engine(), selector, in.Event, err)
	m.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:   m.evaluator.Engine(),
		Selector: selector,
		Event:    in.Event,
		Matched:  matched,
		Duration: m.now().Sub(start),
		Err:      err,
	})
	if err != nil {
		return false, err
	}
	return matched, nil
}
