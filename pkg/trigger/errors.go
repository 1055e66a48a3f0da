package trigger

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptySelector     = errors.New("trigger: selector must not be empty")
	ErrUnknownEngine     = errors.New("trigger: unknown engine")
	ErrEngineUnavailable = errors.New("trigger: engine not available in this build")
	ErrNonBoolean        = errors.New("trigger: selector did not return a boolean")
)

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine   string
	Selector string
	Event    string
	Err      error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("trigger: %s evaluator %s event=%s: %v", e.Engine, describeSelector(e.Selector), e.Event, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeSelector(selector string) string {
	if selector == "" {
		return "selector=<empty>"
	}
	return fmt.Sprintf("selector=%q", selector)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "trigger:") {
		return err
	}
	return fmt.Errorf("trigger: %s evaluator: %w", engine, err)
}

func wrapEvaluationError(engine, selector, event string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Selector == "" {
			evalErr.Selector = selector
		}
		if evalErr.Event == "" {
			evalErr.Event = event
		}
		return evalErr
	}

	return &EvaluationError{
		Engine:   engine,
		Selector: selector,
		Event:    event,
		Err:      err,
	}
}
