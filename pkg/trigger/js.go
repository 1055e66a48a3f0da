//go:build js_eval

package trigger

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewJSEvaluator constructs an Evaluator backed by goja. Every evaluation
// runs in a fresh runtime.
func NewJSEvaluator(opts ...EvaluatorOption) Evaluator {
	cfg := applyEvaluatorOptions(opts)
	return &jsEvaluator{cache: cfg.cache, registry: cfg.registry}
}

func (e *jsEvaluator) Engine() string { return EngineJS }

func (e *jsEvaluator) Evaluate(in Input, selector string) (any, error) {
	compiled, err := e.Compile(selector)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(in)
}

func (e *jsEvaluator) Compile(selector string) (CompiledSelector, error) {
	if selector == "" {
		return nil, wrapEvaluatorError(EngineJS, ErrEmptySelector)
	}
	program, err := e.loadOrCompile(selector)
	if err != nil {
		return nil, err
	}
	return &jsCompiledSelector{evaluator: e, selector: selector, program: program}, nil
}

func (e *jsEvaluator) loadOrCompile(selector string) (*goja.Program, error) {
	key := cacheKey(EngineJS, selector)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("selector", wrapSelector(selector), false)
	if err != nil {
		return nil, wrapEvaluationError(EngineJS, selector, "", err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

func (e *jsEvaluator) run(in Input, selector string, program *goja.Program) (any, error) {
	vm := goja.New()
	for name, value := range in.bindings() {
		if err := vm.Set(name, value); err != nil {
			return nil, wrapEvaluationError(EngineJS, selector, in.Event, err)
		}
	}
	for _, name := range e.registry.Names() {
		fn := name
		registry := e.registry
		if err := vm.Set(fn, func(arguments ...any) (any, error) {
			return registry.Call(fn, arguments...)
		}); err != nil {
			return nil, wrapEvaluationError(EngineJS, selector, in.Event, err)
		}
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, wrapEvaluationError(EngineJS, selector, in.Event, err)
	}
	return value.Export(), nil
}

func wrapSelector(selector string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", selector)
}

type jsCompiledSelector struct {
	evaluator *jsEvaluator
	selector  string
	program   *goja.Program
}

func (s *jsCompiledSelector) Evaluate(in Input) (any, error) {
	return s.evaluator.run(in.withDefaults(), s.selector, s.program)
}

func jsEvaluatorAvailable() bool {
	return true
}
