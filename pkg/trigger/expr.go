package trigger

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEvaluator executes selectors using github.com/expr-lang/expr.
type exprEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
func NewExprEvaluator(opts ...EvaluatorOption) Evaluator {
	cfg := applyEvaluatorOptions(opts)
	return &exprEvaluator{cache: cfg.cache, registry: cfg.registry}
}

func (e *exprEvaluator) Engine() string { return EngineExpr }

func (e *exprEvaluator) Evaluate(in Input, selector string) (any, error) {
	compiled, err := e.Compile(selector)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(in)
}

func (e *exprEvaluator) Compile(selector string) (CompiledSelector, error) {
	if selector == "" {
		return nil, wrapEvaluatorError(EngineExpr, ErrEmptySelector)
	}
	program, err := e.loadOrCompile(selector)
	if err != nil {
		return nil, err
	}
	return &exprCompiledSelector{program: program, selector: selector}, nil
}

func (e *exprEvaluator) loadOrCompile(selector string) (*exprvm.Program, error) {
	key := cacheKey(EngineExpr, selector)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.registry.Names() {
		options = append(options, exprlang.Function(name, e.registryFunction(name)))
	}
	program, err := exprlang.Compile(selector, options...)
	if err != nil {
		return nil, wrapEvaluationError(EngineExpr, selector, "", err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

func (e *exprEvaluator) registryFunction(name string) func(...any) (any, error) {
	registry := e.registry
	return func(arguments ...any) (any, error) {
		return registry.Call(name, arguments...)
	}
}

type exprCompiledSelector struct {
	program  *exprvm.Program
	selector string
}

func (s *exprCompiledSelector) Evaluate(in Input) (any, error) {
	in = in.withDefaults()
	result, err := exprlang.Run(s.program, in.bindings())
	if err != nil {
		return nil, wrapEvaluationError(EngineExpr, s.selector, in.Event, err)
	}
	return result, nil
}
