package trigger

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// maxCELArity bounds the overloads generated per registry function.
const maxCELArity = 3

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
	env      *celgo.Env
	envErr   error
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Registry
// functions are declared with dyn overloads of up to three arguments.
func NewCELEvaluator(opts ...EvaluatorOption) Evaluator {
	cfg := applyEvaluatorOptions(opts)
	e := &celEvaluator{cache: cfg.cache, registry: cfg.registry}
	e.env, e.envErr = e.buildEnv()
	return e
}

func (e *celEvaluator) Engine() string { return EngineCEL }

func (e *celEvaluator) Evaluate(in Input, selector string) (any, error) {
	compiled, err := e.Compile(selector)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(in)
}

func (e *celEvaluator) Compile(selector string) (CompiledSelector, error) {
	if selector == "" {
		return nil, wrapEvaluatorError(EngineCEL, ErrEmptySelector)
	}
	if e.envErr != nil {
		return nil, wrapEvaluatorError(EngineCEL, e.envErr)
	}
	program, err := e.loadOrCompile(selector)
	if err != nil {
		return nil, err
	}
	return &celCompiledSelector{program: program, selector: selector}, nil
}

func (e *celEvaluator) loadOrCompile(selector string) (celgo.Program, error) {
	key := cacheKey(EngineCEL, selector)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}

	ast, issues := e.env.Compile(selector)
	if issues != nil && issues.Err() != nil {
		return nil, wrapEvaluationError(EngineCEL, selector, "", issues.Err())
	}
	program, err := e.env.Program(ast)
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, selector, "", err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

func (e *celEvaluator) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("event", celgo.StringType),
		celgo.Variable("properties", celgo.MapType(celgo.StringType, celgo.DynType)),
		celgo.Variable("event_time", celgo.TimestampType),
	}
	for _, name := range e.registry.Names() {
		overloads := make([]celgo.FunctionOpt, 0, maxCELArity+1)
		for arity := 0; arity <= maxCELArity; arity++ {
			args := make([]*celgo.Type, arity)
			for i := range args {
				args[i] = celgo.DynType
			}
			overloads = append(overloads, celgo.Overload(
				fmt.Sprintf("%s_dyn_%d", name, arity),
				args,
				celgo.DynType,
				celgo.FunctionBinding(e.callBinding(name)),
			))
		}
		opts = append(opts, celgo.Function(name, overloads...))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) callBinding(name string) func(values ...ref.Val) ref.Val {
	registry := e.registry
	return func(values ...ref.Val) ref.Val {
		args := make([]any, 0, len(values))
		for _, val := range values {
			args = append(args, val.Value())
		}
		result, err := registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}

type celCompiledSelector struct {
	program  celgo.Program
	selector string
}

func (s *celCompiledSelector) Evaluate(in Input) (any, error) {
	in = in.withDefaults()
	out, _, err := s.program.Eval(in.bindings())
	if err != nil {
		return nil, wrapEvaluationError(EngineCEL, s.selector, in.Event, err)
	}
	return out.Value(), nil
}
