package trigger

import (
	"fmt"
	"strings"
	"sync"
)

const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// Evaluator executes selectors against an Input.
type Evaluator interface {
	Engine() string
	Evaluate(in Input, selector string) (any, error)
	Compile(selector string) (CompiledSelector, error)
}

// CompiledSelector is a reusable selector program.
type CompiledSelector interface {
	Evaluate(in Input) (any, error)
}

// ProgramCache stores compiled selector programs keyed by engine and selector.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// MemoryProgramCache is a ProgramCache backed by a guarded map.
type MemoryProgramCache struct {
	mu       sync.RWMutex
	programs map[string]any
}

func NewMemoryProgramCache() *MemoryProgramCache {
	return &MemoryProgramCache{programs: map[string]any{}}
}

func (c *MemoryProgramCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.programs[key]
	return v, ok
}

func (c *MemoryProgramCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.programs[key] = value
}

// Len reports the number of cached programs.
func (c *MemoryProgramCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.programs)
}

type evaluatorConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// EvaluatorOption configures any engine.
type EvaluatorOption func(*evaluatorConfig)

// WithProgramCache wires a ProgramCache into the evaluator.
func WithProgramCache(cache ProgramCache) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry exposes the registry's functions to selectors.
func WithFunctionRegistry(registry *FunctionRegistry) EvaluatorOption {
	return func(cfg *evaluatorConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyEvaluatorOptions(opts []EvaluatorOption) evaluatorConfig {
	cfg := evaluatorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func cacheKey(engine, selector string) string {
	return engine + ":" + selector
}

// NewEvaluator returns the evaluator for engine. An empty engine selects expr.
func NewEvaluator(engine string, opts ...EvaluatorOption) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(opts...), nil
	case EngineCEL:
		return NewCELEvaluator(opts...), nil
	case EngineJS:
		if !jsEvaluatorAvailable() {
			return nil, ErrEngineUnavailable
		}
		return NewJSEvaluator(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

// ValidEngine reports whether engine names a known engine.
func ValidEngine(engine string) bool {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr, EngineCEL, EngineJS:
		return true
	default:
		return false
	}
}
