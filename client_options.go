package analytics

import (
	"time"

	"github.com/goliatone/go-analytics/pkg/activity"
	"github.com/goliatone/go-analytics/pkg/content"
	"github.com/goliatone/go-analytics/pkg/delivery"
	"github.com/goliatone/go-analytics/pkg/display"
	"github.com/goliatone/go-analytics/pkg/trigger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	config      Config
	name        string
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
	queue       delivery.Queue
	cache       content.Cache
	host        display.Host
	storage     Storage
	coordinator *display.Coordinator
	hooks       activity.Hooks
	activity    activity.Config
	programs    trigger.ProgramCache
	functions   *trigger.FunctionRegistry
}

// WithConfig applies a declarative configuration.
func WithConfig(cfg Config) Option {
	return func(c *clientConfig) {
		c.config = cfg
	}
}

// WithInstanceName distinguishes several clients sharing one token.
func WithInstanceName(name string) Option {
	return func(c *clientConfig) {
		c.name = name
	}
}

// WithLogger sets the zap logger. The client logs under the "analytics" name
// and its subsystems add their own; the default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides time.Now for timestamps, timed events and proposals.
func WithClock(now func() time.Time) Option {
	return func(c *clientConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithIDGenerator overrides how anonymous and session ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(c *clientConfig) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithQueue sets the delivery queue. The default discards everything.
func WithQueue(queue delivery.Queue) Option {
	return func(c *clientConfig) {
		if queue != nil {
			c.queue = queue
		}
	}
}

// WithCache sets the in-app content cache. By default a content.MemoryCache
// using the configured trigger engine is created.
func WithCache(cache content.Cache) Option {
	return func(c *clientConfig) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// WithHost sets the UI host used to present content. Without a host no
// content is ever presented.
func WithHost(host display.Host) Option {
	return func(c *clientConfig) {
		if host != nil {
			c.host = host
		}
	}
}

// WithStorage sets the durable stores. Nil stores fall back to memory.
func WithStorage(storage Storage) Option {
	return func(c *clientConfig) {
		c.storage = storage
	}
}

// WithCoordinator shares a display coordinator between clients.
func WithCoordinator(coordinator *display.Coordinator) Option {
	return func(c *clientConfig) {
		if coordinator != nil {
			c.coordinator = coordinator
		}
	}
}

// WithActivityHooks registers hooks notified of identity, tracking, group
// and display lifecycle events.
func WithActivityHooks(hooks ...activity.ActivityHook) Option {
	return func(c *clientConfig) {
		for _, hook := range hooks {
			if hook != nil {
				c.hooks = append(c.hooks, hook)
			}
		}
	}
}

// WithActivityChannel overrides the channel stamped on activity events.
func WithActivityChannel(channel string) Option {
	return func(c *clientConfig) {
		c.activity.Channel = channel
	}
}

// WithTriggerEngine selects the display trigger engine (expr, cel or js).
func WithTriggerEngine(engine string) Option {
	return func(c *clientConfig) {
		c.config.TriggerEngine = engine
	}
}

// WithTriggerFunction exposes fn to display trigger selectors under the
// lower-cased name. Duplicate names keep the first registration.
func WithTriggerFunction(name string, fn trigger.Function) Option {
	return func(c *clientConfig) {
		if c.functions == nil {
			c.functions = trigger.NewFunctionRegistry()
		}
		_ = c.functions.Register(name, fn)
	}
}

// WithTriggerFunctions replaces the selector functions with a copy of
// registry.
func WithTriggerFunctions(registry *trigger.FunctionRegistry) Option {
	return func(c *clientConfig) {
		if registry != nil {
			c.functions = registry.Clone()
		}
	}
}

// WithTriggerProgramCache shares compiled selector programs, e.g. between
// clients using the same engine. Each client gets its own memory cache by
// default.
func WithTriggerProgramCache(cache trigger.ProgramCache) Option {
	return func(c *clientConfig) {
		if cache != nil {
			c.programs = cache
		}
	}
}

func applyOptions(opts []Option) clientConfig {
	cfg := clientConfig{
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
		queue:  delivery.Discard,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.programs == nil {
		cfg.programs = trigger.NewMemoryProgramCache()
	}
	cfg.storage = cfg.storage.withDefaults()
	cfg.activity.Enabled = len(cfg.hooks) > 0
	return cfg
}
