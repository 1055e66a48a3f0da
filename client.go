package analytics

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-analytics/pkg/activity"
	"github.com/goliatone/go-analytics/pkg/content"
	"github.com/goliatone/go-analytics/pkg/delivery"
	"github.com/goliatone/go-analytics/pkg/display"
	"github.com/goliatone/go-analytics/pkg/props"
	"github.com/goliatone/go-analytics/pkg/state"
	"github.com/goliatone/go-analytics/pkg/trigger"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Client tracks events and profile updates for one project token.
//
// Tracking and profile calls never return errors: malformed input is logged
// and dropped. Every mutating call is a no-op while tracking is opted out.
// Locks are taken in the order identity, timings, super properties and are
// never held while calling into the display host.
type Client struct {
	token  string
	name   string
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
	newID  func() string

	ctx    context.Context
	cancel context.CancelFunc

	queue       delivery.Queue
	cache       content.Cache
	host        display.Host
	coordinator *display.Coordinator
	storage     Storage
	emitter     *activity.Emitter
	session     *session
	hub         *updateHub
	deviceInfo  props.Properties

	identityMu sync.Mutex
	identity   IdentityRecord

	superMu sync.Mutex
	super   props.Properties

	timingsMu sync.Mutex
	timings   Timings

	groupsMu sync.Mutex
	groups   map[string]*Group

	flagsMu sync.Mutex
	flags   FlagsRecord

	optedOut atomic.Bool
	closed   atomic.Bool
}

// New builds a client for token. Lifecycle events ($ae_first_open,
// $app_open, $ae_updated) are tracked before New returns.
func New(token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenRequired
	}
	cfg := applyOptions(opts)
	if err := cfg.config.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.logger.Named("analytics").With(zap.String("token", token))
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		token:      token,
		name:       cfg.name,
		cfg:        cfg.config,
		logger:     logger,
		now:        cfg.now,
		newID:      cfg.newID,
		ctx:        ctx,
		cancel:     cancel,
		queue:      cfg.queue,
		cache:      cfg.cache,
		host:       cfg.host,
		storage:    cfg.storage,
		emitter:    newEmitter(token, cfg),
		session:    newSession(cfg.newID(), cfg.now()),
		deviceInfo: cfg.config.deviceProperties(),
		groups:     map[string]*Group{},
	}

	c.loadFlags()
	c.optedOut.Store(c.flags.OptedOut)

	if c.cache == nil {
		cache, err := newContentCache(cfg, c.flags.SeenContentIDs)
		if err != nil {
			cancel()
			return nil, err
		}
		c.cache = cache
	}
	c.coordinator = cfg.coordinator
	if c.coordinator == nil {
		c.coordinator = display.NewCoordinator(
			display.WithClaimTimeout(cfg.config.ClaimTimeout),
			display.WithLogger(cfg.logger),
			display.WithClock(cfg.now),
			display.WithFinishHook(c.onDisplayFinished),
		)
	}

	c.loadIdentity()
	c.loadSuperProperties()
	c.loadTimings()

	c.hub = newUpdateHub(c.cache.HasUpdatesAvailable, logger)
	if notifier, ok := c.cache.(content.ResultsNotifier); ok {
		notifier.SetResultsListener(c.hub.signal)
	}

	if cfg.config.OptOutTrackingDefault && (c.flags.OptedOut || !c.flags.OptOutSet) {
		c.OptOutTracking()
	}
	c.cache.SetDistinctID(c.decideID())
	c.trackLifecycle()

	logger.Debug("client ready", zap.String("distinct_id", c.DistinctID()), zap.Bool("opted_out", c.optedOut.Load()))
	return c, nil
}

func newContentCache(cfg clientConfig, seen []int64) (*content.MemoryCache, error) {
	evaluator, err := trigger.NewEvaluator(cfg.config.TriggerEngine,
		trigger.WithProgramCache(cfg.programs),
		trigger.WithFunctionRegistry(cfg.functions),
	)
	if err != nil {
		return nil, fmt.Errorf("analytics: trigger engine: %w", err)
	}
	matcher := trigger.NewMatcher(evaluator, trigger.WithEvaluatorLogger(trigger.ZapEvaluatorLogger(cfg.logger)))
	return content.NewMemoryCache(
		content.WithMatcher(matcher),
		content.WithLogger(cfg.logger),
		content.WithSeen(seen...),
	), nil
}

// Token returns the project token.
func (c *Client) Token() string { return c.token }

// InstanceName returns the name the client was registered under.
func (c *Client) InstanceName() string { return c.name }

// Flush asks the delivery queue to send everything queued for the token. It
// does nothing once the client is closed.
func (c *Client) Flush() {
	if c.optedOut.Load() || c.closed.Load() {
		return
	}
	c.queue.Flush(c.ctx, c.token)
}

// Close stops the update listener worker. It is safe to call more than once.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.hub.close()
	c.cancel()
	return nil
}

func (c *Client) trackLifecycle() {
	first := false
	mutate(c, c.storage.Flags, state.Global(domainLaunch), &FlagsRecord{}, func(r *FlagsRecord) {
		first = !r.HasLaunched
		r.HasLaunched = true
	})
	if first {
		c.track("$ae_first_open", props.Properties{}, true)
	}

	if !c.cfg.DisableAppOpenEvent {
		c.Track("$app_open")
	}

	code := c.cfg.AppVersionCode
	if code == "" {
		return
	}
	updated := false
	c.mutateFlags(func(r *FlagsRecord) {
		updated = r.AppVersionCode != "" && r.AppVersionCode != code
		r.AppVersionCode = code
	})
	if updated {
		var p props.Properties
		p.Set("$ae_updated_version", props.String(c.cfg.AppVersion))
		c.track("$ae_updated", p, true)
	}
}

func newEmitter(token string, cfg clientConfig) *activity.Emitter {
	activityCfg := cfg.activity
	activityCfg.Token = token
	activityCfg.Now = cfg.now
	return activity.NewEmitter(cfg.hooks, activityCfg)
}

func (c *Client) emit(event activity.Event) {
	if !c.emitter.Enabled() {
		return
	}
	if err := c.emitter.Emit(c.ctx, event); err != nil {
		c.logger.Warn("activity hook failed", zap.String("verb", event.Verb), zap.Error(err))
	}
}

// mutate read-modify-writes one durable snapshot and mirrors the saved value
// into current. When the store fails the change is applied to current only.
func mutate[T any](c *Client, store state.Store[T], ref state.Ref, current *T, fn func(*T)) {
	next, _, err := state.Mutate(c.ctx, store, ref, func(snapshot *T) error {
		fn(snapshot)
		return nil
	})
	if err != nil {
		c.logger.Warn("state not persisted", zap.String("domain", ref.Domain), zap.Error(err))
		fn(current)
		return
	}
	*current = next
}

func (c *Client) loadFlags() {
	c.flagsMu.Lock()
	defer c.flagsMu.Unlock()
	flags, _, _, err := c.storage.Flags.Load(c.ctx, tokenRef(c.token, domainFlags))
	if err != nil {
		c.logger.Warn("flags not loaded", zap.Error(err))
		return
	}
	c.flags = flags
}

func (c *Client) mutateFlags(fn func(*FlagsRecord)) {
	c.flagsMu.Lock()
	defer c.flagsMu.Unlock()
	mutate(c, c.storage.Flags, tokenRef(c.token, domainFlags), &c.flags, fn)
}
