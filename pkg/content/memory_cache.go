package content

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-analytics/internal/hydrate"
	"github.com/goliatone/go-analytics/pkg/props"
	"github.com/goliatone/go-analytics/pkg/trigger"
	"go.uber.org/zap"
)

var ErrInvalidContent = errors.New("content: invalid content")

// Results is one batch of remote results.
type Results struct {
	Contents []Content
	Variants []props.Value
	// AutomaticEvents, when set, overrides whether automatic events are
	// tracked.
	AutomaticEvents *bool
}

// MemoryCache is the reference Cache implementation. Content ids already seen
// are never offered again.
type MemoryCache struct {
	mu              sync.Mutex
	distinctID      string
	unseen          []Content
	seen            map[int64]struct{}
	variants        []props.Value
	automaticEvents bool
	listener        func()

	matcher *trigger.Matcher
	decoder *hydrate.Decoder[Content]
	logger  *zap.Logger
}

// CacheOption configures a MemoryCache.
type CacheOption func(*MemoryCache)

// WithMatcher sets the selector matcher used by ContentForEvent.
func WithMatcher(m *trigger.Matcher) CacheOption {
	return func(c *MemoryCache) {
		if m != nil {
			c.matcher = m
		}
	}
}

// WithLogger sets the cache logger.
func WithLogger(logger *zap.Logger) CacheOption {
	return func(c *MemoryCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSeen excludes ids that were already shown.
func WithSeen(ids ...int64) CacheOption {
	return func(c *MemoryCache) {
		for _, id := range ids {
			c.seen[id] = struct{}{}
		}
	}
}

func NewMemoryCache(opts ...CacheOption) *MemoryCache {
	c := &MemoryCache{
		seen:            map[int64]struct{}{},
		automaticEvents: true,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.matcher == nil {
		c.matcher = trigger.NewMatcher(nil, trigger.WithEvaluatorLogger(trigger.ZapEvaluatorLogger(c.logger)))
	}
	c.decoder = hydrate.NewDecoder[Content](
		hydrate.WithPreHook[Content](normalizeKind),
		hydrate.WithPostHook[Content](validateContent),
	)
	return c
}

func normalizeKind(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	if kind, ok := payload["type"].(string); ok {
		payload["type"] = strings.ToLower(strings.TrimSpace(kind))
	}
	return payload, nil
}

func validateContent(_ hydrate.Context, c *Content) error {
	if c.ID <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidContent)
	}
	if !c.Kind.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidContent, c.Kind)
	}
	for _, t := range c.Triggers {
		if t.Event == "" {
			return fmt.Errorf("%w: trigger without event", ErrInvalidContent)
		}
	}
	return nil
}

// LoadJSON decodes a JSON array of content and stores it as the current
// results. Invalid entries are skipped and logged.
func (c *MemoryCache) LoadJSON(raw []byte) error {
	contents, err := c.decoder.DecodeList(hydrate.Context{Source: "results"}, raw)
	if err != nil {
		if contents == nil {
			return err
		}
		c.logger.Warn("skipping invalid content", zap.Error(err))
	}
	c.Update(Results{Contents: contents})
	return nil
}

// Update replaces the pending results. Content whose id was already seen is
// dropped.
func (c *MemoryCache) Update(results Results) {
	c.mu.Lock()
	unseen := make([]Content, 0, len(results.Contents))
	for _, item := range results.Contents {
		if _, done := c.seen[item.ID]; done {
			continue
		}
		unseen = append(unseen, item)
	}
	c.unseen = unseen
	if results.Variants != nil {
		c.variants = append([]props.Value(nil), results.Variants...)
	}
	if results.AutomaticEvents != nil {
		c.automaticEvents = *results.AutomaticEvents
	}
	listener := c.listener
	hasUpdates := len(c.unseen) > 0 || len(c.variants) > 0
	c.mu.Unlock()

	c.logger.Debug("results updated", zap.Int("content", len(unseen)))
	if listener != nil && hasUpdates {
		listener()
	}
}

func (c *MemoryCache) SetResultsListener(fn func()) {
	c.mu.Lock()
	c.listener = fn
	c.mu.Unlock()
}

func (c *MemoryCache) AvailableContent(testMode bool) (Content, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.unseen {
		if item.EventTriggered() {
			continue
		}
		return c.take(i, testMode), true
	}
	return Content{}, false
}

func (c *MemoryCache) ContentByID(id int64, testMode bool) (Content, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, item := range c.unseen {
		if item.ID == id {
			return c.take(i, testMode), true
		}
	}
	return Content{}, false
}

// ContentForEvent returns the first unseen content with a trigger matching
// the event. Selector failures are logged and treated as no match.
func (c *MemoryCache) ContentForEvent(event trigger.Input, testMode bool) (Content, bool) {
	c.mu.Lock()
	candidates := make([]Content, len(c.unseen))
	copy(candidates, c.unseen)
	c.mu.Unlock()

	for _, item := range candidates {
		if !c.matches(item, event) {
			continue
		}
		c.mu.Lock()
		for i, current := range c.unseen {
			if current.ID == item.ID {
				taken := c.take(i, testMode)
				c.mu.Unlock()
				return taken, true
			}
		}
		c.mu.Unlock()
	}
	return Content{}, false
}

func (c *MemoryCache) matches(item Content, event trigger.Input) bool {
	for _, t := range item.Triggers {
		if t.Event != event.Event {
			continue
		}
		ok, err := c.matcher.Match(event, t.Selector)
		if err != nil {
			c.logger.Warn("display trigger failed", zap.Int64("content_id", item.ID), zap.Error(err))
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// take returns unseen[i], consuming it unless testMode. Callers hold mu.
func (c *MemoryCache) take(i int, testMode bool) Content {
	item := c.unseen[i]
	if testMode {
		return item
	}
	c.unseen = append(c.unseen[:i:i], c.unseen[i+1:]...)
	c.seen[item.ID] = struct{}{}
	return item
}

// MarkAsUnseen offers c again, ahead of other pending content.
func (c *MemoryCache) MarkAsUnseen(item Content) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.seen, item.ID)
	for _, current := range c.unseen {
		if current.ID == item.ID {
			return
		}
	}
	c.unseen = append([]Content{item}, c.unseen...)
}

func (c *MemoryCache) HasUpdatesAvailable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.unseen) > 0 || len(c.variants) > 0
}

func (c *MemoryCache) Variants() []props.Value {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]props.Value, len(c.variants))
	for i, v := range c.variants {
		out[i] = v.Clone()
	}
	return out
}

// SetDistinctID switches the cache to another user, dropping results that
// belong to the previous one.
func (c *MemoryCache) SetDistinctID(distinctID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.distinctID == distinctID {
		return
	}
	if c.distinctID != "" {
		c.unseen = nil
		c.variants = nil
	}
	c.distinctID = distinctID
}

func (c *MemoryCache) DistinctID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.distinctID
}

func (c *MemoryCache) ShouldTrackAutomaticEvents() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.automaticEvents
}
