package activity

import (
	"context"
	"strings"
	"time"
)

// DefaultChannel is stamped on SDK activity that names no channel.
const DefaultChannel = "analytics"

// Config is the per-client activity setup. Token is the project the client
// tracks for and Now its clock; both fill in events built without them.
type Config struct {
	Enabled bool
	Channel string
	Token   string
	Now     func() time.Time
}

// Emitter publishes one client's analytics lifecycle activity to the host's
// hooks. Every event leaves with a channel, the project token and a timestamp from
// the client clock, so sinks shared by several clients can tell them apart.
// An Emitter without hooks is disabled and never builds anything.
type Emitter struct {
	hooks   Hooks
	enabled bool
	channel string
	token   string
	now     func() time.Time
}

func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	normalized := cloneHooks(hooks)
	return &Emitter{
		hooks:   normalized,
		enabled: cfg.Enabled && len(normalized) > 0,
		channel: channel,
		token:   strings.TrimSpace(cfg.Token),
		now:     now,
	}
}

// Enabled reports whether emissions should be attempted. Callers check it
// before building metadata.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled && len(e.hooks) > 0
}

// Emit stamps the client defaults on event and hands it to every hook.
// Values already on the event win.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if strings.TrimSpace(event.Token) == "" {
		event.Token = e.token
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now()
	}
	return e.hooks.Notify(ctx, event)
}

func cloneHooks(hooks Hooks) Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			normalized = append(normalized, hook)
		}
	}
	return normalized
}
