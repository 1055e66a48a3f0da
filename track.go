package analytics

import (
	"strings"
	"time"

	"github.com/goliatone/go-analytics/layering"
	"github.com/goliatone/go-analytics/pkg/delivery"
	"github.com/goliatone/go-analytics/pkg/props"
	"github.com/goliatone/go-analytics/pkg/state"
	"github.com/goliatone/go-analytics/pkg/trigger"
	"go.uber.org/zap"
)

// trackedEvent is what the tracking path hands to content presentation.
type trackedEvent struct {
	input    trigger.Input
	enqueued bool
}

// Track sends an event without properties.
func (c *Client) Track(event string) {
	c.track(event, props.Properties{}, false)
}

// TrackProperties sends an event. Caller properties override super and
// reserved properties; null caller values are ignored.
func (c *Client) TrackProperties(event string, properties props.Properties) {
	c.track(event, properties, false)
}

// TrackMap converts properties with props.FromMap and sends the event. The
// event is dropped when a value cannot be represented.
func (c *Client) TrackMap(event string, properties map[string]any) {
	if c.optedOut.Load() {
		return
	}
	p, err := props.FromMap(properties)
	if err != nil {
		c.logger.Warn("event dropped", zap.String("event", event), zap.Error(err))
		return
	}
	c.track(event, p, false)
}

// TrackWithGroups sends an event whose properties include the non-null
// group values.
func (c *Client) TrackWithGroups(event string, properties, groups props.Properties) {
	if c.optedOut.Load() {
		return
	}
	merged := properties.Clone()
	groups.Range(func(key string, value props.Value) bool {
		if !value.IsNull() {
			merged.Set(key, value)
		}
		return true
	})
	c.track(event, merged, false)
}

func (c *Client) track(name string, properties props.Properties, automatic bool) {
	if c.optedOut.Load() {
		return
	}
	if automatic && !c.cache.ShouldTrackAutomaticEvents() {
		return
	}
	if strings.TrimSpace(name) == "" {
		c.logger.Warn("event dropped: empty name")
		return
	}
	event := c.enqueueEvent(name, properties, automatic, c.identitySnapshot())
	c.presentForEvent(event)
}

// enqueueEvent builds the outgoing properties for identity and hands the
// envelope to the queue. It consumes the timed event for name.
func (c *Client) enqueueEvent(name string, properties props.Properties, automatic bool, identity IdentityRecord) trackedEvent {
	now := c.now()
	start, timed := c.popTiming(name)

	var reserved props.Properties
	reserved.Set("time", props.Int(now.Unix()))
	reserved.Set("distinct_id", props.String(identity.EventsDistinctID))
	reserved.Set("$had_persisted_distinct_id", props.Bool(identity.HadPersistedDistinctID))
	if identity.AnonymousID != "" {
		reserved.Set("$device_id", props.String(identity.AnonymousID))
	}
	if userID := identity.userID(); userID != "" {
		reserved.Set("$user_id", props.String(userID))
	}
	if timed {
		reserved.Set("$duration", props.Float(durationSeconds(start, now)))
	}

	merged := layering.Merge(
		layering.Layer{Level: layering.LevelReferrer, Properties: c.referrerProperties()},
		layering.Layer{Level: layering.LevelSuper, Properties: c.SuperProperties()},
		layering.Layer{Level: layering.LevelReserved, Properties: reserved},
		layering.Layer{Level: layering.LevelCaller, Properties: properties, SkipNulls: true},
	)
	reserved.Range(func(key string, _ props.Value) bool {
		if source := merged.Source(key); source != layering.LevelReserved {
			c.logger.Debug("reserved property overridden",
				zap.String("event", name),
				zap.String("property", key),
				zap.Stringer("source", source),
			)
		}
		return true
	})

	c.queue.EnqueueEvent(c.ctx, delivery.EventEnvelope{
		Token:      c.token,
		Event:      name,
		Properties: merged.Properties,
		Time:       now,
		Automatic:  automatic,
		SessionID:  c.session.id,
		SessionSeq: c.session.nextEvent(),
	})
	return trackedEvent{
		input:    trigger.Input{Event: name, Properties: merged.Properties, Time: now},
		enqueued: true,
	}
}

func durationSeconds(startMillis int64, now time.Time) float64 {
	return float64(now.UnixMilli())/1000.0 - float64(startMillis)/1000.0
}

// presentForEvent offers content triggered by event when a container is in
// the foreground.
func (c *Client) presentForEvent(event trackedEvent) {
	if !event.enqueued || c.host == nil {
		return
	}
	if _, ok := c.host.CurrentContainer(); !ok {
		return
	}
	item, ok := c.cache.ContentForEvent(event.input, c.cfg.TestMode)
	if !ok {
		return
	}
	c.showGivenOrAvailable(&item, true)
}

// RegisterReferrerProperties stores install referrer properties. They are
// shared by every client on the same Storage and have the lowest precedence
// in tracked events.
func (c *Client) RegisterReferrerProperties(properties props.Properties) {
	if c.optedOut.Load() {
		return
	}
	mutate(c, c.storage.Properties, state.Global(domainReferrer), &props.Properties{}, func(p *props.Properties) {
		p.Merge(properties)
	})
}

func (c *Client) referrerProperties() props.Properties {
	p, _, _, err := c.storage.Properties.Load(c.ctx, state.Global(domainReferrer))
	if err != nil {
		c.logger.Warn("referrer properties not loaded", zap.Error(err))
		return props.Properties{}
	}
	return p
}
