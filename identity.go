package analytics

import (
	"strings"

	"github.com/goliatone/go-analytics/pkg/activity"
	"github.com/goliatone/go-analytics/pkg/props"
	"github.com/goliatone/go-analytics/pkg/state"
	"go.uber.org/zap"
)

func (r IdentityRecord) decideID() string {
	if r.PeopleDistinctID != "" {
		return r.PeopleDistinctID
	}
	return r.EventsDistinctID
}

func (r IdentityRecord) userID() string {
	if r.EventsUserIDPresent {
		return r.EventsDistinctID
	}
	return ""
}

func (c *Client) loadIdentity() {
	c.identityMu.Lock()
	defer c.identityMu.Unlock()
	c.mutateIdentityLocked(func(r *IdentityRecord) {
		if r.EventsDistinctID == "" {
			r.EventsDistinctID = c.newID()
		}
	})
}

// mutateIdentityLocked must be called with identityMu held.
func (c *Client) mutateIdentityLocked(fn func(*IdentityRecord)) {
	mutate(c, c.storage.Identity, tokenRef(c.token, domainIdentity), &c.identity, fn)
}

func (c *Client) identitySnapshot() IdentityRecord {
	c.identityMu.Lock()
	defer c.identityMu.Unlock()
	return c.identity
}

func (c *Client) decideID() string {
	return c.identitySnapshot().decideID()
}

// DistinctID returns the id attached to tracked events. It is never empty.
func (c *Client) DistinctID() string {
	return c.identitySnapshot().EventsDistinctID
}

// AnonymousID returns the device id recorded by the first identify, or an
// empty string before that.
func (c *Client) AnonymousID() string {
	return c.identitySnapshot().AnonymousID
}

// UserID returns the distinct id when it was supplied through Identify.
func (c *Client) UserID() string {
	return c.identitySnapshot().userID()
}

// Identify attributes future events to distinctID. When the id changes an
// $identify event carrying the previous id as $anon_distinct_id is tracked.
func (c *Client) Identify(distinctID string) {
	c.identify(distinctID, true)
}

func (c *Client) identify(distinctID string, markAsUserID bool) {
	if c.optedOut.Load() {
		return
	}
	distinctID = strings.TrimSpace(distinctID)
	if distinctID == "" {
		c.logger.Warn("identify called with an empty distinct id")
		return
	}

	c.identityMu.Lock()
	previous := c.identity.EventsDistinctID
	c.mutateIdentityLocked(func(r *IdentityRecord) {
		previous = r.EventsDistinctID
		if r.AnonymousID == "" {
			r.AnonymousID = previous
			r.HadPersistedDistinctID = true
		}
		r.EventsDistinctID = distinctID
		if markAsUserID {
			r.EventsUserIDPresent = true
		}
	})
	snapshot := c.identity
	c.cache.SetDistinctID(snapshot.decideID())

	changed := distinctID != previous
	var event trackedEvent
	if changed {
		var p props.Properties
		p.Set("$anon_distinct_id", props.String(previous))
		event = c.enqueueEvent("$identify", p, false, snapshot)
	}
	c.identityMu.Unlock()

	if !changed {
		return
	}
	c.presentForEvent(event)
	c.emit(activity.BuildIdentifiedEvent(activity.IdentityEventInput{
		Token:      c.token,
		DistinctID: distinctID,
		PreviousID: previous,
		UserID:     snapshot.userID(),
	}))
}

// Alias maps alias to original on the server. An empty original means the
// current distinct id. Identical ids are rejected.
func (c *Client) Alias(alias, original string) {
	if c.optedOut.Load() {
		return
	}
	if original == "" {
		original = c.DistinctID()
	}
	if alias == original {
		c.logger.Warn("alias not sent", zap.String("alias", alias), zap.Error(ErrIdenticalAlias))
		return
	}

	var p props.Properties
	p.Set("alias", props.String(alias))
	p.Set("original", props.String(original))
	c.TrackProperties("$create_alias", p)
	c.Flush()
	c.emit(activity.BuildAliasedEvent(activity.IdentityEventInput{
		Token:      c.token,
		DistinctID: alias,
		PreviousID: original,
	}))
}

// Reset forgets the identity, super properties, timed events and group
// handles, then continues under a fresh anonymous id. Referrer properties
// are kept. It does nothing while tracking is opted out, since opting out
// already cleared the same state.
func (c *Client) Reset() {
	if c.optedOut.Load() {
		return
	}
	previous := c.DistinctID()
	fresh := c.clearLocalState()
	c.queue.ClearAnonymousUpdates(c.ctx, c.token)
	c.identify(fresh, false)
	c.cache.SetDistinctID(c.decideID())
	c.Flush()
	c.emit(activity.BuildResetEvent(activity.IdentityEventInput{
		Token:      c.token,
		DistinctID: fresh,
		PreviousID: previous,
	}))
}

// clearLocalState drops identity, super properties, timed events and group
// handles and returns the new anonymous distinct id.
func (c *Client) clearLocalState() string {
	fresh := c.newID()
	c.identityMu.Lock()
	c.mutateIdentityLocked(func(r *IdentityRecord) {
		*r = IdentityRecord{EventsDistinctID: fresh}
	})
	c.identityMu.Unlock()

	c.clearTimings()
	c.mutateSuper(func(p *props.Properties) {
		*p = props.Properties{}
	})
	c.groupsMu.Lock()
	c.groups = map[string]*Group{}
	c.groupsMu.Unlock()
	return fresh
}

// HasOptedOutTracking reports whether tracking is disabled for the token.
func (c *Client) HasOptedOutTracking() bool {
	return c.optedOut.Load()
}

// OptOutTracking purges queued messages, deletes an identified profile and
// clears local state including referrer properties. The distinct id becomes
// a fresh anonymous id.
func (c *Client) OptOutTracking() {
	previous := c.DistinctID()
	c.queue.PurgeQueues(c.ctx, c.token)
	people := c.People()
	if people.IsIdentified() {
		people.DeleteUser()
		people.ClearCharges()
	}

	fresh := c.clearLocalState()
	mutate(c, c.storage.Properties, state.Global(domainReferrer), &props.Properties{}, func(p *props.Properties) {
		*p = props.Properties{}
	})
	c.mutateFlags(func(r *FlagsRecord) {
		r.OptedOut = true
		r.OptOutSet = true
	})
	c.optedOut.Store(true)
	c.cache.SetDistinctID(fresh)

	c.logger.Info("tracking opted out")
	c.emit(activity.BuildOptedOutEvent(activity.TrackingEventInput{
		Token:      c.token,
		DistinctID: previous,
	}))
}

// OptInTracking re-enables tracking, identifies distinctID when it is not
// empty and tracks $opt_in with properties.
func (c *Client) OptInTracking(distinctID string, properties props.Properties) {
	c.mutateFlags(func(r *FlagsRecord) {
		r.OptedOut = false
		r.OptOutSet = true
	})
	c.optedOut.Store(false)
	if distinctID != "" {
		c.Identify(distinctID)
	}
	c.TrackProperties("$opt_in", properties)

	c.logger.Info("tracking opted in")
	c.emit(activity.BuildOptedInEvent(activity.TrackingEventInput{
		Token:      c.token,
		DistinctID: c.DistinctID(),
	}))
}
