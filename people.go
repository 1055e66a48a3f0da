package analytics

import (
	"sort"
	"strings"

	"github.com/goliatone/go-analytics/pkg/delivery"
	"github.com/goliatone/go-analytics/pkg/props"
	"go.uber.org/zap"
)

// engageTimeLayout formats $time inside profile list entries.
const engageTimeLayout = "2006-01-02T15:04:05"

// People updates the profile of the current user. Updates made before
// People.Identify are queued as anonymous and merged once an id is known.
type People struct {
	client  *Client
	fixedID string
}

// People returns the profile handle for the people distinct id.
func (c *Client) People() *People {
	return &People{client: c}
}

// WithIdentity returns a handle whose updates always target distinctID. It
// returns nil for an empty id.
func (p *People) WithIdentity(distinctID string) *People {
	if distinctID == "" {
		return nil
	}
	return &People{client: p.client, fixedID: distinctID}
}

// Identify sets the people distinct id and merges pending anonymous updates
// into that profile.
func (p *People) Identify(distinctID string) {
	c := p.client
	if c.optedOut.Load() {
		return
	}
	if p.fixedID != "" {
		c.logger.Error("identify called on a people handle with a fixed distinct id", zap.String("distinct_id", p.fixedID))
		return
	}
	distinctID = strings.TrimSpace(distinctID)
	if distinctID == "" {
		c.logger.Warn("people identify called with an empty distinct id")
		return
	}

	c.identityMu.Lock()
	c.mutateIdentityLocked(func(r *IdentityRecord) {
		r.PeopleDistinctID = distinctID
	})
	c.cache.SetDistinctID(distinctID)
	c.identityMu.Unlock()

	c.queue.EnqueuePendingProfileMerge(c.ctx, c.token, distinctID)
}

// DistinctID returns the profile id updates are sent to, or an empty string
// before Identify.
func (p *People) DistinctID() string {
	if p.fixedID != "" {
		return p.fixedID
	}
	return p.client.identitySnapshot().PeopleDistinctID
}

func (p *People) IsIdentified() bool {
	return p.DistinctID() != ""
}

// Set sets one profile property.
func (p *People) Set(name string, value props.Value) {
	var properties props.Properties
	properties.Set(name, value)
	p.SetProperties(properties)
}

// SetProperties sets profile properties on top of the device description.
func (p *People) SetProperties(properties props.Properties) {
	send := p.client.deviceInfo.Clone()
	send.Merge(properties)
	p.record("$set", props.Map(send))
}

func (p *People) SetMap(properties map[string]any) {
	if converted, ok := p.convert(properties); ok {
		p.SetProperties(converted)
	}
}

// SetOnce sets name unless the profile already has it.
func (p *People) SetOnce(name string, value props.Value) {
	var properties props.Properties
	properties.Set(name, value)
	p.SetOnceProperties(properties)
}

func (p *People) SetOnceProperties(properties props.Properties) {
	p.record("$set_once", props.Map(properties))
}

func (p *People) SetOnceMap(properties map[string]any) {
	if converted, ok := p.convert(properties); ok {
		p.SetOnceProperties(converted)
	}
}

// Increment adds by to a numeric profile property.
func (p *People) Increment(name string, by float64) {
	p.IncrementMap(map[string]float64{name: by})
}

func (p *People) IncrementMap(properties map[string]float64) {
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)
	var out props.Properties
	for _, name := range names {
		out.Set(name, props.Float(properties[name]))
	}
	p.record("$add", props.Map(out))
}

// Merge merges updates into a map-valued profile property.
func (p *People) Merge(name string, updates props.Properties) {
	var out props.Properties
	out.Set(name, props.Map(updates))
	p.record("$merge", props.Map(out))
}

// Append appends value to a list-valued profile property.
func (p *People) Append(name string, value props.Value) {
	var out props.Properties
	out.Set(name, value)
	p.record("$append", props.Map(out))
}

// Union adds the values missing from a list-valued profile property.
func (p *People) Union(name string, values ...props.Value) {
	var out props.Properties
	out.Set(name, props.List(values...))
	p.record("$union", props.Map(out))
}

// Remove removes value from a list-valued profile property.
func (p *People) Remove(name string, value props.Value) {
	var out props.Properties
	out.Set(name, value)
	p.record("$remove", props.Map(out))
}

func (p *People) Unset(name string) {
	p.record("$unset", props.List(props.String(name)))
}

// TrackCharge appends a transaction of amount to $transactions.
func (p *People) TrackCharge(amount float64, properties props.Properties) {
	var transaction props.Properties
	transaction.Set("$amount", props.Float(amount))
	transaction.Set("$time", props.String(p.client.now().UTC().Format(engageTimeLayout)))
	transaction.Merge(properties)
	p.Append("$transactions", props.Map(transaction))
}

func (p *People) ClearCharges() {
	p.Unset("$transactions")
}

// DeleteUser deletes the profile.
func (p *People) DeleteUser() {
	p.record("$delete", props.Null())
}

func (p *People) convert(properties map[string]any) (props.Properties, bool) {
	converted, err := props.FromMap(properties)
	if err != nil {
		p.client.logger.Warn("profile update dropped", zap.Error(err))
		return props.Properties{}, false
	}
	return converted, true
}

func (p *People) record(action string, payload props.Value) {
	c := p.client
	if c.optedOut.Load() {
		return
	}
	identity := c.identitySnapshot()
	distinctID := p.fixedID
	if distinctID == "" {
		distinctID = identity.PeopleDistinctID
	}

	var message props.Properties
	message.Set(action, payload)
	message.Set("$token", props.String(c.token))
	message.Set("$time", props.Int(c.now().UnixMilli()))
	message.Set("$had_persisted_distinct_id", props.Bool(identity.HadPersistedDistinctID))
	if identity.AnonymousID != "" {
		message.Set("$device_id", props.String(identity.AnonymousID))
	}
	if distinctID != "" {
		message.Set("$distinct_id", props.String(distinctID))
		message.Set("$user_id", props.String(distinctID))
	}
	message.Set("$mp_metadata", c.session.peopleMetadata())

	c.queue.EnqueueProfileUpdate(c.ctx, delivery.ProfileUpdate{
		Token:      c.token,
		DistinctID: distinctID,
		Action:     action,
		Anonymous:  distinctID == "",
		Message:    message,
	})
}
