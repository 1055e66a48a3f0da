package analytics

import (
	"github.com/goliatone/go-analytics/pkg/activity"
	"github.com/goliatone/go-analytics/pkg/delivery"
	"github.com/goliatone/go-analytics/pkg/props"
	"go.uber.org/zap"
)

// SetGroup records the groups the user belongs to for groupKey, both as a
// super property and as a profile property. Null ids are skipped.
//
// The super property and the profile are written independently. A failure
// between the two writes leaves them out of sync until the next update.
func (c *Client) SetGroup(groupKey string, groupIDs ...props.Value) {
	if c.optedOut.Load() {
		return
	}
	ids := make([]props.Value, 0, len(groupIDs))
	for _, id := range groupIDs {
		if id.IsNull() {
			c.logger.Warn("group id must not be null", zap.String("group_key", groupKey))
			continue
		}
		ids = append(ids, id)
	}
	if groupKey == "" {
		c.logger.Warn("group key must not be empty")
		return
	}
	list := props.List(ids...)
	c.mutateSuper(func(p *props.Properties) {
		p.Set(groupKey, list)
	})
	c.People().Set(groupKey, list)
}

// AddGroup appends groupID to the groups registered for groupKey and
// unions it into the profile property.
func (c *Client) AddGroup(groupKey string, groupID props.Value) {
	if c.optedOut.Load() || groupKey == "" {
		return
	}
	c.mutateSuper(func(p *props.Properties) {
		existing, ok := p.Get(groupKey)
		if !ok {
			p.Set(groupKey, props.List(groupID))
			return
		}
		values, isList := existing.AsList()
		if !isList {
			values = []props.Value{existing}
		}
		for _, v := range values {
			if v.Equal(groupID) {
				return
			}
		}
		p.Set(groupKey, props.List(append(values, groupID)...))
	})
	c.People().Union(groupKey, groupID)
}

// RemoveGroup removes groupID from the groups registered for groupKey. The
// key is unregistered once no group is left.
func (c *Client) RemoveGroup(groupKey string, groupID props.Value) {
	if c.optedOut.Load() || groupKey == "" {
		return
	}
	emptied := false
	c.mutateSuper(func(p *props.Properties) {
		emptied = false
		existing, ok := p.Get(groupKey)
		values, isList := existing.AsList()
		if !ok || !isList {
			p.Delete(groupKey)
			emptied = true
			return
		}
		kept := make([]props.Value, 0, len(values))
		for _, v := range values {
			if !v.Equal(groupID) {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			p.Delete(groupKey)
			emptied = true
			return
		}
		p.Set(groupKey, props.List(kept...))
	})

	if emptied {
		c.People().Unset(groupKey)
		return
	}
	c.People().Remove(groupKey, groupID)
}

func groupMapKey(groupKey string, groupID props.Value) string {
	return groupKey + "_" + groupID.String()
}

// Group returns the handle for (groupKey, groupID). Handles are reused while
// their derived key maps to the same pair; a pair whose derived key collides
// with another replaces the cached handle.
func (c *Client) Group(groupKey string, groupID props.Value) *Group {
	key := groupMapKey(groupKey, groupID)
	c.groupsMu.Lock()
	defer c.groupsMu.Unlock()

	group, ok := c.groups[key]
	if ok && group.key == groupKey && group.id.Equal(groupID) {
		return group
	}
	if ok {
		c.logger.Warn("group map key collision", zap.String("map_key", key))
	}
	group = &Group{client: c, key: groupKey, id: groupID.Clone()}
	c.groups[key] = group
	return group
}

func (c *Client) evictGroup(group *Group) {
	key := groupMapKey(group.key, group.id)
	c.groupsMu.Lock()
	if c.groups[key] == group {
		delete(c.groups, key)
	}
	c.groupsMu.Unlock()
}

// Group updates the profile of one group.
type Group struct {
	client *Client
	key    string
	id     props.Value
}

// Key returns the group key the handle was created for.
func (g *Group) Key() string { return g.key }

// ID returns a copy of the group id.
func (g *Group) ID() props.Value { return g.id.Clone() }

// Set records a $set of name on the group profile.
func (g *Group) Set(name string, value props.Value) {
	var p props.Properties
	p.Set(name, value)
	g.SetProperties(p)
}

// SetProperties records a $set of every property.
func (g *Group) SetProperties(properties props.Properties) {
	g.record("$set", props.Map(properties))
}

// SetMap is SetProperties for a plain map. Nothing is sent when a value
// cannot be represented.
func (g *Group) SetMap(properties map[string]any) {
	p, err := props.FromMap(properties)
	if err != nil {
		g.client.logger.Warn("group update dropped", zap.Error(err))
		return
	}
	g.SetProperties(p)
}

// SetOnce sets name only if the group profile has no value for it yet.
func (g *Group) SetOnce(name string, value props.Value) {
	var p props.Properties
	p.Set(name, value)
	g.SetOnceProperties(p)
}

// SetOnceProperties records a $set_once of every property.
func (g *Group) SetOnceProperties(properties props.Properties) {
	g.record("$set_once", props.Map(properties))
}

// SetOnceMap is SetOnceProperties for a plain map.
func (g *Group) SetOnceMap(properties map[string]any) {
	p, err := props.FromMap(properties)
	if err != nil {
		g.client.logger.Warn("group update dropped", zap.Error(err))
		return
	}
	g.SetOnceProperties(p)
}

// Union adds values to the list property name, skipping duplicates.
func (g *Group) Union(name string, values ...props.Value) {
	var p props.Properties
	p.Set(name, props.List(values...))
	g.record("$union", props.Map(p))
}

// Remove drops value from the list property name.
func (g *Group) Remove(name string, value props.Value) {
	var p props.Properties
	p.Set(name, value)
	g.record("$remove", props.Map(p))
}

// Unset deletes name from the group profile.
func (g *Group) Unset(name string) {
	g.record("$unset", props.List(props.String(name)))
}

// DeleteGroup deletes the group profile and forgets the handle.
func (g *Group) DeleteGroup() {
	c := g.client
	if c.optedOut.Load() {
		return
	}
	g.record("$delete", props.Null())
	c.evictGroup(g)
	c.emit(activity.BuildGroupDeletedEvent(activity.GroupEventInput{
		Token:      c.token,
		DistinctID: c.DistinctID(),
		GroupKey:   g.key,
		GroupID:    g.id.String(),
	}))
}

func (g *Group) record(action string, payload props.Value) {
	c := g.client
	if c.optedOut.Load() {
		return
	}
	var message props.Properties
	message.Set(action, payload)
	message.Set("$token", props.String(c.token))
	message.Set("$time", props.Int(c.now().UnixMilli()))
	message.Set("$group_key", props.String(g.key))
	message.Set("$group_id", g.id.Clone())
	message.Set("$mp_metadata", c.session.peopleMetadata())

	c.queue.EnqueueGroupUpdate(c.ctx, delivery.GroupUpdate{
		Token:    c.token,
		GroupKey: g.key,
		GroupID:  g.id.Clone(),
		Action:   action,
		Message:  message,
	})
}
