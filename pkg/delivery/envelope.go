package delivery

import (
	"time"

	"github.com/goliatone/go-analytics/pkg/props"
)

// EventEnvelope is one tracked event ready for delivery.
type EventEnvelope struct {
	Token      string
	Event      string
	Properties props.Properties
	Time       time.Time
	Automatic  bool
	SessionID  string
	SessionSeq int64
}

// Message renders the wire object `{"event": ..., "properties": {...}}`.
func (e EventEnvelope) Message() props.Properties {
	var out props.Properties
	out.Set("event", props.String(e.Event))
	out.Set("properties", props.Map(e.Properties))
	return out
}

// ProfileUpdate is one people (profile) operation. Anonymous updates were
// built before the profile was identified and wait for a pending merge.
type ProfileUpdate struct {
	Token      string
	DistinctID string
	Action     string
	Anonymous  bool
	Message    props.Properties
}

// GroupUpdate is one group profile operation.
type GroupUpdate struct {
	Token    string
	GroupKey string
	GroupID  props.Value
	Action   string
	Message  props.Properties
}
