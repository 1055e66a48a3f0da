package analytics

import (
	"time"

	"github.com/goliatone/go-analytics/pkg/props"
	"go.uber.org/atomic"
)

// session numbers the messages sent during one client lifetime.
type session struct {
	id        string
	startedAt time.Time
	events    atomic.Int64
	people    atomic.Int64
}

func newSession(id string, startedAt time.Time) *session {
	return &session{id: id, startedAt: startedAt}
}

// nextEvent returns the sequence number of the next event.
func (s *session) nextEvent() int64 {
	return s.events.Inc()
}

// peopleMetadata returns the $mp_metadata attached to profile and group
// updates.
func (s *session) peopleMetadata() props.Value {
	var out props.Properties
	out.Set("$mp_session_id", props.String(s.id))
	out.Set("$mp_session_seq_id", props.Int(s.people.Inc()))
	out.Set("$mp_session_start_sec", props.Int(s.startedAt.Unix()))
	return props.Map(out)
}
