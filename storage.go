package analytics

import (
	"github.com/goliatone/go-analytics/pkg/props"
	"github.com/goliatone/go-analytics/pkg/state"
)

const (
	domainIdentity = "identity"
	domainSuper    = "super_properties"
	domainReferrer = "referrer_properties"
	domainTimings  = "timed_events"
	domainFlags    = "flags"
	domainLaunch   = "launch"
)

// IdentityRecord is the persisted identity of one token.
type IdentityRecord struct {
	AnonymousID            string `json:"anonymous_id,omitempty"`
	EventsDistinctID       string `json:"events_distinct_id,omitempty"`
	PeopleDistinctID       string `json:"people_distinct_id,omitempty"`
	EventsUserIDPresent    bool   `json:"events_user_id_present,omitempty"`
	HadPersistedDistinctID bool   `json:"had_persisted_distinct_id,omitempty"`
}

// Timings maps event names to start times in unix milliseconds.
type Timings map[string]int64

func (t Timings) Clone() Timings {
	if t == nil {
		return nil
	}
	out := make(Timings, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// FlagsRecord holds per-token switches. The process-wide launch flag is kept
// in a FlagsRecord stored under state.Global.
type FlagsRecord struct {
	OptedOut       bool    `json:"opted_out,omitempty"`
	OptOutSet      bool    `json:"opt_out_set,omitempty"`
	SeenContentIDs []int64 `json:"seen_content_ids,omitempty"`
	AppVersionCode string  `json:"app_version_code,omitempty"`
	HasLaunched    bool    `json:"has_launched,omitempty"`
}

func (f FlagsRecord) Clone() FlagsRecord {
	out := f
	if f.SeenContentIDs != nil {
		out.SeenContentIDs = append([]int64(nil), f.SeenContentIDs...)
	}
	return out
}

func (f FlagsRecord) seen(id int64) bool {
	for _, existing := range f.SeenContentIDs {
		if existing == id {
			return true
		}
	}
	return false
}

// Storage bundles the durable stores a client reads and writes. Clients of
// one Registry share a single Storage; every snapshot is scoped by token
// except the referrer properties and the launch flag, which are process-wide.
type Storage struct {
	Identity   state.Store[IdentityRecord]
	Properties state.Store[props.Properties]
	Timings    state.Store[Timings]
	Flags      state.Store[FlagsRecord]
}

// NewMemoryStorage returns a Storage backed by state.MemoryStore.
func NewMemoryStorage() Storage {
	return Storage{
		Identity:   state.NewMemoryStore[IdentityRecord](),
		Properties: state.NewMemoryStore[props.Properties](),
		Timings:    state.NewMemoryStore[Timings](),
		Flags:      state.NewMemoryStore[FlagsRecord](),
	}
}

func (s Storage) withDefaults() Storage {
	if s.Identity == nil {
		s.Identity = state.NewMemoryStore[IdentityRecord]()
	}
	if s.Properties == nil {
		s.Properties = state.NewMemoryStore[props.Properties]()
	}
	if s.Timings == nil {
		s.Timings = state.NewMemoryStore[Timings]()
	}
	if s.Flags == nil {
		s.Flags = state.NewMemoryStore[FlagsRecord]()
	}
	return s
}

func tokenRef(token, domain string) state.Ref {
	return state.Ref{Token: token, Domain: domain}
}
