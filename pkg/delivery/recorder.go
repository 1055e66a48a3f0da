package delivery

import (
	"context"
	"sync"

	"github.com/goliatone/go-analytics/pkg/props"
)

// Recorder is an in-memory Queue that keeps every message it receives. It
// applies purge, clear and merge operations to its recorded state so callers
// can assert on the resulting queue contents.
type Recorder struct {
	mu       sync.Mutex
	events   []EventEnvelope
	profiles []ProfileUpdate
	groups   []GroupUpdate
	flushes  map[string]int
	merges   []PendingMerge
}

// PendingMerge records one EnqueuePendingProfileMerge call.
type PendingMerge struct {
	Token      string
	DistinctID string
}

func NewRecorder() *Recorder {
	return &Recorder{flushes: map[string]int{}}
}

func (r *Recorder) EnqueueEvent(_ context.Context, event EventEnvelope) {
	event.Properties = event.Properties.Clone()
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *Recorder) EnqueueProfileUpdate(_ context.Context, update ProfileUpdate) {
	update.Message = update.Message.Clone()
	r.mu.Lock()
	r.profiles = append(r.profiles, update)
	r.mu.Unlock()
}

func (r *Recorder) EnqueueGroupUpdate(_ context.Context, update GroupUpdate) {
	update.Message = update.Message.Clone()
	r.mu.Lock()
	r.groups = append(r.groups, update)
	r.mu.Unlock()
}

// EnqueuePendingProfileMerge promotes the anonymous updates of token to
// identified updates for distinctID.
func (r *Recorder) EnqueuePendingProfileMerge(_ context.Context, token, distinctID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.merges = append(r.merges, PendingMerge{Token: token, DistinctID: distinctID})
	for i := range r.profiles {
		update := &r.profiles[i]
		if update.Token != token || !update.Anonymous {
			continue
		}
		update.Anonymous = false
		update.DistinctID = distinctID
		update.Message.Set("$distinct_id", props.String(distinctID))
	}
}

func (r *Recorder) ClearAnonymousUpdates(_ context.Context, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.profiles[:0]
	for _, update := range r.profiles {
		if update.Token == token && update.Anonymous {
			continue
		}
		kept = append(kept, update)
	}
	r.profiles = kept
}

func (r *Recorder) PurgeQueues(_ context.Context, token string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := r.events[:0]
	for _, event := range r.events {
		if event.Token != token {
			events = append(events, event)
		}
	}
	r.events = events

	profiles := r.profiles[:0]
	for _, update := range r.profiles {
		if update.Token != token {
			profiles = append(profiles, update)
		}
	}
	r.profiles = profiles

	groups := r.groups[:0]
	for _, update := range r.groups {
		if update.Token != token {
			groups = append(groups, update)
		}
	}
	r.groups = groups
}

func (r *Recorder) Flush(_ context.Context, token string) {
	r.mu.Lock()
	r.flushes[token]++
	r.mu.Unlock()
}

// Events returns the recorded events in enqueue order.
func (r *Recorder) Events() []EventEnvelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventEnvelope, len(r.events))
	copy(out, r.events)
	return out
}

// EventsNamed returns the recorded events called name.
func (r *Recorder) EventsNamed(name string) []EventEnvelope {
	var out []EventEnvelope
	for _, event := range r.Events() {
		if event.Event == name {
			out = append(out, event)
		}
	}
	return out
}

func (r *Recorder) ProfileUpdates() []ProfileUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ProfileUpdate, len(r.profiles))
	copy(out, r.profiles)
	return out
}

func (r *Recorder) GroupUpdates() []GroupUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]GroupUpdate, len(r.groups))
	copy(out, r.groups)
	return out
}

func (r *Recorder) PendingMerges() []PendingMerge {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PendingMerge, len(r.merges))
	copy(out, r.merges)
	return out
}

// Flushes reports how many times token was flushed.
func (r *Recorder) Flushes(token string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.flushes[token]
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.profiles = nil
	r.groups = nil
	r.merges = nil
	r.flushes = map[string]int{}
}
