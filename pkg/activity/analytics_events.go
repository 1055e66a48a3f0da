package activity

import (
	"strconv"
	"strings"
	"time"
)

const (
	VerbIdentified      = "analytics.identity.identified"
	VerbAliased         = "analytics.identity.aliased"
	VerbReset           = "analytics.identity.reset"
	VerbOptedOut        = "analytics.tracking.opted_out"
	VerbOptedIn         = "analytics.tracking.opted_in"
	VerbGroupDeleted    = "analytics.group.deleted"
	VerbDisplayFinished = "analytics.display.finished"
)

// IdentityEventInput describes identity transitions.
type IdentityEventInput struct {
	Token      string
	DistinctID string
	PreviousID string
	UserID     string
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildIdentifiedEvent reports a distinct id change caused by identify.
func BuildIdentifiedEvent(input IdentityEventInput) Event {
	return buildIdentityEvent(VerbIdentified, input)
}

// BuildAliasedEvent reports an alias request; PreviousID is the original id.
func BuildAliasedEvent(input IdentityEventInput) Event {
	return buildIdentityEvent(VerbAliased, input)
}

// BuildResetEvent reports a reset to a fresh anonymous identity.
func BuildResetEvent(input IdentityEventInput) Event {
	return buildIdentityEvent(VerbReset, input)
}

func buildIdentityEvent(verb string, input IdentityEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.PreviousID != "" {
		metadata = ensureMetadata(metadata)
		metadata["previous_id"] = input.PreviousID
	}
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.DistinctID),
		UserID:     strings.TrimSpace(input.UserID),
		Token:      strings.TrimSpace(input.Token),
		ObjectType: "identity",
		ObjectID:   objectIDOr(input.DistinctID, input.Token),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

// TrackingEventInput describes opt-out/opt-in transitions.
type TrackingEventInput struct {
	Token      string
	DistinctID string
	OccurredAt time.Time
}

func BuildOptedOutEvent(input TrackingEventInput) Event {
	return buildTrackingEvent(VerbOptedOut, input)
}

func BuildOptedInEvent(input TrackingEventInput) Event {
	return buildTrackingEvent(VerbOptedIn, input)
}

func buildTrackingEvent(verb string, input TrackingEventInput) Event {
	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.DistinctID),
		Token:      strings.TrimSpace(input.Token),
		ObjectType: "tracking",
		ObjectID:   objectIDOr(input.Token, "tracking"),
		OccurredAt: input.OccurredAt,
	}
}

// GroupEventInput describes group profile operations.
type GroupEventInput struct {
	Token      string
	DistinctID string
	GroupKey   string
	GroupID    string
	OccurredAt time.Time
}

func BuildGroupDeletedEvent(input GroupEventInput) Event {
	return Event{
		Verb:       VerbGroupDeleted,
		ActorID:    strings.TrimSpace(input.DistinctID),
		Token:      strings.TrimSpace(input.Token),
		ObjectType: "group",
		ObjectID:   objectIDOr(input.GroupKey+"_"+input.GroupID, "group"),
		Metadata: map[string]any{
			"group_key": input.GroupKey,
			"group_id":  input.GroupID,
		},
		OccurredAt: input.OccurredAt,
	}
}

// DisplayEventInput describes a finished display proposal.
type DisplayEventInput struct {
	Token      string
	DistinctID string
	ContentID  int64
	Kind       string
	Handle     int64
	Outcome    string
	OccurredAt time.Time
}

func BuildDisplayFinishedEvent(input DisplayEventInput) Event {
	return Event{
		Verb:       VerbDisplayFinished,
		ActorID:    strings.TrimSpace(input.DistinctID),
		Token:      strings.TrimSpace(input.Token),
		ObjectType: "content",
		ObjectID:   strconv.FormatInt(input.ContentID, 10),
		Metadata: map[string]any{
			"kind":    input.Kind,
			"handle":  input.Handle,
			"outcome": input.Outcome,
		},
		OccurredAt: input.OccurredAt,
	}
}

func objectIDOr(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
