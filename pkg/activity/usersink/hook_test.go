package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-analytics/pkg/activity"
	"github.com/goliatone/go-analytics/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsAnonymousIdentity(t *testing.T) {
	sink := &recordingSink{}
	tenant := uuid.New()
	hook := usersink.Hook{Sink: sink, TenantID: tenant}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	anonymous := uuid.New()
	event := activity.BuildResetEvent(activity.IdentityEventInput{
		Token:      "tok",
		DistinctID: anonymous.String(),
		OccurredAt: now,
	})
	event.Channel = "analytics"

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != anonymous {
		t.Fatalf("expected actor %s got %s", anonymous, record.ActorID)
	}
	if record.TenantID != tenant {
		t.Fatalf("expected tenant %s got %s", tenant, record.TenantID)
	}
	if record.Verb != activity.VerbReset || record.ObjectType != "identity" || record.ObjectID != anonymous.String() {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "analytics" || !record.OccurredAt.Equal(now) {
		t.Fatalf("unexpected channel/time: %+v", record)
	}
	if record.Data["token"] != "tok" {
		t.Fatalf("expected token metadata, got %v", record.Data)
	}
	if _, ok := record.Data["distinct_id"]; ok {
		t.Fatalf("expected uuid actor not duplicated into data")
	}
}

func TestHookNotifyKeepsNonUUIDDistinctID(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	event := activity.BuildIdentifiedEvent(activity.IdentityEventInput{
		Token:      "tok",
		DistinctID: "user-42",
		UserID:     "user-42",
		PreviousID: "anon",
	})
	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	record := sink.records[0]
	if record.ActorID != uuid.Nil {
		t.Fatalf("expected nil actor uuid, got %s", record.ActorID)
	}
	if record.Data["distinct_id"] != "user-42" || record.Data["user_id"] != "user-42" || record.Data["previous_id"] != "anon" {
		t.Fatalf("unexpected data %v", record.Data)
	}
}

func TestHookNotifySkipsMissingVerb(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookNotifyPropagatesSinkError(t *testing.T) {
	boom := errors.New("sink down")
	sink := &recordingSink{err: boom}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.BuildOptedInEvent(activity.TrackingEventInput{Token: "tok"}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}
