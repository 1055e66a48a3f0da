package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"k": "v"}
	evt := Event{
		Verb:       " analytics.identity.identified ",
		ActorID:    " user-42 ",
		UserID:     " user-42 ",
		Token:      " tok ",
		ObjectType: " identity ",
		ObjectID:   " user-42 ",
		Channel:    " analytics ",
		Metadata:   meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != VerbIdentified || got.ObjectType != "identity" || got.ObjectID != "user-42" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "user-42" || got.UserID != "user-42" || got.Token != "tok" || got.Channel != "analytics" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	got.Metadata["k"] = "changed"
	if evt.Metadata["k"] != "v" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
}

func TestHooksNotifyShortCircuitsMissingRequired(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	if err := hooks.Notify(context.Background(), Event{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	capture := &CaptureHook{}
	boom1 := errors.New("boom1")
	boom2 := errors.New("boom2")
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, event Event) error {
			if ctx != nil {
				ctxSeen = true
			}
			return nil
		}),
		capture,
		HookFunc(func(_ context.Context, _ Event) error { return boom1 }),
		nil,
		HookFunc(func(_ context.Context, _ Event) error { return boom2 }),
	}

	err := hooks.Notify(nil, Event{Verb: VerbReset, ObjectType: "identity", ObjectID: "1"})
	if !errors.Is(err, boom1) || !errors.Is(err, boom2) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events))
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}
	event := BuildOptedOutEvent(TrackingEventInput{Token: "tok", DistinctID: "anon"})

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	enabled := NewEmitter(Hooks{capture}, Config{Enabled: true})
	if err := enabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event captured, got %d", len(capture.Events))
	}
	if capture.Events[0].Channel != DefaultChannel {
		t.Fatalf("expected default channel applied, got %q", capture.Events[0].Channel)
	}

	var nilEmitter *Emitter
	if nilEmitter.Enabled() {
		t.Fatalf("expected nil emitter disabled")
	}
}

func TestEmitterPreservesExplicitChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "default"})
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := emitter.Emit(context.Background(), Event{
		Verb:       VerbOptedIn,
		ObjectType: "tracking",
		ObjectID:   "tok",
		Channel:    "custom",
		OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if capture.Events[0].Channel != "custom" {
		t.Fatalf("expected explicit channel preserved, got %q", capture.Events[0].Channel)
	}
	if !capture.Events[0].OccurredAt.Equal(at) {
		t.Fatalf("expected occurred_at preserved, got %v", capture.Events[0].OccurredAt)
	}
}

func TestEmitterStampsClientDefaults(t *testing.T) {
	capture := &CaptureHook{}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	emitter := NewEmitter(Hooks{capture}, Config{
		Enabled: true,
		Token:   " tok ",
		Now:     func() time.Time { return at },
	})

	event := BuildGroupDeletedEvent(GroupEventInput{GroupKey: "company", GroupID: "42", DistinctID: "anon"})
	event.Token = ""
	if err := emitter.Emit(context.Background(), event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if err := emitter.Emit(context.Background(), BuildOptedInEvent(TrackingEventInput{Token: "other", DistinctID: "anon"})); err != nil {
		t.Fatalf("emit: %v", err)
	}

	deleted := capture.WithVerb(VerbGroupDeleted)
	if len(deleted) != 1 {
		t.Fatalf("expected one group deletion, got %d", len(deleted))
	}
	if deleted[0].Token != "tok" || deleted[0].Channel != DefaultChannel || !deleted[0].OccurredAt.Equal(at) {
		t.Fatalf("expected client defaults stamped, got %+v", deleted[0])
	}
	optedIn := capture.WithVerb(VerbOptedIn)
	if len(optedIn) != 1 || optedIn[0].Token != "other" {
		t.Fatalf("expected event token preserved, got %+v", optedIn)
	}
}
