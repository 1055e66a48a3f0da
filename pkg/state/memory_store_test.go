package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-analytics/pkg/props"
	"github.com/goliatone/go-analytics/pkg/state"
)

func TestMemoryStoreLoadMissing(t *testing.T) {
	store := state.NewMemoryStore[props.Properties]()
	_, _, ok, err := store.Load(context.Background(), state.Ref{Token: "tok", Domain: "super"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatalf("expected missing snapshot")
	}
}

func TestMemoryStoreRoundTripClonesSnapshot(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[props.Properties]()
	ref := state.Ref{Token: "tok", Domain: "super"}

	var p props.Properties
	p.Set("plan", props.String("pro"))
	meta, err := store.Save(ctx, ref, p, state.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if meta.ETag == "" || meta.UpdatedAt.IsZero() {
		t.Fatalf("expected etag and timestamp, got %+v", meta)
	}

	p.Set("plan", props.String("free"))

	loaded, loadedMeta, ok, err := store.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if loadedMeta.ETag != meta.ETag {
		t.Fatalf("expected etag %q, got %q", meta.ETag, loadedMeta.ETag)
	}
	plan, _ := loaded.Get("plan")
	if s, _ := plan.AsString(); s != "pro" {
		t.Fatalf("expected stored snapshot isolated from caller, got %q", s)
	}
}

func TestMemoryStoreRejectsStaleETag(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[map[string]int64]()
	ref := state.Ref{Token: "tok", Domain: "timings"}

	first, err := store.Save(ctx, ref, map[string]int64{"a": 1}, state.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Save(ctx, ref, map[string]int64{"a": 2}, first); err != nil {
		t.Fatalf("save with current etag: %v", err)
	}
	if _, err := store.Save(ctx, ref, map[string]int64{"a": 3}, first); !errors.Is(err, state.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}
}

func TestMemoryStoreScopesByToken(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[string]()
	if _, err := store.Save(ctx, state.Ref{Token: "a", Domain: "identity"}, "one", state.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Save(ctx, state.Ref{Token: "b", Domain: "identity"}, "two", state.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.Save(ctx, state.Global("identity"), "global", state.Meta{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if store.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", store.Len())
	}
	got, _, _, _ := store.Load(ctx, state.Ref{Token: "a", Domain: "identity"})
	if got != "one" {
		t.Fatalf("expected token-scoped value, got %q", got)
	}
}

func TestRefIdentifier(t *testing.T) {
	id, err := state.Ref{Token: "tok", Domain: "flags"}.Identifier()
	if err != nil || id != "token/tok/flags" {
		t.Fatalf("unexpected identifier %q err=%v", id, err)
	}
	id, err = state.Global("flags").Identifier()
	if err != nil || id != "global/flags" {
		t.Fatalf("unexpected global identifier %q err=%v", id, err)
	}
	if _, err := (state.Ref{Token: "tok"}).Identifier(); !errors.Is(err, state.ErrDomainRequired) {
		t.Fatalf("expected ErrDomainRequired, got %v", err)
	}
}
