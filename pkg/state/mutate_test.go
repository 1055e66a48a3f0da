package state_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goliatone/go-analytics/pkg/state"
)

type racingStore struct {
	*state.MemoryStore[int]
	conflicts int
}

func (s *racingStore) Save(ctx context.Context, ref state.Ref, snapshot int, meta state.Meta) (state.Meta, error) {
	if s.conflicts > 0 {
		s.conflicts--
		// another writer lands between our load and save
		current, currentMeta, _, _ := s.MemoryStore.Load(ctx, ref)
		if _, err := s.MemoryStore.Save(ctx, ref, current+100, currentMeta); err != nil {
			return state.Meta{}, err
		}
	}
	return s.MemoryStore.Save(ctx, ref, snapshot, meta)
}

func TestMutateStartsFromZeroValue(t *testing.T) {
	store := state.NewMemoryStore[int]()
	ref := state.Ref{Token: "tok", Domain: "counter"}

	got, meta, err := state.Mutate[int](context.Background(), store, ref, func(v *int) error {
		*v++
		return nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if got != 1 || meta.ETag == "" {
		t.Fatalf("expected 1 with etag, got %d %+v", got, meta)
	}
}

func TestMutateRetriesOnConflict(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{MemoryStore: state.NewMemoryStore[int](), conflicts: 1}
	ref := state.Ref{Token: "tok", Domain: "counter"}
	if _, err := store.MemoryStore.Save(ctx, ref, 1, state.Meta{}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	calls := 0
	got, _, err := state.Mutate[int](ctx, store, ref, func(v *int) error {
		calls++
		*v++
		return nil
	})
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected a retry after conflict, got %d calls", calls)
	}
	if got != 102 {
		t.Fatalf("expected concurrent write preserved, got %d", got)
	}
}

func TestMutateGivesUpAfterRepeatedConflicts(t *testing.T) {
	ctx := context.Background()
	store := &racingStore{MemoryStore: state.NewMemoryStore[int](), conflicts: 10}
	ref := state.Ref{Token: "tok", Domain: "counter"}
	if _, err := store.MemoryStore.Save(ctx, ref, 0, state.Meta{}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, _, err := state.Mutate[int](ctx, store, ref, func(v *int) error {
		*v++
		return nil
	})
	if !errors.Is(err, state.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}
}

func TestMutatePropagatesMutatorError(t *testing.T) {
	store := state.NewMemoryStore[int]()
	boom := errors.New("boom")
	_, _, err := state.Mutate[int](context.Background(), store, state.Ref{Domain: "x"}, func(*int) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutator error, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected nothing saved")
	}
}

func TestSaveRejectsCreateOverExistingRecord(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[int]()
	ref := state.Ref{Token: "tok", Domain: "counter"}

	_, metaA, okA, _ := store.Load(ctx, ref)
	_, metaB, okB, _ := store.Load(ctx, ref)
	if okA || okB {
		t.Fatalf("expected no record yet")
	}

	if _, err := store.Save(ctx, ref, 1, metaA); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := store.Save(ctx, ref, 2, metaB); !errors.Is(err, state.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch for the second create, got %v", err)
	}

	got, _, _, _ := store.Load(ctx, ref)
	if got != 1 {
		t.Fatalf("expected first writer preserved, got %d", got)
	}
}

func TestMutateConcurrentCreatesKeepBothWrites(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[int]()
	ref := state.Ref{Token: "tok", Domain: "counter"}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := state.Mutate[int](ctx, store, ref, func(v *int) error {
				*v++
				return nil
			}); err != nil {
				t.Errorf("mutate: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _, _, _ := store.Load(ctx, ref)
	if got != 2 {
		t.Fatalf("expected both increments, got %d", got)
	}
}
