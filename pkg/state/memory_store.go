package state

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store implementation. It uses Ref.Identifier()
// as its deterministic key, issues a fresh ETag on every save and enforces the
// ETag compare-and-swap contract. Snapshots implementing Clone() T are copied
// on the way in and out so callers never share state with the store.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	records map[string]memoryRecord[T]
	now     func() time.Time
}

type memoryRecord[T any] struct {
	snapshot T
	meta     Meta
}

func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{records: map[string]memoryRecord[T]{}, now: time.Now}
}

func (s *MemoryStore[T]) Load(_ context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	key, err := ref.Identifier()
	if err != nil {
		return zero, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return zero, Meta{}, false, nil
	}
	return cloneSnapshot(record.snapshot), cloneMeta(record.meta), true, nil
}

func (s *MemoryStore[T]) Save(_ context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[key]
	if ok && meta.ETag != existing.meta.ETag {
		// an empty ETag means the writer saw no record; someone created it since
		return cloneMeta(existing.meta), ErrETagMismatch
	}

	etag := uuid.NewString()
	saved := mergeMeta(cloneMeta(meta), Meta{
		SnapshotID: etag,
		ETag:       etag,
		UpdatedAt:  s.now(),
	})
	s.records[key] = memoryRecord[T]{snapshot: cloneSnapshot(snapshot), meta: saved}
	return cloneMeta(saved), nil
}

// Len reports the number of stored snapshots.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneSnapshot[T any](snapshot T) T {
	if cloner, ok := any(snapshot).(interface{ Clone() T }); ok {
		return cloner.Clone()
	}
	return snapshot
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
