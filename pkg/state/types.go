package state

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

var ErrDomainRequired = errors.New("state: domain is required")

// maxMutateAttempts bounds CAS retries when another writer wins the race.
const maxMutateAttempts = 3

// Ref identifies one persisted snapshot for one project token.
type Ref struct {
	Token  string
	Domain string
}

// Global returns a process-wide reference for domain.
func Global(domain string) Ref {
	return Ref{Domain: domain}
}

// Meta is storage-owned metadata used for concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads/saves one snapshot for a single reference. Save must reject a
// Meta.ETag that no longer matches the stored record with ErrETagMismatch.
// An empty ETag only creates: it is rejected once a record exists.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error)
}

// Mutator edits a snapshot in place.
type Mutator[T any] func(*T) error

func (r Ref) Identifier() (string, error) {
	if r.Domain == "" {
		return "", ErrDomainRequired
	}
	if r.Token == "" {
		return fmt.Sprintf("global/%s", r.Domain), nil
	}
	return fmt.Sprintf("token/%s/%s", r.Token, r.Domain), nil
}

// Mutate loads one snapshot, applies fn and saves the result guarded by the
// loaded ETag. A missing snapshot starts from the zero value. On an ETag
// conflict the whole cycle is retried.
func Mutate[T any](ctx context.Context, store Store[T], ref Ref, fn Mutator[T]) (T, Meta, error) {
	var zero T
	if store == nil {
		return zero, Meta{}, fmt.Errorf("state: store is required")
	}
	if ref.Domain == "" {
		return zero, Meta{}, ErrDomainRequired
	}
	if fn == nil {
		return zero, Meta{}, fmt.Errorf("state: mutator is required")
	}

	var lastErr error
	for attempt := 0; attempt < maxMutateAttempts; attempt++ {
		snapshot, loadedMeta, ok, err := store.Load(ctx, ref)
		if err != nil {
			return zero, Meta{}, fmt.Errorf("state: load %q for token %q: %w", ref.Domain, ref.Token, err)
		}
		if !ok {
			snapshot = zero
			loadedMeta = Meta{}
		}

		if err := fn(&snapshot); err != nil {
			return zero, loadedMeta, err
		}

		savedMeta, err := store.Save(ctx, ref, snapshot, loadedMeta)
		if err == nil {
			return snapshot, savedMeta, nil
		}
		if !errors.Is(err, ErrETagMismatch) {
			return zero, loadedMeta, fmt.Errorf("state: save %q for token %q: %w", ref.Domain, ref.Token, err)
		}
		lastErr = err
	}
	return zero, Meta{}, fmt.Errorf("state: save %q for token %q: %w", ref.Domain, ref.Token, lastErr)
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
