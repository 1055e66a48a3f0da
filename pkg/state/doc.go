// Package state defines the persistence contract used by the analytics core
// to keep identity, super properties, timed events and flags across process
// restarts.
//
// Responsibilities:
//   - Store[T] only loads/saves a single snapshot for a single Ref.
//   - Mutate[T] performs a read-modify-write against a Store, using Meta.ETag
//     as a compare-and-swap token so several SDK instances sharing one
//     backend never lose each other's writes.
//   - How snapshots reach the disk is owned by Store implementations supplied
//     by the host application. MemoryStore is provided for tests and for hosts
//     without durable storage.
//
// Deterministic keys:
//
//	Ref.Identifier() scopes every snapshot by project token
//	(`token/<token>/<domain>`). Process-wide snapshots use an empty token and
//	map to `global/<domain>`.
package state
