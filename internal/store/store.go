// Package store persists the per-source record collections. Each source owns
// exactly one collection and is its sole writer; the feed reads across all
// three. Implementations enforce identity-tuple uniqueness, so inserting an
// already-present record is a silent no-op.
package store

import "context"

// Record is any model with a stable identity key.
type Record interface {
	IdentityKey() string
}

// Collection is the persisted set of records for one source. Handles are
// passed in by callers rather than held in package globals so tests can swap
// in the in-memory implementation.
type Collection[T Record] interface {
	// Count returns the number of persisted records.
	Count(ctx context.Context) (int, error)

	// Exists reports whether a record with the same identity tuple is
	// already persisted.
	Exists(ctx context.Context, rec T) (bool, error)

	// Insert adds rec unless its identity tuple is already present.
	Insert(ctx context.Context, rec T) error

	// InsertAll adds every record in recs, skipping identity duplicates.
	InsertAll(ctx context.Context, recs []T) error

	// DropAll removes every record.
	DropAll(ctx context.Context) error

	// ReplaceAll atomically swaps the collection contents for recs.
	ReplaceAll(ctx context.Context, recs []T) error

	// ListAll returns every record in insertion order.
	ListAll(ctx context.Context) ([]T, error)
}
