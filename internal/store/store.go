// Package store defines the registry's durable record store and its
// in-memory and PostgreSQL implementations. The registry core only ever
// talks to the Store interface so tests can run against the in-memory
// implementation.
package store

import (
	"context"
	"errors"

	"github.com/a2aregistry/backend/internal/models"
)

// ErrDuplicateID is returned by Put when the id is already taken.
var ErrDuplicateID = errors.New("agent id already exists")

// ErrNotFound is returned by Get and Update for an absent id.
var ErrNotFound = errors.New("agent not found")

// Mutator edits a record in place inside Update. Returning an error
// aborts the update and no change is persisted.
type Mutator func(rec *models.AgentRecord) error

// Store is a key-indexed record store with predicate-free scanning.
// Scan returns records ordered by registration time then id, so offset
// pagination over a stable set is deterministic; ordering beyond that
// is unspecified.
type Store interface {
	// Put inserts a fresh record and fails with ErrDuplicateID if the
	// id is already present. It never overwrites.
	Put(ctx context.Context, rec *models.AgentRecord) error

	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*models.AgentRecord, error)

	// Delete removes the record and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// Scan returns all records.
	Scan(ctx context.Context) ([]*models.AgentRecord, error)

	// Update applies the mutator to the record under a per-id lock so
	// concurrent heartbeats for the same agent cannot lose updates.
	Update(ctx context.Context, id string, fn Mutator) (*models.AgentRecord, error)
}
