// Package index defines the uniform contract over the two physically
// different vector-index engines (embedded local file vs. clustered
// remote service) and constructs whichever one the config selects.
package index

import "facematch/internal/domain"

// Backend is the adapter contract over one vector-index engine.
// Implementations must be safe for concurrent Insert/Search; the engine
// adds no locking of its own around these calls. Interpreting the raw
// hits' score semantics is the matcher's job, not the adapters'.
type Backend interface {
	// EnsureCollection creates the collection if absent and prepares it
	// for serving. Idempotent; failure here is fatal at startup.
	EnsureCollection() error

	// Insert stores one record with a backend-assigned id.
	Insert(rec domain.FaceRecord) error

	// Search returns up to limit backend-native hits for the query
	// vector, most similar first in the backend's own ordering.
	Search(vector []float32, limit int) ([]domain.RawHit, error)

	// Count returns the number of stored records, or an error when the
	// backend cannot report it.
	Count() (int64, error)

	// Exists reports whether the collection currently exists.
	Exists() (bool, error)

	// Drop releases the collection from serving (where applicable) and
	// physically deletes it. EnsureCollection must be re-run afterwards.
	Drop() error

	Close() error
}
