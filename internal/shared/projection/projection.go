package projection

import "time"

// Metadata carries the persistence timestamps of a stored entity.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Projection pairs a stored entity with its Metadata.
type Projection[T any] struct {
	Entity   T
	Metadata Metadata
}

// New wraps entity with the given timestamps. A zero updatedAt defaults to createdAt.
func New[T any](entity T, createdAt, updatedAt time.Time) *Projection[T] {
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}
	return &Projection[T]{Entity: entity, Metadata: Metadata{CreatedAt: createdAt, UpdatedAt: updatedAt}}
}
