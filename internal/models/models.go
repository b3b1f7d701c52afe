// package models defines the data model for the libris catalog client
package models

import (
	"time"
)

// Model is a locally persisted record with a generated id, such as [ImportJob].
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time

	// Validate reports the first broken invariant, checked before every write.
	Validate() error
}

// Repository stores one kind of [Model] in the local sqlite database.
// Delete is soft: deleted records disappear from Get and List.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error

	// List filters by implementation-specific criteria keys; unknown keys are ignored.
	List(criteria map[string]any) ([]T, error)
}
