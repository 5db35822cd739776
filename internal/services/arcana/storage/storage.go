package storage

import (
	"context"

	apperrors "github.com/louisbranch/arcana/internal/platform/errors"
	"github.com/louisbranch/arcana/internal/services/arcana/ordinance"
)

// ErrNotFound indicates a requested ordinance is missing.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ErrAlreadyExists indicates an ordinance with the same id or canonical key
// is already stored.
var ErrAlreadyExists = apperrors.New(apperrors.CodeOrdinanceAlreadyExists, "ordinance already exists")

// OrdinanceStore persists saved ordinances. Ordinances are written once and
// never updated.
type OrdinanceStore interface {
	// LoadOrdinances returns every stored ordinance keyed by id. An empty
	// store yields an empty database.
	LoadOrdinances(ctx context.Context) (ordinance.Database, error)
	// GetOrdinance returns ErrNotFound when id is missing.
	GetOrdinance(ctx context.Context, id string) (ordinance.Ordinance, error)
	// PutOrdinance returns ErrAlreadyExists when the id or canonical key is
	// taken.
	PutOrdinance(ctx context.Context, o ordinance.Ordinance) error
}

// Store is the composite storage interface used by the application service.
type Store interface {
	OrdinanceStore
	Close() error
}

// AlreadyExists builds an ErrAlreadyExists-compatible error naming the
// conflicting ordinance.
func AlreadyExists(id string) error {
	return apperrors.WithMetadata(apperrors.CodeOrdinanceAlreadyExists,
		"ordinance already exists: "+id, map[string]string{"OrdinanceID": id})
}
