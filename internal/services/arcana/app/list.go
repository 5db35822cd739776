package app

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/louisbranch/arcana/internal/services/arcana/ordinance"
)

// List returns the grimoire entries matching q, ordered by tier then name.
func (s *Service) List(ctx context.Context, q ordinance.Query) (entries []ordinance.Entry, err error) {
	ctx, span := s.startSpan(ctx, "arcana.list", attribute.String("arcana.filter", q.Filter))
	defer func() { endSpan(span, err) }()

	db, err := s.store.LoadOrdinances(ctx)
	if err != nil {
		return nil, err
	}
	entries, err = ordinance.Grimoire(s.engine, db.Sorted(), q)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("arcana.results", len(entries)))
	return entries, nil
}

// Get returns one stored ordinance.
func (s *Service) Get(ctx context.Context, id string) (ordinance.Ordinance, error) {
	return s.store.GetOrdinance(ctx, id)
}

// Export returns the whole grimoire as indented UTF-8 JSON keyed by id.
func (s *Service) Export(ctx context.Context) (data []byte, err error) {
	ctx, span := s.startSpan(ctx, "arcana.export")
	defer func() { endSpan(span, err) }()

	db, err := s.store.LoadOrdinances(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("arcana.ordinances", len(db)))
	return ordinance.Export(db)
}
