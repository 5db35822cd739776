package app

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/arcana/internal/platform/errors"
	"github.com/louisbranch/arcana/internal/services/arcana/ordinance"
	"github.com/louisbranch/arcana/internal/services/arcana/rules"
	"github.com/louisbranch/arcana/internal/services/arcana/storage"
)

var (
	// ErrNameEmpty is returned when a saved ordinance has a blank name.
	ErrNameEmpty = apperrors.New(apperrors.CodeOrdinanceNameEmpty, "ordinance name is required")
	// ErrNumenMissing is returned when a saved ordinance has no numen.
	ErrNumenMissing = apperrors.New(apperrors.CodeOrdinanceNumenMissing, "at least one numen is required")
)

// SaveRequest names a composition and records its free text.
type SaveRequest struct {
	Composition rules.Composition `json:"composition"`
	Name        string            `json:"name"`
	Narrative   string            `json:"narrative,omitempty"`
	// Notes defaults to the mechanics summary when blank.
	Notes     string `json:"notes,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
	Source    string `json:"source,omitempty"`
}

// SaveResult reports the stored ordinance. Created is false when the
// canonical key already existed and the stored ordinance was returned as is.
type SaveResult struct {
	Ordinance ordinance.Ordinance `json:"ordinance"`
	Created   bool                `json:"created"`
}

// Save stores a new ordinance for req.Composition unless one with the same
// canonical key exists, in which case the existing ordinance is returned.
func (s *Service) Save(ctx context.Context, req SaveRequest) (result SaveResult, err error) {
	ctx, span := s.startSpan(ctx, "arcana.save")
	defer func() { endSpan(span, err) }()

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return SaveResult{}, ErrNameEmpty
	}
	if len(req.Composition.NumenIDs) == 0 {
		return SaveResult{}, ErrNumenMissing
	}

	composed, err := s.derive(ctx, req.Composition)
	if err != nil {
		return SaveResult{}, err
	}
	span.SetAttributes(tierAttributes(composed.CanonicalKey, composed.Complexity, composed.Tier)...)

	db, err := s.store.LoadOrdinances(ctx)
	if err != nil {
		return SaveResult{}, err
	}
	if existing, ok := ordinance.FindByCanonicalKey(db, composed.CanonicalKey); ok {
		span.SetAttributes(attribute.String("arcana.ordinance_id", existing.ID))
		return SaveResult{Ordinance: existing}, nil
	}

	notes := req.Notes
	if strings.TrimSpace(notes) == "" {
		notes = composed.Suggestion.Summary
	}
	o := ordinance.Ordinance{
		ID:           ordinance.NextOrdinanceID(db),
		CanonicalKey: composed.CanonicalKey,
		Name:         name,
		PreceptID:    composed.Composition.PreceptID,
		NumenIDs:     composed.Composition.NumenIDs,
		Modifiers:    composed.Composition.Modifiers,
		Mechanical:   ordinance.Mechanical{Narrative: req.Narrative, Notes: notes},
		Cost:         ordinance.Cost{Complexity: composed.Complexity, Tier: composed.Tier},
		Tier:         composed.Tier,
		Meta:         ordinance.Meta{CreatedBy: strings.TrimSpace(req.CreatedBy), Source: strings.TrimSpace(req.Source)},
	}
	span.SetAttributes(attribute.String("arcana.ordinance_id", o.ID))

	if err := s.store.PutOrdinance(ctx, o); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			s.logger.Warn("ordinance conflict on save", zap.String("id", o.ID), zap.Error(err))
		}
		return SaveResult{}, err
	}
	s.logger.Info("ordinance saved",
		zap.String("id", o.ID),
		zap.String("name", o.Name),
		zap.String("canonical_key", o.CanonicalKey),
		zap.Int("tier", o.Tier),
	)
	return SaveResult{Ordinance: o.Clone(), Created: true}, nil
}
