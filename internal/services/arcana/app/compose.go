package app

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/louisbranch/arcana/internal/services/arcana/catalog"
	"github.com/louisbranch/arcana/internal/services/arcana/ordinance"
	"github.com/louisbranch/arcana/internal/services/arcana/rules"
)

// Composed is everything the engine derives from one composition.
type Composed struct {
	Composition  rules.Composition    `json:"composition"`
	CanonicalKey string               `json:"canonical_key"`
	Complexity   int                  `json:"complexity"`
	Tier         int                  `json:"tier"`
	TierTitle    string               `json:"tier_title"`
	Steps        []rules.ExplainStep  `json:"steps"`
	Suggestion   rules.Suggestion     `json:"suggestion"`
	Existing     *ordinance.Ordinance `json:"existing,omitempty"`
}

// Compose validates c and derives its key, complexity, tier and mechanics.
// The long duration flag is dropped unless DURACION_PERSISTENTE is selected.
// Existing is set when the grimoire already holds the same canonical key.
func (s *Service) Compose(ctx context.Context, c rules.Composition) (Composed, error) {
	composed, err := s.derive(ctx, c)
	if err != nil {
		return Composed{}, err
	}

	db, err := s.store.LoadOrdinances(ctx)
	if err != nil {
		return Composed{}, err
	}
	if existing, ok := ordinance.FindByCanonicalKey(db, composed.CanonicalKey); ok {
		composed.Existing = &existing
	}
	return composed, nil
}

// derive computes a Composed without touching storage. Results are memoized by
// canonical key, numen order and long duration flag: the key sorts numen but
// the element and summary follow the first one.
func (s *Service) derive(ctx context.Context, c rules.Composition) (composed Composed, err error) {
	c = normalize(c)
	key := c.CanonicalKey()
	cacheKey := key + "|order=" + strings.Join(c.NumenIDs, "+") + "|long=" + strconv.FormatBool(c.LongDuration)

	_, span := s.startSpan(ctx, "arcana.compose", attribute.String("arcana.canonical_key", key))
	defer func() { endSpan(span, err) }()

	if cached, ok := s.cache.Get(cacheKey); ok {
		span.SetAttributes(attribute.Bool("arcana.cache_hit", true))
		return cloneComposed(cached), nil
	}

	if err := s.engine.Validate(c); err != nil {
		return Composed{}, err
	}
	explanation, err := s.engine.ExplainComplexity(c)
	if err != nil {
		return Composed{}, err
	}
	suggestion, err := s.engine.SuggestMechanics(c, explanation.Complexity)
	if err != nil {
		return Composed{}, err
	}

	composed = Composed{
		Composition:  c,
		CanonicalKey: key,
		Complexity:   explanation.Complexity,
		Tier:         explanation.Tier,
		TierTitle:    rules.TierTitle(explanation.Tier),
		Steps:        explanation.Steps,
		Suggestion:   suggestion,
	}
	span.SetAttributes(tierAttributes(key, composed.Complexity, composed.Tier)...)
	s.cache.Add(cacheKey, composed)
	s.logger.Debug("composition derived",
		zap.String("canonical_key", key),
		zap.Int("complexity", composed.Complexity),
		zap.Int("tier", composed.Tier),
		zap.String("type", string(suggestion.Type)),
	)
	return cloneComposed(composed), nil
}

func normalize(c rules.Composition) rules.Composition {
	out := rules.Composition{
		PreceptID: c.PreceptID,
		NumenIDs:  slices.Clone(c.NumenIDs),
		Modifiers: slices.Clone(c.Modifiers),
	}
	out.LongDuration = c.LongDuration && slices.ContainsFunc(c.Modifiers, func(sel rules.Selection) bool {
		return sel.ModifierID == catalog.DuracionPersistente
	})
	return out
}

func cloneComposed(c Composed) Composed {
	c.Composition.NumenIDs = slices.Clone(c.Composition.NumenIDs)
	c.Composition.Modifiers = slices.Clone(c.Composition.Modifiers)
	c.Steps = slices.Clone(c.Steps)
	for i := range c.Steps {
		c.Steps[i].Data = maps.Clone(c.Steps[i].Data)
	}
	details := &c.Suggestion.Details
	if details.Dice != nil {
		dice := *details.Dice
		details.Dice = &dice
	}
	if details.Control != nil {
		control := *details.Control
		details.Control = &control
	}
	if details.Utility != nil {
		utility := *details.Utility
		details.Utility = &utility
	}
	if c.Existing != nil {
		existing := c.Existing.Clone()
		c.Existing = &existing
	}
	return c
}
