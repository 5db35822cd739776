package app

import (
	"context"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/louisbranch/arcana/internal/core/check"
	"github.com/louisbranch/arcana/internal/core/dice"
	apperrors "github.com/louisbranch/arcana/internal/platform/errors"
	"github.com/louisbranch/arcana/internal/random"
	"github.com/louisbranch/arcana/internal/services/arcana/rules"
)

// saveDie is the die a target rolls to resist a control effect.
var saveDie = dice.Spec{Sides: 20, Count: 1}

// ErrNothingToRoll is returned for utility effects.
var ErrNothingToRoll = apperrors.New(apperrors.CodeDiceMissing, "utility effects have no dice to roll")

// RollRequest rolls the mechanics of a composition. A nil Seed draws a fresh
// one; the seed used is returned either way.
type RollRequest struct {
	Composition rules.Composition `json:"composition"`
	Seed        *int64            `json:"seed,omitempty"`
	// SaveModifier is added to the target's d20 when resisting control.
	SaveModifier int `json:"save_modifier,omitempty"`
	// Bonus is an extra pool such as "1d6" or "1d4+1d6", rolled with every
	// instance of a damage or heal effect and with the target's save.
	Bonus string `json:"bonus,omitempty"`
}

// RollResult is a resolved roll.
type RollResult struct {
	Type       rules.EffectType `json:"type"`
	Expression string           `json:"expression"`
	Seed       int64            `json:"seed"`
	Dice       dice.Result      `json:"dice"`
	// Instances holds one total per instance of a damage or heal effect.
	Instances []int `json:"instances,omitempty"`
	// DC and Check are set for control effects; Check is the target's save.
	DC    int           `json:"dc,omitempty"`
	Check *check.Result `json:"check,omitempty"`
}

// Roll rolls a composition's dice: every instance of a damage or heal
// effect, or the target's d20 save against a control effect's DC.
func (s *Service) Roll(ctx context.Context, req RollRequest) (result RollResult, err error) {
	ctx, span := s.startSpan(ctx, "arcana.roll")
	defer func() { endSpan(span, err) }()

	composed, err := s.derive(ctx, req.Composition)
	if err != nil {
		return RollResult{}, err
	}
	var bonus []dice.Spec
	if strings.TrimSpace(req.Bonus) != "" {
		if bonus, err = dice.ParseExpression(req.Bonus); err != nil {
			return RollResult{}, err
		}
	}
	seed, err := random.ResolveSeed(req.Seed)
	if err != nil {
		return RollResult{}, err
	}
	span.SetAttributes(attribute.Int64("arcana.seed", seed))

	details := composed.Suggestion.Details
	result = RollResult{Type: composed.Suggestion.Type, Seed: seed}
	switch {
	case details.Dice != nil:
		instance := append([]dice.Spec{details.Dice.Spec()}, bonus...)
		specs := slices.Repeat(instance, details.Dice.Instances)
		rolled, err := dice.RollDice(dice.Request{Dice: specs, Seed: seed})
		if err != nil {
			return RollResult{}, err
		}
		result.Expression = dice.FormatExpression(specs)
		result.Dice = rolled
		for rolls := range slices.Chunk(rolled.Rolls, len(instance)) {
			total := 0
			for _, roll := range rolls {
				total += roll.Total
			}
			result.Instances = append(result.Instances, total)
		}
	case details.Control != nil:
		specs := append([]dice.Spec{saveDie}, bonus...)
		rolled, err := dice.RollDice(dice.Request{Dice: specs, Seed: seed})
		if err != nil {
			return RollResult{}, err
		}
		outcome := check.Resist(rolled.Total+req.SaveModifier, details.Control.SuggestedDC)
		result.Expression = dice.FormatExpression(specs)
		result.Dice = rolled
		result.DC = details.Control.SuggestedDC
		result.Check = &outcome
	default:
		return RollResult{}, ErrNothingToRoll
	}
	return result, nil
}
