package rules

import "github.com/louisbranch/arcana/internal/services/arcana/catalog"

// ExplainStep is one deterministic step of a complexity calculation.
type ExplainStep struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// ComplexityExplanation is a complexity total with the steps that built it.
type ComplexityExplanation struct {
	Complexity int           `json:"complexity"`
	Tier       int           `json:"tier"`
	Steps      []ExplainStep `json:"steps"`
}

// Complexity sums the precept and modifier costs of c, clamped to at least 1.
// It fails with UNKNOWN_PRECEPT or UNKNOWN_MODIFIER for ids missing from the
// catalog.
func (e *Engine) Complexity(c Composition) (int, error) {
	explanation, err := e.ExplainComplexity(c)
	if err != nil {
		return 0, err
	}
	return explanation.Complexity, nil
}

// ExplainComplexity computes the complexity of c and records every step.
func (e *Engine) ExplainComplexity(c Composition) (ComplexityExplanation, error) {
	precept, err := e.catalog.RequirePrecept(c.PreceptID)
	if err != nil {
		return ComplexityExplanation{}, err
	}

	total := precept.BaseComplexity
	steps := []ExplainStep{{
		Code:    "BASE_PRECEPT",
		Message: "Start from the precept base complexity",
		Data:    map[string]any{"precept_id": precept.ID, "base_complexity": precept.BaseComplexity, "total": total},
	}}

	var efficiency *catalog.Modifier
	for _, sel := range c.Modifiers {
		mod, err := e.catalog.RequireModifier(sel.ModifierID)
		if err != nil {
			return ComplexityExplanation{}, err
		}

		total += mod.BaseCost
		steps = append(steps, ExplainStep{
			Code:    "MODIFIER_BASE",
			Message: "Add the modifier base cost",
			Data:    map[string]any{"modifier_id": mod.ID, "base_cost": mod.BaseCost, "total": total},
		})

		switch mod.ID {
		case catalog.DuracionPersistente:
			if c.LongDuration {
				extra := mod.EffectiveExtraLongDurationCost()
				total += extra
				steps = append(steps, ExplainStep{
					Code:    "PERSISTENT_LONG_DURATION",
					Message: "Add the long duration surcharge",
					Data:    map[string]any{"modifier_id": mod.ID, "cost": extra, "total": total},
				})
			}
		case catalog.IntensidadPotenciado:
			rank := max(1, sel.Rank)
			cost := mod.EffectiveRankCost() * rank
			total += cost
			steps = append(steps, ExplainStep{
				Code:    "POTENCY_RANK",
				Message: "Add the rank cost for each potency rank",
				Data:    map[string]any{"modifier_id": mod.ID, "rank": rank, "cost": cost, "total": total},
			})
		case catalog.IntensidadMultiplicado:
			cost := mod.EffectivePerExtraInstanceCost() * sel.ExtraInstances
			total += cost
			steps = append(steps, ExplainStep{
				Code:    "EXTRA_INSTANCES",
				Message: "Add the cost of each extra instance",
				Data:    map[string]any{"modifier_id": mod.ID, "extra_instances": sel.ExtraInstances, "cost": cost, "total": total},
			})
		case catalog.IntensidadEficiencia:
			if efficiency == nil {
				m := mod
				efficiency = &m
			}
		}
	}

	// Efficiency applies once no matter how often it is selected.
	if efficiency != nil {
		adjustment := efficiency.EffectiveCostModifierTotal()
		total += adjustment
		steps = append(steps, ExplainStep{
			Code:    "EFFICIENCY",
			Message: "Apply the efficiency adjustment once",
			Data:    map[string]any{"modifier_id": efficiency.ID, "adjustment": adjustment, "total": total},
		})
	}

	if total < 1 {
		steps = append(steps, ExplainStep{
			Code:    "CLAMP_MINIMUM",
			Message: "Clamp complexity to the minimum of 1",
			Data:    map[string]any{"raw_total": total, "total": 1},
		})
		total = 1
	}

	return ComplexityExplanation{Complexity: total, Tier: DeriveTier(total), Steps: steps}, nil
}

// DeriveTier maps complexity to a tier: up to 2 is tier 1, up to 5 tier 2,
// up to 8 tier 3, anything higher tier 4.
func DeriveTier(complexity int) int {
	switch {
	case complexity <= 2:
		return 1
	case complexity <= 5:
		return 2
	case complexity <= 8:
		return 3
	default:
		return 4
	}
}

// TierTitle names the rank of caster a tier is meant for.
func TierTitle(tier int) string {
	switch tier {
	case 1:
		return "Aprendiz"
	case 2:
		return "Adeptus"
	case 3:
		return "Maestro"
	case 4:
		return "Archirregidor"
	default:
		return ""
	}
}
