package rules

import (
	"slices"
	"strconv"

	apperrors "github.com/louisbranch/arcana/internal/platform/errors"
	"github.com/louisbranch/arcana/internal/services/arcana/catalog"
)

// MaxExtraInstances bounds the extra instances of a multiplied effect.
const MaxExtraInstances = 10

// Validate checks c against the catalog before any cost or mechanic is
// computed:
//   - every precept, numen and modifier id exists
//   - ranks are positive and within the modifier's max rank (unranked
//     modifiers only accept rank 1)
//   - extra instances are only set on INTENSIDAD_MULTIPLICADO, between 0 and
//     MaxExtraInstances
//   - CONDICION modifiers are only selected alongside INTENCION_CONDICIONAL
func (e *Engine) Validate(c Composition) error {
	if _, err := e.catalog.RequirePrecept(c.PreceptID); err != nil {
		return err
	}
	for _, id := range c.NumenIDs {
		if _, err := e.catalog.RequireNumen(id); err != nil {
			return err
		}
	}

	conditional := hasModifier(c.Modifiers, catalog.IntencionCondicional)
	for _, sel := range c.Modifiers {
		mod, err := e.catalog.RequireModifier(sel.ModifierID)
		if err != nil {
			return err
		}
		maxRank, _ := mod.Ranked()
		if sel.Rank < 1 || sel.Rank > maxRank {
			return apperrors.WithMetadata(apperrors.CodeInvalidModifierRank,
				"invalid rank "+strconv.Itoa(sel.Rank)+" for "+mod.ID,
				map[string]string{"ModifierID": mod.ID, "Rank": strconv.Itoa(sel.Rank), "MaxRank": strconv.Itoa(maxRank)})
		}
		limit := 0
		if mod.ID == catalog.IntensidadMultiplicado {
			limit = MaxExtraInstances
		}
		if sel.ExtraInstances < 0 || sel.ExtraInstances > limit {
			return apperrors.WithMetadata(apperrors.CodeInvalidExtraInstances,
				"invalid extra instances "+strconv.Itoa(sel.ExtraInstances)+" for "+mod.ID,
				map[string]string{"ModifierID": mod.ID, "ExtraInstances": strconv.Itoa(sel.ExtraInstances)})
		}
		if mod.Family == catalog.FamilyCondicion && !conditional {
			return apperrors.WithMetadata(apperrors.CodeConditionWithoutIntent,
				"condition "+mod.ID+" requires conditional intent",
				map[string]string{"ModifierID": mod.ID})
		}
	}
	return nil
}

func hasModifier(selections []Selection, id string) bool {
	return slices.ContainsFunc(selections, func(sel Selection) bool { return sel.ModifierID == id })
}
