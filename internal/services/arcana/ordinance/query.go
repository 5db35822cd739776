package ordinance

import (
	"cmp"
	"slices"
	"strings"

	"github.com/louisbranch/arcana/internal/services/arcana/filter"
	"github.com/louisbranch/arcana/internal/services/arcana/rules"
)

// Query narrows a grimoire listing. Empty fields do not filter.
type Query struct {
	// NumenIDs keeps ordinances that use at least one of the numen.
	NumenIDs   []string
	PreceptIDs []string
	Tiers      []int
	// Search is a case-insensitive substring of the name.
	Search     string
	EffectType rules.EffectType
	// Filter is an AIP-160 expression over the fields in package filter.
	Filter string
}

// Entry is an ordinance with the mechanics recomputed from its selection.
type Entry struct {
	Ordinance  Ordinance        `json:"ordinance"`
	EffectType rules.EffectType `json:"effect_type"`
	Complexity int              `json:"complexity"`
	Suggestion rules.Suggestion `json:"suggestion"`
}

// Grimoire filters ordinances by q and orders them by tier then lowercase
// name. Effect types are recomputed with engine, so ordinances referencing
// ids missing from the catalog fail the listing.
func Grimoire(engine *rules.Engine, ordinances []Ordinance, q Query) ([]Entry, error) {
	expr, err := filter.Parse(q.Filter)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(q.Search))

	var entries []Entry
	for _, o := range ordinances {
		if len(q.NumenIDs) > 0 && !slices.ContainsFunc(o.NumenIDs, func(id string) bool { return slices.Contains(q.NumenIDs, id) }) {
			continue
		}
		if len(q.PreceptIDs) > 0 && !slices.Contains(q.PreceptIDs, o.PreceptID) {
			continue
		}
		if len(q.Tiers) > 0 && !slices.Contains(q.Tiers, o.Tier) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(o.Name), search) {
			continue
		}

		comp := o.Composition()
		complexity, err := engine.Complexity(comp)
		if err != nil {
			return nil, err
		}
		suggestion, err := engine.SuggestMechanics(comp, complexity)
		if err != nil {
			return nil, err
		}
		if q.EffectType != "" && suggestion.Type != q.EffectType {
			continue
		}

		ok, err := expr.Match(Record(o, suggestion.Type))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		entries = append(entries, Entry{
			Ordinance:  o.Clone(),
			EffectType: suggestion.Type,
			Complexity: complexity,
			Suggestion: suggestion,
		})
	}

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Or(
			cmp.Compare(a.Ordinance.Tier, b.Ordinance.Tier),
			cmp.Compare(strings.ToLower(a.Ordinance.Name), strings.ToLower(b.Ordinance.Name)),
		)
	})
	return entries, nil
}

// Record builds the filterable view of o.
func Record(o Ordinance, effect rules.EffectType) filter.Record {
	modifierIDs := make([]string, 0, len(o.Modifiers))
	for _, sel := range o.Modifiers {
		modifierIDs = append(modifierIDs, sel.ModifierID)
	}
	return filter.Record{
		ID:          o.ID,
		Name:        o.Name,
		PreceptID:   o.PreceptID,
		Tier:        o.Tier,
		Complexity:  o.Cost.Complexity,
		EffectType:  string(effect),
		CreatedBy:   o.Meta.CreatedBy,
		Source:      o.Meta.Source,
		NumenIDs:    slices.Clone(o.NumenIDs),
		ModifierIDs: modifierIDs,
	}
}
