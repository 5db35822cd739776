package catalog

import (
	"sort"
	"strings"
)

// Precepts lists precepts sorted by lowercase verb.
func (c *Catalog) Precepts() []Precept {
	out := make([]Precept, 0, len(c.preceptOrder))
	for _, id := range c.preceptOrder {
		out = append(out, c.precepts[id].clone())
	}
	return out
}

// PreceptQuery narrows a precept listing. Empty fields match everything.
type PreceptQuery struct {
	Category string
	// Search matches the verb or description, case-insensitively.
	Search string
	Mode   Mode
}

// FindPrecepts lists the precepts matching q, sorted by lowercase verb.
func (c *Catalog) FindPrecepts(q PreceptQuery) []Precept {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	var out []Precept
	for _, id := range c.preceptOrder {
		p := c.precepts[id]
		if q.Category != "" && p.Category != q.Category {
			continue
		}
		if q.Mode != "" && p.Mode != q.Mode {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Verb), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, p.clone())
	}
	return out
}

// Categories lists the distinct precept categories, sorted.
func (c *Catalog) Categories() []string {
	seen := map[string]struct{}{}
	for _, p := range c.precepts {
		seen[p.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for category := range seen {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

// NumenList lists numen sorted by lowercase name.
func (c *Catalog) NumenList() []Numen {
	out := make([]Numen, 0, len(c.numenOrder))
	for _, id := range c.numenOrder {
		out = append(out, c.numen[id].clone())
	}
	return out
}

// Modifiers lists modifiers grouped by family, in catalog order within each.
func (c *Catalog) Modifiers() []Modifier {
	out := make([]Modifier, 0, len(c.modifierOrder))
	for _, id := range c.modifierOrder {
		out = append(out, c.modifiers[id].clone())
	}
	return out
}

// ModifiersByFamily lists the modifiers of one family.
func (c *Catalog) ModifiersByFamily(family Family) []Modifier {
	var out []Modifier
	for _, id := range c.modifierOrder {
		if m := c.modifiers[id]; m.Family == family {
			out = append(out, m.clone())
		}
	}
	return out
}

// CostKind names one line of a modifier's cost model.
type CostKind string

const (
	CostBase             CostKind = "base"
	CostPerRank          CostKind = "per_rank"
	CostLongDuration     CostKind = "long_duration"
	CostPerExtraInstance CostKind = "per_extra_instance"
	CostTotalAdjustment  CostKind = "total_adjustment"
)

// CostTerm is one explicitly configured cost of a modifier.
type CostTerm struct {
	Kind  CostKind `json:"kind"`
	Value int      `json:"value"`
}

// CostTerms lists the costs the catalog sets on m. Defaulted costs are not
// listed.
func (m Modifier) CostTerms() []CostTerm {
	terms := []CostTerm{{Kind: CostBase, Value: m.BaseCost}}
	if m.RankCost != nil {
		terms = append(terms, CostTerm{Kind: CostPerRank, Value: *m.RankCost})
	}
	if m.ExtraLongDurationCost != nil {
		terms = append(terms, CostTerm{Kind: CostLongDuration, Value: *m.ExtraLongDurationCost})
	}
	if m.PerExtraInstanceCost != nil {
		terms = append(terms, CostTerm{Kind: CostPerExtraInstance, Value: *m.PerExtraInstanceCost})
	}
	if m.CostModifierTotal != nil {
		terms = append(terms, CostTerm{Kind: CostTotalAdjustment, Value: *m.CostModifierTotal})
	}
	return terms
}
