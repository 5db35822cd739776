package rules

import (
	"slices"
	"sort"
	"strings"
)

// BuildCanonicalKey returns "<precept>|<numen1>+<numen2>|[<mod1>,<mod2>]".
// Numen ids are sorted and selections are ordered by modifier id, so the
// key does not depend on the order of either list.
func BuildCanonicalKey(preceptID string, numenIDs []string, modifiers []Selection) string {
	numen := slices.Clone(numenIDs)
	sort.Strings(numen)

	ordered := slices.Clone(modifiers)
	// Ties on modifier id fall back to the token so duplicate selections
	// with different ranks are ordered too.
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].ModifierID != ordered[j].ModifierID {
			return ordered[i].ModifierID < ordered[j].ModifierID
		}
		return ordered[i].Token() < ordered[j].Token()
	})
	tokens := make([]string, len(ordered))
	for i, sel := range ordered {
		tokens[i] = sel.Token()
	}

	var b strings.Builder
	b.WriteString(preceptID)
	b.WriteByte('|')
	b.WriteString(strings.Join(numen, "+"))
	b.WriteString("|[")
	b.WriteString(strings.Join(tokens, ","))
	b.WriteByte(']')
	return b.String()
}

// CanonicalKey is BuildCanonicalKey for a composition.
func (c Composition) CanonicalKey() string {
	return BuildCanonicalKey(c.PreceptID, c.NumenIDs, c.Modifiers)
}
