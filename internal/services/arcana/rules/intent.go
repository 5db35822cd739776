package rules

import "github.com/louisbranch/arcana/internal/services/arcana/catalog"

// Intent is the purpose declared by the INTENCION modifiers.
type Intent string

const (
	IntentOffensive   Intent = "OFFENSIVE"
	IntentDefensive   Intent = "DEFENSIVE"
	IntentConditional Intent = "CONDITIONAL"
	IntentNeutral     Intent = "NEUTRAL"
)

// ResolveIntent picks OFFENSIVE, then DEFENSIVE, then CONDITIONAL by
// membership, and NEUTRAL when none is selected.
func ResolveIntent(selections []Selection) Intent {
	present := make(map[string]bool, len(selections))
	for _, sel := range selections {
		present[sel.ModifierID] = true
	}
	switch {
	case present[catalog.IntencionOfensivo]:
		return IntentOffensive
	case present[catalog.IntencionDefensivo]:
		return IntentDefensive
	case present[catalog.IntencionCondicional]:
		return IntentConditional
	default:
		return IntentNeutral
	}
}

// EffectType is the mechanical family of a suggestion.
type EffectType string

const (
	EffectDamage  EffectType = "damage"
	EffectHeal    EffectType = "heal"
	EffectControl EffectType = "control"
	EffectUtility EffectType = "utility"
)

// ParseEffectType converts a string to an EffectType.
func ParseEffectType(value string) (EffectType, bool) {
	switch t := EffectType(value); t {
	case EffectDamage, EffectHeal, EffectControl, EffectUtility:
		return t, true
	}
	return "", false
}

// ResolveEffectType maps a precept mode and intent to an effect type. Mixed
// precepts deal damage when offensive, heal when defensive and fall back to
// control otherwise.
func ResolveEffectType(mode catalog.Mode, intent Intent) EffectType {
	switch mode {
	case catalog.ModeDamage:
		return EffectDamage
	case catalog.ModeHeal:
		return EffectHeal
	case catalog.ModeControl:
		return EffectControl
	case catalog.ModeUtility:
		return EffectUtility
	case catalog.ModeMixed:
		switch intent {
		case IntentOffensive:
			return EffectDamage
		case IntentDefensive:
			return EffectHeal
		default:
			return EffectControl
		}
	default:
		return EffectUtility
	}
}

// EffectType resolves the effect type of c from its precept and intent.
func (e *Engine) EffectType(c Composition) (EffectType, error) {
	precept, err := e.catalog.RequirePrecept(c.PreceptID)
	if err != nil {
		return "", err
	}
	return ResolveEffectType(precept.Mode, ResolveIntent(c.Modifiers)), nil
}
