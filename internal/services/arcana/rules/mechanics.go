package rules

import (
	"github.com/louisbranch/arcana/internal/core/dice"
	"github.com/louisbranch/arcana/internal/services/arcana/catalog"
)

// dieByMode is the base die size per precept mode.
var dieByMode = map[catalog.Mode]int{
	catalog.ModeHeal:    4,
	catalog.ModeMixed:   6,
	catalog.ModeDamage:  10,
	catalog.ModeUtility: 6,
}

const defaultDie = 6

// BaseDie returns the die size for a precept mode.
func BaseDie(mode catalog.Mode) int {
	if size, ok := dieByMode[mode]; ok {
		return size
	}
	return defaultDie
}

// Suggestion is a structured mechanical proposal for a composition.
type Suggestion struct {
	Type    EffectType `json:"type"`
	Summary string     `json:"summary"`
	Details Details    `json:"details"`
}

// Details holds the shared context of a suggestion plus exactly one of Dice,
// Control or Utility, matching the suggestion type.
type Details struct {
	Tier       int             `json:"tier"`
	Complexity int             `json:"complexity"`
	Intent     Intent          `json:"intent"`
	Element    string          `json:"element"`
	Modifiers  ModifierInfo    `json:"modifiers"`
	Area       Area            `json:"area"`
	Duration   DurationProfile `json:"duration"`

	Dice    *DiceDetails    `json:"dice,omitempty"`
	Control *ControlDetails `json:"control,omitempty"`
	Utility *UtilityDetails `json:"utility,omitempty"`
}

// DiceDetails sizes a damage or heal effect.
type DiceDetails struct {
	DieSize         int `json:"die_size"`
	Up              int `json:"up"`
	TotalDice       int `json:"total_dice"`
	Instances       int `json:"instances"`
	DicePerInstance int `json:"dice_per_instance"`
	// PerRound and Rounds are set when the effect lasts a number of rounds.
	PerRound   int    `json:"per_round,omitempty"`
	Rounds     int    `json:"rounds,omitempty"`
	Expression string `json:"expression"`
}

// Spec returns the dice rolled by one instance.
func (d DiceDetails) Spec() dice.Spec {
	return dice.Spec{Sides: d.DieSize, Count: d.DicePerInstance}
}

// ControlDetails sizes a control effect.
type ControlDetails struct {
	Severity    int    `json:"severity"`
	Rounds      int    `json:"rounds"`
	Kind        string `json:"kind"`
	KindLabel   string `json:"kind_label"`
	SuggestedDC int    `json:"suggested_dc"`
}

// UtilityDetails describes a utility effect, which has no numeric stats.
type UtilityDetails struct {
	Category string `json:"category"`
	Upkeep   string `json:"upkeep"`
}

// Control kinds by precept category.
const (
	ControlMental    = "mental"
	ControlMovement  = "movement"
	ControlPhysical  = "physical"
	ControlStructure = "structure"
	ControlGeneral   = "general"
)

var controlKindByCategory = map[string]string{
	catalog.CategoryCognitiva:  ControlMental,
	catalog.CategoryElemental:  ControlMovement,
	catalog.CategoryVital:      ControlPhysical,
	catalog.CategoryPragmatica: ControlStructure,
}

// SuggestMechanics builds the mechanical suggestion for c at the given
// complexity. It fails for ids missing from the catalog.
func (e *Engine) SuggestMechanics(c Composition, complexity int) (Suggestion, error) {
	precept, err := e.catalog.RequirePrecept(c.PreceptID)
	if err != nil {
		return Suggestion{}, err
	}
	for _, sel := range c.Modifiers {
		if _, err := e.catalog.RequireModifier(sel.ModifierID); err != nil {
			return Suggestion{}, err
		}
	}
	element := e.sprintf("mechanics.element.none")
	for i, id := range c.NumenIDs {
		numen, err := e.catalog.RequireNumen(id)
		if err != nil {
			return Suggestion{}, err
		}
		if i == 0 {
			element = numen.Name
		}
	}

	tier := DeriveTier(complexity)
	info := ExtractModifierInfo(c.Modifiers)
	intent := ResolveIntent(c.Modifiers)
	effect := ResolveEffectType(precept.Mode, intent)

	details := Details{
		Tier:       tier,
		Complexity: complexity,
		Intent:     intent,
		Element:    element,
		Modifiers:  info,
		Area:       e.DescribeArea(info.Shape, tier, info.ExtendedRank),
		Duration:   e.ProfileDuration(effect, tier, info.PersistenceRank, info.PotencyRank, c.LongDuration),
	}

	var summary string
	switch effect {
	case EffectDamage, EffectHeal:
		details.Dice, summary = e.suggestDice(effect, BaseDie(precept.Mode), details)
	case EffectControl:
		details.Control, summary = e.suggestControl(precept, details)
	default:
		details.Utility, summary = e.suggestUtility(precept, details)
	}
	if details.Duration.Narrative != "" {
		summary += " " + details.Duration.Narrative
	}

	return Suggestion{Type: effect, Summary: summary, Details: details}, nil
}

func (e *Engine) suggestDice(effect EffectType, dieSize int, d Details) (*DiceDetails, string) {
	up := 1 + d.Modifiers.PotencyRank
	if d.Modifiers.HasReducido {
		up = max(0, up-1)
	}
	totalDice := max(1, up+(d.Tier-1))
	instances := max(1, d.Modifiers.MultipliedInstances)
	perInstance := max(1, totalDice/instances)

	out := &DiceDetails{
		DieSize:         dieSize,
		Up:              up,
		TotalDice:       totalDice,
		Instances:       instances,
		DicePerInstance: perInstance,
	}
	out.Expression = out.Spec().String()

	area, duration, upkeep := d.Area.Description, d.Duration.Label, d.Duration.UpkeepText
	var summary string
	switch {
	case effect == EffectDamage && instances > 1:
		summary = e.sprintf("mechanics.summary.damage.instances", instances, out.Expression, d.Element, area, duration, upkeep)
	case effect == EffectDamage:
		summary = e.sprintf("mechanics.summary.damage", out.Expression, d.Element, area, duration, upkeep)
	case instances > 1:
		summary = e.sprintf("mechanics.summary.heal.instances", instances, out.Expression, d.Element, area, duration, upkeep)
	default:
		summary = e.sprintf("mechanics.summary.heal", out.Expression, d.Element, area, duration, upkeep)
	}

	if d.Duration.Kind == DurationRounds && d.Duration.Rounds > 0 {
		out.Rounds = d.Duration.Rounds
		out.PerRound = (perInstance + out.Rounds - 1) / out.Rounds
		perRound := dice.Spec{Sides: dieSize, Count: out.PerRound}.String()
		summary += e.sprintf("mechanics.summary.per_round", perRound, out.Rounds)
	}
	return out, summary
}

func (e *Engine) suggestControl(precept catalog.Precept, d Details) (*ControlDetails, string) {
	severity := d.Tier
	if d.Modifiers.PotencyRank >= 2 {
		severity++
	}
	if d.Modifiers.HasReducido {
		severity--
	}
	severity = min(4, max(1, severity))

	kind, ok := controlKindByCategory[precept.Category]
	if !ok {
		kind = ControlGeneral
	}
	out := &ControlDetails{
		Severity:    severity,
		Rounds:      d.Duration.Rounds,
		Kind:        kind,
		KindLabel:   e.sprintf("mechanics.control." + kind),
		SuggestedDC: 10 + d.Tier,
	}
	summary := e.sprintf("mechanics.summary.control",
		out.Severity, out.KindLabel, d.Element, d.Area.Description, out.SuggestedDC, d.Duration.Label, d.Duration.UpkeepText)
	return out, summary
}

func (e *Engine) suggestUtility(precept catalog.Precept, d Details) (*UtilityDetails, string) {
	out := &UtilityDetails{Category: precept.Category, Upkeep: d.Duration.Upkeep}
	summary := e.sprintf("mechanics.summary.utility",
		precept.Category, d.Element, d.Area.Description, d.Duration.Label, d.Duration.UpkeepText)
	return out, summary
}
