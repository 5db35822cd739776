package rules

import "strings"

// DurationKind is the band an effect's duration falls in.
type DurationKind string

const (
	DurationInstant     DurationKind = "INSTANT"
	DurationRounds      DurationKind = "ROUNDS"
	DurationMinutes     DurationKind = "MINUTES"
	DurationHours       DurationKind = "HOURS"
	DurationDays        DurationKind = "DAYS"
	DurationWeeks       DurationKind = "WEEKS"
	DurationMonthsYears DurationKind = "MONTHS_YEARS"
)

// Upkeep labels, from cheapest to most demanding to sustain.
const (
	UpkeepLow        = "low"
	UpkeepMedium     = "medium"
	UpkeepMediumHigh = "medium-high"
	UpkeepHigh       = "high"
	UpkeepVeryHigh   = "very high"
	UpkeepExtreme    = "extreme"
)

// maxRounds caps the ROUNDS band.
const maxRounds = 10

// DurationProfile classifies how long an effect lasts and what it costs to
// keep it going. Rounds is set only for the ROUNDS band.
type DurationProfile struct {
	Kind       DurationKind `json:"kind"`
	Power      int          `json:"power"`
	Rounds     int          `json:"rounds,omitempty"`
	Upkeep     string       `json:"upkeep"`
	Label      string       `json:"label"`
	UpkeepText string       `json:"upkeep_text"`
	Narrative  string       `json:"narrative"`
}

type durationBand struct {
	maxPower int
	kind     DurationKind
	upkeep   string
}

// Damage and healing are costly to sustain; control and utility effects
// stretch much further for the same power.
var (
	heavyBands = []durationBand{
		{2, DurationRounds, UpkeepMedium},
		{4, DurationMinutes, UpkeepHigh},
		{6, DurationHours, UpkeepVeryHigh},
		{8, DurationDays, UpkeepExtreme},
	}
	heavyFallback = durationBand{kind: DurationWeeks, upkeep: UpkeepExtreme}

	lightBands = []durationBand{
		{2, DurationMinutes, UpkeepLow},
		{4, DurationHours, UpkeepMedium},
		{6, DurationDays, UpkeepMediumHigh},
		{8, DurationWeeks, UpkeepHigh},
	}
	lightFallback = durationBand{kind: DurationMonthsYears, upkeep: UpkeepVeryHigh}
)

// ProfileDuration classifies the duration of an effect. Without persistence
// or the long duration flag the effect is instant. Otherwise power is
// tier + persistence rank + potency rank, plus 1 for long duration, and picks
// a band from the heavy (damage, heal) or light (control, utility) table.
func (e *Engine) ProfileDuration(effect EffectType, tier, persistenceRank, potencyRank int, longDuration bool) DurationProfile {
	if persistenceRank <= 0 && !longDuration {
		return e.durationProfile(DurationInstant, 0, 0, UpkeepLow, "mechanics.duration.instant")
	}

	power := tier + persistenceRank + potencyRank
	if longDuration {
		power++
	}

	heavy := effect == EffectDamage || effect == EffectHeal
	bands, fallback, weight := lightBands, lightFallback, "light"
	if heavy {
		bands, fallback, weight = heavyBands, heavyFallback, "heavy"
	}
	band := fallback
	for _, candidate := range bands {
		if power <= candidate.maxPower {
			band = candidate
			break
		}
	}

	rounds := 0
	if band.kind == DurationRounds {
		rounds = min(2+power, maxRounds)
	}
	key := "mechanics.duration." + weight + "." + strings.ToLower(string(band.kind))
	return e.durationProfile(band.kind, power, rounds, band.upkeep, key)
}

func (e *Engine) durationProfile(kind DurationKind, power, rounds int, upkeep, narrativeKey string) DurationProfile {
	profile := DurationProfile{
		Kind:       kind,
		Power:      power,
		Rounds:     rounds,
		Upkeep:     upkeep,
		UpkeepText: e.sprintf(upkeepKey(upkeep)),
		Label:      e.sprintf("mechanics.duration.label." + strings.ToLower(string(kind))),
	}
	if kind == DurationRounds {
		profile.Label = e.sprintf("mechanics.duration.label.rounds", rounds)
		profile.Narrative = e.sprintf(narrativeKey, rounds)
	} else {
		profile.Narrative = e.sprintf(narrativeKey)
	}
	return profile
}

func upkeepKey(upkeep string) string {
	return "mechanics.upkeep." + strings.NewReplacer(" ", "_", "-", "_").Replace(upkeep)
}
