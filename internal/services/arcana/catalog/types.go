package catalog

import "slices"

// Mode is the primary use of a precept when suggesting mechanics.
type Mode string

const (
	ModeDamage  Mode = "damage"
	ModeHeal    Mode = "heal"
	ModeControl Mode = "control"
	ModeUtility Mode = "utility"
	// ModeMixed resolves to damage or heal depending on the selected intent.
	ModeMixed Mode = "mixed"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeDamage, ModeHeal, ModeControl, ModeUtility, ModeMixed:
		return true
	}
	return false
}

// Family groups modifiers by the aspect of an ordinance they change.
type Family string

const (
	FamilyForma           Family = "FORMA"
	FamilyAlcanceDuracion Family = "ALCANCE_DURACION"
	FamilyIntencion       Family = "INTENCION"
	FamilyIntensidad      Family = "INTENSIDAD"
	FamilyCondicion       Family = "CONDICION"
)

// Families lists modifier families in presentation order.
var Families = []Family{FamilyForma, FamilyAlcanceDuracion, FamilyIntencion, FamilyIntensidad, FamilyCondicion}

// Valid reports whether f is a known family.
func (f Family) Valid() bool {
	return slices.Contains(Families, f)
}

// Modifier ids the rules engine gives special meaning to.
const (
	FormaLinea  = "FORMA_LINEA"
	FormaCono   = "FORMA_CONO"
	FormaEsfera = "FORMA_ESFERA"
	FormaMuro   = "FORMA_MURO"
	FormaAura   = "FORMA_AURA"

	DuracionInstantaneo = "DURACION_INSTANTANEO"
	DuracionPersistente = "DURACION_PERSISTENTE"
	AlcanceExtendido    = "ALCANCE_EXTENDIDO"
	AlcanceProyectado   = "ALCANCE_PROYECTADO"

	IntencionOfensivo    = "INTENCION_OFENSIVO"
	IntencionDefensivo   = "INTENCION_DEFENSIVO"
	IntencionCondicional = "INTENCION_CONDICIONAL"

	IntensidadPotenciado   = "INTENSIDAD_POTENCIADO"
	IntensidadReducido     = "INTENSIDAD_REDUCIDO"
	IntensidadMultiplicado = "INTENSIDAD_MULTIPLICADO"
	IntensidadEficiencia   = "INTENSIDAD_EFICIENCIA"
)

// Precept categories.
const (
	CategoryElemental  = "Elemental"
	CategoryVital      = "Vital"
	CategoryCognitiva  = "Cognitiva"
	CategoryPragmatica = "Pragmática"
)

// Precept is the root verb of an ordinance.
type Precept struct {
	ID                string   `yaml:"id" json:"id"`
	Verb              string   `yaml:"verb" json:"verb"`
	Category          string   `yaml:"category" json:"category"`
	Mode              Mode     `yaml:"mode" json:"mode"`
	BaseComplexity    int      `yaml:"base_complexity" json:"base_complexity"`
	BasePower         int      `yaml:"base_power" json:"base_power"`
	PreferredNumenIDs []string `yaml:"preferred_numen_ids" json:"preferred_numen_ids"`
	Description       string   `yaml:"description" json:"description"`
	ExampleOrdinances []string `yaml:"example_ordinances" json:"example_ordinances,omitempty"`
}

func (p Precept) clone() Precept {
	p.PreferredNumenIDs = slices.Clone(p.PreferredNumenIDs)
	p.ExampleOrdinances = slices.Clone(p.ExampleOrdinances)
	return p
}

// Numen is an elemental or thematic affinity.
type Numen struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	DisplayName string   `yaml:"display_name" json:"display_name"`
	ColorHex    string   `yaml:"color_hex" json:"color_hex"`
	Symbol      string   `yaml:"symbol" json:"symbol"`
	Description string   `yaml:"description" json:"description"`
	Tags        []string `yaml:"tags" json:"tags"`
}

func (n Numen) clone() Numen {
	n.Tags = slices.Clone(n.Tags)
	return n
}

// Modifier is a particle that reshapes an ordinance. Optional costs are nil
// when the catalog leaves them unset; use the accessor methods for the
// effective values.
type Modifier struct {
	ID                    string   `yaml:"id" json:"id"`
	Family                Family   `yaml:"family" json:"family"`
	Name                  string   `yaml:"name" json:"name"`
	Description           string   `yaml:"description" json:"description"`
	BaseCost              int      `yaml:"base_cost" json:"base_cost"`
	RankCost              *int     `yaml:"rank_cost" json:"rank_cost,omitempty"`
	MaxRank               *int     `yaml:"max_rank" json:"max_rank,omitempty"`
	PerExtraInstanceCost  *int     `yaml:"per_extra_instance_cost" json:"per_extra_instance_cost,omitempty"`
	CostModifierTotal     *int     `yaml:"cost_modifier_total" json:"cost_modifier_total,omitempty"`
	ExtraLongDurationCost *int     `yaml:"extra_long_duration_cost" json:"extra_long_duration_cost,omitempty"`
	Tags                  []string `yaml:"tags" json:"tags"`
}

// EffectiveRankCost defaults to 1.
func (m Modifier) EffectiveRankCost() int { return intOr(m.RankCost, 1) }

// EffectivePerExtraInstanceCost defaults to 1.
func (m Modifier) EffectivePerExtraInstanceCost() int { return intOr(m.PerExtraInstanceCost, 1) }

// EffectiveCostModifierTotal defaults to -1.
func (m Modifier) EffectiveCostModifierTotal() int { return intOr(m.CostModifierTotal, -1) }

// EffectiveExtraLongDurationCost defaults to 1.
func (m Modifier) EffectiveExtraLongDurationCost() int { return intOr(m.ExtraLongDurationCost, 1) }

// Ranked reports whether the modifier accepts ranks above 1, and the highest
// rank it accepts.
func (m Modifier) Ranked() (maxRank int, ok bool) {
	if m.MaxRank == nil || *m.MaxRank <= 1 {
		return 1, false
	}
	return *m.MaxRank, true
}

func (m Modifier) clone() Modifier {
	m.RankCost = cloneInt(m.RankCost)
	m.MaxRank = cloneInt(m.MaxRank)
	m.PerExtraInstanceCost = cloneInt(m.PerExtraInstanceCost)
	m.CostModifierTotal = cloneInt(m.CostModifierTotal)
	m.ExtraLongDurationCost = cloneInt(m.ExtraLongDurationCost)
	m.Tags = slices.Clone(m.Tags)
	return m
}

func intOr(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
