package rules

import "github.com/louisbranch/arcana/internal/services/arcana/catalog"

// Shape is the area geometry selected by a FORMA modifier.
type Shape string

const (
	ShapeNone   Shape = ""
	ShapeLine   Shape = "LINE"
	ShapeCone   Shape = "CONE"
	ShapeSphere Shape = "SPHERE"
	ShapeWall   Shape = "WALL"
	ShapeAura   Shape = "AURA"
)

// shapePriority decides between several FORMA selections. The first entry
// present in the selection wins regardless of selection order.
var shapePriority = []struct {
	modifierID string
	shape      Shape
}{
	{catalog.FormaLinea, ShapeLine},
	{catalog.FormaCono, ShapeCone},
	{catalog.FormaEsfera, ShapeSphere},
	{catalog.FormaMuro, ShapeWall},
	{catalog.FormaAura, ShapeAura},
}

// ModifierInfo folds a selection list into the aggregates the suggestion
// builders read.
type ModifierInfo struct {
	Shape               Shape `json:"shape,omitempty"`
	PersistenceRank     int   `json:"persistence_rank"`
	ExtendedRank        int   `json:"extended_rank"`
	HasProyectado       bool  `json:"has_proyectado"`
	PotencyRank         int   `json:"potency_rank"`
	HasReducido         bool  `json:"has_reducido"`
	MultipliedInstances int   `json:"multiplied_instances"`
}

// ExtractModifierInfo aggregates selections in a single pass. Ranks take the
// maximum seen, with non-positive ranks counted as 1. Absent modifiers leave
// their rank at 0 and instances at 1.
func ExtractModifierInfo(selections []Selection) ModifierInfo {
	info := ModifierInfo{MultipliedInstances: 1}
	shapes := make(map[string]bool, len(shapePriority))

	for _, sel := range selections {
		rank := sel.Rank
		if rank <= 0 {
			rank = 1
		}
		switch sel.ModifierID {
		case catalog.FormaLinea, catalog.FormaCono, catalog.FormaEsfera, catalog.FormaMuro, catalog.FormaAura:
			shapes[sel.ModifierID] = true
		case catalog.DuracionPersistente:
			info.PersistenceRank = max(info.PersistenceRank, rank)
		case catalog.AlcanceExtendido:
			info.ExtendedRank = max(info.ExtendedRank, rank)
		case catalog.AlcanceProyectado:
			info.HasProyectado = true
		case catalog.IntensidadPotenciado:
			info.PotencyRank = max(info.PotencyRank, rank)
		case catalog.IntensidadReducido:
			info.HasReducido = true
		case catalog.IntensidadMultiplicado:
			info.MultipliedInstances = max(info.MultipliedInstances, 1+max(0, sel.ExtraInstances))
		}
	}

	for _, candidate := range shapePriority {
		if shapes[candidate.modifierID] {
			info.Shape = candidate.shape
			break
		}
	}
	return info
}
