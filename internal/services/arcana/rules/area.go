package rules

const (
	shortRangeM  = 6
	mediumRangeM = 18
	lineWidthM   = 1.5
	wallHeightM  = 3
)

// Area describes the reach of an effect. Metrics that do not apply to the
// shape are zero.
type Area struct {
	Shape       Shape   `json:"shape,omitempty"`
	RangeM      int     `json:"range_m,omitempty"`
	RadiusM     int     `json:"radius_m,omitempty"`
	LengthM     int     `json:"length_m,omitempty"`
	WidthM      float64 `json:"width_m,omitempty"`
	HeightM     int     `json:"height_m,omitempty"`
	Description string  `json:"description"`
}

// DescribeArea computes the area of an effect. Without a shape it targets a
// single creature at short range, or medium range when the range is
// extended. Shaped areas grow 3 m per tier above 1 and 3 m per extended rank.
func (e *Engine) DescribeArea(shape Shape, tier, extendedRank int) Area {
	if shape == ShapeNone {
		if extendedRank > 0 {
			return Area{RangeM: mediumRangeM, Description: e.sprintf("mechanics.area.single_medium", mediumRangeM)}
		}
		return Area{RangeM: shortRangeM, Description: e.sprintf("mechanics.area.single_short", shortRangeM)}
	}

	radius := 3 + (tier-1)*3 + 3*extendedRank
	switch shape {
	case ShapeLine:
		length := 2 * radius
		return Area{Shape: shape, LengthM: length, WidthM: lineWidthM,
			Description: e.sprintf("mechanics.area.line", length, lineWidthM)}
	case ShapeCone:
		return Area{Shape: shape, RadiusM: radius, Description: e.sprintf("mechanics.area.cone", radius)}
	case ShapeSphere:
		return Area{Shape: shape, RadiusM: radius, Description: e.sprintf("mechanics.area.sphere", radius)}
	case ShapeAura:
		aura := max(3, radius-3)
		return Area{Shape: shape, RadiusM: aura, Description: e.sprintf("mechanics.area.aura", aura)}
	case ShapeWall:
		length := 2 * radius
		return Area{Shape: shape, LengthM: length, HeightM: wallHeightM,
			Description: e.sprintf("mechanics.area.wall", length, wallHeightM)}
	default:
		return Area{RangeM: shortRangeM, Description: e.sprintf("mechanics.area.single_short", shortRangeM)}
	}
}
