// Package dice rolls seeded dice pools and parses NdS notation.
package dice

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/arcana/internal/platform/errors"
)

var (
	// ErrMissingDice is returned when a request carries no dice.
	ErrMissingDice = apperrors.New(apperrors.CodeDiceMissing, "at least one die must be provided")
	// ErrInvalidDiceSpec is returned for non-positive sides or counts and for
	// notation that does not parse.
	ErrInvalidDiceSpec = apperrors.New(apperrors.CodeDiceInvalidSpec, "dice must have positive sides and count")
)

// Spec is a group of identical dice, such as 2d6.
type Spec struct {
	Sides int `json:"sides"`
	Count int `json:"count"`
}

// String renders the spec in NdS notation.
func (s Spec) String() string {
	return fmt.Sprintf("%dd%d", s.Count, s.Sides)
}

func (s Spec) valid() bool {
	return s.Sides > 0 && s.Count > 0
}

// Request describes one roll. The same Seed and Dice always produce the same
// Result.
type Request struct {
	Dice []Spec
	Seed int64
}

// Roll is the outcome of one Spec.
type Roll struct {
	Sides   int   `json:"sides"`
	Results []int `json:"results"`
	Total   int   `json:"total"`
}

// Result is the outcome of a Request. Rolls follow the order of Request.Dice
// and Total sums every die rolled.
type Result struct {
	Rolls []Roll `json:"rolls"`
	Total int    `json:"total"`
}

// RollDice rolls the request deterministically from its seed.
//
// Example:
//
//	result, err := RollDice(Request{
//	    Dice: []Spec{{Sides: 6, Count: 2}, {Sides: 8, Count: 1}},
//	    Seed: 1,
//	})
func RollDice(request Request) (Result, error) {
	return RollWithRng(rand.New(rand.NewSource(request.Seed)), request.Dice)
}

// RollWithRng rolls dice using a provided random source.
func RollWithRng(rng *rand.Rand, specs []Spec) (Result, error) {
	if len(specs) == 0 {
		return Result{}, ErrMissingDice
	}
	for _, spec := range specs {
		if !spec.valid() {
			return Result{}, ErrInvalidDiceSpec
		}
	}

	rolls := make([]Roll, 0, len(specs))
	total := 0
	for _, spec := range specs {
		results := make([]int, spec.Count)
		rollTotal := 0
		for i := range results {
			results[i] = rng.Intn(spec.Sides) + 1
			rollTotal += results[i]
		}
		rolls = append(rolls, Roll{Sides: spec.Sides, Results: results, Total: rollTotal})
		total += rollTotal
	}
	return Result{Rolls: rolls, Total: total}, nil
}

// ParseNotation parses "NdS" (or "dS" for a single die).
func ParseNotation(notation string) (Spec, error) {
	value := strings.ToLower(strings.TrimSpace(notation))
	countPart, sidesPart, ok := strings.Cut(value, "d")
	if !ok {
		return Spec{}, apperrors.Wrap(apperrors.CodeDiceInvalidSpec, "parse dice "+strconv.Quote(notation), ErrInvalidDiceSpec)
	}
	count := 1
	if countPart != "" {
		n, err := strconv.Atoi(countPart)
		if err != nil {
			return Spec{}, apperrors.Wrap(apperrors.CodeDiceInvalidSpec, "parse dice count "+strconv.Quote(notation), err)
		}
		count = n
	}
	sides, err := strconv.Atoi(sidesPart)
	if err != nil {
		return Spec{}, apperrors.Wrap(apperrors.CodeDiceInvalidSpec, "parse dice sides "+strconv.Quote(notation), err)
	}
	spec := Spec{Sides: sides, Count: count}
	if !spec.valid() {
		return Spec{}, ErrInvalidDiceSpec
	}
	return spec, nil
}

// ParseExpression parses a "+" separated pool such as "2d6+1d8".
func ParseExpression(expression string) ([]Spec, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, ErrMissingDice
	}
	parts := strings.Split(expression, "+")
	specs := make([]Spec, 0, len(parts))
	for _, part := range parts {
		spec, err := ParseNotation(part)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// FormatExpression renders specs joined by "+".
func FormatExpression(specs []Spec) string {
	parts := make([]string, len(specs))
	for i, spec := range specs {
		parts[i] = spec.String()
	}
	return strings.Join(parts, "+")
}
