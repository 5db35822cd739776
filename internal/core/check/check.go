// Package check resolves a rolled total against a difficulty class.
package check

// Result is the outcome of a difficulty check. Margin is positive on success
// and negative on failure.
type Result struct {
	Success bool `json:"success"`
	Margin  int  `json:"margin"`
}

// Check compares total against dc. Meeting the DC succeeds.
func Check(total, dc int) Result {
	return Result{Success: total >= dc, Margin: total - dc}
}

// Resist reports whether a target resisting an effect of the given DC shrugs
// it off with its save total. A resisted effect is the caster's failure.
func Resist(saveTotal, dc int) Result {
	return Check(saveTotal, dc)
}
