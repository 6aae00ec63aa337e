// Package dice provides the randomness abstraction used by the encounter
// simulator: seeded per-trial sources, inclusive uniform draws, and small
// dice expressions for fixed-cadence helper damage.
package dice

import "fmt"

// RollResult holds the full audit trail for a single dice roll evaluation.
//
// Postcondition: Total() == max(0, sum(Dice) + Modifier).
type RollResult struct {
	Expression string // original expression string, e.g. "d4-1"
	Dice       []int  // individual die results before modifier
	Modifier   int    // flat modifier (may be negative)
}

// Total returns the sum of all die results plus the modifier, floored at zero.
// Damage can never be negative, so a "d4-1" roll of 1 totals 0.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	if total < 0 {
		return 0
	}
	return total
}

// String returns a human-readable audit string in the format:
//
//	"d4-1 → [3] -1 = 2"
//
// Precondition: r.Expression is non-empty.
func (r RollResult) String() string {
	if r.Expression == "" {
		panic("dice: RollResult.String() precondition violated: Expression must be non-empty")
	}
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Source is the randomness provider for every stochastic decision in a trial.
//
// Implementations returned by NewSeededSource are NOT safe for concurrent use;
// each trial owns exactly one Source and never shares it.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
}

// Between returns a uniformly distributed integer in the inclusive range [lo, hi].
//
// Postcondition: returns lo when hi <= lo; otherwise lo <= result <= hi.
func Between(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}
