// Package scoring turns the position of a term's first occurrence in a field into a relevance
// score. Earlier terms score higher, independent of term frequency:
//
//	decay(p) = H / (H + p), H = HalfLifePosition
//
// so a term at position 0 scores 1, a term at position H scores 0.5, and the score tends to 0
// as the position grows.
package scoring

import "fmt"

// HalfLifePosition is the position at which the decay score equals 0.5.
const HalfLifePosition = 5

// DefaultMissPosition is the position substituted for a term whose position cannot be resolved
// when a miss must still produce a score.
const DefaultMissPosition = 20

// Decay returns the unit score in (0, 1] of a term first occurring at position.
// position must be >= 0; callers handle NotFound before getting here.
func Decay(position int) float64 {
	return float64(HalfLifePosition) / float64(HalfLifePosition+position)
}

// decayFormula renders the instantiated formula used in explanations.
func decayFormula(boost float64, position int) string {
	if boost == 1 {
		return fmt.Sprintf("%d/(%d+%d)", HalfLifePosition, HalfLifePosition, position)
	}
	return fmt.Sprintf("%g*%d/(%d+%d)", boost, HalfLifePosition, HalfLifePosition, position)
}
