// Package ranking scores clips by viral potential and selects the
// recommended clips for each view.
package ranking

import (
	"github.com/clipcraft/clipcraft-agent/internal/catalog"
)

const (
	// DefaultSignal substitutes a missing motion or visual score.
	DefaultSignal = 0.5

	motionWeight    = 0.3
	visualWeight    = 0.2
	highActionBonus = 0.2
	categoryBonus   = 0.1

	// NotableThreshold is the score above which a clip is shown as notable.
	NotableThreshold = 0.75
)

// ViralPotential maps a clip's raw signals to a score in [0,1]. It has no side
// effects and returns the same value for the same clip.
func ViralPotential(c catalog.Clip) float64 {
	motion, visual := DefaultSignal, DefaultSignal
	if c.Analysis != nil {
		if c.Analysis.Motion != nil {
			motion = *c.Analysis.Motion
		}
		if c.Analysis.Visual != nil {
			visual = *c.Analysis.Visual
		}
	}

	typeTerm := categoryBonus
	if c.Category == catalog.CategoryHighAction {
		typeTerm = highActionBonus
	}

	score := c.Confidence + motion*motionWeight + visual*visualWeight + typeTerm
	return min(1.0, max(0.0, score))
}

// IsNotable reports whether a score falls in the notable tier.
func IsNotable(score float64) bool {
	return score > NotableThreshold
}
