package game

// Fixed rules of ZapZap.
const (
	// EliminationThreshold is the cumulative score a seat must strictly
	// exceed to be eliminated.
	EliminationThreshold = 100

	// CallThreshold is the maximum hand point total that allows calling zap.
	CallThreshold = 5

	// CounteractPenalty is the per-opponent penalty added to a counteracted
	// caller's score on top of their own hand points.
	CounteractPenalty = 5

	// MinHandSize and MaxHandSize bound the starting player's hand size
	// choice. In Golden Score the upper bound widens to MaxGoldenHandSize.
	MinHandSize       = 4
	MaxHandSize       = 7
	MaxGoldenHandSize = 10
)

// HandSizeRange returns the inclusive hand size bounds for a round.
func HandSizeRange(goldenScore bool) (min, max int) {
	if goldenScore {
		return MinHandSize, MaxGoldenHandSize
	}
	return MinHandSize, MaxHandSize
}
