package scheduler

import "math/rand/v2"

// renormalizeGap is the smallest neighbor gap a midpoint insert will
// accept. Below it the user's positions are respaced before placing.
const renormalizeGap = 1e-6

// maxPlacementAttempts bounds collision retries for one placement.
const maxPlacementAttempts = 4

// placeBetween computes a position between the two bounds. A nil bound
// means that end is open. fraction 0.5 yields the canonical values: the
// exact midpoint between two neighbors, and unit steps past open ends.
// Collision retries pass a randomized fraction so concurrent inserts
// between the same neighbors diverge.
func placeBetween(lo, hi *float64, fraction float64) float64 {
	switch {
	case lo == nil && hi == nil:
		return 0.5 + fraction
	case lo == nil:
		return *hi - 0.5 - fraction
	case hi == nil:
		return *lo + 0.5 + fraction
	default:
		return *lo + (*hi-*lo)*fraction
	}
}

// gapExhausted reports whether the neighbors sit too close for a
// meaningful midpoint. Open ends never exhaust.
func gapExhausted(lo, hi *float64) bool {
	if lo == nil || hi == nil {
		return false
	}
	return *hi-*lo < renormalizeGap
}

func randomFraction() float64 {
	return 0.25 + rand.Float64()*0.5
}
