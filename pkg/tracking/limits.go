package tracking

import "math"

const (
	// DefaultMinScale keeps the inferred scale away from a degenerate zero transform.
	DefaultMinScale = 0.001

	// DefaultMaxScale keeps the inferred scale from exploding on a tiny rig delta.
	DefaultMaxScale = 100.0
)

// clamp limits a value to a range
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// lerpUnclamped interpolates between a and b without limiting t to [0, 1].
func lerpUnclamped(a, b, t float64) float64 {
	return a + (b-a)*t
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
