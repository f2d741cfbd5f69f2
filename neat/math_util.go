package neat

import "math"

// clamp restricts a value to [minVal, maxVal].
func clamp(value, minVal, maxVal float32) float32 {
	return float32(math.Max(float64(minVal), math.Min(float64(value), float64(maxVal))))
}

// lerp linearly interpolates between a and b at portion t.
func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// roundHalfAwayFromZero matches the source's use of std::round when turning
// a Binomial-derived float target into an integer mutation count.
func roundHalfAwayFromZero(x float32) int {
	if x >= 0 {
		return int(math.Floor(float64(x) + 0.5))
	}
	return int(math.Ceil(float64(x) - 0.5))
}
