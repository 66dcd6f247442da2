package meteo

import "math"

// meanOr reduces an hourly series to its arithmetic mean rounded to two
// decimals, skipping hours without a value. An empty series yields the
// fallback.
func meanOr(values []*float64, fallback float64) float64 {
	var sum float64
	var n int
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return fallback
	}
	return math.Round(sum/float64(n)*100) / 100
}

// Float64Ptr is a helper function to get a pointer to a float64 value
func Float64Ptr(f float64) *float64 {
	return &f
}
