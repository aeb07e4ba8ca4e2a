package grading

import "math"

// IsPresent reports whether a score was actually taken. Nil, zero, negative and
// non-finite values all mean "not taken".
func IsPresent(score *float64) bool {
	if score == nil {
		return false
	}
	v := *score
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return v > 0
}

// FilterPresent keeps only the scores that were taken.
func FilterPresent(scores []*float64) []float64 {
	present := make([]float64, 0, len(scores))
	for _, score := range scores {
		if IsPresent(score) {
			present = append(present, *score)
		}
	}
	return present
}

// ValueOf returns the raw numeric value of a score, using 0 for nil or non-finite input.
func ValueOf(score *float64) float64 {
	if score == nil {
		return 0
	}
	return finite(*score)
}

// Ptr returns a pointer to v.
func Ptr(v float64) *float64 {
	return &v
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return finite(sum / float64(len(values))), true
}
