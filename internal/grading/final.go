package grading

// CalculateFinalScore derives a subject's final score from its three assessments.
//
// Components are used as given: an assessment that was not taken counts as 0 here,
// unlike the cross-subject averages which skip absent scores. A nil config behaves
// as average_all. Out-of-range inputs are not rejected, but an overflowing result is 0.
func CalculateFinalScore(qa1, qa2, endOfTerm float64, cfg *Config) float64 {
	qa1, qa2, endOfTerm = finite(qa1), finite(qa2), finite(endOfTerm)
	if cfg == nil {
		return finite((qa1 + qa2 + endOfTerm) / 3)
	}
	switch cfg.Method {
	case MethodEndOfTermOnly:
		return endOfTerm
	case MethodWeightedAverage:
		totalWeight := cfg.TotalWeight()
		if totalWeight == 0 {
			return 0
		}
		weightedSum := qa1*cfg.WeightQA1 + qa2*cfg.WeightQA2 + endOfTerm*cfg.WeightEndOfTerm
		return finite(weightedSum / totalWeight)
	default:
		return finite((qa1 + qa2 + endOfTerm) / 3)
	}
}
