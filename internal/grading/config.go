package grading

// CalculationMethod selects how a subject's final score is derived from its assessments.
type CalculationMethod string

const (
	// MethodAverageAll averages QA1, QA2 and end-of-term.
	MethodAverageAll CalculationMethod = "average_all"
	// MethodEndOfTermOnly uses the end-of-term score alone.
	MethodEndOfTermOnly CalculationMethod = "end_of_term_only"
	// MethodWeightedAverage applies per-assessment percentage weights.
	MethodWeightedAverage CalculationMethod = "weighted_average"
)

// DefaultPassMark applies when no configuration or a zero pass mark is supplied.
const DefaultPassMark = 50.0

// Valid reports whether m is one of the supported methods.
func (m CalculationMethod) Valid() bool {
	switch m {
	case MethodAverageAll, MethodEndOfTermOnly, MethodWeightedAverage:
		return true
	default:
		return false
	}
}

// Label returns the human readable method name shown on report cards.
func (m CalculationMethod) Label() string {
	switch m {
	case MethodEndOfTermOnly:
		return "End of Term Only"
	case MethodWeightedAverage:
		return "Weighted Average"
	default:
		return "Average of All Tests"
	}
}

// Config is the calculation policy consumed by the engine.
type Config struct {
	ID              string            `json:"id,omitempty" yaml:"id"`
	Name            string            `json:"name" yaml:"name"`
	Method          CalculationMethod `json:"calculation_method" yaml:"calculation_method"`
	WeightQA1       float64           `json:"weight_qa1" yaml:"weight_qa1"`
	WeightQA2       float64           `json:"weight_qa2" yaml:"weight_qa2"`
	WeightEndOfTerm float64           `json:"weight_end_of_term" yaml:"weight_end_of_term"`
	PassMark        float64           `json:"pass_mark" yaml:"pass_mark"`
	IsActive        bool              `json:"is_active" yaml:"is_active"`
}

// DefaultConfig is used when no configuration has been activated.
func DefaultConfig() Config {
	return Config{
		Name:     "Default (Average of All)",
		Method:   MethodAverageAll,
		PassMark: DefaultPassMark,
	}
}

// TotalWeight sums the three assessment weights.
func (c Config) TotalWeight() float64 {
	return c.WeightQA1 + c.WeightQA2 + c.WeightEndOfTerm
}

// EffectivePassMark returns the configured pass mark, or DefaultPassMark when unset.
func (c *Config) EffectivePassMark() float64 {
	if c == nil || c.PassMark <= 0 {
		return DefaultPassMark
	}
	return c.PassMark
}

// ResolveActive picks the active configuration from candidates. The first active entry wins;
// without one the default policy is returned.
func ResolveActive(configs []Config) Config {
	for _, cfg := range configs {
		if cfg.IsActive {
			return cfg
		}
	}
	return DefaultConfig()
}
