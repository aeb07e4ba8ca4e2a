package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GradingPolicy is the fallback calculation policy applied while no grade configuration
// is active in the database.
type GradingPolicy struct {
	Name              string  `yaml:"name"`
	CalculationMethod string  `yaml:"calculation_method"`
	WeightQA1         float64 `yaml:"weight_qa1"`
	WeightQA2         float64 `yaml:"weight_qa2"`
	WeightEndOfTerm   float64 `yaml:"weight_end_of_term"`
	PassMark          float64 `yaml:"pass_mark"`
}

// DefaultGradingPolicy averages all assessments with a pass mark of 50.
func DefaultGradingPolicy() GradingPolicy {
	return GradingPolicy{
		Name:              "Default (Average of All)",
		CalculationMethod: "average_all",
		PassMark:          50,
	}
}

// LoadGradingPolicy reads a YAML policy file. An empty path yields the default policy;
// fields missing from the file keep their default values.
func LoadGradingPolicy(path string) (GradingPolicy, error) {
	policy := DefaultGradingPolicy()
	if path == "" {
		return policy, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("read grading policy: %w", err)
	}
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return DefaultGradingPolicy(), fmt.Errorf("parse grading policy: %w", err)
	}
	if policy.CalculationMethod == "" {
		policy.CalculationMethod = "average_all"
	}
	if policy.PassMark <= 0 {
		policy.PassMark = 50
	}
	return policy, nil
}
