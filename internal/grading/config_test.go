package grading

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveActive(t *testing.T) {
	t.Run("returns active configuration", func(t *testing.T) {
		configs := []Config{
			{ID: "c1", Method: MethodAverageAll, PassMark: 50},
			{ID: "c2", Method: MethodEndOfTermOnly, PassMark: 45, IsActive: true},
		}
		assert.Equal(t, "c2", ResolveActive(configs).ID)
	})

	t.Run("falls back to default", func(t *testing.T) {
		cfg := ResolveActive([]Config{{ID: "c1", Method: MethodWeightedAverage}})
		assert.Equal(t, MethodAverageAll, cfg.Method)
		assert.Equal(t, DefaultPassMark, cfg.PassMark)
		assert.Empty(t, cfg.ID)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, DefaultConfig(), ResolveActive(nil))
	})
}

func TestEffectivePassMark(t *testing.T) {
	var nilCfg *Config
	assert.Equal(t, DefaultPassMark, nilCfg.EffectivePassMark())
	assert.Equal(t, DefaultPassMark, (&Config{}).EffectivePassMark())
	assert.Equal(t, 40.0, (&Config{PassMark: 40}).EffectivePassMark())
}

func TestCalculationMethodValid(t *testing.T) {
	assert.True(t, MethodAverageAll.Valid())
	assert.True(t, MethodEndOfTermOnly.Valid())
	assert.True(t, MethodWeightedAverage.Valid())
	assert.False(t, CalculationMethod("median").Valid())
	assert.Equal(t, "Weighted Average", MethodWeightedAverage.Label())
}

func TestIsPresent(t *testing.T) {
	assert.False(t, IsPresent(nil))
	assert.False(t, IsPresent(Ptr(0)))
	assert.False(t, IsPresent(Ptr(-5)))
	assert.False(t, IsPresent(Ptr(math.NaN())))
	assert.False(t, IsPresent(Ptr(math.Inf(1))))
	assert.True(t, IsPresent(Ptr(0.5)))

	present := FilterPresent([]*float64{Ptr(70), nil, Ptr(0), Ptr(85)})
	assert.Equal(t, []float64{70, 85}, present)
}
