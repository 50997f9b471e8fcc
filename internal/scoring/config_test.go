package scoring

import (
	"testing"

	sharedErrors "github.com/khanhnv2901/endpoint-analyzer/internal/shared/errors"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, 200.0, cfg.Thresholds.ExcellentMs)
	require.Equal(t, 3000.0, cfg.Thresholds.SlowMs)
	require.InDelta(t, 1.0, cfg.Weights.Performance+cfg.Weights.Security+cfg.Weights.Reliability, 1e-9)
	require.Len(t, cfg.SecurityHeaders, 4)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"descending thresholds", func(c *Config) { c.Thresholds.GoodMs = 100 }},
		{"zero excellent", func(c *Config) { c.Thresholds.ExcellentMs = 0 }},
		{"slow not above acceptable", func(c *Config) { c.Thresholds.SlowMs = c.Thresholds.AcceptableMs }},
		{"negative weight", func(c *Config) { c.Weights.Security = -0.1 }},
		{"all weights zero", func(c *Config) { c.Weights = Weights{} }},
		{"no headers", func(c *Config) { c.SecurityHeaders = nil }},
		{"blank header", func(c *Config) { c.SecurityHeaders = []string{"x-frame-options", " "} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), sharedErrors.ErrInvalidConfig)
		})
	}
}

func TestWithDefaults(t *testing.T) {
	def := DefaultConfig()

	require.Equal(t, def, Config{}.WithDefaults())

	partial := Config{
		Thresholds: Thresholds{ExcellentMs: 100, GoodMs: 300},
		Weights:    Weights{Performance: 1},
	}.WithDefaults()
	require.Equal(t, 100.0, partial.Thresholds.ExcellentMs)
	require.Equal(t, 300.0, partial.Thresholds.GoodMs)
	require.Equal(t, def.Thresholds.AcceptableMs, partial.Thresholds.AcceptableMs)
	require.Equal(t, def.Thresholds.SlowMs, partial.Thresholds.SlowMs)
	require.Equal(t, Weights{Performance: 1}, partial.Weights)
	require.Equal(t, def.SecurityHeaders, partial.SecurityHeaders)
	require.NoError(t, partial.Validate())
}

func TestCustomThresholdsShiftTheCurve(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds = Thresholds{ExcellentMs: 50, GoodMs: 100, AcceptableMs: 200, SlowMs: 400}

	require.NoError(t, cfg.Validate())
	require.Equal(t, 100, cfg.Performance(reachable(50)))
	require.Equal(t, 75, cfg.Performance(reachable(100)))
	require.Equal(t, 20, cfg.Performance(reachable(400)))
}
