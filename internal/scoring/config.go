package scoring

import (
	"fmt"
	"strings"

	"github.com/khanhnv2901/endpoint-analyzer/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/endpoint-analyzer/internal/shared/errors"
)

// Thresholds are the response-time breakpoints, in milliseconds, of the
// performance curve.
type Thresholds struct {
	ExcellentMs  float64 `json:"excellentMs" mapstructure:"excellent_ms"`
	GoodMs       float64 `json:"goodMs" mapstructure:"good_ms"`
	AcceptableMs float64 `json:"acceptableMs" mapstructure:"acceptable_ms"`
	SlowMs       float64 `json:"slowMs" mapstructure:"slow_ms"`
}

// Weights combine the sub-scores into the total.
type Weights struct {
	Performance float64 `json:"performance" mapstructure:"performance"`
	Security    float64 `json:"security" mapstructure:"security"`
	Reliability float64 `json:"reliability" mapstructure:"reliability"`
}

// Config parameterizes every scoring formula.
type Config struct {
	Thresholds      Thresholds `json:"thresholds" mapstructure:"thresholds"`
	Weights         Weights    `json:"weights" mapstructure:"weights"`
	SecurityHeaders []string   `json:"securityHeaders" mapstructure:"security_headers"`
}

// DefaultConfig returns the stock thresholds, weights and header set.
func DefaultConfig() Config {
	return Config{
		Thresholds: Thresholds{
			ExcellentMs:  constants.ThresholdExcellentMs,
			GoodMs:       constants.ThresholdGoodMs,
			AcceptableMs: constants.ThresholdAcceptableMs,
			SlowMs:       constants.ThresholdSlowMs,
		},
		Weights: Weights{
			Performance: constants.WeightPerformance,
			Security:    constants.WeightSecurity,
			Reliability: constants.WeightReliability,
		},
		SecurityHeaders: constants.SecurityHeaders(),
	}
}

// WithDefaults fills unset fields from DefaultConfig. Each threshold is
// filled on its own; weights only when all three are zero.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	t := &c.Thresholds
	if t.ExcellentMs == 0 {
		t.ExcellentMs = def.Thresholds.ExcellentMs
	}
	if t.GoodMs == 0 {
		t.GoodMs = def.Thresholds.GoodMs
	}
	if t.AcceptableMs == 0 {
		t.AcceptableMs = def.Thresholds.AcceptableMs
	}
	if t.SlowMs == 0 {
		t.SlowMs = def.Thresholds.SlowMs
	}
	if c.Weights == (Weights{}) {
		c.Weights = def.Weights
	}
	if len(c.SecurityHeaders) == 0 {
		c.SecurityHeaders = def.SecurityHeaders
	}
	return c
}

// Validate rejects thresholds that are not strictly ascending, negative
// weights and an empty security header set.
func (c Config) Validate() error {
	t := c.Thresholds
	if t.ExcellentMs <= 0 || t.GoodMs <= t.ExcellentMs || t.AcceptableMs <= t.GoodMs || t.SlowMs <= t.AcceptableMs {
		return fmt.Errorf("%w: thresholds must be positive and ascending (got %v/%v/%v/%v)",
			sharedErrors.ErrInvalidConfig, t.ExcellentMs, t.GoodMs, t.AcceptableMs, t.SlowMs)
	}

	w := c.Weights
	if w.Performance < 0 || w.Security < 0 || w.Reliability < 0 {
		return fmt.Errorf("%w: weights must not be negative", sharedErrors.ErrInvalidConfig)
	}
	if w.Performance+w.Security+w.Reliability == 0 {
		return fmt.Errorf("%w: at least one weight must be positive", sharedErrors.ErrInvalidConfig)
	}

	if len(c.SecurityHeaders) == 0 {
		return fmt.Errorf("%w: security header set is empty", sharedErrors.ErrInvalidConfig)
	}
	for _, name := range c.SecurityHeaders {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: security header names must not be blank", sharedErrors.ErrInvalidConfig)
		}
	}
	return nil
}
