package models

import (
	"fmt"
	"time"
)

// RateLimitConfig limits how often a single client may hit the gateway.
// A MaxAmount of zero disables rate limiting entirely.
type RateLimitConfig struct {
	MaxAmount     int           `yaml:"max_amount" json:"max_amount,omitempty"`
	ValidDuration time.Duration `yaml:"valid_duration" json:"valid_duration,omitempty"`
}

func (r *RateLimitConfig) Enabled() bool {
	return r.MaxAmount > 0
}

func (r *RateLimitConfig) Validate() error {
	if r.MaxAmount > 0 && r.ValidDuration <= 0 {
		return fmt.Errorf("%w: rate_limit.valid_duration must be positive when rate_limit.max_amount is set", ErrConfiguration)
	}
	return nil
}
