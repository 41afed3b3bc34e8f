package resilience

import (
	"time"
)

// FromCircuitConfig converts config values to a CircuitBreakerConfig.
func FromCircuitConfig(failureThreshold, resetTimeoutSecs int) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if resetTimeoutSecs > 0 {
		cfg.ResetTimeout = time.Duration(resetTimeoutSecs) * time.Second
	}
	return cfg
}

// FromClassBackoff converts millisecond config values to a ClassBackoff,
// keeping defaults for non-positive inputs.
func FromClassBackoff(rateLimitStepMs, serverErrorStepMs, otherDelayMs int) ClassBackoff {
	b := DefaultClassBackoff()
	if rateLimitStepMs > 0 {
		b.RateLimitStep = time.Duration(rateLimitStepMs) * time.Millisecond
	}
	if serverErrorStepMs > 0 {
		b.ServerErrorStep = time.Duration(serverErrorStepMs) * time.Millisecond
	}
	if otherDelayMs > 0 {
		b.OtherDelay = time.Duration(otherDelayMs) * time.Millisecond
	}
	return b
}
