package resilience

import "time"

type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

// QueueCircuitBreakerConfig guards job requeue publishing. Requeue is retried
// by the next scheduled run, so the breaker trips early.
func QueueCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{Enabled: true, FailureThreshold: 5, OpenTimeout: 15 * time.Second, HalfOpenMaxReq: 2}
}

// ArchiveCircuitBreakerConfig guards audit report uploads. An open breaker
// blocks corrective write-back until the bucket recovers.
func ArchiveCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{Enabled: true, FailureThreshold: 3, OpenTimeout: 30 * time.Second, HalfOpenMaxReq: 1}
}

// withDefaults fills zero fields from fallback and keeps Enabled as given.
func (c CircuitBreakerConfig) withDefaults(fallback CircuitBreakerConfig) CircuitBreakerConfig {
	if c.FailureThreshold < 1 {
		c.FailureThreshold = fallback.FailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = fallback.OpenTimeout
	}
	if c.HalfOpenMaxReq < 1 {
		c.HalfOpenMaxReq = fallback.HalfOpenMaxReq
	}
	return c
}
