package resilience

import "time"

// Breaker shape and backoff growth are fixed per process. Only the retry
// budget and the breaker on/off switch are exposed through service
// configuration; every upstream (OpenAI, NATS) shares the same tuning.
const (
	retryMultiplier = 2.0

	breakerMinRequests      uint32 = 10
	breakerFailureRatio            = 0.5
	breakerOpenTimeout             = 30 * time.Second
	breakerHalfOpenMaxCalls uint32 = 2
)

// Config carries the operator-settable resilience knobs.
type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	BreakerEnabled      bool
}

func (c Config) normalize() Config {
	out := c

	if out.RetryMaxAttempts <= 0 {
		out.RetryMaxAttempts = 3
	}
	if out.RetryInitialBackoff <= 0 {
		out.RetryInitialBackoff = 100 * time.Millisecond
	}
	if out.RetryMaxBackoff <= 0 {
		out.RetryMaxBackoff = 400 * time.Millisecond
	}
	if out.RetryMaxBackoff < out.RetryInitialBackoff {
		out.RetryMaxBackoff = out.RetryInitialBackoff
	}

	return out
}
