package resilience

import "time"

type config struct {
	maxConcurrent      int
	timeout            time.Duration
	breakerMaxRequests uint32
	breakerInterval    time.Duration
	breakerTimeout     time.Duration
	breakerFailures    uint32
	retryAttempts      int
	retryDelay         time.Duration
}

func defaultConfig() config {
	return config{
		maxConcurrent:      8,
		timeout:            2 * time.Minute,
		breakerMaxRequests: 3,
		breakerInterval:    time.Minute,
		breakerTimeout:     30 * time.Second,
		breakerFailures:    5,
		retryAttempts:      3,
		retryDelay:         500 * time.Millisecond,
	}
}

// Option configures an Executor.
type Option func(*config)

// WithMaxConcurrent limits the number of invocations running at once.
func WithMaxConcurrent(n int) Option {
	return func(c *config) {
		c.maxConcurrent = n
	}
}

// WithTimeout sets the per-invocation timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithBreakerFailures sets the consecutive failure count that opens
// the circuit breaker.
func WithBreakerFailures(n uint32) Option {
	return func(c *config) {
		c.breakerFailures = n
	}
}

// WithRetryAttempts sets the maximum retry attempts for idempotent
// invocations.
func WithRetryAttempts(n int) Option {
	return func(c *config) {
		c.retryAttempts = n
	}
}

// WithRetryDelay sets the initial retry backoff delay.
func WithRetryDelay(d time.Duration) Option {
	return func(c *config) {
		c.retryDelay = d
	}
}
