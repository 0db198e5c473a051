package sse

import "time"

// Config holds configuration for SSE connections
type Config struct {
	// KeepAliveInterval is how often a comment line is sent on an idle stream.
	// Most proxies close idle connections after 30-60 seconds.
	KeepAliveInterval time.Duration

	// RetryMillis is sent once so EventSource reconnects after this delay
	RetryMillis int
}

// DefaultConfig returns the default SSE configuration
func DefaultConfig() *Config {
	return &Config{
		KeepAliveInterval: 15 * time.Second,
		RetryMillis:       3000,
	}
}
