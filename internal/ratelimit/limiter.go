// Package ratelimit throttles inbound updates per user and per conversation action.
package ratelimit

import (
	"context"
	"time"
)

// Rule allows Limit events per sliding Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Result captures the outcome of a rate-limit evaluation.
type Result struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long a rejected caller should wait.
	RetryAfter time.Duration
}

// Limiter describes a rate-limiting strategy interface.
type Limiter interface {
	Check(ctx context.Context, key string, rule Rule) (*Result, error)
}
