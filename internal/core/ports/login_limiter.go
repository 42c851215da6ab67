package ports

import "context"

// LoginLimiter throttles login attempts per client key within a time window.
type LoginLimiter interface {
	// Allow records one attempt for key and reports whether it is within budget.
	Allow(ctx context.Context, key string) (bool, error)
}
