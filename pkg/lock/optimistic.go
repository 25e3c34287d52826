package lock

import (
	"context"
	"time"
)

// OptimisticProvider is the configured-off lock coordinator. Every acquisition
// reports ErrUnavailable, which pushes callers onto their optimistic
// conditional-write path. The weaker guarantee is the whole point of this
// implementation existing as a named type instead of a nil check: deployments
// without a lock service get the race window explicitly, not implicitly.
type OptimisticProvider struct{}

// NewOptimisticProvider creates a provider that never grants locks
func NewOptimisticProvider() *OptimisticProvider {
	return &OptimisticProvider{}
}

func (p *OptimisticProvider) Acquire(ctx context.Context, key string, lease time.Duration) (Handle, error) {
	return nil, ErrUnavailable
}
