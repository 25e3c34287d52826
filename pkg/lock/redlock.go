package lock

import (
	"context"
	"errors"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	redsyncredis "github.com/go-redsync/redsync/v4/redis"
	"github.com/redis/go-redis/v9"
)

// RedlockProvider implements Provider with the Redlock algorithm: the lock is
// held only while a majority of independent Redis nodes agree, and every node
// expires the lease server-side so a crashed holder cannot wedge a seat.
type RedlockProvider struct {
	rs *redsync.Redsync
}

// NewRedlockProvider builds a provider over the given lock nodes. Each client
// must point at an independent Redis instance for the quorum to mean anything.
func NewRedlockProvider(nodes []*redis.Client) *RedlockProvider {
	pools := make([]redsyncredis.Pool, 0, len(nodes))
	for _, node := range nodes {
		pools = append(pools, goredis.NewPool(node))
	}
	return &RedlockProvider{rs: redsync.New(pools...)}
}

// Acquire attempts a single, non-retrying acquisition. Contention and
// infrastructure failure are reported as distinct errors so the caller can
// decide between failing the request and degrading.
func (p *RedlockProvider) Acquire(ctx context.Context, key string, lease time.Duration) (Handle, error) {
	mutex := p.rs.NewMutex(key,
		redsync.WithExpiry(lease),
		redsync.WithTries(1),
	)

	if err := mutex.TryLockContext(ctx); err != nil {
		return nil, classifyAcquireError(err)
	}

	return &redlockHandle{mutex: mutex}, nil
}

// classifyAcquireError maps redsync failures onto the provider contract.
// A lock reported taken on the nodes is contention; anything else means the
// nodes themselves could not arbitrate.
func classifyAcquireError(err error) error {
	var taken *redsync.ErrTaken
	if errors.As(err, &taken) {
		return ErrLockHeld
	}
	var nodeTaken *redsync.ErrNodeTaken
	if errors.As(err, &nodeTaken) {
		return ErrLockHeld
	}
	if errors.Is(err, redsync.ErrFailed) {
		return ErrLockHeld
	}
	return ErrUnavailable
}

type redlockHandle struct {
	mutex *redsync.Mutex
}

func (h *redlockHandle) Release(ctx context.Context) error {
	ok, err := h.mutex.UnlockContext(ctx)
	if err != nil {
		// The lease expires server-side regardless, so a failed unlock only
		// delays the seat's availability by the remaining lease.
		return err
	}
	_ = ok // false means the lease already lapsed; nothing left to release
	return nil
}
