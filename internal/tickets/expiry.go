package tickets

import (
	"context"
	"sync"
	"time"

	"ticketly/pkg/logger"

	"github.com/google/uuid"
)

// releaser is the slice of Service the scheduler drives
type releaser interface {
	ReleaseExpired(ctx context.Context, ticketID uuid.UUID) (bool, error)
	SweepLapsed(ctx context.Context) (int, error)
}

// ExpiryScheduler fires the release action when a reservation's lease
// elapses. Timers live in process memory and die with the process; the
// periodic sweep and the read-time lease checks exist precisely because of
// that, so a lost timer only delays a release, never loses it.
type ExpiryScheduler struct {
	service       releaser
	log           *logger.Logger
	sweepInterval time.Duration
	clock         func() time.Time

	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
	done   chan struct{}
}

// NewExpiryScheduler creates a scheduler driving the given service
func NewExpiryScheduler(service releaser, sweepInterval time.Duration) *ExpiryScheduler {
	return &ExpiryScheduler{
		service:       service,
		log:           logger.GetDefault(),
		sweepInterval: sweepInterval,
		clock:         time.Now,
		timers:        make(map[uuid.UUID]*time.Timer),
		done:          make(chan struct{}),
	}
}

// Schedule arms a release at the given instant. Re-scheduling a ticket
// replaces its pending timer.
func (es *ExpiryScheduler) Schedule(ticketID uuid.UUID, at time.Time) {
	delay := at.Sub(es.clock())
	if delay < 0 {
		delay = 0
	}

	es.mu.Lock()
	defer es.mu.Unlock()

	if existing, ok := es.timers[ticketID]; ok {
		existing.Stop()
	}

	es.timers[ticketID] = time.AfterFunc(delay, func() {
		es.fire(ticketID)
	})
}

func (es *ExpiryScheduler) fire(ticketID uuid.UUID) {
	es.mu.Lock()
	delete(es.timers, ticketID)
	es.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := es.service.ReleaseExpired(ctx, ticketID); err != nil {
		// Not fatal: the next sweep retries
		es.log.ErrorWithContext(ctx, "expiry release failed", err, map[string]interface{}{
			"ticket_id": ticketID.String(),
		})
	}
}

// Start runs the sweep loop until Stop or context cancellation
func (es *ExpiryScheduler) Start(ctx context.Context) {
	go es.runSweep(ctx)
	es.log.Info("Expiry scheduler started", "sweep_interval", es.sweepInterval.String())
}

// Stop stops the sweep loop and cancels pending timers
func (es *ExpiryScheduler) Stop() {
	close(es.done)

	es.mu.Lock()
	defer es.mu.Unlock()
	for id, timer := range es.timers {
		timer.Stop()
		delete(es.timers, id)
	}
}

func (es *ExpiryScheduler) runSweep(ctx context.Context) {
	ticker := time.NewTicker(es.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			released, err := es.service.SweepLapsed(sweepCtx)
			cancel()
			if err != nil {
				es.log.ErrorWithContext(ctx, "expiry sweep failed", err, nil)
				continue
			}
			if released > 0 {
				es.log.LogExpirySweep(ctx, released)
			}
		case <-es.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// PendingTimers reports how many releases are currently armed
func (es *ExpiryScheduler) PendingTimers() int {
	es.mu.Lock()
	defer es.mu.Unlock()
	return len(es.timers)
}
