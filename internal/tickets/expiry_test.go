package tickets

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeReleaser records release calls and signals each one on fired
type fakeReleaser struct {
	mu       sync.Mutex
	released []uuid.UUID
	fired    chan uuid.UUID
}

func newFakeReleaser() *fakeReleaser {
	return &fakeReleaser{fired: make(chan uuid.UUID, 16)}
}

func (f *fakeReleaser) ReleaseExpired(ctx context.Context, ticketID uuid.UUID) (bool, error) {
	f.mu.Lock()
	f.released = append(f.released, ticketID)
	f.mu.Unlock()
	f.fired <- ticketID
	return true, nil
}

func (f *fakeReleaser) SweepLapsed(ctx context.Context) (int, error) {
	return 0, nil
}

func TestScheduleFiresRelease(t *testing.T) {
	rel := newFakeReleaser()
	sched := NewExpiryScheduler(rel, time.Hour)
	defer sched.Stop()

	id := uuid.New()
	sched.Schedule(id, time.Now().Add(10*time.Millisecond))

	select {
	case fired := <-rel.fired:
		assert.Equal(t, id, fired)
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}

	assert.Equal(t, 0, sched.PendingTimers())
}

func TestScheduleInPastFiresImmediately(t *testing.T) {
	rel := newFakeReleaser()
	sched := NewExpiryScheduler(rel, time.Hour)
	defer sched.Stop()

	id := uuid.New()
	sched.Schedule(id, time.Now().Add(-time.Minute))

	select {
	case fired := <-rel.fired:
		assert.Equal(t, id, fired)
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired")
	}
}

func TestScheduleReplacesPendingTimer(t *testing.T) {
	rel := newFakeReleaser()
	sched := NewExpiryScheduler(rel, time.Hour)
	defer sched.Stop()

	id := uuid.New()
	sched.Schedule(id, time.Now().Add(time.Hour))
	sched.Schedule(id, time.Now().Add(time.Hour))

	assert.Equal(t, 1, sched.PendingTimers())
}

func TestStopCancelsPendingTimers(t *testing.T) {
	rel := newFakeReleaser()
	sched := NewExpiryScheduler(rel, time.Hour)

	sched.Schedule(uuid.New(), time.Now().Add(time.Hour))
	sched.Schedule(uuid.New(), time.Now().Add(time.Hour))
	require.Equal(t, 2, sched.PendingTimers())

	sched.Stop()
	assert.Equal(t, 0, sched.PendingTimers())
}

func TestSweepLoopRuns(t *testing.T) {
	swept := make(chan struct{}, 4)
	rel := &sweepSignal{ch: swept}
	sched := NewExpiryScheduler(rel, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sched.Start(ctx)
	defer sched.Stop()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep loop never ran")
	}
}

type sweepSignal struct {
	ch chan struct{}
}

func (s *sweepSignal) ReleaseExpired(ctx context.Context, ticketID uuid.UUID) (bool, error) {
	return false, nil
}

func (s *sweepSignal) SweepLapsed(ctx context.Context) (int, error) {
	select {
	case s.ch <- struct{}{}:
	default:
	}
	return 0, nil
}
