package tickets

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ticketly/pkg/lock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeRepo is an in-memory Repository with the same conditional-write
// semantics as the SQL implementation. Safe for concurrent use.
type fakeRepo struct {
	mu      sync.Mutex
	tickets map[uuid.UUID]*Ticket
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tickets: make(map[uuid.UUID]*Ticket)}
}

func (r *fakeRepo) add(t Ticket) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	copy := t
	r.tickets[t.ID] = &copy
	return t.ID
}

// CreateBatch enforces the (event_id, seat_number) composite key the way the
// database constraint does
func (r *fakeRepo) CreateBatch(ctx context.Context, tickets []Ticket) error {
	r.mu.Lock()
	seen := make(map[string]bool, len(r.tickets))
	for _, existing := range r.tickets {
		seen[existing.EventID.String()+"/"+existing.SeatNumber] = true
	}
	r.mu.Unlock()

	for _, t := range tickets {
		key := t.EventID.String() + "/" + t.SeatNumber
		if seen[key] {
			return gorm.ErrDuplicatedKey
		}
		seen[key] = true
	}
	for _, t := range tickets {
		r.add(t)
	}
	return nil
}

func (r *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, ErrTicketNotFound
	}
	copy := *t
	return &copy, nil
}

func (r *fakeRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Ticket
	for _, id := range ids {
		if t, ok := r.tickets[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeRepo) FindByEventID(ctx context.Context, eventID uuid.UUID) ([]Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Ticket
	for _, t := range r.tickets {
		if t.EventID == eventID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeRepo) FindByHolder(ctx context.Context, holder string) ([]Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Ticket
	for _, t := range r.tickets {
		if t.Holder != nil && *t.Holder == holder && t.Status != StatusAvailable {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateFromStatus(ctx context.Context, id uuid.UUID, from Status, updates map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok || t.Status != from {
		return false, nil
	}
	applyUpdates(t, updates)
	return true, nil
}

func (r *fakeRepo) SetTokenIfUnset(ctx context.Context, id uuid.UUID, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok || t.Status != StatusSold || t.Token != nil {
		return false, nil
	}
	t.Token = &token
	return true, nil
}

func (r *fakeRepo) ReleaseIfLapsed(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok || t.Status != StatusReserved || t.LeaseExpiresAt == nil || now.Before(*t.LeaseExpiresAt) {
		return false, nil
	}
	t.Status = StatusAvailable
	t.Holder = nil
	t.LeaseExpiresAt = nil
	return true, nil
}

func (r *fakeRepo) FindLapsedReservations(ctx context.Context, now time.Time, limit int) ([]Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Ticket
	for _, t := range r.tickets {
		if len(out) >= limit {
			break
		}
		if t.Status == StatusReserved && t.LeaseExpiresAt != nil && !now.Before(*t.LeaseExpiresAt) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func applyUpdates(t *Ticket, updates map[string]interface{}) {
	for k, v := range updates {
		switch k {
		case "status":
			t.Status = v.(Status)
		case "holder":
			if v == nil {
				t.Holder = nil
			} else {
				h := v.(string)
				t.Holder = &h
			}
		case "lease_expires_at":
			if v == nil {
				t.LeaseExpiresAt = nil
			} else {
				at := v.(time.Time)
				t.LeaseExpiresAt = &at
			}
		case "token":
			if v == nil {
				t.Token = nil
			} else {
				tok := v.(string)
				t.Token = &tok
			}
		}
	}
}

// fakeLockProvider emulates the quorum coordinator with a single in-process
// key set. acquireErr forces a fixed outcome instead.
type fakeLockProvider struct {
	mu         sync.Mutex
	held       map[string]bool
	acquireErr error
}

func newFakeLockProvider() *fakeLockProvider {
	return &fakeLockProvider{held: make(map[string]bool)}
}

func (p *fakeLockProvider) Acquire(ctx context.Context, key string, lease time.Duration) (lock.Handle, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.held[key] {
		return nil, lock.ErrLockHeld
	}
	p.held[key] = true
	return &fakeHandle{provider: p, key: key}, nil
}

type fakeHandle struct {
	provider *fakeLockProvider
	key      string
}

func (h *fakeHandle) Release(ctx context.Context) error {
	h.provider.mu.Lock()
	defer h.provider.mu.Unlock()
	delete(h.provider.held, h.key)
	return nil
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []uuid.UUID
}

func (s *fakeScheduler) Schedule(ticketID uuid.UUID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduled = append(s.scheduled, ticketID)
}

func availableTicket(eventID uuid.UUID, seat string) Ticket {
	return Ticket{EventID: eventID, SeatNumber: seat, Status: StatusAvailable}
}

func newTestService(repo *fakeRepo, locks lock.Provider) *service {
	return NewService(repo, locks, 10*time.Minute).(*service)
}

func TestReserveSuccess(t *testing.T) {
	repo := newFakeRepo()
	id := repo.add(availableTicket(uuid.New(), "A1"))

	sched := &fakeScheduler{}
	svc := newTestService(repo, newFakeLockProvider())
	svc.SetScheduler(sched)

	ticket, err := svc.Reserve(context.Background(), id, "u1")
	require.NoError(t, err)

	assert.Equal(t, StatusReserved, ticket.Status)
	require.NotNil(t, ticket.Holder)
	assert.Equal(t, "u1", *ticket.Holder)
	require.NotNil(t, ticket.LeaseExpiresAt)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), *ticket.LeaseExpiresAt, 5*time.Second)
	assert.Equal(t, []uuid.UUID{id}, sched.scheduled)
}

func TestReserveNotFound(t *testing.T) {
	svc := newTestService(newFakeRepo(), newFakeLockProvider())

	_, err := svc.Reserve(context.Background(), uuid.New(), "u1")
	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestReserveAlreadyReservedKeepsHolder(t *testing.T) {
	repo := newFakeRepo()
	holder := "u1"
	lease := time.Now().Add(5 * time.Minute)
	id := repo.add(Ticket{
		EventID:        uuid.New(),
		SeatNumber:     "A1",
		Status:         StatusReserved,
		Holder:         &holder,
		LeaseExpiresAt: &lease,
	})

	svc := newTestService(repo, newFakeLockProvider())

	_, err := svc.Reserve(context.Background(), id, "u2")
	assert.ErrorIs(t, err, ErrSeatUnavailable)

	current, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusReserved, current.Status)
	assert.Equal(t, "u1", *current.Holder)
}

func TestReserveSoldSeatFails(t *testing.T) {
	repo := newFakeRepo()
	holder := "u1"
	id := repo.add(Ticket{
		EventID:    uuid.New(),
		SeatNumber: "A1",
		Status:     StatusSold,
		Holder:     &holder,
	})

	svc := newTestService(repo, newFakeLockProvider())

	_, err := svc.Reserve(context.Background(), id, "u2")
	assert.ErrorIs(t, err, ErrSeatUnavailable)
}

func TestReserveLapsedReservationSucceeds(t *testing.T) {
	repo := newFakeRepo()
	holder := "u1"
	lease := time.Now().Add(-time.Minute)
	id := repo.add(Ticket{
		EventID:        uuid.New(),
		SeatNumber:     "A1",
		Status:         StatusReserved,
		Holder:         &holder,
		LeaseExpiresAt: &lease,
	})

	svc := newTestService(repo, newFakeLockProvider())

	ticket, err := svc.Reserve(context.Background(), id, "u2")
	require.NoError(t, err)
	assert.Equal(t, "u2", *ticket.Holder)
	assert.Equal(t, StatusReserved, ticket.Status)
}

func TestReserveContentionFailsWithoutFallback(t *testing.T) {
	repo := newFakeRepo()
	id := repo.add(availableTicket(uuid.New(), "A1"))

	locks := newFakeLockProvider()
	// Simulate another buyer holding the seat lock
	_, err := locks.Acquire(context.Background(), lockKey(id), time.Minute)
	require.NoError(t, err)

	svc := newTestService(repo, locks)

	_, err = svc.Reserve(context.Background(), id, "u1")
	assert.ErrorIs(t, err, ErrSeatUnavailable)

	current, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, current.Status)
}

func TestReserveDegradedFallbackOnLockOutage(t *testing.T) {
	repo := newFakeRepo()
	id := repo.add(availableTicket(uuid.New(), "A1"))

	locks := newFakeLockProvider()
	locks.acquireErr = lock.ErrUnavailable

	svc := newTestService(repo, locks)

	ticket, err := svc.Reserve(context.Background(), id, "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusReserved, ticket.Status)
	assert.Equal(t, "u1", *ticket.Holder)
}

func TestConcurrentReserveSingleWinner(t *testing.T) {
	repo := newFakeRepo()
	id := repo.add(availableTicket(uuid.New(), "A1"))

	svc := newTestService(repo, newFakeLockProvider())

	const buyers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := make([]string, 0, 1)
	failures := 0

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			user := "user-" + uuid.NewString()
			_, err := svc.Reserve(context.Background(), id, user)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners = append(winners, user)
			} else {
				assert.ErrorIs(t, err, ErrSeatUnavailable)
				failures++
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, winners, 1, "exactly one buyer must win the seat")
	assert.Equal(t, buyers-1, failures)

	current, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusReserved, current.Status)
	assert.Equal(t, winners[0], *current.Holder)
}

func TestConcurrentReserveDegradedSingleWinner(t *testing.T) {
	repo := newFakeRepo()
	id := repo.add(availableTicket(uuid.New(), "A1"))

	locks := newFakeLockProvider()
	locks.acquireErr = lock.ErrUnavailable

	svc := newTestService(repo, locks)

	const buyers = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), id, "user-"+uuid.NewString())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			}
		}()
	}
	wg.Wait()

	// Even with the lock service down, the conditional write admits one winner
	assert.Equal(t, 1, successes)
}

func TestReserveBatchStopsAtFirstFailure(t *testing.T) {
	repo := newFakeRepo()
	eventID := uuid.New()
	first := repo.add(availableTicket(eventID, "A1"))
	holder := "someone"
	taken := repo.add(Ticket{EventID: eventID, SeatNumber: "A2", Status: StatusSold, Holder: &holder})
	third := repo.add(availableTicket(eventID, "A3"))

	svc := newTestService(repo, newFakeLockProvider())

	reserved, err := svc.ReserveBatch(context.Background(), []uuid.UUID{first, taken, third}, "u1")
	require.Error(t, err)

	var batchErr *BatchError
	require.True(t, errors.As(err, &batchErr))
	assert.Equal(t, taken, batchErr.TicketID)
	assert.ErrorIs(t, err, ErrSeatUnavailable)

	// The first seat stays committed, the third was never attempted
	require.Len(t, reserved, 1)
	assert.Equal(t, first, reserved[0].ID)

	untouched, err := repo.FindByID(context.Background(), third)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, untouched.Status)
}

func TestTicketsByHolderExcludesLapsed(t *testing.T) {
	repo := newFakeRepo()
	eventID := uuid.New()
	holder := "u1"

	live := time.Now().Add(5 * time.Minute)
	lapsed := time.Now().Add(-time.Minute)
	activeID := repo.add(Ticket{EventID: eventID, SeatNumber: "A1", Status: StatusReserved, Holder: &holder, LeaseExpiresAt: &live})
	lapsedID := repo.add(Ticket{EventID: eventID, SeatNumber: "A2", Status: StatusReserved, Holder: &holder, LeaseExpiresAt: &lapsed})
	soldID := repo.add(Ticket{EventID: eventID, SeatNumber: "A3", Status: StatusSold, Holder: &holder})

	svc := newTestService(repo, newFakeLockProvider())

	held, err := svc.TicketsByHolder(context.Background(), holder)
	require.NoError(t, err)

	ids := make(map[uuid.UUID]bool, len(held))
	for _, tk := range held {
		ids[tk.ID] = true
	}
	assert.True(t, ids[activeID])
	assert.True(t, ids[soldID])
	assert.False(t, ids[lapsedID])

	// The lapsed reservation was released opportunistically
	released, err := repo.FindByID(context.Background(), lapsedID)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, released.Status)
	assert.Nil(t, released.Holder)
}

func TestReleaseExpired(t *testing.T) {
	repo := newFakeRepo()
	holder := "u1"
	lapsed := time.Now().Add(-time.Minute)
	id := repo.add(Ticket{EventID: uuid.New(), SeatNumber: "A1", Status: StatusReserved, Holder: &holder, LeaseExpiresAt: &lapsed})

	svc := newTestService(repo, newFakeLockProvider())

	released, err := svc.ReleaseExpired(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, released)

	// Second invocation is a no-op
	released, err = svc.ReleaseExpired(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, released)
}

func TestReleaseExpiredSkipsPaidTicket(t *testing.T) {
	repo := newFakeRepo()
	holder := "u1"
	id := repo.add(Ticket{EventID: uuid.New(), SeatNumber: "A1", Status: StatusSold, Holder: &holder})

	svc := newTestService(repo, newFakeLockProvider())

	released, err := svc.ReleaseExpired(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, released)

	current, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusSold, current.Status)
}

func TestReleaseExpiredLiveLeaseIsNoop(t *testing.T) {
	repo := newFakeRepo()
	holder := "u1"
	live := time.Now().Add(5 * time.Minute)
	id := repo.add(Ticket{EventID: uuid.New(), SeatNumber: "A1", Status: StatusReserved, Holder: &holder, LeaseExpiresAt: &live})

	svc := newTestService(repo, newFakeLockProvider())

	released, err := svc.ReleaseExpired(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, released)
}

func TestSweepLapsed(t *testing.T) {
	repo := newFakeRepo()
	eventID := uuid.New()
	holder := "u1"
	lapsed := time.Now().Add(-time.Minute)
	live := time.Now().Add(5 * time.Minute)

	repo.add(Ticket{EventID: eventID, SeatNumber: "A1", Status: StatusReserved, Holder: &holder, LeaseExpiresAt: &lapsed})
	repo.add(Ticket{EventID: eventID, SeatNumber: "A2", Status: StatusReserved, Holder: &holder, LeaseExpiresAt: &lapsed})
	repo.add(Ticket{EventID: eventID, SeatNumber: "A3", Status: StatusReserved, Holder: &holder, LeaseExpiresAt: &live})

	svc := newTestService(repo, newFakeLockProvider())

	released, err := svc.SweepLapsed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, released)
}

func TestCreateForEventRejectsDuplicateSeat(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeLockProvider())

	eventID := uuid.New()
	_, err := svc.CreateForEvent(context.Background(), eventID, []string{"A1", "A2"})
	require.NoError(t, err)

	// Same seat label for the same event hits the composite key
	_, err = svc.CreateForEvent(context.Background(), eventID, []string{"A1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// Duplicates within a single batch are rejected too
	_, err = svc.CreateForEvent(context.Background(), uuid.New(), []string{"B1", "B1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// The same label on a different event is fine
	_, err = svc.CreateForEvent(context.Background(), uuid.New(), []string{"A1"})
	assert.NoError(t, err)
}

func TestCreateForEvent(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, newFakeLockProvider())

	eventID := uuid.New()
	created, err := svc.CreateForEvent(context.Background(), eventID, []string{"A1", "A2", "A3"})
	require.NoError(t, err)
	require.Len(t, created, 3)
	for _, tk := range created {
		assert.Equal(t, StatusAvailable, tk.Status)
		assert.Equal(t, eventID, tk.EventID)
	}
}
