package redemption

import (
	"context"
	"sync"
	"testing"
	"time"

	"ticketly/internal/tickets"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// fakeTicketRepo is a minimal in-memory tickets.Repository for redemption tests
type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[uuid.UUID]*tickets.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[uuid.UUID]*tickets.Ticket)}
}

func (r *fakeTicketRepo) add(status tickets.Status, holder string) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	t := &tickets.Ticket{
		ID:         id,
		EventID:    uuid.New(),
		SeatNumber: "A1",
		Status:     status,
	}
	if holder != "" {
		t.Holder = &holder
	}
	r.tickets[id] = t
	return id
}

func (r *fakeTicketRepo) CreateBatch(ctx context.Context, ts []tickets.Ticket) error { return nil }

func (r *fakeTicketRepo) FindByID(ctx context.Context, id uuid.UUID) (*tickets.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, tickets.ErrTicketNotFound
	}
	copy := *t
	return &copy, nil
}

func (r *fakeTicketRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]tickets.Ticket, error) {
	return nil, nil
}

func (r *fakeTicketRepo) FindByEventID(ctx context.Context, eventID uuid.UUID) ([]tickets.Ticket, error) {
	return nil, nil
}

func (r *fakeTicketRepo) FindByHolder(ctx context.Context, holder string) ([]tickets.Ticket, error) {
	return nil, nil
}

func (r *fakeTicketRepo) UpdateFromStatus(ctx context.Context, id uuid.UUID, from tickets.Status, updates map[string]interface{}) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok || t.Status != from {
		return false, nil
	}
	if v, ok := updates["status"]; ok {
		t.Status = v.(tickets.Status)
	}
	if v, ok := updates["token"]; ok {
		if v == nil {
			t.Token = nil
		} else {
			tok := v.(string)
			t.Token = &tok
		}
	}
	return true, nil
}

func (r *fakeTicketRepo) SetTokenIfUnset(ctx context.Context, id uuid.UUID, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok || t.Status != tickets.StatusSold || t.Token != nil {
		return false, nil
	}
	t.Token = &token
	return true, nil
}

func (r *fakeTicketRepo) ReleaseIfLapsed(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	return false, nil
}

func (r *fakeTicketRepo) FindLapsedReservations(ctx context.Context, now time.Time, limit int) ([]tickets.Ticket, error) {
	return nil, nil
}

func newTestService(repo tickets.Repository) Service {
	return NewService(repo, testSecret, 2*365*24*time.Hour)
}

func TestIssueTokenAndRedeem(t *testing.T) {
	repo := newFakeTicketRepo()
	id := repo.add(tickets.StatusSold, "u1")

	svc := newTestService(repo)

	token, err := svc.IssueToken(context.Background(), id, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := parseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), claims.TicketID)
	assert.Equal(t, "u1", claims.HolderID)

	redeemed, err := svc.Redeem(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, tickets.StatusUsed, redeemed.Status)
	assert.Equal(t, "u1", *redeemed.Holder)
}

func TestIssueTokenOnlyForSoldTickets(t *testing.T) {
	repo := newFakeTicketRepo()
	svc := newTestService(repo)

	reserved := repo.add(tickets.StatusReserved, "u1")
	_, err := svc.IssueToken(context.Background(), reserved, "u1")
	assert.ErrorIs(t, err, ErrTicketNotSold)

	available := repo.add(tickets.StatusAvailable, "")
	_, err = svc.IssueToken(context.Background(), available, "u1")
	assert.ErrorIs(t, err, ErrTicketNotSold)

	used := repo.add(tickets.StatusUsed, "u1")
	_, err = svc.IssueToken(context.Background(), used, "u1")
	assert.ErrorIs(t, err, ErrTicketNotSold)
}

func TestIssueTokenOnlyForBuyer(t *testing.T) {
	repo := newFakeTicketRepo()
	id := repo.add(tickets.StatusSold, "u1")

	svc := newTestService(repo)

	_, err := svc.IssueToken(context.Background(), id, "u2")
	assert.Error(t, err)
}

func TestIssueTokenSetOnce(t *testing.T) {
	repo := newFakeTicketRepo()
	id := repo.add(tickets.StatusSold, "u1")

	svc := newTestService(repo)

	first, err := svc.IssueToken(context.Background(), id, "u1")
	require.NoError(t, err)

	_, err = svc.IssueToken(context.Background(), id, "u1")
	assert.ErrorIs(t, err, ErrTokenAlreadyIssued)

	// The stored token still redeems
	_, err = svc.Redeem(context.Background(), first)
	assert.NoError(t, err)
}

func TestIssueTokenConcurrentIssuanceSingleWinner(t *testing.T) {
	repo := newFakeTicketRepo()
	id := repo.add(tickets.StatusSold, "u1")

	svc := newTestService(repo)

	const issuers = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	issued := make([]string, 0, 1)
	rejected := 0

	start := make(chan struct{})
	for i := 0; i < issuers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			token, err := svc.IssueToken(context.Background(), id, "u1")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				issued = append(issued, token)
			} else {
				assert.ErrorIs(t, err, ErrTokenAlreadyIssued)
				rejected++
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Len(t, issued, 1, "token must be issued at most once")
	assert.Equal(t, issuers-1, rejected)

	// The one token that was handed out is the one that redeems
	_, err := svc.Redeem(context.Background(), issued[0])
	assert.NoError(t, err)
}

func TestRedeemTwiceFails(t *testing.T) {
	repo := newFakeTicketRepo()
	id := repo.add(tickets.StatusSold, "u1")

	svc := newTestService(repo)

	token, err := svc.IssueToken(context.Background(), id, "u1")
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), token)
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), token)
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
}

func TestRedeemRejectsGarbageToken(t *testing.T) {
	svc := newTestService(newFakeTicketRepo())

	_, err := svc.Redeem(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRedeemRejectsForeignSignature(t *testing.T) {
	repo := newFakeTicketRepo()
	id := repo.add(tickets.StatusSold, "u1")

	svc := newTestService(repo)
	_, err := svc.IssueToken(context.Background(), id, "u1")
	require.NoError(t, err)

	forged, err := signToken("wrong-secret", id.String(), "u1", time.Now(), time.Hour)
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRedeemRejectsUnissuedToken(t *testing.T) {
	repo := newFakeTicketRepo()
	id := repo.add(tickets.StatusSold, "u1")

	svc := newTestService(repo)

	// Correctly signed, but never stored on the ticket
	stray, err := signToken(testSecret, id.String(), "u1", time.Now(), time.Hour)
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), stray)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRedeemRejectsExpiredToken(t *testing.T) {
	repo := newFakeTicketRepo()
	id := repo.add(tickets.StatusSold, "u1")

	svc := NewService(repo, testSecret, -time.Hour)

	token, err := svc.IssueToken(context.Background(), id, "u1")
	require.NoError(t, err)

	_, err = svc.Redeem(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
