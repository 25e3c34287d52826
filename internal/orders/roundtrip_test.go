package orders

import (
	"context"
	"testing"
	"time"

	"ticketly/internal/redemption"
	"ticketly/internal/tickets"
	"ticketly/pkg/lock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// grantingLocks always grants; the round trip exercises the state machine,
// not lock arbitration
type grantingLocks struct{}

func (grantingLocks) Acquire(ctx context.Context, key string, lease time.Duration) (lock.Handle, error) {
	return grantedHandle{}, nil
}

type grantedHandle struct{}

func (grantedHandle) Release(ctx context.Context) error { return nil }

func (r *fakeTicketRepo) addAvailable() uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.New()
	r.tickets[id] = &tickets.Ticket{
		ID:         id,
		EventID:    uuid.New(),
		SeatNumber: "A1",
		Status:     tickets.StatusAvailable,
	}
	return id
}

// The full seat lifecycle against one shared store:
// available → reserved → sold → used, with replay and late-reserve attempts
// failing at each stage.
func TestSeatLifecycleRoundTrip(t *testing.T) {
	ctx := context.Background()
	ticketRepo := newFakeTicketRepo()
	id := ticketRepo.addAvailable()

	ticketSvc := tickets.NewService(ticketRepo, grantingLocks{}, 10*time.Minute)
	orderSvc := NewService(newFakeOrderRepo(), ticketRepo, NewMockGateway(true))
	redemptionSvc := redemption.NewService(ticketRepo, "roundtrip-secret", time.Hour)

	// Reserve
	reserved, err := ticketSvc.Reserve(ctx, id, "u1")
	require.NoError(t, err)
	assert.Equal(t, tickets.StatusReserved, reserved.Status)
	require.NotNil(t, reserved.LeaseExpiresAt)

	// A competing buyer is rejected while the lease is live
	_, err = ticketSvc.Reserve(ctx, id, "u2")
	assert.ErrorIs(t, err, tickets.ErrSeatUnavailable)

	// Pay
	order, _, err := orderSvc.CreateOrder(ctx, []uuid.UUID{id}, "u1")
	require.NoError(t, err)
	paid, err := orderSvc.ConfirmPayment(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)

	sold, err := ticketRepo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tickets.StatusSold, sold.Status)
	assert.Nil(t, sold.LeaseExpiresAt)

	// The expiry action must not touch a paid seat
	released, err := ticketSvc.ReleaseExpired(ctx, id)
	require.NoError(t, err)
	assert.False(t, released)

	// Redeem
	token, err := redemptionSvc.IssueToken(ctx, id, "u1")
	require.NoError(t, err)
	used, err := redemptionSvc.Redeem(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, tickets.StatusUsed, used.Status)

	// Replaying the same token fails, and the seat never re-opens
	_, err = redemptionSvc.Redeem(ctx, token)
	assert.ErrorIs(t, err, redemption.ErrAlreadyRedeemed)

	_, err = ticketSvc.Reserve(ctx, id, "u3")
	assert.ErrorIs(t, err, tickets.ErrSeatUnavailable)
}
