package tickets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketly/pkg/lock"
	"ticketly/pkg/logger"

	"github.com/google/uuid"
)

// Scheduler interface for expiry scheduling (implemented in this package,
// injected to keep the service testable without timers)
type Scheduler interface {
	Schedule(ticketID uuid.UUID, at time.Time)
}

// Publisher interface for lifecycle events. Implementations must be
// best-effort: a publish failure never fails the reservation.
type Publisher interface {
	TicketReserved(ctx context.Context, ticketID, eventID, holder string)
	TicketReleased(ctx context.Context, ticketID, eventID string)
}

// Service interface defines the contract for the reservation manager
type Service interface {
	Reserve(ctx context.Context, ticketID uuid.UUID, userID string) (*Ticket, error)
	ReserveBatch(ctx context.Context, ticketIDs []uuid.UUID, userID string) ([]Ticket, error)
	TicketsByHolder(ctx context.Context, userID string) ([]Ticket, error)
	TicketsByEvent(ctx context.Context, eventID uuid.UUID) ([]Ticket, error)
	CreateForEvent(ctx context.Context, eventID uuid.UUID, seatNumbers []string) ([]Ticket, error)

	// Expiry actions, driven by the scheduler and the sweep job
	ReleaseExpired(ctx context.Context, ticketID uuid.UUID) (bool, error)
	SweepLapsed(ctx context.Context) (int, error)

	// Dependency injection (wired after construction, see router)
	SetScheduler(sched Scheduler)
	SetPublisher(p Publisher)
}

// BatchError reports the first unreservable seat of a batch. Seats reserved
// before the failure are NOT rolled back; they are listed so callers can see
// the partial commit.
type BatchError struct {
	TicketID uuid.UUID
	Reserved []Ticket
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("failed to reserve ticket %s (%d seats already committed): %v", e.TicketID, len(e.Reserved), e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// service implements the Service interface
type service struct {
	repo         Repository
	locks        lock.Provider
	sched        Scheduler
	publisher    Publisher
	log          *logger.Logger
	clock        func() time.Time
	holdDuration time.Duration
	sweepBatch   int
}

// NewService creates a new reservation manager. The lock lease is sized to
// the hold duration so a lock never outlives the reservation it protects.
func NewService(repo Repository, locks lock.Provider, holdDuration time.Duration) Service {
	return &service{
		repo:         repo,
		locks:        locks,
		log:          logger.GetDefault(),
		clock:        time.Now,
		holdDuration: holdDuration,
		sweepBatch:   100,
	}
}

// SetScheduler injects the expiry scheduler (wired after construction to
// break the service/scheduler cycle)
func (s *service) SetScheduler(sched Scheduler) {
	s.sched = sched
}

// SetPublisher injects the lifecycle event publisher
func (s *service) SetPublisher(p Publisher) {
	s.publisher = p
}

func lockKey(ticketID uuid.UUID) string {
	return "locks:ticket:" + ticketID.String()
}

// Reserve moves a single seat from available to reserved on behalf of userID.
//
// The happy path acquires a per-ticket lock, re-reads the ticket under the
// lock, and commits a guarded write. If the lock service is unreachable the
// write still happens, unguarded by the lock but still conditional on the
// stored status; two processes can both observe 'available' in that window
// and the loser is decided by the store. That weaker guarantee is logged,
// never hidden.
func (s *service) Reserve(ctx context.Context, ticketID uuid.UUID, userID string) (*Ticket, error) {
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if ticket.EffectiveStatus(now) != StatusAvailable {
		return nil, fmt.Errorf("seat %s is %s: %w", ticket.SeatNumber, ticket.Status, ErrSeatUnavailable)
	}

	// Logically available but still marked reserved: the lease lapsed and no
	// release action has run. Reset it so the guarded write below can start
	// from 'available'.
	if ticket.Status == StatusReserved {
		if _, err := s.repo.ReleaseIfLapsed(ctx, ticketID, now); err != nil {
			return nil, fmt.Errorf("failed to release lapsed reservation: %w", err)
		}
	}

	handle, err := s.locks.Acquire(ctx, lockKey(ticketID), s.holdDuration)
	switch {
	case err == nil:
		return s.reserveLocked(ctx, handle, ticketID, userID)

	case errors.Is(err, lock.ErrLockHeld):
		// Another live process is reserving this exact seat. That is
		// contention, not infrastructure failure: fail, don't degrade.
		return nil, fmt.Errorf("seat is being reserved by another buyer: %w", ErrSeatUnavailable)

	case errors.Is(err, lock.ErrUnavailable):
		s.log.LogDegradedReservation(ctx, ticketID.String(), userID, err)
		return s.commitReservation(ctx, ticketID, userID)

	default:
		return nil, fmt.Errorf("lock acquisition failed: %w", err)
	}
}

func (s *service) reserveLocked(ctx context.Context, handle lock.Handle, ticketID uuid.UUID, userID string) (*Ticket, error) {
	defer func() {
		if err := handle.Release(ctx); err != nil {
			s.log.ErrorWithContext(ctx, "failed to release ticket lock", err, map[string]interface{}{
				"ticket_id": ticketID.String(),
			})
		}
	}()

	// Re-read under the lock: closes the gap between the first read and the
	// acquisition.
	current, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if current.EffectiveStatus(now) != StatusAvailable {
		return nil, fmt.Errorf("seat %s no longer available: %w", current.SeatNumber, ErrSeatUnavailable)
	}
	if current.Status == StatusReserved {
		if _, err := s.repo.ReleaseIfLapsed(ctx, ticketID, now); err != nil {
			return nil, fmt.Errorf("failed to release lapsed reservation: %w", err)
		}
	}

	return s.commitReservation(ctx, ticketID, userID)
}

// commitReservation performs the conditional available→reserved write and the
// post-commit bookkeeping (expiry scheduling, event publish). Also the whole
// of the degraded path.
func (s *service) commitReservation(ctx context.Context, ticketID uuid.UUID, userID string) (*Ticket, error) {
	now := s.clock()
	leaseExpiry := now.Add(s.holdDuration)

	ok, err := s.repo.UpdateFromStatus(ctx, ticketID, StatusAvailable, map[string]interface{}{
		"status":           StatusReserved,
		"holder":           userID,
		"lease_expires_at": leaseExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write reservation: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("seat was taken concurrently: %w", ErrSeatUnavailable)
	}

	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if s.sched != nil {
		s.sched.Schedule(ticketID, leaseExpiry)
	}
	if s.publisher != nil {
		s.publisher.TicketReserved(ctx, ticket.ID.String(), ticket.EventID.String(), userID)
	}
	s.log.LogTicketReserved(ctx, ticketID.String(), userID, leaseExpiry)

	return ticket, nil
}

// ReserveBatch reserves each seat independently and stops at the first
// failure. There is no cross-seat atomicity and no compensating rollback:
// seats committed before the failure stay reserved until paid or lapsed.
func (s *service) ReserveBatch(ctx context.Context, ticketIDs []uuid.UUID, userID string) ([]Ticket, error) {
	reserved := make([]Ticket, 0, len(ticketIDs))

	for _, id := range ticketIDs {
		ticket, err := s.Reserve(ctx, id, userID)
		if err != nil {
			return reserved, &BatchError{TicketID: id, Reserved: reserved, Err: err}
		}
		reserved = append(reserved, *ticket)
	}

	return reserved, nil
}

// TicketsByHolder returns the user's reserved, sold and used tickets. A
// reservation whose lease lapsed is logically available and therefore
// excluded, even if no release action has run; the release is kicked off
// opportunistically.
func (s *service) TicketsByHolder(ctx context.Context, userID string) ([]Ticket, error) {
	all, err := s.repo.FindByHolder(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	held := make([]Ticket, 0, len(all))
	for _, t := range all {
		if t.EffectiveStatus(now) == StatusAvailable {
			if _, rerr := s.repo.ReleaseIfLapsed(ctx, t.ID, now); rerr != nil {
				s.log.ErrorWithContext(ctx, "failed to release lapsed reservation", rerr, map[string]interface{}{
					"ticket_id": t.ID.String(),
				})
			}
			continue
		}
		held = append(held, t)
	}

	return held, nil
}

func (s *service) TicketsByEvent(ctx context.Context, eventID uuid.UUID) ([]Ticket, error) {
	return s.repo.FindByEventID(ctx, eventID)
}

// CreateForEvent bulk-creates available tickets for an event's seat map.
// Duplicate seat numbers fail on the (event_id, seat_number) constraint.
func (s *service) CreateForEvent(ctx context.Context, eventID uuid.UUID, seatNumbers []string) ([]Ticket, error) {
	tickets := make([]Ticket, 0, len(seatNumbers))
	for _, seat := range seatNumbers {
		t := Ticket{
			EventID:    eventID,
			SeatNumber: seat,
			Status:     StatusAvailable,
		}
		if err := t.CheckInvariants(); err != nil {
			return nil, fmt.Errorf("invalid seat %s: %w", seat, err)
		}
		tickets = append(tickets, t)
	}

	if err := s.repo.CreateBatch(ctx, tickets); err != nil {
		return nil, fmt.Errorf("failed to create tickets: %w", err)
	}

	return tickets, nil
}

// ReleaseExpired is the idempotent release action the scheduler fires at
// lease expiry. It re-reads the ticket and only resets it when it is still
// reserved with a lapsed lease; a ticket already paid for or already
// released is a no-op.
func (s *service) ReleaseExpired(ctx context.Context, ticketID uuid.UUID) (bool, error) {
	ticket, err := s.repo.FindByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, ErrTicketNotFound) {
			return false, nil
		}
		return false, err
	}

	now := s.clock()
	if ticket.Status != StatusReserved || ticket.LeaseExpiresAt == nil || now.Before(*ticket.LeaseExpiresAt) {
		return false, nil
	}

	released, err := s.repo.ReleaseIfLapsed(ctx, ticketID, now)
	if err != nil {
		return false, err
	}
	if released {
		s.log.LogReservationReleased(ctx, ticketID.String())
		if s.publisher != nil {
			s.publisher.TicketReleased(ctx, ticketID.String(), ticket.EventID.String())
		}
	}

	return released, nil
}

// SweepLapsed releases every reserved ticket whose lease elapsed. Catches
// reservations whose in-process timers were lost to a restart.
func (s *service) SweepLapsed(ctx context.Context) (int, error) {
	lapsed, err := s.repo.FindLapsedReservations(ctx, s.clock(), s.sweepBatch)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, t := range lapsed {
		ok, err := s.ReleaseExpired(ctx, t.ID)
		if err != nil {
			// Transient store errors are retried by the next sweep
			s.log.ErrorWithContext(ctx, "sweep failed to release reservation", err, map[string]interface{}{
				"ticket_id": t.ID.String(),
			})
			continue
		}
		if ok {
			released++
		}
	}

	return released, nil
}
