package orders

import (
	"context"
	"fmt"
	"time"

	"ticketly/internal/tickets"
	"ticketly/pkg/logger"

	"github.com/google/uuid"
)

// Flat seat price in cents until per-event pricing lands.
// TODO: read the price from the event record once events carry one.
const seatPriceCents = 5000

// Publisher interface for sold-ticket lifecycle events (best-effort)
type Publisher interface {
	TicketSold(ctx context.Context, ticketID, eventID, holder string)
}

// Service interface defines the contract for order business logic
type Service interface {
	CreateOrder(ctx context.Context, ticketIDs []uuid.UUID, userID string) (*Order, *PaymentIntent, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error)
	GetUserOrders(ctx context.Context, userID string, limit, offset int) ([]Order, error)
	ConfirmPayment(ctx context.Context, orderID uuid.UUID) (*Order, error)

	SetPublisher(p Publisher)
}

// service implements the Service interface
type service struct {
	repo       Repository
	ticketRepo tickets.Repository
	gateway    PaymentGateway
	publisher  Publisher
	log        *logger.Logger
	clock      func() time.Time
}

// NewService creates a new order service instance
func NewService(repo Repository, ticketRepo tickets.Repository, gateway PaymentGateway) Service {
	return &service{
		repo:       repo,
		ticketRepo: ticketRepo,
		gateway:    gateway,
		log:        logger.GetDefault(),
		clock:      time.Now,
	}
}

func (s *service) SetPublisher(p Publisher) {
	s.publisher = p
}

// CreateOrder prices the given tickets, opens a payment intent and records
// the order. Tickets must be reserved by the ordering user; an order over
// someone else's reservation (or a free seat) is rejected up front.
func (s *service) CreateOrder(ctx context.Context, ticketIDs []uuid.UUID, userID string) (*Order, *PaymentIntent, error) {
	found, err := s.ticketRepo.FindByIDs(ctx, ticketIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load tickets: %w", err)
	}
	if len(found) != len(ticketIDs) {
		return nil, nil, fmt.Errorf("%d of %d tickets: %w", len(ticketIDs)-len(found), len(ticketIDs), tickets.ErrTicketNotFound)
	}

	now := s.clock()
	for _, t := range found {
		if t.EffectiveStatus(now) != tickets.StatusReserved || !t.HeldBy(userID) {
			return nil, nil, fmt.Errorf("ticket %s is not reserved by this user: %w", t.ID, tickets.ErrSeatUnavailable)
		}
	}

	total := int64(len(found)) * seatPriceCents

	intent, err := s.gateway.CreateIntent(ctx, total, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	order := &Order{
		UserID:          userID,
		TotalAmount:     total,
		Status:          StatusPending,
		PaymentIntentID: intent.ID,
	}
	for _, id := range ticketIDs {
		order.Tickets = append(order.Tickets, OrderTicket{TicketID: id})
	}

	if err := s.repo.Create(ctx, order); err != nil {
		return nil, nil, fmt.Errorf("failed to create order: %w", err)
	}

	return order, intent, nil
}

// GetOrder retrieves an order by ID
func (s *service) GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// GetUserOrders retrieves orders for a specific user
func (s *service) GetUserOrders(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	return s.repo.GetByUserID(ctx, userID, limit, offset)
}

// ConfirmPayment is the bridge the payment processor drives: once the intent
// has succeeded, every ticket on the order moves reserved→sold with the lease
// cleared. A ticket whose lease lapsed before confirmation is NOT resurrected;
// the confirmation fails and the order stays unpaid. Tickets transitioned
// before the failing one stay sold, mirroring the batch-reserve semantics.
func (s *service) ConfirmPayment(ctx context.Context, orderID uuid.UUID) (*Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.IsPaid() {
		return order, nil
	}

	status, err := s.gateway.IntentStatus(ctx, order.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check payment intent: %w", err)
	}
	if status != IntentStatusSucceeded {
		return nil, fmt.Errorf("payment intent is %s: %w", status, ErrPaymentNotCompleted)
	}

	for _, ot := range order.Tickets {
		ticket, err := s.ticketRepo.FindByID(ctx, ot.TicketID)
		if err != nil {
			return nil, fmt.Errorf("failed to load ticket %s: %w", ot.TicketID, err)
		}

		if ticket.EffectiveStatus(s.clock()) != tickets.StatusReserved {
			return nil, fmt.Errorf("ticket %s (seat %s) is no longer reserved: %w",
				ticket.ID, ticket.SeatNumber, tickets.ErrSeatUnavailable)
		}

		ok, err := s.ticketRepo.UpdateFromStatus(ctx, ot.TicketID, tickets.StatusReserved, map[string]interface{}{
			"status":           tickets.StatusSold,
			"holder":           order.UserID,
			"lease_expires_at": nil,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to mark ticket %s sold: %w", ot.TicketID, err)
		}
		if !ok {
			// Lost the race with lease expiry between the read and the write
			return nil, fmt.Errorf("ticket %s was released before confirmation: %w", ot.TicketID, tickets.ErrSeatUnavailable)
		}

		if s.publisher != nil {
			s.publisher.TicketSold(ctx, ticket.ID.String(), ticket.EventID.String(), order.UserID)
		}
	}

	if err := s.repo.UpdateStatus(ctx, orderID, StatusPaid); err != nil {
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}
	order.Status = StatusPaid

	s.log.LogOrderPaid(ctx, orderID.String(), order.UserID, len(order.Tickets))
	return order, nil
}
