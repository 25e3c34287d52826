package events

import (
	"context"
	"fmt"

	"ticketly/internal/tickets"
	"ticketly/pkg/logger"

	"github.com/google/uuid"
)

// TicketService is the slice of the ticket service this package needs
type TicketService interface {
	CreateForEvent(ctx context.Context, eventID uuid.UUID, seatNumbers []string) ([]tickets.Ticket, error)
	TicketsByEvent(ctx context.Context, eventID uuid.UUID) ([]tickets.Ticket, error)
}

// Service interface defines the contract for event business logic
type Service interface {
	CreateEvent(ctx context.Context, req CreateEventRequest) (*Event, []tickets.Ticket, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	ListEvents(ctx context.Context, limit, offset int) ([]Event, error)
	EventTickets(ctx context.Context, eventID uuid.UUID) ([]tickets.Ticket, error)
}

type service struct {
	repo    Repository
	tickets TicketService
	log     *logger.Logger
}

// NewService creates a new event service instance
func NewService(repo Repository, ticketService TicketService) Service {
	return &service{
		repo:    repo,
		tickets: ticketService,
		log:     logger.GetDefault(),
	}
}

// CreateEvent records the event and bulk-creates one available ticket per
// seat label. Duplicate labels within the request are rejected at binding
// time; duplicates against existing tickets hit the (event_id, seat_number)
// constraint.
func (s *service) CreateEvent(ctx context.Context, req CreateEventRequest) (*Event, []tickets.Ticket, error) {
	event := &Event{
		Name:       req.Name,
		Venue:      req.Venue,
		StartsAt:   req.StartsAt,
		TotalSeats: len(req.SeatNumbers),
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, nil, fmt.Errorf("failed to create event: %w", err)
	}

	created, err := s.tickets.CreateForEvent(ctx, event.ID, req.SeatNumbers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create seat inventory: %w", err)
	}

	s.log.InfoWithContext(ctx, "event created with seat inventory", map[string]interface{}{
		"event_id": event.ID.String(),
		"seats":    len(created),
	})

	return event, created, nil
}

func (s *service) GetEvent(ctx context.Context, id uuid.UUID) (*Event, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) ListEvents(ctx context.Context, limit, offset int) ([]Event, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetAll(ctx, limit, offset)
}

func (s *service) EventTickets(ctx context.Context, eventID uuid.UUID) ([]tickets.Ticket, error) {
	if _, err := s.repo.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	return s.tickets.TicketsByEvent(ctx, eventID)
}
