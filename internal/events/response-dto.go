package events

import (
	"time"

	"ticketly/internal/tickets"
)

type EventResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Venue      string    `json:"venue"`
	StartsAt   time.Time `json:"starts_at"`
	TotalSeats int       `json:"total_seats"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateEventResponse struct {
	Event   EventResponse            `json:"event"`
	Tickets []tickets.TicketResponse `json:"tickets"`
}

func (e *Event) ToResponse() EventResponse {
	return EventResponse{
		ID:         e.ID.String(),
		Name:       e.Name,
		Venue:      e.Venue,
		StartsAt:   e.StartsAt,
		TotalSeats: e.TotalSeats,
		CreatedAt:  e.CreatedAt,
	}
}
