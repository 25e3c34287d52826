package tickets

import "time"

type TicketResponse struct {
	ID             string     `json:"id"`
	EventID        string     `json:"event_id"`
	SeatNumber     string     `json:"seat_number"`
	Status         string     `json:"status"`
	Holder         string     `json:"holder,omitempty"`
	LeaseExpiresAt *time.Time `json:"lease_expires_at,omitempty"`
}

// ReservationResponse reports a batch reserve. Seats reserved before a
// failure stay reserved; callers must treat a failed batch as possibly
// partially committed.
type ReservationResponse struct {
	Success       bool             `json:"success"`
	ReservedSeats []TicketResponse `json:"reserved_seats"`
	FailedTicket  string           `json:"failed_ticket,omitempty"`
	Reason        string           `json:"reason,omitempty"`
}
