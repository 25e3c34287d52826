package tickets

import "errors"

var (
	// ErrTicketNotFound is returned when the referenced ticket does not exist
	ErrTicketNotFound = errors.New("ticket not found")

	// ErrSeatUnavailable is returned when a transition is attempted from the
	// wrong current state: the seat is reserved, sold or used when a caller
	// wants it available, or no longer reserved when a payment lands.
	ErrSeatUnavailable = errors.New("seat not available")
)
