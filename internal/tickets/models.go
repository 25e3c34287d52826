package tickets

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Ticket is a single sellable seat for an event. (event_id, seat_number) is
// globally unique; the pair is enforced both by the composite index here and
// by a raw constraint in the shared database package.
type Ticket struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EventID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_event_seat" json:"event_id"`
	SeatNumber     string     `gorm:"not null;uniqueIndex:idx_event_seat" json:"seat_number"`
	Status         Status     `gorm:"type:varchar(20);not null;default:'available';check:status IN ('available','reserved','sold','used')" json:"status"`
	Holder         *string    `gorm:"index" json:"holder,omitempty"`
	LeaseExpiresAt *time.Time `json:"lease_expires_at,omitempty"`
	Token          *string    `gorm:"type:text" json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName sets the table name for Ticket
func (Ticket) TableName() string {
	return "tickets"
}

// CheckInvariants verifies the record-level invariants that every mutation
// must preserve. Used by tests and by bulk creation.
func (t *Ticket) CheckInvariants() error {
	if !t.Status.IsValid() {
		return fmt.Errorf("unknown status %q", t.Status)
	}
	if (t.Holder != nil) != t.Status.IsHeld() {
		return fmt.Errorf("holder must be set iff status is reserved, sold or used (status=%s)", t.Status)
	}
	if (t.LeaseExpiresAt != nil) != (t.Status == StatusReserved) {
		return fmt.Errorf("lease must be set iff status is reserved (status=%s)", t.Status)
	}
	if t.Token != nil && t.Status != StatusSold && t.Status != StatusUsed {
		return fmt.Errorf("token can only exist on sold or used tickets (status=%s)", t.Status)
	}
	return nil
}

// HeldBy reports whether the ticket currently belongs to the given user
func (t *Ticket) HeldBy(userID string) bool {
	return t.Holder != nil && *t.Holder == userID
}

// ToResponse converts a Ticket to its API shape, resolving the lease-aware
// effective status at the given instant
func (t *Ticket) ToResponse(now time.Time) TicketResponse {
	resp := TicketResponse{
		ID:         t.ID.String(),
		EventID:    t.EventID.String(),
		SeatNumber: t.SeatNumber,
		Status:     string(t.EffectiveStatus(now)),
	}
	if t.Holder != nil {
		resp.Holder = *t.Holder
	}
	if t.LeaseExpiresAt != nil && t.EffectiveStatus(now) == StatusReserved {
		resp.LeaseExpiresAt = t.LeaseExpiresAt
	}
	return resp
}
