package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is a sellable occasion with a fixed seat map. Seats are created as
// tickets in one shot when the event is created.
type Event struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Venue      string    `gorm:"not null" json:"venue"`
	StartsAt   time.Time `gorm:"not null" json:"starts_at"`
	TotalSeats int       `gorm:"not null" json:"total_seats"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName sets the table name for Event
func (Event) TableName() string {
	return "events"
}
