package orders

import (
	"time"

	"github.com/google/uuid"
)

// Order references a set of reserved tickets and the payment intent paying
// for them. Amounts are in cents.
type Order struct {
	ID              uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID          string      `gorm:"not null;index" json:"user_id"`
	TotalAmount     int64       `gorm:"not null;check:total_amount >= 0" json:"total_amount"`
	Status          OrderStatus `gorm:"type:varchar(20);not null;default:'pending';check:status IN ('pending','paid','failed','refunded')" json:"status"`
	PaymentIntentID string      `gorm:"index" json:"payment_intent_id"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	Tickets []OrderTicket `json:"tickets,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE;"`
}

// OrderTicket links an order to one of the tickets it pays for
type OrderTicket struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrderID  uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	TicketID uuid.UUID `gorm:"type:uuid;not null;index" json:"ticket_id"`
}

// TableName sets the table name for Order
func (Order) TableName() string {
	return "orders"
}

// TableName sets the table name for OrderTicket
func (OrderTicket) TableName() string {
	return "order_tickets"
}

// TicketIDs returns the ids of the tickets this order pays for
func (o *Order) TicketIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(o.Tickets))
	for _, t := range o.Tickets {
		ids = append(ids, t.TicketID)
	}
	return ids
}

// IsPaid reports whether the order has already been confirmed
func (o *Order) IsPaid() bool {
	return o.Status == StatusPaid
}
