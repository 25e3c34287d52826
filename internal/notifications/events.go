package notifications

import (
	"encoding/json"
	"time"
)

// LifecycleEventType identifies what happened to a ticket
type LifecycleEventType string

const (
	EventTicketReserved LifecycleEventType = "ticket.reserved"
	EventTicketReleased LifecycleEventType = "ticket.released"
	EventTicketSold     LifecycleEventType = "ticket.sold"
	EventTicketRedeemed LifecycleEventType = "ticket.redeemed"
)

// LifecycleEvent is the message published on every ticket state change.
// Messages are keyed by ticket ID so all transitions of one seat land on the
// same partition, in order.
type LifecycleEvent struct {
	Type       LifecycleEventType `json:"type"`
	TicketID   string             `json:"ticket_id"`
	EventID    string             `json:"event_id"`
	Holder     string             `json:"holder,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

// ToJSON serializes the event for the wire
func (e *LifecycleEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PartitionKey returns the Kafka message key
func (e *LifecycleEvent) PartitionKey() string {
	return e.TicketID
}
