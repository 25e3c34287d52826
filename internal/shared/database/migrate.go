package database

import (
	"ticketly/internal/events"
	"ticketly/internal/orders"
	"ticketly/internal/tickets"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&events.Event{},
		&tickets.Ticket{},
		&orders.Order{},
		&orders.OrderTicket{},
	)
}
