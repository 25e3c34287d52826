package orders

import "errors"

// OrderStatus is the payment lifecycle of an order, independent from the
// tickets' own state machine
type OrderStatus string

const (
	StatusPending  OrderStatus = "pending"
	StatusPaid     OrderStatus = "paid"
	StatusFailed   OrderStatus = "failed"
	StatusRefunded OrderStatus = "refunded"
)

var (
	// ErrOrderNotFound is returned when the referenced order does not exist
	ErrOrderNotFound = errors.New("order not found")

	// ErrPaymentNotCompleted is returned when confirmation is requested but
	// the underlying payment intent has not succeeded
	ErrPaymentNotCompleted = errors.New("payment not completed")
)
