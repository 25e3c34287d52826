package orders

import "time"

type OrderResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	TicketIDs       []string  `json:"ticket_ids"`
	TotalAmount     int64     `json:"total_amount"`
	Status          string    `json:"status"`
	PaymentIntentID string    `json:"payment_intent_id"`
	CreatedAt       time.Time `json:"created_at"`
}

type CreateOrderResponse struct {
	Order        OrderResponse `json:"order"`
	ClientSecret string        `json:"client_secret"`
}

func (o *Order) ToResponse() OrderResponse {
	ids := make([]string, 0, len(o.Tickets))
	for _, t := range o.Tickets {
		ids = append(ids, t.TicketID.String())
	}
	return OrderResponse{
		ID:              o.ID.String(),
		UserID:          o.UserID,
		TicketIDs:       ids,
		TotalAmount:     o.TotalAmount,
		Status:          string(o.Status),
		PaymentIntentID: o.PaymentIntentID,
		CreatedAt:       o.CreatedAt,
	}
}
