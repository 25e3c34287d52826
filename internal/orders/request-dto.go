package orders

type CreateOrderRequest struct {
	TicketIDs []string `json:"ticket_ids" binding:"required,min=1,max=10,dive,uuid"`
}
