package orders

import (
	"errors"
	"net/http"
	"strconv"

	"ticketly/internal/shared/middleware"
	"ticketly/internal/shared/utils/response"
	"ticketly/internal/tickets"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateOrder opens an order plus payment intent for the user's reserved seats
func (c *Controller) CreateOrder(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User identity required", nil, nil)
		return
	}

	var req CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	ticketIDs := make([]uuid.UUID, 0, len(req.TicketIDs))
	for _, raw := range req.TicketIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid ticket ID", nil, err.Error())
			return
		}
		ticketIDs = append(ticketIDs, id)
	}

	order, intent, err := c.service.CreateOrder(ctx.Request.Context(), ticketIDs, userID)
	if err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to create order", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Order created successfully", CreateOrderResponse{
		Order:        order.ToResponse(),
		ClientSecret: intent.ClientSecret,
	}, nil)
}

// ConfirmPayment bulk-transitions the order's tickets to sold once the
// payment processor reports success
func (c *Controller) ConfirmPayment(ctx *gin.Context) {
	orderID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid order ID", nil, err.Error())
		return
	}

	order, err := c.service.ConfirmPayment(ctx.Request.Context(), orderID)
	if err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Payment confirmation failed", nil, err.Error())
		return
	}

	response.RespondSuccess(ctx, "Payment confirmed successfully", order.ToResponse())
}

// GetOrder returns one order
func (c *Controller) GetOrder(ctx *gin.Context) {
	orderID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid order ID", nil, err.Error())
		return
	}

	order, err := c.service.GetOrder(ctx.Request.Context(), orderID)
	if err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to get order", nil, err.Error())
		return
	}

	response.RespondSuccess(ctx, "Order retrieved successfully", order.ToResponse())
}

// MyOrders returns the authenticated user's orders, newest first
func (c *Controller) MyOrders(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User identity required", nil, nil)
		return
	}

	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	list, err := c.service.GetUserOrders(ctx.Request.Context(), userID, limit, offset)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get orders", nil, err.Error())
		return
	}

	resp := make([]OrderResponse, 0, len(list))
	for i := range list {
		resp = append(resp, list[i].ToResponse())
	}

	response.RespondSuccess(ctx, "Orders retrieved successfully", resp)
}

// statusForError maps domain sentinels to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, tickets.ErrTicketNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPaymentNotCompleted):
		return http.StatusPaymentRequired
	case errors.Is(err, tickets.ErrSeatUnavailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
