package tickets

import (
	"errors"
	"net/http"
	"time"

	"ticketly/internal/shared/middleware"
	"ticketly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Reserve handles batch seat reservation for the authenticated user.
// Seats reserved before a failure stay committed; the response names the
// failing seat so the caller can see the partial result.
func (c *Controller) Reserve(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User identity required", nil, nil)
		return
	}

	var req ReserveRequest
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

	reserved, err := c.service.ReserveBatch(ctx.Request.Context(), ticketIDs, userID)
	if err != nil {
		var batchErr *BatchError
		result := ReservationResponse{
			Success:       false,
			ReservedSeats: toResponses(reserved),
		}
		if errors.As(err, &batchErr) {
			result.FailedTicket = batchErr.TicketID.String()
			result.Reason = batchErr.Err.Error()
		} else {
			result.Reason = err.Error()
		}
		response.RespondJSON(ctx, "error", statusForError(err), "Reservation failed", result, result.Reason)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats reserved successfully", ReservationResponse{
		Success:       true,
		ReservedSeats: toResponses(reserved),
	}, nil)
}

// MyTickets returns the authenticated user's reserved, sold and used tickets
func (c *Controller) MyTickets(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User identity required", nil, nil)
		return
	}

	tickets, err := c.service.TicketsByHolder(ctx.Request.Context(), userID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to get tickets", nil, err.Error())
		return
	}

	response.RespondSuccess(ctx, "Tickets retrieved successfully", toResponses(tickets))
}

func toResponses(tickets []Ticket) []TicketResponse {
	now := time.Now()
	out := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.ToResponse(now))
	}
	return out
}

// statusForError maps domain sentinels to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrTicketNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSeatUnavailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
