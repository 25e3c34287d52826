package redemption

import (
	"errors"
	"net/http"
	"time"

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

// IssueToken mints the QR entry token for a sold ticket
func (c *Controller) IssueToken(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User identity required", nil, nil)
		return
	}

	ticketID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid ticket ID", nil, err.Error())
		return
	}

	token, err := c.service.IssueToken(ctx.Request.Context(), ticketID, userID)
	if err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to issue ticket token", nil, err.Error())
		return
	}

	response.RespondSuccess(ctx, "Ticket token issued successfully", gin.H{"token": token})
}

// Redeem burns a ticket at the gate
func (c *Controller) Redeem(ctx *gin.Context) {
	var req RedeemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	ticket, err := c.service.Redeem(ctx.Request.Context(), req.Token)
	if err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Redemption failed", nil, err.Error())
		return
	}

	response.RespondSuccess(ctx, "Ticket redeemed successfully", ticket.ToResponse(time.Now()))
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, tickets.ErrTicketNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAlreadyRedeemed), errors.Is(err, ErrTokenAlreadyIssued), errors.Is(err, ErrTicketNotSold):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
