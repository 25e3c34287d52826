package events

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"ticketly/internal/shared/utils/response"
	"ticketly/internal/tickets"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateEvent creates an event together with its seat inventory
func (c *Controller) CreateEvent(ctx *gin.Context) {
	var req CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request data", nil, err.Error())
		return
	}

	event, created, err := c.service.CreateEvent(ctx.Request.Context(), req)
	if err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to create event", nil, err.Error())
		return
	}

	now := time.Now()
	resp := CreateEventResponse{Event: event.ToResponse()}
	for i := range created {
		resp.Tickets = append(resp.Tickets, created[i].ToResponse(now))
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Event created successfully", resp, nil)
}

// statusForError maps domain errors to HTTP status codes. A duplicate seat
// label is a conflict with existing inventory, not a server fault.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrEventNotFound):
		return http.StatusNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GetEvent returns one event
func (c *Controller) GetEvent(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	event, err := c.service.GetEvent(ctx.Request.Context(), eventID)
	if err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to get event", nil, err.Error())
		return
	}

	response.RespondSuccess(ctx, "Event retrieved successfully", event.ToResponse())
}

// ListEvents returns events ordered by start time
func (c *Controller) ListEvents(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	list, err := c.service.ListEvents(ctx.Request.Context(), limit, offset)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list events", nil, err.Error())
		return
	}

	resp := make([]EventResponse, 0, len(list))
	for i := range list {
		resp = append(resp, list[i].ToResponse())
	}

	response.RespondSuccess(ctx, "Events retrieved successfully", resp)
}

// EventTickets returns the seat map with lease-aware statuses
func (c *Controller) EventTickets(ctx *gin.Context) {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid event ID", nil, err.Error())
		return
	}

	seats, err := c.service.EventTickets(ctx.Request.Context(), eventID)
	if err != nil {
		response.RespondJSON(ctx, "error", statusForError(err), "Failed to get event tickets", nil, err.Error())
		return
	}

	now := time.Now()
	resp := make([]tickets.TicketResponse, 0, len(seats))
	for i := range seats {
		resp = append(resp, seats[i].ToResponse(now))
	}

	response.RespondSuccess(ctx, "Event tickets retrieved successfully", resp)
}
