package events

import (
	"github.com/gin-gonic/gin"
)

// SetupEventRoutes configures event routes. Listing is public, creation is
// behind auth.
func SetupEventRoutes(rg *gin.RouterGroup, controller *Controller, auth gin.HandlerFunc) {
	events := rg.Group("/events")
	{
		events.GET("", controller.ListEvents)
		events.GET("/:id", controller.GetEvent)
		events.GET("/:id/tickets", controller.EventTickets)
		events.POST("", auth, controller.CreateEvent)
	}
}
