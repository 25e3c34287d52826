package tickets

import (
	"github.com/gin-gonic/gin"
)

// SetupTicketRoutes configures ticket reservation routes. All routes require
// an authenticated user: reservations are always on someone's behalf.
func SetupTicketRoutes(rg *gin.RouterGroup, controller *Controller, auth gin.HandlerFunc) {
	tickets := rg.Group("/tickets")
	tickets.Use(auth)
	{
		tickets.POST("/reserve", controller.Reserve)
		tickets.GET("/my", controller.MyTickets)
	}
}
