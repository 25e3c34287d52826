package orders

import (
	"github.com/gin-gonic/gin"
)

// SetupOrderRoutes configures order and payment confirmation routes
func SetupOrderRoutes(rg *gin.RouterGroup, controller *Controller, auth gin.HandlerFunc) {
	orders := rg.Group("/orders")
	orders.Use(auth)
	{
		orders.POST("", controller.CreateOrder)
		orders.GET("", controller.MyOrders)
		orders.GET("/:id", controller.GetOrder)
		orders.POST("/:id/confirm", controller.ConfirmPayment)
	}
}
