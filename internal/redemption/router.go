package redemption

import (
	"github.com/gin-gonic/gin"
)

// SetupRedemptionRoutes configures token issuance and gate redemption routes.
// Redemption itself is driven by gate scanners, authenticated like any other
// caller.
func SetupRedemptionRoutes(rg *gin.RouterGroup, controller *Controller, auth gin.HandlerFunc) {
	rg.POST("/tickets/:id/token", auth, controller.IssueToken)
	rg.POST("/redeem", auth, controller.Redeem)
}
