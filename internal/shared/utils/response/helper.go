package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError maps a domain error to an HTTP response using the status
// resolved by the caller's errors.Is checks.
func RespondError(c *gin.Context, code int, message string, err error) {
	RespondJSON(c, "error", code, message, nil, err.Error())
}

// RespondSuccess writes a success envelope with the given payload
func RespondSuccess(c *gin.Context, message string, data interface{}) {
	RespondJSON(c, "success", http.StatusOK, message, data, nil)
}
