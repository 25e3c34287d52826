package events

import (
	"regexp"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type CreateEventRequest struct {
	Name        string    `json:"name" binding:"required,min=2,max=200"`
	Venue       string    `json:"venue" binding:"required,min=2,max=200"`
	StartsAt    time.Time `json:"starts_at" binding:"required"`
	SeatNumbers []string  `json:"seat_numbers" binding:"required,min=1,max=10000,unique,dive,seatlabel"`
}

// Seat labels look like "A1", "B-12" or "BALCONY-3": an uppercase section
// prefix plus a seat index.
var seatLabelPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,19}(-?[0-9]{1,4})$`)

func validateSeatLabel(fl validator.FieldLevel) bool {
	return seatLabelPattern.MatchString(fl.Field().String())
}

// RegisterValidations hooks the custom seat label rule into gin's binding
// engine. Called once at router setup.
func RegisterValidations() error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return v.RegisterValidation("seatlabel", validateSeatLabel)
	}
	return nil
}
