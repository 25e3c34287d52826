package redemption

import "errors"

var (
	ErrInvalidToken       = errors.New("invalid or expired ticket token")
	ErrAlreadyRedeemed    = errors.New("ticket has already been redeemed")
	ErrTokenAlreadyIssued = errors.New("ticket token has already been issued")
	ErrTicketNotSold      = errors.New("ticket is not sold")
)
