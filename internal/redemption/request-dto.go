package redemption

type RedeemRequest struct {
	Token string `json:"token" binding:"required"`
}
