package redemption

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TicketClaims is the signed payload embedded in a ticket's QR code
type TicketClaims struct {
	TicketID string `json:"ticket_id"`
	HolderID string `json:"holder_id"`
	jwt.RegisteredClaims
}

// signToken mints the entry token for a sold ticket
func signToken(secret string, ticketID, holderID string, issuedAt time.Time, ttl time.Duration) (string, error) {
	claims := TicketClaims{
		TicketID: ticketID,
		HolderID: holderID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// parseToken verifies the signature and expiry and returns the claims
func parseToken(secret, tokenString string) (*TicketClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TicketClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*TicketClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.TicketID == "" || claims.HolderID == "" {
		return nil, fmt.Errorf("token missing ticket or holder identity")
	}

	return claims, nil
}
