package redemption

import (
	"context"
	"fmt"
	"time"

	"ticketly/internal/tickets"
	"ticketly/pkg/logger"

	"github.com/google/uuid"
)

// Publisher interface for redemption lifecycle events (best-effort)
type Publisher interface {
	TicketRedeemed(ctx context.Context, ticketID, eventID, holder string)
}

// Service interface defines the contract for ticket token issuance and
// gate redemption
type Service interface {
	IssueToken(ctx context.Context, ticketID uuid.UUID, userID string) (string, error)
	Redeem(ctx context.Context, tokenString string) (*tickets.Ticket, error)

	SetPublisher(p Publisher)
}

type service struct {
	ticketRepo tickets.Repository
	publisher  Publisher
	secret     string
	tokenTTL   time.Duration
	log        *logger.Logger
	clock      func() time.Time
}

// NewService creates a new redemption service instance
func NewService(ticketRepo tickets.Repository, secret string, tokenTTL time.Duration) Service {
	return &service{
		ticketRepo: ticketRepo,
		secret:     secret,
		tokenTTL:   tokenTTL,
		log:        logger.GetDefault(),
		clock:      time.Now,
	}
}

func (s *service) SetPublisher(p Publisher) {
	s.publisher = p
}

// IssueToken mints the entry token for a sold ticket and stores it on the
// record. Issuance is set-once: a ticket that already carries a token keeps
// it, and only the buyer of record can request one.
func (s *service) IssueToken(ctx context.Context, ticketID uuid.UUID, userID string) (string, error) {
	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return "", err
	}

	if ticket.Status != tickets.StatusSold {
		return "", fmt.Errorf("ticket is %s: %w", ticket.Status, ErrTicketNotSold)
	}
	if !ticket.HeldBy(userID) {
		return "", fmt.Errorf("ticket belongs to another user: %w", tickets.ErrTicketNotFound)
	}
	if ticket.Token != nil {
		return "", ErrTokenAlreadyIssued
	}

	token, err := signToken(s.secret, ticket.ID.String(), userID, s.clock(), s.tokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to sign ticket token: %w", err)
	}

	// The token-is-null guard lives in the write itself; a concurrent
	// issuance that got past the read above loses here instead of
	// overwriting the winner's token.
	ok, err := s.ticketRepo.SetTokenIfUnset(ctx, ticketID, token)
	if err != nil {
		return "", fmt.Errorf("failed to store ticket token: %w", err)
	}
	if !ok {
		return "", ErrTokenAlreadyIssued
	}

	return token, nil
}

// Redeem verifies the presented token and burns the ticket sold→used. The
// guarded write makes double redemption lose cleanly: the second scan of the
// same token finds the ticket already used.
func (s *service) Redeem(ctx context.Context, tokenString string) (*tickets.Ticket, error) {
	claims, err := parseToken(s.secret, tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	ticketID, err := uuid.Parse(claims.TicketID)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed ticket id", ErrInvalidToken)
	}

	ticket, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if ticket.Status == tickets.StatusUsed {
		return nil, ErrAlreadyRedeemed
	}
	if ticket.Status != tickets.StatusSold {
		return nil, fmt.Errorf("ticket is %s: %w", ticket.Status, ErrTicketNotSold)
	}
	if !ticket.HeldBy(claims.HolderID) {
		return nil, fmt.Errorf("%w: holder mismatch", ErrInvalidToken)
	}
	// The stored token is authoritative; a signature-valid token that was
	// never stored for this ticket is rejected.
	if ticket.Token == nil || *ticket.Token != tokenString {
		return nil, fmt.Errorf("%w: token not issued for this ticket", ErrInvalidToken)
	}

	ok, err := s.ticketRepo.UpdateFromStatus(ctx, ticketID, tickets.StatusSold, map[string]interface{}{
		"status": tickets.StatusUsed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to redeem ticket: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyRedeemed
	}

	redeemed, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.TicketRedeemed(ctx, redeemed.ID.String(), redeemed.EventID.String(), claims.HolderID)
	}
	s.log.LogTicketRedeemed(ctx, redeemed.ID.String(), claims.HolderID)

	return redeemed, nil
}
