package orders

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Payment intent states surfaced by the gateway
const (
	IntentStatusRequiresPayment = "requires_payment_method"
	IntentStatusSucceeded       = "succeeded"
)

// PaymentIntent is the gateway-side handle for a pending charge
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Status       string `json:"status"`
}

// PaymentGateway abstracts the external payment processor. Only the intent
// lifecycle the confirmation bridge depends on is modeled; real gateway
// mechanics stay outside this service.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount int64, userID string) (*PaymentIntent, error)
	IntentStatus(ctx context.Context, intentID string) (string, error)
}

// MockGateway is an in-memory gateway for development and tests. With
// autoSucceed set, intents are born succeeded so the demo flow needs no
// external processor.
type MockGateway struct {
	mu          sync.Mutex
	intents     map[string]*PaymentIntent
	autoSucceed bool
}

func NewMockGateway(autoSucceed bool) *MockGateway {
	return &MockGateway{
		intents:     make(map[string]*PaymentIntent),
		autoSucceed: autoSucceed,
	}
}

func (g *MockGateway) CreateIntent(ctx context.Context, amount int64, userID string) (*PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	status := IntentStatusRequiresPayment
	if g.autoSucceed {
		status = IntentStatusSucceeded
	}

	intent := &PaymentIntent{
		ID:           "pi_" + uuid.New().String(),
		ClientSecret: "secret_" + uuid.New().String(),
		Amount:       amount,
		Status:       status,
	}
	g.intents[intent.ID] = intent

	return intent, nil
}

func (g *MockGateway) IntentStatus(ctx context.Context, intentID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[intentID]
	if !ok {
		return "", fmt.Errorf("payment intent %s not found", intentID)
	}
	return intent.Status, nil
}

// MarkSucceeded flips an intent to succeeded (simulates the processor
// completing the charge)
func (g *MockGateway) MarkSucceeded(intentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if intent, ok := g.intents[intentID]; ok {
		intent.Status = IntentStatusSucceeded
	}
}
