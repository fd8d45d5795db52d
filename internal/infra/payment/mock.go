package payment

import (
	"context"
	"fmt"
	"sync"

	"cartify/internal/domain"

	"github.com/google/uuid"
)

// DeclinedCentsSuffix makes the mock processor decline any amount ending in .02.
const DeclinedCentsSuffix = 2

// MockProcessor issues intents in memory and confirms them on creation.
type MockProcessor struct {
	mu      sync.Mutex
	intents map[string]*Intent
}

func NewMockProcessor() *MockProcessor {
	return &MockProcessor{intents: make(map[string]*Intent)}
}

func (p *MockProcessor) CreateIntent(_ context.Context, amountCents int64, userID string) (*Intent, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrPaymentFailed)
	}
	if amountCents%100 == DeclinedCentsSuffix {
		return nil, fmt.Errorf("%w: card declined", domain.ErrPaymentFailed)
	}

	id := "pi_mock_" + uuid.NewString()[:8]
	in := &Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString()[:8],
		Status:       StatusSucceeded,
		AmountCents:  amountCents,
		Currency:     "usd",
		UserID:       userID,
	}

	p.mu.Lock()
	p.intents[id] = in
	p.mu.Unlock()

	cp := *in
	return &cp, nil
}

func (p *MockProcessor) GetIntent(_ context.Context, id string) (*Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	in, ok := p.intents[id]
	if !ok {
		return nil, ErrIntentNotFound
	}
	cp := *in
	return &cp, nil
}

// SetStatus overrides an intent's status, for exercising unconfirmed payments.
func (p *MockProcessor) SetStatus(id string, s Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if in, ok := p.intents[id]; ok {
		in.Status = s
	}
}
