package services

import (
	"context"

	"cartify/internal/domain"
	"cartify/internal/infra/payment"

	"github.com/shopspring/decimal"
)

type PaymentService struct {
	processor      payment.ProcessorInterface
	publishableKey string
}

func NewPaymentService(p payment.ProcessorInterface, publishableKey string) *PaymentService {
	return &PaymentService{processor: p, publishableKey: publishableKey}
}

func (s *PaymentService) CreateIntent(ctx context.Context, userID string, amount decimal.Decimal) (*payment.Intent, error) {
	if !amount.IsPositive() {
		v := domain.NewValidationError()
		v.Add("amount", "amount must be greater than zero")
		return nil, v
	}
	return s.processor.CreateIntent(ctx, domain.AmountInCents(amount), userID)
}

func (s *PaymentService) PublishableKey() string {
	return s.publishableKey
}
