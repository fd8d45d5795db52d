package payment

import (
	"context"
	"errors"
)

var ErrIntentNotFound = errors.New("payment intent not found")

type Status string

const (
	StatusSucceeded       Status = "succeeded"
	StatusRequiresPayment Status = "requires_payment_method"
	StatusProcessing      Status = "processing"
	StatusCanceled        Status = "canceled"
)

// Intent is an authorization handle issued by the processor for one exact amount.
type Intent struct {
	ID           string
	ClientSecret string
	Status       Status
	AmountCents  int64
	Currency     string
	// UserID is the account the intent was issued to.
	UserID string
}

// MetadataUserID is the intent metadata key holding the owning user id.
const MetadataUserID = "userId"

func (i *Intent) Succeeded() bool {
	return i.Status == StatusSucceeded
}

type ProcessorInterface interface {
	CreateIntent(ctx context.Context, amountCents int64, userID string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

var (
	_ ProcessorInterface = (*StripeProcessor)(nil)
	_ ProcessorInterface = (*MockProcessor)(nil)
)
