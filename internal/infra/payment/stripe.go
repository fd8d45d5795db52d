package payment

import (
	"context"
	"errors"
	"fmt"

	"cartify/internal/domain"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeProcessor struct {
	sc *client.API
}

func NewStripeProcessor(secretKey string) *StripeProcessor {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeProcessor{sc: sc}
}

func (p *StripeProcessor) CreateIntent(ctx context.Context, amountCents int64, userID string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(MetadataUserID, userID)

	pi, err := p.sc.PaymentIntents.New(params)
	if err != nil {
		return nil, translate(err)
	}
	return fromStripe(pi), nil
}

func (p *StripeProcessor) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.sc.PaymentIntents.Get(id, params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.Code == stripe.ErrorCodeResourceMissing {
			return nil, ErrIntentNotFound
		}
		return nil, translate(err)
	}
	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       Status(pi.Status),
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		UserID:       pi.Metadata[MetadataUserID],
	}
}

// translate marks card declines as payment failures; all other processor errors stay opaque.
func translate(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) && se.Type == stripe.ErrorTypeCard {
		return fmt.Errorf("%w: %s", domain.ErrPaymentFailed, se.Msg)
	}
	return fmt.Errorf("stripe: %w", err)
}
