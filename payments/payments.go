package payments

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

const (
	CurrencyUSD = "usd"
	methodCard  = "card"
)

var (
	ErrNotConfigured = errors.New("payment processor not configured")
	ErrInvalidAmount = errors.New("amount must be positive")
)

// IntentCreator creates payment intents and returns their client secret.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string) (string, error)
}

// ToMinorUnits converts a decimal price to integer cents. Rounding instead
// of truncating keeps 19.99 at 1999.
func ToMinorUnits(price float64) (int64, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return 0, ErrInvalidAmount
	}
	amount := int64(math.Round(price * 100))
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return amount, nil
}

type StripeClient struct {
	api *client.API
}

func NewStripeClient(secretKey string) *StripeClient {
	return &StripeClient{api: client.New(secretKey, nil)}
}

func (s *StripeClient) CreateIntent(ctx context.Context, amountMinor int64, currency string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountMinor),
		Currency:           stripe.String(currency),
		PaymentMethodTypes: stripe.StringSlice([]string{methodCard}),
	}
	params.Context = ctx

	intent, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return "", fmt.Errorf("create payment intent: %w", err)
	}
	return intent.ClientSecret, nil
}

// Disabled stands in when no Stripe key is configured.
type Disabled struct{}

func (Disabled) CreateIntent(context.Context, int64, string) (string, error) {
	return "", ErrNotConfigured
}
