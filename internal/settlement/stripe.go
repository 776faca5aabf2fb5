package settlement

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/refund"
)

// StripeGateway crée le remboursement inverse via l'API Stripe Refunds, en
// référençant le PaymentIntent d'origine de la commande.
type StripeGateway struct{}

func NewStripeGateway() *StripeGateway {
	return &StripeGateway{}
}

func (g *StripeGateway) Refund(ctx context.Context, paymentIntentID string, amountCents int64) (string, error) {
	if paymentIntentID == "" {
		return "", fmt.Errorf("commande sans payment intent")
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
		Amount:        stripe.Int64(amountCents),
		Reason:        stripe.String("requested_by_customer"),
	}
	params.Context = ctx

	stripeRefund, err := refund.New(params)
	if err != nil {
		return "", fmt.Errorf("remboursement Stripe: %w", err)
	}
	return stripeRefund.ID, nil
}
