// Package payment opens hosted card checkout sessions with Stripe.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

// ErrNotConfigured is returned when card checkout is requested without a gateway.
var ErrNotConfigured = errors.New("card payments are not configured")

const surchargeLabel = "Tax Charge"

type LineItem struct {
	Name      string
	UnitPrice int64 // major currency units
	Quantity  int64
}

type CheckoutRequest struct {
	OrderID    string
	UserID     string
	Items      []LineItem
	Surcharge  int64
	SuccessURL string
	CancelURL  string
}

type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error)
}

type StripeGateway struct {
	api      *client.API
	currency string
}

func NewStripeGateway(secretKey, currency string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, currency: currency}
}

// CreateCheckout opens a payment-mode session and returns its redirect URL.
func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	params := &stripe.CheckoutSessionParams{
		LineItems:  BuildLineItems(req, g.currency),
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		Metadata: map[string]string{
			"orderId": req.OrderID,
			"userId":  req.UserID,
		},
	}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session for order %s: %w", req.OrderID, err)
	}
	return s.URL, nil
}

// BuildLineItems converts the order into session line items priced in minor
// units. The surcharge travels as its own item.
func BuildLineItems(req CheckoutRequest, currency string) []*stripe.CheckoutSessionLineItemParams {
	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items)+1)
	for _, it := range req.Items {
		items = append(items, lineItem(currency, it.Name, it.UnitPrice, it.Quantity))
	}
	if req.Surcharge > 0 {
		items = append(items, lineItem(currency, surchargeLabel, req.Surcharge, 1))
	}
	return items
}

func lineItem(currency, name string, unitPrice, quantity int64) *stripe.CheckoutSessionLineItemParams {
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency: stripe.String(currency),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(name),
			},
			UnitAmount: stripe.Int64(unitPrice * 100),
		},
		Quantity: stripe.Int64(quantity),
	}
}
