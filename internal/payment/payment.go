package payment

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	"github.com/alexandermaat99/waitingtofly-sub000/internal/tax"
)

var ErrNotConfigured = errors.New("payment client not configured")

// IntentParams creates a payment intent for an embedded checkout. Amount
// is the full charge in dollars; metadata carries the internal order id so
// webhooks can reconcile even when the intent id was never stored.
type IntentParams struct {
	Amount           float64
	Currency         string
	Email            string
	OrderID          string
	TaxCalculationID string
	Description      string
}

// Intent is the processor-side object for one payment attempt.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       float64
	Status       string
	Metadata     map[string]string
}

// LineItem is a priced item for a hosted checkout session.
type LineItem struct {
	Name       string
	UnitAmount float64
	Quantity   int
}

// SessionParams creates a hosted checkout session with automatic tax.
type SessionParams struct {
	Email      string
	OrderID    string
	Item       LineItem
	Shipping   float64
	SuccessURL string
	CancelURL  string
}

// CheckoutSession mirrors the processor's session object. Amount fields
// are dollars; the processor computes the authoritative tax breakdown.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
	AmountSubtotal  float64
	AmountTax       float64
	AmountTotal     float64
	CustomerEmail   string
	CustomerName    string
	Metadata        map[string]string
	Status          string
}

// Provider is the processor contract consumed by checkout and the webhook
// reconciler. Tests substitute fakes.
type Provider interface {
	CreatePaymentIntent(ctx context.Context, p IntentParams) (Intent, error)
	CreateCheckoutSession(ctx context.Context, p SessionParams) (CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (CheckoutSession, error)
	GetPaymentIntent(ctx context.Context, id string) (Intent, error)
	GetTaxCalculation(ctx context.Context, id string) (tax.RemoteResult, error)
}

// Event is the signed webhook envelope delivered by the processor.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// EventObject is the union of session and intent fields the reconciler
// reads. The payload's cached totals are advisory; authoritative figures
// are re-fetched from the processor.
type EventObject struct {
	ID             string `json:"id"`
	Object         string `json:"object"`
	PaymentIntent  string `json:"payment_intent"`
	Amount         int64  `json:"amount"`
	AmountSubtotal int64  `json:"amount_subtotal"`
	AmountTotal    int64  `json:"amount_total"`
	TotalDetails   struct {
		AmountTax int64 `json:"amount_tax"`
	} `json:"total_details"`
	Metadata        map[string]string `json:"metadata"`
	CustomerDetails struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer_details"`
	ShippingDetails struct {
		Name    string `json:"name"`
		Address struct {
			Line1      string `json:"line1"`
			Line2      string `json:"line2"`
			City       string `json:"city"`
			State      string `json:"state"`
			PostalCode string `json:"postal_code"`
			Country    string `json:"country"`
		} `json:"address"`
	} `json:"shipping_details"`
	ReceiptEmail string `json:"receipt_email"`
}

// Cents converts a dollar amount to the processor's integer-cent wire
// representation.
func Cents(x float64) int64 {
	return int64(math.Round(x * 100))
}

// Dollars converts integer cents back to dollars.
func Dollars(c int64) float64 {
	return float64(c) / 100
}
