package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("checkout session not found")
	ErrInvalidFormat = errors.New("selected format is not available")
	ErrStepOrder     = errors.New("checkout step not reached yet")
)

// ValidationError identifies the offending field so the UI can surface an
// inline error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Step is the checkout progression. Transitions are forward-only;
// re-editing an earlier step keeps everything already collected.
type Step string

const (
	StepOrderDetails    Step = "order_details"
	StepShippingAddress Step = "shipping_address"
	StepPayment         Step = "payment"
)

var stepRank = map[Step]int{
	StepOrderDetails:    0,
	StepShippingAddress: 1,
	StepPayment:         2,
}

// Session is the server-confirmed checkout state. The client holds only
// the session id; any format or price it submits is advisory, because the
// server re-prices from its own format table every time. The priced
// fingerprint records the inputs behind the last payment-intent creation
// so re-entering the payment step without changes reuses the existing
// intent and order instead of creating duplicates.
type Session struct {
	ID   string `json:"id"`
	Step Step   `json:"step"`

	Format   string `json:"format,omitempty"`
	Quantity int    `json:"quantity,omitempty"`

	Email      string `json:"email,omitempty"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Address1   string `json:"address1,omitempty"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`

	OrderID         *string `json:"orderId,omitempty"`
	PaymentIntentID *string `json:"paymentIntentId,omitempty"`
	ClientSecret    *string `json:"-"`
	HostedSessionID *string `json:"hostedSessionId,omitempty"`

	Subtotal       float64 `json:"subtotal"`
	TaxAmount      float64 `json:"taxAmount"`
	TaxRate        float64 `json:"taxRate"`
	ShippingAmount float64 `json:"shippingAmount"`
	TotalAmount    float64 `json:"totalAmount"`
	TaxSource      string  `json:"taxSource,omitempty"`

	PricedFingerprint string `json:"-"`

	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// advance moves the session forward, never backward.
func (s *Session) advance(next Step) {
	if stepRank[next] > stepRank[s.Step] {
		s.Step = next
	}
}

// fingerprint captures every input that affects pricing or the processor
// objects. Two sessions with equal fingerprints are interchangeable for
// idempotence purposes.
func (s *Session) fingerprint() string {
	return fmt.Sprintf("%s|%d|%s|%s|%s|%s|%s|%s|%s|%s",
		s.Format, s.Quantity, s.Email, s.FirstName, s.LastName,
		s.Address1, s.City, s.State, s.PostalCode, s.Country)
}
