package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexandermaat99/waitingtofly-sub000/internal/format"
	"github.com/alexandermaat99/waitingtofly-sub000/internal/order"
	"github.com/alexandermaat99/waitingtofly-sub000/internal/payment"
	"github.com/alexandermaat99/waitingtofly-sub000/internal/tax"
)

const (
	minQuantity = 1
	maxQuantity = 100
)

// Service orchestrates the checkout flow. Every price the client sees is
// recomputed here from the live format table; the remote tax figure
// replaces the local estimate whenever the processor answers.
type Service struct {
	repo     Repository
	orders   *order.Service
	formats  *format.Service
	taxes    *tax.Service
	provider payment.Provider

	shippingPrice float64
	baseURL       string
	now           func() time.Time
}

func NewService(repo Repository, orders *order.Service, formats *format.Service, taxes *tax.Service, provider payment.Provider, shippingPrice float64, baseURL string) *Service {
	return &Service{
		repo:          repo,
		orders:        orders,
		formats:       formats,
		taxes:         taxes,
		provider:      provider,
		shippingPrice: shippingPrice,
		baseURL:       strings.TrimRight(baseURL, "/"),
		now:           time.Now,
	}
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// Start opens a fresh server-held checkout session.
func (s *Service) Start() (Session, error) {
	now := s.timestamp()
	return s.repo.Create(Session{
		ID:        uuid.NewString(),
		Step:      StepOrderDetails,
		Country:   "US",
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *Service) Get(id string) (Session, error) {
	return s.repo.Get(id)
}

// StartFromFlat resolves a flat payment payload to a session. A previously
// priced session with identical inputs is reused, so a retried flat call
// lands on the intent and order it already created instead of minting
// duplicates.
func (s *Service) StartFromFlat(formatKey string, quantity int, in ShippingInput) (Session, error) {
	want := Session{
		Format:     formatKey,
		Quantity:   quantity,
		Email:      in.Email,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Address1:   in.Address1,
		City:       in.City,
		State:      in.State,
		PostalCode: in.PostalCode,
		Country:    in.Country,
	}
	if want.Country == "" {
		want.Country = "US"
	}
	if existing, err := s.repo.FindByPricedFingerprint(want.fingerprint()); err == nil {
		return existing, nil
	}

	sess, err := s.Start()
	if err != nil {
		return Session{}, err
	}
	if _, err := s.SetDetails(sess.ID, formatKey, quantity); err != nil {
		return Session{}, err
	}
	return s.SetShipping(sess.ID, in)
}

// SetDetails records the format selection and quantity. The format key is
// checked against the live map, so a key persisted from an earlier visit
// is rejected once an admin retires it.
func (s *Service) SetDetails(id, formatKey string, quantity int) (Session, error) {
	sess, err := s.repo.Get(id)
	if err != nil {
		return Session{}, err
	}

	if formatKey == "" {
		return Session{}, &ValidationError{Field: "format", Reason: "a format must be selected"}
	}
	if _, err := s.formats.Get(formatKey); err != nil {
		if err == format.ErrNotFound {
			return Session{}, ErrInvalidFormat
		}
		return Session{}, err
	}
	if quantity < minQuantity || quantity > maxQuantity {
		return Session{}, &ValidationError{Field: "quantity", Reason: fmt.Sprintf("must be between %d and %d", minQuantity, maxQuantity)}
	}

	sess.Format = formatKey
	sess.Quantity = quantity
	sess.advance(StepShippingAddress)
	sess.UpdatedAt = s.timestamp()
	return s.repo.Save(sess)
}

// ShippingInput carries the address step fields.
type ShippingInput struct {
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

func (in ShippingInput) validate() error {
	required := []struct{ field, value string }{
		{"email", in.Email},
		{"firstName", in.FirstName},
		{"lastName", in.LastName},
		{"address1", in.Address1},
		{"city", in.City},
		{"state", in.State},
		{"postalCode", in.PostalCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Reason: "is required"}
		}
	}
	return nil
}

// SetShipping records the shipping address and opens the payment step.
func (s *Service) SetShipping(id string, in ShippingInput) (Session, error) {
	sess, err := s.repo.Get(id)
	if err != nil {
		return Session{}, err
	}
	if sess.Format == "" {
		return Session{}, ErrStepOrder
	}
	if err := in.validate(); err != nil {
		return Session{}, err
	}

	sess.Email = in.Email
	sess.FirstName = in.FirstName
	sess.LastName = in.LastName
	sess.Address1 = in.Address1
	sess.Address2 = in.Address2
	sess.City = in.City
	sess.State = in.State
	sess.PostalCode = in.PostalCode
	sess.Country = in.Country
	if sess.Country == "" {
		sess.Country = "US"
	}
	sess.Phone = in.Phone
	sess.advance(StepPayment)
	sess.UpdatedAt = s.timestamp()
	return s.repo.Save(sess)
}

// PaymentResult is handed to the payment SDK on the client.
type PaymentResult struct {
	ClientSecret string  `json:"clientSecret"`
	OrderID      string  `json:"orderId"`
	Subtotal     float64 `json:"subtotal"`
	Tax          float64 `json:"tax"`
	TaxRate      float64 `json:"taxRate"`
	Shipping     float64 `json:"shipping"`
	Total        float64 `json:"total"`
	TaxSource    string  `json:"taxSource"`
}

// price recomputes the money figures from the server's own format table.
// Client-submitted prices are never trusted.
func (s *Service) price(sess Session, f format.Format) (subtotal, shipping float64) {
	unit := tax.Round2(f.Price * (1 - f.DiscountRate()))
	subtotal = tax.Round2(unit * float64(sess.Quantity))
	shipping = s.shippingPrice
	if f.Digital {
		shipping = 0
	}
	return subtotal, shipping
}

func (s *Service) address(sess Session) tax.Address {
	return tax.Address{
		Line1:      sess.Address1,
		City:       sess.City,
		State:      sess.State,
		PostalCode: sess.PostalCode,
		Country:    sess.Country,
	}
}

// EnterPayment performs the side-effecting transition into the payment
// step: it prices the order, creates the pending Order row, and requests a
// payment intent. Re-entering with unchanged inputs returns the stored
// client secret and order id without creating a second order or intent.
func (s *Service) EnterPayment(ctx context.Context, id string) (PaymentResult, error) {
	sess, err := s.repo.Get(id)
	if err != nil {
		return PaymentResult{}, err
	}
	if sess.Step != StepPayment {
		return PaymentResult{}, ErrStepOrder
	}
	if err := s.validateForPayment(&sess); err != nil {
		return PaymentResult{}, err
	}

	f, err := s.formats.Get(sess.Format)
	if err != nil {
		if err == format.ErrNotFound {
			return PaymentResult{}, ErrInvalidFormat
		}
		return PaymentResult{}, err
	}

	if sess.ClientSecret != nil && sess.OrderID != nil && sess.PricedFingerprint == sess.fingerprint() {
		return PaymentResult{
			ClientSecret: *sess.ClientSecret,
			OrderID:      *sess.OrderID,
			Subtotal:     sess.Subtotal,
			Tax:          sess.TaxAmount,
			TaxRate:      sess.TaxRate,
			Shipping:     sess.ShippingAmount,
			Total:        sess.TotalAmount,
			TaxSource:    sess.TaxSource,
		}, nil
	}

	subtotal, shipping := s.price(sess, f)

	// the quote tries the remote calculator and degrades to the shared
	// estimator on its own; the checkout never fails on tax
	quote := s.taxes.Quote(ctx, subtotal, shipping, s.address(sess), f.Digital)

	orderID := uuid.NewString()
	intent, err := s.provider.CreatePaymentIntent(ctx, payment.IntentParams{
		Amount:           quote.Total,
		Email:            sess.Email,
		OrderID:          orderID,
		TaxCalculationID: quote.CalculationID,
		Description:      fmt.Sprintf("Book preorder: %s x%d", f.Name, sess.Quantity),
	})
	if err != nil {
		return PaymentResult{}, fmt.Errorf("create payment intent: %w", err)
	}

	ord := s.orderFromSession(sess, f, subtotal, shipping, quote)
	ord.ID = orderID
	ord.PaymentIntentID = &intent.ID
	if _, err := s.orders.Create(ord); err != nil {
		// halt rather than proceed with an unsaved order
		return PaymentResult{}, fmt.Errorf("persist order: %w", err)
	}

	sess.OrderID = &orderID
	sess.PaymentIntentID = &intent.ID
	sess.ClientSecret = &intent.ClientSecret
	sess.Subtotal = subtotal
	sess.TaxAmount = quote.Tax
	sess.TaxRate = quote.Rate
	sess.ShippingAmount = shipping
	sess.TotalAmount = quote.Total
	sess.TaxSource = quote.Source
	sess.PricedFingerprint = sess.fingerprint()
	sess.UpdatedAt = s.timestamp()
	if _, err := s.repo.Save(sess); err != nil {
		return PaymentResult{}, err
	}

	return PaymentResult{
		ClientSecret: intent.ClientSecret,
		OrderID:      orderID,
		Subtotal:     subtotal,
		Tax:          quote.Tax,
		TaxRate:      quote.Rate,
		Shipping:     shipping,
		Total:        quote.Total,
		TaxSource:    quote.Source,
	}, nil
}

// HostedResult redirects the customer to the processor-hosted checkout.
type HostedResult struct {
	SessionID   string `json:"sessionId"`
	RedirectURL string `json:"redirectUrl"`
}

// HostedSession creates the pending Order plus a processor-hosted checkout
// session. The processor computes authoritative tax at completion; amounts
// stored here are estimates until the webhook overwrites them.
func (s *Service) HostedSession(ctx context.Context, id string) (HostedResult, error) {
	sess, err := s.repo.Get(id)
	if err != nil {
		return HostedResult{}, err
	}
	if sess.Step != StepPayment {
		return HostedResult{}, ErrStepOrder
	}
	if err := s.validateForPayment(&sess); err != nil {
		return HostedResult{}, err
	}

	f, err := s.formats.Get(sess.Format)
	if err != nil {
		if err == format.ErrNotFound {
			return HostedResult{}, ErrInvalidFormat
		}
		return HostedResult{}, err
	}

	if sess.HostedSessionID != nil && sess.PricedFingerprint == sess.fingerprint() {
		hosted, err := s.provider.GetCheckoutSession(ctx, *sess.HostedSessionID)
		if err == nil && hosted.Status == "open" {
			return HostedResult{SessionID: hosted.ID, RedirectURL: hosted.URL}, nil
		}
	}

	subtotal, shipping := s.price(sess, f)
	est := s.taxes.EstimateOnly(subtotal, s.address(sess), f.Digital)

	orderID := uuid.NewString()
	unit := tax.Round2(f.Price * (1 - f.DiscountRate()))
	hosted, err := s.provider.CreateCheckoutSession(ctx, payment.SessionParams{
		Email:      sess.Email,
		OrderID:    orderID,
		Item:       payment.LineItem{Name: f.Name, UnitAmount: unit, Quantity: sess.Quantity},
		Shipping:   shipping,
		SuccessURL: s.baseURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.baseURL + "/checkout",
	})
	if err != nil {
		return HostedResult{}, fmt.Errorf("create checkout session: %w", err)
	}

	quote := tax.Quote{Tax: est.Tax, Rate: est.Rate, Total: tax.Round2(subtotal + shipping + est.Tax), Source: tax.SourceFallback}
	ord := s.orderFromSession(sess, f, subtotal, shipping, quote)
	ord.ID = orderID
	ord.CheckoutSessionID = &hosted.ID
	if _, err := s.orders.Create(ord); err != nil {
		return HostedResult{}, fmt.Errorf("persist order: %w", err)
	}

	sess.OrderID = &orderID
	sess.HostedSessionID = &hosted.ID
	sess.Subtotal = subtotal
	sess.TaxAmount = quote.Tax
	sess.TaxRate = quote.Rate
	sess.ShippingAmount = shipping
	sess.TotalAmount = quote.Total
	sess.TaxSource = quote.Source
	sess.PricedFingerprint = sess.fingerprint()
	sess.UpdatedAt = s.timestamp()
	if _, err := s.repo.Save(sess); err != nil {
		return HostedResult{}, err
	}

	return HostedResult{SessionID: hosted.ID, RedirectURL: hosted.URL}, nil
}

func (s *Service) validateForPayment(sess *Session) error {
	if sess.Format == "" {
		return &ValidationError{Field: "format", Reason: "a format must be selected"}
	}
	if sess.Quantity < minQuantity || sess.Quantity > maxQuantity {
		return &ValidationError{Field: "quantity", Reason: fmt.Sprintf("must be between %d and %d", minQuantity, maxQuantity)}
	}
	return ShippingInput{
		Email:      sess.Email,
		FirstName:  sess.FirstName,
		LastName:   sess.LastName,
		Address1:   sess.Address1,
		City:       sess.City,
		State:      sess.State,
		PostalCode: sess.PostalCode,
	}.validate()
}

func (s *Service) orderFromSession(sess Session, f format.Format, subtotal, shipping float64, quote tax.Quote) order.Order {
	return order.Order{
		Email:          sess.Email,
		Name:           strings.TrimSpace(sess.FirstName + " " + sess.LastName),
		Format:         f.Key,
		Quantity:       sess.Quantity,
		Subtotal:       subtotal,
		TaxAmount:      quote.Tax,
		TaxRate:        quote.Rate,
		ShippingAmount: shipping,
		TotalAmount:    quote.Total,
		FirstName:      sess.FirstName,
		LastName:       sess.LastName,
		Address1:       sess.Address1,
		Address2:       sess.Address2,
		City:           sess.City,
		State:          sess.State,
		PostalCode:     sess.PostalCode,
		Country:        sess.Country,
		Phone:          sess.Phone,
	}
}
