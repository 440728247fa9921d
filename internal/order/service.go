package order

import (
	"time"

	"github.com/google/uuid"
)

// Service provides business logic for the order store.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(r Repository) *Service {
	return &Service{repo: r, now: time.Now}
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// Create persists a new pending order. Exactly one of the processor-side
// identifiers must be known at creation; the other is learned later from
// webhooks. All transition timestamps start unset.
func (s *Service) Create(ord Order) (Order, error) {
	hasSession := ord.CheckoutSessionID != nil && *ord.CheckoutSessionID != ""
	hasIntent := ord.PaymentIntentID != nil && *ord.PaymentIntentID != ""
	if hasSession == hasIntent {
		return Order{}, ErrInvalidIDs
	}

	if ord.ID == "" {
		ord.ID = uuid.NewString()
	}
	ord.Status = StatusPending
	ord.ShippingStatus = ShippingNotShipped
	ord.PaymentCompletedAt = nil
	ord.PaymentFailedAt = nil
	ord.ShippedAt = nil
	ord.DeliveredAt = nil
	now := s.timestamp()
	ord.CreatedAt = now
	ord.UpdatedAt = now

	return s.repo.Create(ord)
}

func (s *Service) Get(id string) (Order, error) {
	return s.repo.FindByID(id)
}

func (s *Service) FindByCheckoutSessionID(sessionID string) (Order, error) {
	return s.repo.FindByCheckoutSessionID(sessionID)
}

func (s *Service) FindByPaymentIntentID(intentID string) (Order, error) {
	return s.repo.FindByPaymentIntentID(intentID)
}

func (s *Service) Update(id string, p Patch) (Order, error) {
	return s.repo.Update(id, p)
}

// MarkCompleted patches an order to completed with authoritative amounts.
// Safe to re-apply on duplicate webhook delivery.
func (s *Service) MarkCompleted(id string, subtotal, taxAmount, taxRate, total *float64, intentID *string) (Order, error) {
	status := StatusCompleted
	ts := s.timestamp()
	return s.repo.Update(id, Patch{
		Status:             &status,
		Subtotal:           subtotal,
		TaxAmount:          taxAmount,
		TaxRate:            taxRate,
		TotalAmount:        total,
		PaymentIntentID:    intentID,
		PaymentCompletedAt: &ts,
	})
}

// MarkFailed patches an order to failed. Re-delivery of the same event
// re-stamps the failure timestamp, which is accepted behavior.
func (s *Service) MarkFailed(id string) (Order, error) {
	status := StatusFailed
	ts := s.timestamp()
	return s.repo.Update(id, Patch{
		Status:          &status,
		PaymentFailedAt: &ts,
	})
}

// NudgeStatus is the best-effort client-side confirmation after the
// payment SDK reports success. It only promotes pending orders; the
// webhook remains the authoritative status setter, so a completed or
// failed order is left alone.
func (s *Service) NudgeStatus(paymentIntentID string, status Status) (Order, bool, error) {
	if status != StatusCompleted {
		return Order{}, false, nil
	}
	ord, err := s.repo.FindByPaymentIntentID(paymentIntentID)
	if err != nil {
		return Order{}, false, err
	}
	if ord.Status != StatusPending {
		return ord, false, nil
	}
	updated, err := s.MarkCompleted(ord.ID, nil, nil, nil, nil, nil)
	if err != nil {
		return Order{}, false, err
	}
	return updated, true, nil
}

// UpdateShipping walks the fulfilment lifecycle:
// not_shipped → shipped → delivered, with returned allowed from shipped.
func (s *Service) UpdateShipping(id string, next ShippingStatus) (Order, error) {
	ord, err := s.repo.FindByID(id)
	if err != nil {
		return Order{}, err
	}

	ts := s.timestamp()
	p := Patch{ShippingStatus: &next}
	switch {
	case ord.ShippingStatus == ShippingNotShipped && next == ShippingShipped:
		p.ShippedAt = &ts
	case ord.ShippingStatus == ShippingShipped && next == ShippingDelivered:
		p.DeliveredAt = &ts
	case ord.ShippingStatus == ShippingShipped && next == ShippingReturned:
		// no dedicated timestamp for returns
	default:
		return Order{}, ErrBadTransition
	}
	return s.repo.Update(id, p)
}

func (s *Service) ListByStatus(statuses []string) ([]Order, error) {
	return s.repo.ListByStatus(statuses)
}
