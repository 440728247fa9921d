package order

import "errors"

var (
	ErrNotFound      = errors.New("order not found")
	ErrInvalidIDs    = errors.New("exactly one of checkout session id or payment intent id must be set at creation")
	ErrBadTransition = errors.New("invalid shipping status transition")
)

// Status is the payment lifecycle of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ShippingStatus tracks fulfilment independently of payment.
type ShippingStatus string

const (
	ShippingNotShipped ShippingStatus = "not_shipped"
	ShippingShipped    ShippingStatus = "shipped"
	ShippingDelivered  ShippingStatus = "delivered"
	ShippingReturned   ShippingStatus = "returned"
)

// Order is a preorder purchase. Amount fields start as estimates at
// checkout time and are overwritten with the processor's authoritative
// figures once its tax calculation completes. Timestamps are RFC3339
// strings; the transition timestamps stay nil until their transition
// happens.
type Order struct {
	ID                string  `json:"id"`
	CheckoutSessionID *string `json:"checkoutSessionId,omitempty"`
	PaymentIntentID   *string `json:"paymentIntentId,omitempty"`

	Email    string `json:"email"`
	Name     string `json:"name"`
	Format   string `json:"format"`
	Quantity int    `json:"quantity"`

	Subtotal       float64 `json:"subtotal"`
	TaxAmount      float64 `json:"taxAmount"`
	TaxRate        float64 `json:"taxRate"`
	ShippingAmount float64 `json:"shippingAmount"`
	TotalAmount    float64 `json:"totalAmount"`

	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Address1   string `json:"address1,omitempty"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`

	Status         Status         `json:"status"`
	ShippingStatus ShippingStatus `json:"shippingStatus"`

	CreatedAt          string  `json:"createdAt"`
	PaymentCompletedAt *string `json:"paymentCompletedAt,omitempty"`
	PaymentFailedAt    *string `json:"paymentFailedAt,omitempty"`
	ShippedAt          *string `json:"shippedAt,omitempty"`
	DeliveredAt        *string `json:"deliveredAt,omitempty"`
	UpdatedAt          string  `json:"updatedAt"`
}

// Patch is a partial update; nil fields are left untouched. Callers set
// only what their transition needs.
type Patch struct {
	Status            *Status
	CheckoutSessionID *string
	PaymentIntentID   *string

	Subtotal    *float64
	TaxAmount   *float64
	TaxRate     *float64
	TotalAmount *float64

	ShippingStatus *ShippingStatus

	PaymentCompletedAt *string
	PaymentFailedAt    *string
	ShippedAt          *string
	DeliveredAt        *string
}

// Apply overlays the patch onto an order and stamps updatedAt. Shared by
// the in-memory repository and tests; the postgres repository mirrors it
// in SQL.
func (p Patch) Apply(ord Order, updatedAt string) Order {
	if p.Status != nil {
		ord.Status = *p.Status
	}
	if p.CheckoutSessionID != nil {
		ord.CheckoutSessionID = p.CheckoutSessionID
	}
	if p.PaymentIntentID != nil {
		ord.PaymentIntentID = p.PaymentIntentID
	}
	if p.Subtotal != nil {
		ord.Subtotal = *p.Subtotal
	}
	if p.TaxAmount != nil {
		ord.TaxAmount = *p.TaxAmount
	}
	if p.TaxRate != nil {
		ord.TaxRate = *p.TaxRate
	}
	if p.TotalAmount != nil {
		ord.TotalAmount = *p.TotalAmount
	}
	if p.ShippingStatus != nil {
		ord.ShippingStatus = *p.ShippingStatus
	}
	if p.PaymentCompletedAt != nil {
		ord.PaymentCompletedAt = p.PaymentCompletedAt
	}
	if p.PaymentFailedAt != nil {
		ord.PaymentFailedAt = p.PaymentFailedAt
	}
	if p.ShippedAt != nil {
		ord.ShippedAt = p.ShippedAt
	}
	if p.DeliveredAt != nil {
		ord.DeliveredAt = p.DeliveredAt
	}
	ord.UpdatedAt = updatedAt
	return ord
}
