package order

import (
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func pendingIntentOrder() Order {
	return Order{
		Email:           "reader@example.com",
		Name:            "Jo Reader",
		Format:          "hardcover",
		Quantity:        1,
		Subtotal:        21.24,
		TaxAmount:       1.54,
		TaxRate:         0.0725,
		ShippingAmount:  4.99,
		TotalAmount:     27.77,
		Address1:        "1 Main St",
		City:            "Los Angeles",
		State:           "CA",
		PostalCode:      "90001",
		Country:         "US",
		PaymentIntentID: strPtr("pi_123"),
	}
}

func TestCreate_ExactlyOneProcessorID(t *testing.T) {
	svc := NewService(NewInMemoryRepository())

	if _, err := svc.Create(Order{Email: "a@b.c"}); err != ErrInvalidIDs {
		t.Fatalf("expected ErrInvalidIDs with neither id, got %v", err)
	}

	both := pendingIntentOrder()
	both.CheckoutSessionID = strPtr("cs_123")
	if _, err := svc.Create(both); err != ErrInvalidIDs {
		t.Fatalf("expected ErrInvalidIDs with both ids, got %v", err)
	}

	created, err := svc.Create(pendingIntentOrder())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Status != StatusPending {
		t.Fatalf("expected pending status, got %q", created.Status)
	}
	if created.ShippingStatus != ShippingNotShipped {
		t.Fatalf("expected not_shipped, got %q", created.ShippingStatus)
	}
	if created.PaymentCompletedAt != nil || created.PaymentFailedAt != nil || created.ShippedAt != nil || created.DeliveredAt != nil {
		t.Fatal("transition timestamps must start unset")
	}
	if created.ID == "" || created.CreatedAt == "" {
		t.Fatal("id and createdAt must be populated")
	}
}

func TestMarkCompleted_RoundTripKeepsUntouchedFields(t *testing.T) {
	svc := NewService(NewInMemoryRepository())
	created, err := svc.Create(pendingIntentOrder())
	if err != nil {
		t.Fatal(err)
	}

	sub, taxAmt, rate, total := 21.24, 1.54, 0.0725, 27.77
	updated, err := svc.MarkCompleted(created.ID, &sub, &taxAmt, &rate, &total, nil)
	if err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}

	if updated.Status != StatusCompleted {
		t.Fatalf("expected completed, got %q", updated.Status)
	}
	if updated.PaymentCompletedAt == nil {
		t.Fatal("completion timestamp not set")
	}
	// fields not touched by the patch survive unchanged
	if updated.Email != created.Email || updated.Format != created.Format ||
		updated.Address1 != created.Address1 || updated.City != created.City {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
}

func TestMarkFailed_ReappliedStampsLatestTime(t *testing.T) {
	repo := NewInMemoryRepository()
	svc := NewService(repo)
	created, err := svc.Create(pendingIntentOrder())
	if err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	first, err := svc.MarkFailed(created.ID)
	if err != nil {
		t.Fatal(err)
	}

	svc.now = func() time.Time { return base.Add(time.Hour) }
	second, err := svc.MarkFailed(created.ID)
	if err != nil {
		t.Fatalf("re-applying failed patch errored: %v", err)
	}

	if second.Status != StatusFailed {
		t.Fatalf("expected failed, got %q", second.Status)
	}
	if *second.PaymentFailedAt == *first.PaymentFailedAt {
		t.Fatal("expected the second event to re-stamp the failure time")
	}
}

func TestNudgeStatus(t *testing.T) {
	svc := NewService(NewInMemoryRepository())
	created, err := svc.Create(pendingIntentOrder())
	if err != nil {
		t.Fatal(err)
	}

	_, updated, err := svc.NudgeStatus("pi_123", StatusCompleted)
	if err != nil {
		t.Fatal(err)
	}
	if !updated {
		t.Fatal("expected pending order to be promoted")
	}

	// a second nudge is a no-op: the webhook owns the status from here
	ord, updated, err := svc.NudgeStatus("pi_123", StatusCompleted)
	if err != nil {
		t.Fatal(err)
	}
	if updated {
		t.Fatal("completed order must not be re-promoted")
	}
	if ord.ID != created.ID {
		t.Fatalf("unexpected order %q", ord.ID)
	}

	if _, _, err := svc.NudgeStatus("pi_unknown", StatusCompleted); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateShipping_Transitions(t *testing.T) {
	svc := NewService(NewInMemoryRepository())
	created, err := svc.Create(pendingIntentOrder())
	if err != nil {
		t.Fatal(err)
	}

	// delivered before shipped is rejected
	if _, err := svc.UpdateShipping(created.ID, ShippingDelivered); err != ErrBadTransition {
		t.Fatalf("expected ErrBadTransition, got %v", err)
	}

	shipped, err := svc.UpdateShipping(created.ID, ShippingShipped)
	if err != nil {
		t.Fatal(err)
	}
	if shipped.ShippedAt == nil {
		t.Fatal("shippedAt not set")
	}

	delivered, err := svc.UpdateShipping(created.ID, ShippingDelivered)
	if err != nil {
		t.Fatal(err)
	}
	if delivered.DeliveredAt == nil {
		t.Fatal("deliveredAt not set")
	}
	if delivered.ShippedAt == nil {
		t.Fatal("shippedAt must survive the delivered patch")
	}
}
