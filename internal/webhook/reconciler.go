// Package webhook reconciles asynchronous payment events with the orders
// database. Deliveries are at-least-once and are not deduplicated here:
// patches are written so re-application is harmless, but a re-delivered
// event can re-send notification emails. Whether duplicate confirmations
// must be suppressed is an open product decision.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/alexandermaat99/waitingtofly-sub000/internal/notify"
	"github.com/alexandermaat99/waitingtofly-sub000/internal/order"
	"github.com/alexandermaat99/waitingtofly-sub000/internal/payment"
)

// Reconciler applies one webhook event to the order store and dispatches
// notifications. Order lookup completes before any update; the update
// completes before email dispatch.
type Reconciler struct {
	orders   *order.Service
	resolver *Resolver
	provider payment.Provider
	notify   *notify.Dispatcher
	logf     func(format string, args ...interface{})
}

func NewReconciler(orders *order.Service, provider payment.Provider, dispatcher *notify.Dispatcher) *Reconciler {
	return &Reconciler{
		orders:   orders,
		resolver: NewResolver(orders),
		provider: provider,
		notify:   dispatcher,
		logf:     log.Printf,
	}
}

// HandleEvent routes one verified event. A nil return acknowledges the
// delivery; only internal store failures bubble up as errors.
func (r *Reconciler) HandleEvent(ctx context.Context, ev payment.Event) error {
	var obj payment.EventObject
	if len(ev.Data.Object) > 0 {
		if err := json.Unmarshal(ev.Data.Object, &obj); err != nil {
			return fmt.Errorf("decode event object: %w", err)
		}
	}

	switch ev.Type {
	case "checkout.session.completed":
		return r.checkoutCompleted(ctx, ev.ID, obj)
	case "payment_intent.succeeded":
		return r.paymentSucceeded(ctx, ev.ID, obj)
	case "payment_intent.payment_failed":
		return r.paymentFailed(ev.ID, obj)
	default:
		r.logf("webhook: ignoring event %s of type %q", ev.ID, ev.Type)
		return nil
	}
}

func (r *Reconciler) checkoutCompleted(ctx context.Context, eventID string, obj payment.EventObject) error {
	// the payload's cached totals are advisory; re-fetch the session for
	// the authoritative breakdown
	subtotal := payment.Dollars(obj.AmountSubtotal)
	taxAmount := payment.Dollars(obj.TotalDetails.AmountTax)
	total := payment.Dollars(obj.AmountTotal)
	intentID := obj.PaymentIntent

	if sess, err := r.provider.GetCheckoutSession(ctx, obj.ID); err == nil {
		subtotal = sess.AmountSubtotal
		taxAmount = sess.AmountTax
		total = sess.AmountTotal
		if sess.PaymentIntentID != "" {
			intentID = sess.PaymentIntentID
		}
	} else {
		r.logf("webhook: could not re-fetch session %s, using payload totals: %v", obj.ID, err)
	}

	ord, matched := r.resolver.Resolve([]Lookup{
		{By: MatchedBySession, Key: obj.ID},
		{By: MatchedByMetadata, Key: obj.Metadata["order_id"]},
		{By: MatchedByIntent, Key: intentID},
	})
	if matched == MatchedNone {
		r.logf("webhook: event %s: no order matched session %s, acknowledging anyway", eventID, obj.ID)
		r.notify.OrderCompleted(ctx, summaryFromEvent(obj))
		return nil
	}

	rate := 0.0
	if subtotal > 0 {
		rate = taxAmount / subtotal
	}
	var intentPtr *string
	if intentID != "" {
		intentPtr = &intentID
	}
	updated, err := r.orders.MarkCompleted(ord.ID, &subtotal, &taxAmount, &rate, &total, intentPtr)
	if err != nil {
		return fmt.Errorf("mark order %s completed: %w", ord.ID, err)
	}
	r.logf("webhook: order %s completed (matched by %s)", ord.ID, matched)

	r.notify.OrderCompleted(ctx, summaryFromOrder(updated))
	return nil
}

func (r *Reconciler) paymentSucceeded(ctx context.Context, eventID string, obj payment.EventObject) error {
	ord, matched := r.resolver.Resolve([]Lookup{
		{By: MatchedByIntent, Key: obj.ID},
		{By: MatchedByMetadata, Key: obj.Metadata["order_id"]},
	})
	if matched == MatchedNone {
		r.logf("webhook: event %s: no order matched intent %s, acknowledging anyway", eventID, obj.ID)
		r.notify.OrderCompleted(ctx, summaryFromEvent(obj))
		return nil
	}

	// amounts: keep stored figures unless the event references a tax
	// calculation we can retrieve
	var taxPtr, ratePtr, totalPtr *float64
	if ref := obj.Metadata["tax_calculation_id"]; ref != "" {
		if calc, err := r.provider.GetTaxCalculation(ctx, ref); err == nil {
			taxPtr = &calc.Tax
			if ord.Subtotal > 0 {
				rate := calc.Tax / ord.Subtotal
				ratePtr = &rate
			}
		} else {
			r.logf("webhook: could not retrieve tax calculation %s: %v", ref, err)
		}
	}
	if obj.Amount > 0 {
		total := payment.Dollars(obj.Amount)
		totalPtr = &total
	}

	intentID := obj.ID
	updated, err := r.orders.MarkCompleted(ord.ID, nil, taxPtr, ratePtr, totalPtr, &intentID)
	if err != nil {
		return fmt.Errorf("mark order %s completed: %w", ord.ID, err)
	}
	r.logf("webhook: order %s completed (matched by %s)", ord.ID, matched)

	r.notify.OrderCompleted(ctx, summaryFromOrder(updated))
	return nil
}

func (r *Reconciler) paymentFailed(eventID string, obj payment.EventObject) error {
	ord, matched := r.resolver.Resolve([]Lookup{
		{By: MatchedByIntent, Key: obj.ID},
		{By: MatchedByMetadata, Key: obj.Metadata["order_id"]},
	})
	if matched == MatchedNone {
		r.logf("webhook: event %s: no order matched failed intent %s, acknowledging anyway", eventID, obj.ID)
		return nil
	}

	if _, err := r.orders.MarkFailed(ord.ID); err != nil {
		return fmt.Errorf("mark order %s failed: %w", ord.ID, err)
	}
	r.logf("webhook: order %s marked failed (matched by %s)", ord.ID, matched)
	return nil
}

func summaryFromOrder(ord order.Order) notify.OrderSummary {
	return notify.OrderSummary{
		OrderID:  ord.ID,
		Email:    ord.Email,
		Name:     ord.Name,
		Format:   ord.Format,
		Quantity: ord.Quantity,
		Total:    ord.TotalAmount,
	}
}

// summaryFromEvent is the degraded fallback when no order matched: the
// event's own customer details are the only data available.
func summaryFromEvent(obj payment.EventObject) notify.OrderSummary {
	email := obj.CustomerDetails.Email
	if email == "" {
		email = obj.ReceiptEmail
	}
	name := obj.CustomerDetails.Name
	if name == "" {
		name = obj.ShippingDetails.Name
	}
	return notify.OrderSummary{
		Email: email,
		Name:  name,
		Total: payment.Dollars(obj.AmountTotal),
	}
}
