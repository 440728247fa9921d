package webhook

import (
	"github.com/alexandermaat99/waitingtofly-sub000/internal/order"
)

// MatchedBy tags which lookup strategy located the order.
type MatchedBy string

const (
	MatchedBySession  MatchedBy = "sessionId"
	MatchedByMetadata MatchedBy = "metadata"
	MatchedByIntent   MatchedBy = "paymentIntent"
	MatchedNone       MatchedBy = "none"
)

// Lookup is one strategy in a prioritized fallback chain.
type Lookup struct {
	By  MatchedBy
	Key string
}

// OrderFinder is the slice of the order store the resolver needs.
type OrderFinder interface {
	Get(id string) (order.Order, error)
	FindByCheckoutSessionID(sessionID string) (order.Order, error)
	FindByPaymentIntentID(intentID string) (order.Order, error)
}

// Resolver walks a prioritized lookup chain until one strategy matches.
// First match wins; strategies with empty keys are skipped. Precedence is
// determined entirely by chain order so each event type can declare its
// own.
type Resolver struct {
	orders OrderFinder
}

func NewResolver(orders OrderFinder) *Resolver {
	return &Resolver{orders: orders}
}

// Resolve returns the matched order and the strategy that found it, or
// MatchedNone when the chain is exhausted. A miss is an expected outcome,
// not an error.
func (r *Resolver) Resolve(chain []Lookup) (order.Order, MatchedBy) {
	for _, l := range chain {
		if l.Key == "" {
			continue
		}
		var ord order.Order
		var err error
		switch l.By {
		case MatchedBySession:
			ord, err = r.orders.FindByCheckoutSessionID(l.Key)
		case MatchedByMetadata:
			ord, err = r.orders.Get(l.Key)
		case MatchedByIntent:
			ord, err = r.orders.FindByPaymentIntentID(l.Key)
		default:
			continue
		}
		if err == nil {
			return ord, l.By
		}
	}
	return order.Order{}, MatchedNone
}
