package tax

import (
	"context"
	"fmt"
)

// Address is the destination used for remote tax calculation. Remote
// results are keyed by the full address; the local estimator only looks at
// country and state.
type Address struct {
	Line1      string `json:"line1"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// RemoteRequest asks the external calculator for an authoritative amount.
type RemoteRequest struct {
	Subtotal float64
	Shipping float64
	Address  Address
	Digital  bool
}

// RemoteResult carries the authoritative tax figure plus a calculation
// identifier for later retrieval and audit.
type RemoteResult struct {
	Tax           float64
	CalculationID string
}

// RemoteCalculator is the external tax service contract. Implemented by
// the payment processor client; nil means remote calculation is not
// configured.
type RemoteCalculator interface {
	CalculateTax(ctx context.Context, req RemoteRequest) (RemoteResult, error)
}

// Quote is what checkout and the /tax/calculate endpoint consume. Source
// is "remote" when the external calculator answered and "fallback" when
// the static-table estimate was used instead.
type Quote struct {
	Tax            float64 `json:"tax"`
	Total          float64 `json:"total"`
	Rate           float64 `json:"rate"`
	Source         string  `json:"source"`
	CalculationID  string  `json:"calculationId,omitempty"`
	FallbackReason string  `json:"fallbackReason,omitempty"`
}

const (
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

// Service prefers the remote calculator and falls back to the local
// estimate. It never returns an error to the checkout path: availability
// trumps correctness.
type Service struct {
	calc          RemoteCalculator
	digitalExempt bool
	warnf         func(format string, args ...interface{})
}

func NewService(calc RemoteCalculator, digitalExempt bool, warnf func(string, ...interface{})) *Service {
	if warnf == nil {
		warnf = func(format string, args ...interface{}) { fmt.Printf(format+"\n", args...) }
	}
	return &Service{calc: calc, digitalExempt: digitalExempt, warnf: warnf}
}

// Quote resolves the tax for one checkout. The remote calculator is the
// source of truth; any failure (including a missing client) degrades to
// the shared estimator with a reason attached.
func (s *Service) Quote(ctx context.Context, subtotal, shipping float64, addr Address, isDigital bool) Quote {
	est := Estimate(subtotal, addr.Country, addr.State, isDigital, s.digitalExempt)

	if s.calc == nil {
		return s.fallback(subtotal, shipping, est, "remote tax calculation not configured")
	}

	res, err := s.calc.CalculateTax(ctx, RemoteRequest{
		Subtotal: subtotal,
		Shipping: shipping,
		Address:  addr,
		Digital:  isDigital,
	})
	if err != nil {
		return s.fallback(subtotal, shipping, est, fmt.Sprintf("remote tax calculation failed: %v", err))
	}

	if !isDigital && res.Tax == 0 {
		if _, levies := KnownRate(addr.Country, addr.State); levies {
			s.warnf("warning: remote tax resolved to 0 for physical order in %s-%s, likely integration bug", addr.Country, addr.State)
		}
	}

	rate := 0.0
	if subtotal > 0 {
		rate = res.Tax / subtotal
	}
	return Quote{
		Tax:           res.Tax,
		Total:         Round2(subtotal + shipping + res.Tax),
		Rate:          rate,
		Source:        SourceRemote,
		CalculationID: res.CalculationID,
	}
}

func (s *Service) fallback(subtotal, shipping float64, est Result, reason string) Quote {
	return Quote{
		Tax:            est.Tax,
		Total:          Round2(subtotal + shipping + est.Tax),
		Rate:           est.Rate,
		Source:         SourceFallback,
		FallbackReason: reason,
	}
}

// EstimateOnly exposes the shared estimator for display callers that do
// not want a remote round trip.
func (s *Service) EstimateOnly(subtotal float64, addr Address, isDigital bool) Result {
	return Estimate(subtotal, addr.Country, addr.State, isDigital, s.digitalExempt)
}
