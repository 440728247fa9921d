package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandermaat99/waitingtofly-sub000/internal/order"
)

func seedOrders(t *testing.T) *order.Service {
	t.Helper()
	svc := order.NewService(order.NewInMemoryRepository())

	sessionID := "cs_hosted"
	_, err := svc.Create(order.Order{ID: "ord_hosted", CheckoutSessionID: &sessionID, Email: "hosted@example.com"})
	require.NoError(t, err)

	intentID := "pi_embedded"
	_, err = svc.Create(order.Order{ID: "ord_embedded", PaymentIntentID: &intentID, Email: "embedded@example.com"})
	require.NoError(t, err)

	return svc
}

func TestResolve_SessionIDTakesPriority(t *testing.T) {
	r := NewResolver(seedOrders(t))

	// both the session and intent lookups would match distinct orders;
	// chain position decides
	ord, by := r.Resolve([]Lookup{
		{By: MatchedBySession, Key: "cs_hosted"},
		{By: MatchedByMetadata, Key: "ord_embedded"},
		{By: MatchedByIntent, Key: "pi_embedded"},
	})
	assert.Equal(t, MatchedBySession, by)
	assert.Equal(t, "ord_hosted", ord.ID)
}

func TestResolve_FallsThroughOnMiss(t *testing.T) {
	r := NewResolver(seedOrders(t))

	ord, by := r.Resolve([]Lookup{
		{By: MatchedBySession, Key: "cs_unknown"},
		{By: MatchedByMetadata, Key: "ord_embedded"},
		{By: MatchedByIntent, Key: "pi_embedded"},
	})
	assert.Equal(t, MatchedByMetadata, by)
	assert.Equal(t, "ord_embedded", ord.ID)

	ord, by = r.Resolve([]Lookup{
		{By: MatchedBySession, Key: "cs_unknown"},
		{By: MatchedByMetadata, Key: "ord_unknown"},
		{By: MatchedByIntent, Key: "pi_embedded"},
	})
	assert.Equal(t, MatchedByIntent, by)
	assert.Equal(t, "ord_embedded", ord.ID)
}

func TestResolve_SkipsEmptyKeys(t *testing.T) {
	r := NewResolver(seedOrders(t))

	ord, by := r.Resolve([]Lookup{
		{By: MatchedBySession, Key: ""},
		{By: MatchedByMetadata, Key: ""},
		{By: MatchedByIntent, Key: "pi_embedded"},
	})
	assert.Equal(t, MatchedByIntent, by)
	assert.Equal(t, "ord_embedded", ord.ID)
}

func TestResolve_ExhaustedChain(t *testing.T) {
	r := NewResolver(seedOrders(t))

	_, by := r.Resolve([]Lookup{
		{By: MatchedBySession, Key: "cs_unknown"},
		{By: MatchedByIntent, Key: "pi_unknown"},
	})
	assert.Equal(t, MatchedNone, by)
}
