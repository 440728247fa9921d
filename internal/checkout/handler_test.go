package checkout

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexandermaat99/waitingtofly-sub000/internal/payment"
	"github.com/alexandermaat99/waitingtofly-sub000/internal/tax"
)

func newCheckoutApp(t *testing.T) (*fiber.App, *env) {
	t.Helper()
	e := newEnv(t, nil)
	app := fiber.New()
	NewHandler(e.svc).RegisterPublicRoutes(app)
	return app, e
}

func request(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]interface{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestCheckoutFlowOverHTTP(t *testing.T) {
	app, _ := newCheckoutApp(t)

	resp, body := request(t, app, http.MethodPost, "/api/v1/checkout", nil)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, string(StepOrderDetails), body["step"])

	resp, body = request(t, app, http.MethodPut, "/api/v1/checkout/"+id+"/details",
		map[string]interface{}{"format": "hardcover", "quantity": 2})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, string(StepShippingAddress), body["step"])

	resp, body = request(t, app, http.MethodPut, "/api/v1/checkout/"+id+"/shipping", shippingCA())
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, string(StepPayment), body["step"])

	resp, body = request(t, app, http.MethodPost, "/api/v1/payment/intent",
		map[string]interface{}{"checkoutId": id})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, id, body["checkoutId"])
	assert.NotEmpty(t, body["clientSecret"])
	assert.NotEmpty(t, body["orderId"])
	assert.Equal(t, 42.48, body["subtotal"])

	// the session never leaks the client secret on reads
	resp, body = request(t, app, http.MethodGet, "/api/v1/checkout/"+id, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	_, leaked := body["clientSecret"]
	assert.False(t, leaked)
}

func TestPaymentIntent_FlatPayloadCreatesImplicitSession(t *testing.T) {
	app, e := newCheckoutApp(t)

	in := shippingCA()
	resp, body := request(t, app, http.MethodPost, "/api/v1/payment/intent", map[string]interface{}{
		"format":     "ebook",
		"quantity":   1,
		"email":      in.Email,
		"firstName":  in.FirstName,
		"lastName":   in.LastName,
		"address1":   in.Address1,
		"city":       in.City,
		"state":      in.State,
		"postalCode": in.PostalCode,
		"country":    in.Country,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["checkoutId"])
	assert.Equal(t, 16.99, body["total"])
	assert.Equal(t, 1, e.provider.intents)
}

func TestPaymentIntent_FlatPayloadRetryIsIdempotent(t *testing.T) {
	app, e := newCheckoutApp(t)

	in := shippingCA()
	payload := map[string]interface{}{
		"format":     "hardcover",
		"quantity":   1,
		"email":      in.Email,
		"firstName":  in.FirstName,
		"lastName":   in.LastName,
		"address1":   in.Address1,
		"city":       in.City,
		"state":      in.State,
		"postalCode": in.PostalCode,
		"country":    in.Country,
	}
	resp, first := request(t, app, http.MethodPost, "/api/v1/payment/intent", payload)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, second := request(t, app, http.MethodPost, "/api/v1/payment/intent", payload)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, first["checkoutId"], second["checkoutId"])
	assert.Equal(t, first["orderId"], second["orderId"])
	assert.Equal(t, first["clientSecret"], second["clientSecret"])
	assert.Equal(t, 1, e.provider.intents)
	assert.Equal(t, 1, e.orderCount(t))
}

func TestPaymentIntent_ValidationErrors(t *testing.T) {
	app, _ := newCheckoutApp(t)

	resp, body := request(t, app, http.MethodPost, "/api/v1/payment/intent",
		map[string]interface{}{"format": "hardcover", "quantity": 0})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "quantity", body["field"])

	resp, _ = request(t, app, http.MethodPost, "/api/v1/payment/intent",
		map[string]interface{}{"format": "paperback", "quantity": 1})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = request(t, app, http.MethodPost, "/api/v1/payment/intent",
		map[string]interface{}{"checkoutId": "does-not-exist"})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestPaymentIntent_UnconfiguredProcessorReturns503(t *testing.T) {
	e := newEnv(t, nil)
	var client *payment.Client
	svc := NewService(NewInMemoryRepository(), e.orders, e.formats,
		tax.NewService(client, true, func(string, ...interface{}) {}), client, 4.99, "https://waitingtofly.com")
	app := fiber.New()
	NewHandler(svc).RegisterPublicRoutes(app)

	sess, err := svc.Start()
	require.NoError(t, err)
	_, err = svc.SetDetails(sess.ID, "hardcover", 1)
	require.NoError(t, err)
	_, err = svc.SetShipping(sess.ID, shippingCA())
	require.NoError(t, err)

	resp, body := request(t, app, http.MethodPost, "/api/v1/payment/intent",
		map[string]interface{}{"checkoutId": sess.ID})
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "payment processing is not configured", body["message"])
}

func TestHostedSessionOverHTTP(t *testing.T) {
	app, e := newCheckoutApp(t)

	sess := e.toPayment(t, "hardcover", 1)
	resp, body := request(t, app, http.MethodPost, "/api/v1/checkout/session",
		map[string]interface{}{"checkoutId": sess.ID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "cs_1", body["sessionId"])
	assert.Contains(t, body["redirectUrl"], "cs_1")
}
