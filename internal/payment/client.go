package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alexandermaat99/waitingtofly-sub000/internal/tax"
)

const defaultBaseURL = "https://api.stripe.com"

// Client talks to the payment processor's REST API. Requests are
// form-encoded with Bearer auth; amounts cross the wire in integer cents.
type Client struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewClient returns nil when no secret key is configured so callers can
// degrade instead of issuing unauthenticated requests.
func NewClient(secretKey, baseURL string) *Client {
	if secretKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		secretKey: secretKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type intentResponse struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Amount       int64             `json:"amount"`
	Status       string            `json:"status"`
	Metadata     map[string]string `json:"metadata"`
}

func (c *Client) CreatePaymentIntent(ctx context.Context, p IntentParams) (Intent, error) {
	currency := p.Currency
	if currency == "" {
		currency = "usd"
	}
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(Cents(p.Amount), 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	if p.Email != "" {
		form.Set("receipt_email", p.Email)
	}
	if p.Description != "" {
		form.Set("description", p.Description)
	}
	if p.OrderID != "" {
		form.Set("metadata[order_id]", p.OrderID)
	}
	if p.TaxCalculationID != "" {
		form.Set("metadata[tax_calculation_id]", p.TaxCalculationID)
	}

	var res intentResponse
	if err := c.do(ctx, http.MethodPost, "/v1/payment_intents", form, &res); err != nil {
		return Intent{}, err
	}
	return Intent{
		ID:           res.ID,
		ClientSecret: res.ClientSecret,
		Amount:       Dollars(res.Amount),
		Status:       res.Status,
		Metadata:     res.Metadata,
	}, nil
}

type sessionResponse struct {
	ID             string `json:"id"`
	URL            string `json:"url"`
	PaymentIntent  string `json:"payment_intent"`
	AmountSubtotal int64  `json:"amount_subtotal"`
	AmountTotal    int64  `json:"amount_total"`
	TotalDetails   struct {
		AmountTax int64 `json:"amount_tax"`
	} `json:"total_details"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer_details"`
	Metadata map[string]string `json:"metadata"`
	Status   string            `json:"status"`
}

func (c *Client) CreateCheckoutSession(ctx context.Context, p SessionParams) (CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	form.Set("automatic_tax[enabled]", "true")
	if p.Email != "" {
		form.Set("customer_email", p.Email)
	}
	if p.OrderID != "" {
		form.Set("metadata[order_id]", p.OrderID)
	}
	form.Set("line_items[0][price_data][currency]", "usd")
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(Cents(p.Item.UnitAmount), 10))
	form.Set("line_items[0][price_data][product_data][name]", p.Item.Name)
	form.Set("line_items[0][quantity]", strconv.Itoa(p.Item.Quantity))
	if p.Shipping > 0 {
		form.Set("shipping_options[0][shipping_rate_data][type]", "fixed_amount")
		form.Set("shipping_options[0][shipping_rate_data][fixed_amount][amount]", strconv.FormatInt(Cents(p.Shipping), 10))
		form.Set("shipping_options[0][shipping_rate_data][fixed_amount][currency]", "usd")
		form.Set("shipping_options[0][shipping_rate_data][display_name]", "Standard shipping")
	}

	var res sessionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &res); err != nil {
		return CheckoutSession{}, err
	}
	return sessionFromResponse(res), nil
}

func (c *Client) GetCheckoutSession(ctx context.Context, id string) (CheckoutSession, error) {
	var res sessionResponse
	if err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(id), nil, &res); err != nil {
		return CheckoutSession{}, err
	}
	return sessionFromResponse(res), nil
}

func sessionFromResponse(res sessionResponse) CheckoutSession {
	email := res.CustomerDetails.Email
	if email == "" {
		email = res.CustomerEmail
	}
	return CheckoutSession{
		ID:              res.ID,
		URL:             res.URL,
		PaymentIntentID: res.PaymentIntent,
		AmountSubtotal:  Dollars(res.AmountSubtotal),
		AmountTax:       Dollars(res.TotalDetails.AmountTax),
		AmountTotal:     Dollars(res.AmountTotal),
		CustomerEmail:   email,
		CustomerName:    res.CustomerDetails.Name,
		Metadata:        res.Metadata,
		Status:          res.Status,
	}
}

func (c *Client) GetPaymentIntent(ctx context.Context, id string) (Intent, error) {
	var res intentResponse
	if err := c.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(id), nil, &res); err != nil {
		return Intent{}, err
	}
	return Intent{
		ID:           res.ID,
		ClientSecret: res.ClientSecret,
		Amount:       Dollars(res.Amount),
		Status:       res.Status,
		Metadata:     res.Metadata,
	}, nil
}

type taxCalculationResponse struct {
	ID                 string `json:"id"`
	TaxAmountExclusive int64  `json:"tax_amount_exclusive"`
	AmountTotal        int64  `json:"amount_total"`
}

// CalculateTax implements tax.RemoteCalculator against the processor's tax
// API, keyed by the full shipping address.
func (c *Client) CalculateTax(ctx context.Context, req tax.RemoteRequest) (tax.RemoteResult, error) {
	form := url.Values{}
	form.Set("currency", "usd")
	form.Set("line_items[0][amount]", strconv.FormatInt(Cents(req.Subtotal), 10))
	form.Set("line_items[0][reference]", "book-preorder")
	form.Set("line_items[0][tax_behavior]", "exclusive")
	if req.Digital {
		form.Set("line_items[0][tax_code]", "txcd_10302000")
	} else {
		form.Set("line_items[0][tax_code]", "txcd_99999999")
	}
	form.Set("customer_details[address][line1]", req.Address.Line1)
	form.Set("customer_details[address][city]", req.Address.City)
	form.Set("customer_details[address][state]", req.Address.State)
	form.Set("customer_details[address][postal_code]", req.Address.PostalCode)
	form.Set("customer_details[address][country]", req.Address.Country)
	form.Set("customer_details[address_source]", "shipping")
	if req.Shipping > 0 {
		form.Set("shipping_cost[amount]", strconv.FormatInt(Cents(req.Shipping), 10))
	}

	var res taxCalculationResponse
	if err := c.do(ctx, http.MethodPost, "/v1/tax/calculations", form, &res); err != nil {
		return tax.RemoteResult{}, err
	}
	return tax.RemoteResult{
		Tax:           Dollars(res.TaxAmountExclusive),
		CalculationID: res.ID,
	}, nil
}

func (c *Client) GetTaxCalculation(ctx context.Context, id string) (tax.RemoteResult, error) {
	var res taxCalculationResponse
	if err := c.do(ctx, http.MethodGet, "/v1/tax/calculations/"+url.PathEscape(id), nil, &res); err != nil {
		return tax.RemoteResult{}, err
	}
	return tax.RemoteResult{
		Tax:           Dollars(res.TaxAmountExclusive),
		CalculationID: res.ID,
	}, nil
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	if c == nil {
		return ErrNotConfigured
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("processor %s %s: %s", method, path, apiErr.Error.Message)
		}
		return fmt.Errorf("processor %s %s: status %d", method, path, resp.StatusCode)
	}
	return json.Unmarshal(raw, out)
}
