package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds everything the server reads from the environment. Secrets
// for the payment processor and email service are consumed, never minted;
// a missing key disables the corresponding client rather than crashing the
// storefront.
type Config struct {
	Addr        string
	DatabaseURL string

	PaymentSecretKey string
	WebhookSecret    string
	PaymentBaseURL   string

	EmailAPIKey  string
	EmailBaseURL string
	EmailFrom    string
	AdminEmail   string

	BaseURL   string
	JWTSecret string

	// ShippingPrice is the flat per-order shipping charge for physical
	// formats. Digital formats always ship free.
	ShippingPrice float64

	// DigitalTaxExempt controls whether digital formats are exempt from
	// sales tax in the local estimator.
	DigitalTaxExempt bool
}

func Load() Config {
	addr := os.Getenv("PREORDER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	cfg := Config{
		Addr:        addr,
		DatabaseURL: os.Getenv("DATABASE_URL"),

		PaymentSecretKey: os.Getenv("PAYMENT_SECRET_KEY"),
		WebhookSecret:    os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		PaymentBaseURL:   os.Getenv("PAYMENT_API_BASE_URL"),

		EmailAPIKey:  os.Getenv("EMAIL_API_KEY"),
		EmailBaseURL: os.Getenv("EMAIL_API_BASE_URL"),
		EmailFrom:    os.Getenv("EMAIL_FROM"),
		AdminEmail:   os.Getenv("ADMIN_EMAIL"),

		BaseURL:   os.Getenv("SITE_BASE_URL"),
		JWTSecret: os.Getenv("JWT_SECRET"),

		ShippingPrice:    floatEnv("SHIPPING_PRICE", 4.99),
		DigitalTaxExempt: os.Getenv("DIGITAL_TAX_EXEMPT") != "0",
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:3000"
	}
	if cfg.EmailFrom == "" {
		cfg.EmailFrom = "orders@waitingtofly.com"
	}

	return cfg
}

func floatEnv(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		fmt.Printf("warning: invalid %s %q, using %.2f\n", key, v, fallback)
		return fallback
	}
	return f
}
