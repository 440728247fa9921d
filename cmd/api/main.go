package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/alexandermaat99/waitingtofly-sub000/internal/checkout"
	"github.com/alexandermaat99/waitingtofly-sub000/internal/config"
	"github.com/alexandermaat99/waitingtofly-sub000/internal/format"
	"github.com/alexandermaat99/waitingtofly-sub000/internal/notify"
	"github.com/alexandermaat99/waitingtofly-sub000/internal/order"
	"github.com/alexandermaat99/waitingtofly-sub000/internal/payment"
	"github.com/alexandermaat99/waitingtofly-sub000/internal/tax"
	"github.com/alexandermaat99/waitingtofly-sub000/internal/webhook"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	app := fiber.New()
	setupCORS(app)

	db := mustOpenDB(cfg.DatabaseURL)
	defer db.Close()

	migrate(db)

	// payment client is nil when no secret key is configured; its methods
	// then return ErrNotConfigured, so tax quoting falls back to local
	// estimates and intent creation reports the outage instead of charging
	payClient := payment.NewClient(cfg.PaymentSecretKey, cfg.PaymentBaseURL)
	if payClient == nil {
		fmt.Println("warning: PAYMENT_SECRET_KEY not set, running with local tax estimates only")
	}

	formatService := format.NewService(format.NewPostgresRepository(db), 60*time.Second)
	formatHandler := format.NewHandler(formatService)

	taxService := tax.NewService(payClient, cfg.DigitalTaxExempt, nil)
	taxHandler := tax.NewHandler(taxService)

	orderService := order.NewService(order.NewPostgresRepository(db))
	orderHandler := order.NewHandler(orderService)

	checkoutService := checkout.NewService(
		checkout.NewPostgresRepository(db),
		orderService, formatService, taxService, payClient,
		cfg.ShippingPrice, cfg.BaseURL)
	checkoutHandler := checkout.NewHandler(checkoutService)

	mailer := notify.NewHTTPMailer(cfg.EmailAPIKey, cfg.EmailBaseURL)
	var m notify.Mailer
	if mailer != nil {
		m = mailer
	}
	dispatcher := notify.NewDispatcher(m, cfg.EmailFrom, cfg.AdminEmail)

	reconciler := webhook.NewReconciler(orderService, payClient, dispatcher)
	webhookHandler := webhook.NewHandler(reconciler, cfg.WebhookSecret)

	formatHandler.RegisterPublicRoutes(app)
	taxHandler.RegisterPublicRoutes(app)
	checkoutHandler.RegisterPublicRoutes(app)
	orderHandler.RegisterPublicRoutes(app)
	webhookHandler.RegisterPublicRoutes(app)

	// admin surface: JWTs are verified here, never minted (issuance is the
	// auth collaborator's job)
	admin := app.Group("/api/v1/admin")
	admin.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
	}))
	orderHandler.RegisterAdminRoutes(admin)
	formatHandler.RegisterAdminRoutes(admin)

	log.Printf("starting server on %s", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Stripe-Signature",
	}))
}

func mustOpenDB(dbURL string) *sql.DB {
	if dbURL == "" {
		panic("DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		panic(err)
	}

	if err := db.Ping(); err != nil {
		panic(err)
	}

	return db
}

func migrate(db *sql.DB) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		checkout_session_id TEXT,
		payment_intent_id TEXT,
		email TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		format TEXT NOT NULL DEFAULT '',
		quantity INT NOT NULL DEFAULT 1,
		subtotal numeric NOT NULL DEFAULT 0,
		tax_amount numeric NOT NULL DEFAULT 0,
		tax_rate numeric NOT NULL DEFAULT 0,
		shipping_amount numeric NOT NULL DEFAULT 0,
		total_amount numeric NOT NULL DEFAULT 0,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		address1 TEXT NOT NULL DEFAULT '',
		address2 TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT 'US',
		phone TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		shipping_status TEXT NOT NULL DEFAULT 'not_shipped',
		created_at TEXT NOT NULL DEFAULT '',
		payment_completed_at TEXT,
		payment_failed_at TEXT,
		shipped_at TEXT,
		delivered_at TEXT,
		updated_at TEXT NOT NULL DEFAULT ''
	)`); err != nil {
		panic(err)
	}
	// webhook lookups hit these two columns constantly
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS orders_checkout_session_idx ON orders (checkout_session_id)`); err != nil {
		fmt.Printf("warning: could not create session index: %v\n", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS orders_payment_intent_idx ON orders (payment_intent_id)`); err != nil {
		fmt.Printf("warning: could not create intent index: %v\n", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS checkout_sessions (
		id TEXT PRIMARY KEY,
		step TEXT NOT NULL DEFAULT 'order_details',
		format TEXT NOT NULL DEFAULT '',
		quantity INT NOT NULL DEFAULT 0,
		email TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		address1 TEXT NOT NULL DEFAULT '',
		address2 TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		postal_code TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT 'US',
		phone TEXT NOT NULL DEFAULT '',
		order_id TEXT,
		payment_intent_id TEXT,
		client_secret TEXT,
		hosted_session_id TEXT,
		subtotal numeric NOT NULL DEFAULT 0,
		tax_amount numeric NOT NULL DEFAULT 0,
		tax_rate numeric NOT NULL DEFAULT 0,
		shipping_amount numeric NOT NULL DEFAULT 0,
		total_amount numeric NOT NULL DEFAULT 0,
		tax_source TEXT NOT NULL DEFAULT '',
		priced_fingerprint TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL DEFAULT ''
	)`); err != nil {
		panic(err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS book_formats (
		key TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price numeric NOT NULL DEFAULT 0,
		digital BOOLEAN NOT NULL DEFAULT FALSE,
		bundle BOOLEAN NOT NULL DEFAULT FALSE,
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`); err != nil {
		panic(err)
	}

	// seed the storefront formats when the table is empty
	var formatCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM book_formats`).Scan(&formatCount); err == nil && formatCount == 0 {
		seed := []struct {
			key, name, desc string
			price           float64
			digital, bundle bool
		}{
			{"ebook", "Ebook", "DRM-free EPUB and PDF, delivered on release day", 19.99, true, false},
			{"hardcover", "Hardcover", "First-edition hardcover", 24.99, false, false},
			{"signed", "Signed hardcover", "First-edition hardcover, signed by the author", 39.99, false, false},
			{"bundle", "Hardcover + ebook bundle", "Signed hardcover plus the ebook edition", 49.99, false, true},
		}
		for _, s := range seed {
			if _, err := db.Exec(`INSERT INTO book_formats (key, name, description, price, digital, bundle, active)
				VALUES ($1,$2,$3,$4,$5,$6,TRUE)`, s.key, s.name, s.desc, s.price, s.digital, s.bundle); err != nil {
				fmt.Printf("warning: could not seed format %s: %v\n", s.key, err)
			}
		}
	}
}
