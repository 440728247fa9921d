package webhook

import (
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/alexandermaat99/waitingtofly-sub000/internal/payment"
)

// Handler ingests signed processor events. Signature verification happens
// before anything else; an invalid signature is rejected with no state
// change.
type Handler struct {
	reconciler *Reconciler
	secret     string
}

func NewHandler(r *Reconciler, signingSecret string) *Handler {
	return &Handler{reconciler: r, secret: signingSecret}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/webhooks/payment", h.receive)
}

func (h *Handler) receive(c *fiber.Ctx) error {
	body := c.Body()

	if err := payment.VerifySignature(body, c.Get("Stripe-Signature"), h.secret, payment.DefaultTolerance); err != nil {
		log.Printf("webhook: signature rejected: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid signature"})
	}

	var ev payment.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "malformed event"})
	}

	if err := h.reconciler.HandleEvent(c.UserContext(), ev); err != nil {
		log.Printf("webhook: event %s failed: %v", ev.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal error"})
	}
	return c.JSON(fiber.Map{"received": true})
}
