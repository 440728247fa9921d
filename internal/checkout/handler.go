package checkout

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/alexandermaat99/waitingtofly-sub000/internal/payment"
)

// Handler exposes the checkout flow endpoints.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/checkout", h.start)
	app.Get("/api/v1/checkout/:id", h.get)
	app.Put("/api/v1/checkout/:id/details", h.setDetails)
	app.Put("/api/v1/checkout/:id/shipping", h.setShipping)
	app.Post("/api/v1/payment/intent", h.paymentIntent)
	app.Post("/api/v1/checkout/session", h.hostedSession)
}

func (h *Handler) start(c *fiber.Ctx) error {
	sess, err := h.service.Start()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(sess)
}

func (h *Handler) get(c *fiber.Ctx) error {
	sess, err := h.service.Get(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sess)
}

type detailsRequest struct {
	Format   string `json:"format"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) setDetails(c *fiber.Ctx) error {
	payload := new(detailsRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	sess, err := h.service.SetDetails(c.Params("id"), payload.Format, payload.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sess)
}

func (h *Handler) setShipping(c *fiber.Ctx) error {
	payload := new(ShippingInput)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	sess, err := h.service.SetShipping(c.Params("id"), *payload)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sess)
}

// paymentIntentRequest accepts either a previously started checkout id or
// a full flat payload; the flat form creates the server-held session
// implicitly so idempotence always hangs off a session.
type paymentIntentRequest struct {
	CheckoutID string `json:"checkoutId"`
	Format     string `json:"format"`
	Quantity   int    `json:"quantity"`
	ShippingInput
}

func (h *Handler) paymentIntent(c *fiber.Ctx) error {
	payload := new(paymentIntentRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	id, err := h.resolveSessionID(payload)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.service.EnterPayment(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"checkoutId":   id,
		"clientSecret": res.ClientSecret,
		"orderId":      res.OrderID,
		"subtotal":     res.Subtotal,
		"tax":          res.Tax,
		"taxRate":      res.TaxRate,
		"shipping":     res.Shipping,
		"total":        res.Total,
		"taxSource":    res.TaxSource,
	})
}

func (h *Handler) hostedSession(c *fiber.Ctx) error {
	payload := new(paymentIntentRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	id, err := h.resolveSessionID(payload)
	if err != nil {
		return respondError(c, err)
	}
	res, err := h.service.HostedSession(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

func (h *Handler) resolveSessionID(payload *paymentIntentRequest) (string, error) {
	if payload.CheckoutID != "" {
		return payload.CheckoutID, nil
	}
	sess, err := h.service.StartFromFlat(payload.Format, payload.Quantity, payload.ShippingInput)
	if err != nil {
		return "", err
	}
	return sess.ID, nil
}

func respondError(c *fiber.Ctx, err error) error {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": ve.Error(), "field": ve.Field})
	case errors.Is(err, ErrInvalidFormat), errors.Is(err, ErrStepOrder):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": err.Error()})
	case errors.Is(err, payment.ErrNotConfigured):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"message": "payment processing is not configured"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
