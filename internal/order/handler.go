package order

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the public status nudge and the admin order views.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/order/status", h.nudgeStatus)
}

func (h *Handler) RegisterAdminRoutes(app fiber.Router) {
	app.Get("/orders", h.listOrders)
	app.Patch("/orders/:id/shipping", h.updateShipping)
}

type nudgeStatusRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
	Status          string `json:"status"`
}

// nudgeStatus is deliberately forgiving: the client already saw a success
// redirect and the webhook will set the real status, so a miss here is not
// an error worth surfacing.
func (h *Handler) nudgeStatus(c *fiber.Ctx) error {
	payload := new(nudgeStatusRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.PaymentIntentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "paymentIntentId is required"})
	}

	_, updated, err := h.service.NudgeStatus(payload.PaymentIntentID, Status(payload.Status))
	if err != nil && err != ErrNotFound {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(fiber.Map{"success": updated})
}

func (h *Handler) listOrders(c *fiber.Ctx) error {
	var statuses []string
	if q := c.Query("status"); q != "" {
		statuses = strings.Split(q, ",")
	}
	orders, err := h.service.ListByStatus(statuses)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(orders)
}

type updateShippingRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateShipping(c *fiber.Ctx) error {
	payload := new(updateShippingRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	ord, err := h.service.UpdateShipping(c.Params("id"), ShippingStatus(payload.Status))
	switch err {
	case nil:
		return c.JSON(ord)
	case ErrNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "order not found"})
	case ErrBadTransition:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
}
