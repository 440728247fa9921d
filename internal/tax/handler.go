package tax

import (
	"github.com/gofiber/fiber/v2"
)

// Handler exposes the tax quoting endpoint used by the checkout UI.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/tax/calculate", h.calculate)
}

type calculateRequest struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Digital  bool    `json:"digital"`
	Address  Address `json:"address"`
}

func (h *Handler) calculate(c *fiber.Ctx) error {
	payload := new(calculateRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Subtotal < 0 || payload.Shipping < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "amounts must be non-negative"})
	}
	if payload.Address.Country == "" {
		payload.Address.Country = "US"
	}

	quote := h.service.Quote(c.UserContext(), payload.Subtotal, payload.Shipping, payload.Address, payload.Digital)
	return c.JSON(quote)
}
