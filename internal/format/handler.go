package format

import (
	"github.com/gofiber/fiber/v2"
)

// Handler exposes the public format list and the admin upsert.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/formats", h.listFormats)
}

func (h *Handler) RegisterAdminRoutes(app fiber.Router) {
	app.Put("/formats/:key", h.upsertFormat)
}

func (h *Handler) listFormats(c *fiber.Ctx) error {
	formats, err := h.service.List()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(formats)
}

type upsertFormatRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Digital     bool    `json:"digital"`
	Bundle      bool    `json:"bundle"`
	Active      bool    `json:"active"`
}

func (h *Handler) upsertFormat(c *fiber.Ctx) error {
	payload := new(upsertFormatRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	f := Format{
		Key:         c.Params("key"),
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price,
		Digital:     payload.Digital,
		Bundle:      payload.Bundle,
		Active:      payload.Active,
	}
	saved, err := h.service.Upsert(f)
	if err != nil {
		if err == ErrBadRow {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "name is required and price must be non-negative"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(saved)
}
