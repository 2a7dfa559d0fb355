package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lodecoin/lodecoin/internal/token"
)

// RegisterAccountRoutes wires balance-row lifecycle endpoints.
func RegisterAccountRoutes(r fiber.Router, h *token.Handler) {
	r.Post("/accounts/open", h.Open)
	r.Post("/accounts/close", h.Close)
}
