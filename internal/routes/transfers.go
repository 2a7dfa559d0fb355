package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lodecoin/lodecoin/internal/token"
)

// RegisterTransferRoutes wires the transfer endpoint.
func RegisterTransferRoutes(r fiber.Router, h *token.Handler) {
	r.Post("/transfers", h.Transfer)
}
