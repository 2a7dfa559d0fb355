package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lodecoin/lodecoin/internal/token"
)

// RegisterTokenRoutes wires symbol lifecycle, mining and receipt endpoints.
func RegisterTokenRoutes(r fiber.Router, h *token.Handler) {
	r.Post("/tokens", h.Create)
	r.Post("/tokens/issue", h.Issue)
	r.Post("/tokens/mine", h.Mine)
	r.Post("/receipts/miningreward", h.MiningReward)
	r.Post("/receipts/miningfail", h.MiningFail)
}
