package identity

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes identity endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Name string `json:"name"`
	PIN  string `json:"pin"`
}

type actorResponse struct {
	ActorID string `json:"actor_id"`
	Name    string `json:"name"`
}

// Register handles actor onboarding.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	actor, err := h.service.Register(c.UserContext(), Credentials{Name: req.Name, PIN: req.PIN})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(actorResponse{ActorID: actor.ID, Name: actor.Name})
}
