package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lodecoin/lodecoin/internal/auth"
	"github.com/lodecoin/lodecoin/internal/config"
	"github.com/lodecoin/lodecoin/internal/identity"
)

// cosignerTokenHeader carries an optional second bearer token whose subject
// joins the request's auth scope, the way a second signature would.
const cosignerTokenHeader = "X-Cosigner-Token"

// JWTAuth validates the bearer token, checks its version, and stores the
// caller name plus the full auth scope (caller and any co-signer) in request
// locals for the ledger handlers.
func JWTAuth(cfg config.Config, repo identity.Repository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		actor, err := verifyActorToken(c, cfg, repo, tokenStr)
		if err != nil {
			return err
		}

		scope := auth.NewScope(actor.Name)
		if cosigner := c.Get(cosignerTokenHeader); cosigner != "" {
			co, err := verifyActorToken(c, cfg, repo, cosigner)
			if err != nil {
				return err
			}
			scope = auth.NewScope(actor.Name, co.Name)
		}

		c.Locals("actor_id", actor.ID)
		c.Locals("actor_name", actor.Name)
		c.Locals("auth_scope", scope)
		return c.Next()
	}
}

func verifyActorToken(c *fiber.Ctx, cfg config.Config, repo identity.Repository, tokenStr string) (identity.Actor, error) {
	claims, err := auth.ParseAndVerifyHS256(tokenStr, []byte(cfg.JWTSecret))
	if err != nil {
		return identity.Actor{}, fiber.NewError(http.StatusUnauthorized, "invalid token")
	}
	sub, _ := claims["sub"].(string)
	verFloat, _ := claims["ver"].(float64)
	ver := int(verFloat)

	actor, err := repo.FindByID(c.UserContext(), sub)
	if err != nil || actor.TokenVersion != ver {
		return identity.Actor{}, fiber.NewError(http.StatusUnauthorized, "token invalidated")
	}
	return actor, nil
}
