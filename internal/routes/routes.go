package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/lodecoin/lodecoin/internal/auth"
	"github.com/lodecoin/lodecoin/internal/config"
	"github.com/lodecoin/lodecoin/internal/identity"
	"github.com/lodecoin/lodecoin/internal/middleware"
	"github.com/lodecoin/lodecoin/internal/notification"
	"github.com/lodecoin/lodecoin/internal/token"
)

// Deps aggregates shared dependencies required to wire routes. DB and Cache
// may be nil in dev mode, in which case in-memory backends are used.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	var store token.Store
	if d.DB != nil {
		store = token.NewPostgresStore(d.DB)
	} else {
		store = token.NewMemoryStore()
	}

	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}
	identitySvc := identity.NewService(identityRepo)
	if d.DB == nil {
		// dev mode: register the owner with the configured PIN so clients
		// can log in and run create/issue
		if _, err := identitySvc.Bootstrap(context.Background(), d.Cfg.OwnerName, d.Cfg.OwnerPIN); err != nil {
			return err
		}
	}

	var notifier notification.Notifier
	if d.Cache != nil {
		notifier = notification.NewRedisNotifier(d.Cache)
	} else {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}

	ledger := token.NewLedger(d.Cfg.OwnerName, store, token.SystemClock{}, identitySvc, notifier)

	tokenHandler := token.NewHandler(ledger)
	identityHandler := identity.NewHandler(identitySvc)
	authSvc := auth.NewService(d.Cfg, identityRepo)
	authHandler := auth.NewHandler(identitySvc, authSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	api.Post("/identities", identityHandler.Register)
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	// Read-only ledger queries need no signature
	api.Get("/tokens/:code", tokenHandler.Stat)
	api.Get("/accounts/:owner/:code", tokenHandler.Balance)

	// Every mutating ledger action requires a signed caller and leaves an
	// audit log line
	jwtmw := middleware.JWTAuth(d.Cfg, identityRepo)
	protected := api.Group("", jwtmw, middleware.Audit(d.Logger))
	RegisterTokenRoutes(protected, tokenHandler)
	RegisterAccountRoutes(protected, tokenHandler)
	RegisterTransferRoutes(protected, tokenHandler)

	return nil
}
