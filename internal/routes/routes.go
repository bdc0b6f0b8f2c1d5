package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/railgate/railgate/internal/capture"
	"github.com/railgate/railgate/internal/cart"
	"github.com/railgate/railgate/internal/config"
	"github.com/railgate/railgate/internal/gateway"
	"github.com/railgate/railgate/internal/middleware"
	"github.com/railgate/railgate/internal/shopconfig"
	"github.com/railgate/railgate/internal/vault"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	RegisterHealthRoutes(app, d)

	gw := gateway.New(d.Cfg.GatewayURL, gateway.Credentials{
		AccessKey:    d.Cfg.ShopAccessKey,
		ContextToken: d.Cfg.ShopContextToken,
	}, nil)

	shopCfg := shopconfig.NewCache(gw, d.Logger)
	cartLoader := cart.NewLoader(gw, d.Cfg.Currency, d.Logger)

	store, err := vaultStore(d)
	if err != nil {
		return err
	}

	orch := capture.New(gw, shopCfg, cartLoader, store, d.Logger)
	checkoutHandler := capture.NewHandler(orch, gw, shopCfg, cartLoader, store,
		d.Cfg.ShopDomain, d.Cfg.ShopDisplayName, d.Logger)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals(middleware.RequestIDKey).(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	checkout := api.Group("/checkout")
	if d.Cache != nil {
		// A capture is a single attempt; duplicate submissions replay the
		// first outcome instead of charging twice.
		checkout.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	RegisterCheckoutRoutes(checkout, checkoutHandler)

	return nil
}

func vaultStore(d Deps) (vault.Store, error) {
	switch strings.ToLower(d.Cfg.VaultBackend) {
	case "postgres":
		if d.DB == nil {
			return nil, fmt.Errorf("postgres vault backend requires a database connection")
		}
		return vault.NewPostgres(d.DB), nil
	case "redis":
		if d.Cache == nil {
			return nil, fmt.Errorf("redis vault backend requires a redis connection")
		}
		return vault.NewRedis(d.Cache), nil
	default:
		return vault.NewMemory(), nil
	}
}
