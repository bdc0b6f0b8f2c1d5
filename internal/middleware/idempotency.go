package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "checkout:idem:v1:"
	inProgressMarker     = "__in_progress__"
	storeTimeout         = 2 * time.Second
)

type storedOutcome struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// Idempotency shields the capture endpoints from duplicate submissions by
// persisting the first outcome in Redis keyed by the Idempotency-Key header. A
// capture is a single attempt; replaying the stored outcome is the only safe
// answer to a repeated key.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}

		key := c.Get(idempotencyKeyHeader)
		if key == "" {
			return fiber.NewError(fiber.StatusBadRequest, "missing Idempotency-Key header")
		}
		cacheKey := idempotencyPrefix + key

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		cached, err := cache.Get(ctx, cacheKey).Result()
		switch {
		case err == nil:
			if cached == inProgressMarker {
				return fiber.NewError(fiber.StatusConflict, "capture with this key is still in flight")
			}
			var stored storedOutcome
			if err := json.Unmarshal([]byte(cached), &stored); err != nil {
				logger.Warn("decode stored capture outcome", "key", key, "error", err)
				return fiber.NewError(fiber.StatusConflict, "duplicate capture request")
			}
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(stored.Status).SendString(stored.Body)
		case err != redis.Nil:
			logger.Error("idempotency lookup", "key", key, "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
		}

		if err := cache.SetNX(ctx, cacheKey, inProgressMarker, ttl).Err(); err != nil {
			logger.Error("idempotency reservation", "key", key, "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "idempotency store failure")
		}

		if err := c.Next(); err != nil {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), storeTimeout)
			defer cancel()
			cache.Del(cleanupCtx, cacheKey) // free the key so the caller may retry
			return err
		}

		payload, err := json.Marshal(storedOutcome{
			Status: c.Response().StatusCode(),
			Body:   string(c.Response().Body()),
		})
		if err != nil {
			logger.Error("encode capture outcome", "key", key, "error", err)
			return nil
		}

		persistCtx, persistCancel := context.WithTimeout(context.Background(), storeTimeout)
		defer persistCancel()
		if err := cache.Set(persistCtx, cacheKey, payload, ttl).Err(); err != nil {
			logger.Error("persist capture outcome", "key", key, "error", err)
			cache.Del(persistCtx, cacheKey)
		}
		return nil
	}
}
