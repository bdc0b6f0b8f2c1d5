package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/railgate/railgate/internal/capture"
)

// RegisterCheckoutRoutes wires the payment capture endpoints.
func RegisterCheckoutRoutes(r fiber.Router, h *capture.Handler) {
	r.Get("/availability", h.Availability)
	r.Get("/vaulted-card", h.VaultedCard)
	r.Post("/card", h.CaptureCard)
	r.Post("/vaulted", h.CaptureVaulted)
	r.Post("/apple-pay", h.CaptureApplePay)
	r.Post("/google-pay", h.CaptureGooglePay)
}
