package routes

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/blissito/whatsapp-bot-educational-service/internal/config"
	"github.com/blissito/whatsapp-bot-educational-service/internal/middleware"
	"github.com/blissito/whatsapp-bot-educational-service/internal/relay"
)

// RegisterWebhookRoutes wires the provider-facing verification handshake
// and the relay endpoint.
func RegisterWebhookRoutes(app *fiber.App, relaySvc *relay.Service, cfg config.Config, logger *slog.Logger) {
	// The handshake uses the single process-wide secret: the inbound
	// relay is shared infrastructure, unlike the per-record edit secrets.
	app.Get("/webhook/", func(c *fiber.Ctx) error {
		mode := c.Query("hub.mode")
		token := c.Query("hub.verify_token")
		challenge := c.Query("hub.challenge")

		if mode == "subscribe" &&
			subtle.ConstantTimeCompare([]byte(token), []byte(cfg.WebhookVerifyToken)) == 1 {
			return c.Status(http.StatusOK).SendString(challenge)
		}
		return c.Status(http.StatusForbidden).SendString("Forbidden")
	})

	// Deliveries always answer 200; a non-2xx response makes the
	// provider retry indefinitely or disable the subscription.
	app.Post("/webhook/", middleware.VerifySignature(cfg.AppSecret, logger), func(c *fiber.Ctx) error {
		relaySvc.Process(c.UserContext(), c.Body())
		return c.Status(http.StatusOK).SendString("OK")
	})
}
