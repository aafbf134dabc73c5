package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const signatureHeader = "X-Hub-Signature-256"

// VerifySignature checks the provider's HMAC-SHA256 body signature when
// an app secret is configured. A missing or wrong signature drops the
// payload but still answers success: the provider disables
// subscriptions that see non-2xx responses.
func VerifySignature(appSecret string, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if appSecret == "" {
			return c.Next()
		}

		header := c.Get(signatureHeader)
		received := strings.TrimPrefix(header, "sha256=")

		mac := hmac.New(sha256.New, []byte(appSecret))
		mac.Write(c.Body())
		computed := hex.EncodeToString(mac.Sum(nil))

		if header == "" || !hmac.Equal([]byte(computed), []byte(received)) {
			logger.Warn("webhook signature mismatch", slog.String("path", c.Path()))
			return c.Status(fiber.StatusOK).SendString("OK")
		}

		return c.Next()
	}
}
