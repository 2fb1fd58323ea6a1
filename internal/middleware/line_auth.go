package middleware

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/lineflow-backend/internal/logger"
	"github.com/Ananth-NQI/lineflow-backend/internal/models"
	"github.com/Ananth-NQI/lineflow-backend/internal/storage"
)

const lineAccountKey = "lineAccount"

// WebhookAccountResolver finds the account a webhook delivery is for.
type WebhookAccountResolver interface {
	ResolveWebhookAccount(ctx context.Context, accountID, destination string) (*models.Account, error)
}

// SignatureVerifier checks a LINE webhook signature.
type SignatureVerifier interface {
	ValidateSignature(channelSecret, signature string, body []byte) bool
}

// ResolveLineAccount loads the account named by :accountID, falling back to
// the body's "destination" (the bot user ID).
func ResolveLineAccount(resolver WebhookAccountResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var envelope struct {
			Destination string `json:"destination"`
		}
		_ = json.Unmarshal(c.Body(), &envelope)

		account, err := resolver.ResolveWebhookAccount(c.UserContext(), c.Params("accountID"), envelope.Destination)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				logger.Log.Warn("webhook for unknown account",
					zap.String("account_id", c.Params("accountID")),
					zap.String("destination", envelope.Destination))
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "Unknown account",
				})
			}
			logger.Log.Error("webhook account lookup failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Server error",
			})
		}

		c.Locals(lineAccountKey, account)
		return c.Next()
	}
}

// ValidateLineSignature validates that the webhook request is from LINE,
// using the resolved account's channel secret. It must run after
// ResolveLineAccount.
func ValidateLineSignature(verifier SignatureVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		signature := c.Get("X-Line-Signature")
		if signature == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing LINE signature",
			})
		}

		account := LineAccount(c)
		if account == nil || account.ChannelSecret == "" {
			logger.Log.Error("no channel secret for webhook signature check")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Server configuration error",
			})
		}

		if !verifier.ValidateSignature(account.ChannelSecret, signature, c.Body()) {
			logger.Log.Warn("invalid LINE signature", zap.String("account_id", account.ID))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}

		return c.Next()
	}
}

// LineAccount returns the account resolved by ResolveLineAccount.
func LineAccount(c *fiber.Ctx) *models.Account {
	account, _ := c.Locals(lineAccountKey).(*models.Account)
	return account
}
