package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Ananth-NQI/lineflow-backend/internal/models"
	"github.com/Ananth-NQI/lineflow-backend/internal/storage"
)

const (
	userIDKey  = "userID"
	accountKey = "account"
)

// AuthClaims are the claims the admin UI's tokens carry. Older tokens only
// set "sub".
type AuthClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// RequireJWT verifies the HS256 bearer token and stores the caller's user ID.
// Without a secret every request is rejected.
func RequireJWT(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if secret == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "admin API is not configured"})
		}

		h := c.Get(fiber.HeaderAuthorization)
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing token"})
		}

		tokenStr := strings.TrimPrefix(h, "Bearer ")
		token, err := jwt.ParseWithClaims(tokenStr, &AuthClaims{}, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}

		claims := token.Claims.(*AuthClaims)
		userID := claims.UserID
		if userID == "" {
			userID = claims.Subject
		}
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// UserID returns the authenticated caller, or "" outside RequireJWT.
func UserID(c *fiber.Ctx) string {
	v, _ := c.Locals(userIDKey).(string)
	return v
}

// AccountGetter loads an account on behalf of its owner.
type AccountGetter interface {
	Get(ctx context.Context, ownerUserID, id string) (*models.Account, error)
}

// RequireAccount loads :accountID for the authenticated caller. Accounts the
// caller does not own are reported as not found.
func RequireAccount(accounts AccountGetter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		account, err := accounts.Get(c.UserContext(), UserID(c), c.Params("accountID"))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "account not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load account"})
		}
		c.Locals(accountKey, account)
		return c.Next()
	}
}

// CurrentAccount returns the account loaded by RequireAccount.
func CurrentAccount(c *fiber.Ctx) *models.Account {
	account, _ := c.Locals(accountKey).(*models.Account)
	return account
}
