package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/lineflow-backend/internal/middleware"
	"github.com/Ananth-NQI/lineflow-backend/internal/models"
	"github.com/Ananth-NQI/lineflow-backend/internal/services"
)

// AccountHandler handles bot account administration
type AccountHandler struct {
	accounts *services.AccountService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// ListAccounts returns the caller's accounts
func (h *AccountHandler) ListAccounts(c *fiber.Ctx) error {
	accounts, err := h.accounts.List(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err, "accounts")
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// CreateAccount registers a new bot account for the caller
func (h *AccountHandler) CreateAccount(c *fiber.Ctx) error {
	var draft models.AccountDraft
	if err := c.BodyParser(&draft); err != nil {
		return badBody(c)
	}

	account, err := h.accounts.Create(c.UserContext(), middleware.UserID(c), &draft)
	if err != nil {
		return respondError(c, err, "account")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account created successfully",
		"account": account,
	})
}

// GetAccount returns the account loaded by RequireAccount
func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"account": middleware.CurrentAccount(c),
	})
}

// UpdateAccount replaces the account settings
func (h *AccountHandler) UpdateAccount(c *fiber.Ctx) error {
	var draft models.AccountDraft
	if err := c.BodyParser(&draft); err != nil {
		return badBody(c)
	}

	account, err := h.accounts.Update(c.UserContext(), middleware.UserID(c), c.Params("accountID"), &draft)
	if err != nil {
		return respondError(c, err, "account")
	}
	return c.JSON(fiber.Map{
		"message": "Account updated successfully",
		"account": account,
	})
}

// DeleteAccount removes the account with its messages and images
func (h *AccountHandler) DeleteAccount(c *fiber.Ctx) error {
	if err := h.accounts.Delete(c.UserContext(), middleware.UserID(c), c.Params("accountID")); err != nil {
		return respondError(c, err, "account")
	}
	return c.JSON(fiber.Map{
		"message": "Account deleted successfully",
	})
}
