package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/lineflow-backend/internal/middleware"
	"github.com/Ananth-NQI/lineflow-backend/internal/models"
	"github.com/Ananth-NQI/lineflow-backend/internal/services"
)

// MessageHandler handles the conversation graph of one account
type MessageHandler struct {
	messages *services.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

func (h *MessageHandler) ListMessages(c *fiber.Ctx) error {
	account := middleware.CurrentAccount(c)
	msgs, err := h.messages.List(c.UserContext(), account.ID)
	if err != nil {
		return respondError(c, err, "messages")
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"messages": msgs,
		"count":    len(msgs),
	})
}

func (h *MessageHandler) GetMessage(c *fiber.Ctx) error {
	account := middleware.CurrentAccount(c)
	msg, err := h.messages.Get(c.UserContext(), account.ID, c.Params("messageID"))
	if err != nil {
		return respondError(c, err, "message")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": msg,
	})
}

func (h *MessageHandler) CreateMessage(c *fiber.Ctx) error {
	var draft models.MessageDraft
	if err := c.BodyParser(&draft); err != nil {
		return badBody(c)
	}

	account := middleware.CurrentAccount(c)
	msg, err := h.messages.Create(c.UserContext(), account.ID, &draft)
	if err != nil {
		return respondError(c, err, "message")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": msg,
	})
}

// UpdateMessage fully replaces a message, including its options
func (h *MessageHandler) UpdateMessage(c *fiber.Ctx) error {
	var draft models.MessageDraft
	if err := c.BodyParser(&draft); err != nil {
		return badBody(c)
	}

	account := middleware.CurrentAccount(c)
	msg, err := h.messages.Update(c.UserContext(), account.ID, c.Params("messageID"), &draft)
	if err != nil {
		return respondError(c, err, "message")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": msg,
	})
}

func (h *MessageHandler) DeleteMessage(c *fiber.Ctx) error {
	account := middleware.CurrentAccount(c)
	if err := h.messages.Delete(c.UserContext(), account.ID, c.Params("messageID")); err != nil {
		return respondError(c, err, "message")
	}
	return c.JSON(fiber.Map{
		"success": true,
	})
}
