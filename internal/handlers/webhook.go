package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/lineflow-backend/internal/logger"
	"github.com/Ananth-NQI/lineflow-backend/internal/middleware"
	"github.com/Ananth-NQI/lineflow-backend/internal/services"
)

// LineWebhookHandler handles LINE webhook requests
type LineWebhookHandler struct {
	dispatcher *services.Dispatcher
	engine     services.EventHandler
	renderer   *services.ReplyRenderer
	accounts   *services.AccountService
}

// NewLineWebhookHandler creates a new LINE webhook handler
func NewLineWebhookHandler(dispatcher *services.Dispatcher, engine services.EventHandler, renderer *services.ReplyRenderer, accounts *services.AccountService) *LineWebhookHandler {
	return &LineWebhookHandler{
		dispatcher: dispatcher,
		engine:     engine,
		renderer:   renderer,
		accounts:   accounts,
	}
}

// HandleWebhook processes a batch of LINE events for the resolved account
func (h *LineWebhookHandler) HandleWebhook(c *fiber.Ctx) error {
	account := middleware.LineAccount(c)

	batch, err := services.ParseWebhook(c.Body())
	if err != nil {
		logger.Log.Warn("invalid webhook payload",
			zap.String("account_id", account.ID), zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	// LINE's "Verify" button sends an empty batch.
	if len(batch.Events) == 0 {
		return c.SendStatus(fiber.StatusOK)
	}

	h.dispatcher.Dispatch(c.UserContext(), account, batch.Events)

	// Per-event failures are logged by the dispatcher; LINE only needs a 200.
	return c.SendStatus(fiber.StatusOK)
}

// TestWebhookPayload drives the engine without LINE (development only)
type TestWebhookPayload struct {
	AccountID string `json:"account_id"`
	Type      string `json:"type"` // follow, text or postback
	Message   string `json:"message"`
	Data      string `json:"data"`
}

// HandleTestWebhook runs one event through the engine and returns the payload
// that would have been sent, without calling LINE
func (h *LineWebhookHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	var ev services.Event
	meta := services.EventMeta{ReplyToken: "test", UserID: "test-user"}
	switch strings.ToLower(payload.Type) {
	case "follow":
		ev = services.FollowEvent{EventMeta: meta}
	case "text", "":
		ev = services.TextEvent{EventMeta: meta, Text: payload.Message}
	case "postback":
		ev = services.PostbackEvent{EventMeta: meta, Data: payload.Data}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "type must be follow, text or postback",
		})
	}

	account, err := h.accounts.ResolveWebhookAccount(c.UserContext(), payload.AccountID, "")
	if err != nil {
		return respondError(c, err, "account")
	}

	logger.Log.Debug("test webhook received",
		zap.String("account_id", account.ID),
		zap.String("kind", string(ev.Kind())))

	reply, handleErr := h.engine.Handle(c.UserContext(), account.ID, ev)
	response := fiber.Map{
		"success": true,
		"reply":   nil,
	}
	if handleErr != nil {
		response["error"] = handleErr.Error()
	}

	if reply != nil {
		rendered, err := h.renderer.Render(reply)
		if err != nil {
			return respondError(c, err, "reply")
		}
		response["reply"] = rendered
	}

	return c.JSON(response)
}
