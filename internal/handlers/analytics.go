package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/lineflow-backend/internal/middleware"
	"github.com/Ananth-NQI/lineflow-backend/internal/models"
	"github.com/Ananth-NQI/lineflow-backend/internal/services"
	"github.com/Ananth-NQI/lineflow-backend/internal/storage"
)

type AnalyticsHandler struct {
	store   storage.Store
	auditor *services.GraphAuditor
}

func NewAnalyticsHandler(store storage.Store, auditor *services.GraphAuditor) *AnalyticsHandler {
	return &AnalyticsHandler{
		store:   store,
		auditor: auditor,
	}
}

// GetGraphAudit reports dangling references and initial message problems
func (h *AnalyticsHandler) GetGraphAudit(c *fiber.Ctx) error {
	account := middleware.CurrentAccount(c)
	report, err := h.auditor.Audit(c.UserContext(), account.ID)
	if err != nil {
		return respondError(c, err, "graph audit")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"healthy": report.Healthy(),
		"report":  report,
	})
}

// GetAccountStats counts the account's messages by type and its images
func (h *AnalyticsHandler) GetAccountStats(c *fiber.Ctx) error {
	account := middleware.CurrentAccount(c)
	ctx := c.UserContext()

	msgs, err := h.store.ListMessages(ctx, account.ID, storage.MessageFilter{})
	if err != nil {
		return respondError(c, err, "stats")
	}
	images, err := h.store.ListImages(ctx, account.ID)
	if err != nil {
		return respondError(c, err, "stats")
	}

	var texts, carousels int
	var initial string
	for _, msg := range msgs {
		switch msg.Type {
		case models.MessageTypeText:
			texts++
		case models.MessageTypeCarousel:
			carousels++
		}
		if msg.IsInitial && initial == "" {
			initial = msg.ID
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"stats": fiber.Map{
			"messages":           len(msgs),
			"text_messages":      texts,
			"carousel_messages":  carousels,
			"images":             len(images),
			"initial_message_id": initial,
		},
	})
}
