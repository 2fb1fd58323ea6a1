package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/lineflow-backend/internal/middleware"
	"github.com/Ananth-NQI/lineflow-backend/internal/models"
	"github.com/Ananth-NQI/lineflow-backend/internal/services"
)

// ImageHandler handles the image gallery of one account
type ImageHandler struct {
	images *services.ImageService
}

// NewImageHandler creates a new image handler
func NewImageHandler(images *services.ImageService) *ImageHandler {
	return &ImageHandler{images: images}
}

func (h *ImageHandler) ListImages(c *fiber.Ctx) error {
	account := middleware.CurrentAccount(c)
	images, err := h.images.List(c.UserContext(), account.ID)
	if err != nil {
		return respondError(c, err, "images")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"images":  images,
		"count":   len(images),
	})
}

func (h *ImageHandler) GetImage(c *fiber.Ctx) error {
	account := middleware.CurrentAccount(c)
	image, err := h.images.Get(c.UserContext(), account.ID, c.Params("imageID"))
	if err != nil {
		return respondError(c, err, "image")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"image":   image,
	})
}

// RegisterImage records an uploaded image by its public URL
func (h *ImageHandler) RegisterImage(c *fiber.Ctx) error {
	var draft models.ImageDraft
	if err := c.BodyParser(&draft); err != nil {
		return badBody(c)
	}

	account := middleware.CurrentAccount(c)
	image, err := h.images.Register(c.UserContext(), account.ID, middleware.UserID(c), &draft)
	if err != nil {
		return respondError(c, err, "image")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"image":   image,
	})
}

// DeleteImage deletes an image; ?force=true deletes it even while in use
func (h *ImageHandler) DeleteImage(c *fiber.Ctx) error {
	account := middleware.CurrentAccount(c)
	force := c.QueryBool("force", false)

	if err := h.images.Delete(c.UserContext(), account.ID, c.Params("imageID"), force); err != nil {
		return respondError(c, err, "image")
	}
	return c.JSON(fiber.Map{
		"success": true,
	})
}
