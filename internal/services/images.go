package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Ananth-NQI/lineflow-backend/internal/logger"
	"github.com/Ananth-NQI/lineflow-backend/internal/models"
	"github.com/Ananth-NQI/lineflow-backend/internal/storage"
)

// ErrImageInUse is returned when deleting an image that options still
// reference.
var ErrImageInUse = errors.New("image is in use")

// ImageInUseError carries how many options reference the image.
type ImageInUseError struct {
	ImageID string
	Usage   int64
}

func (e *ImageInUseError) Error() string {
	return fmt.Sprintf("image %s is used by %d option(s)", e.ImageID, e.Usage)
}

func (e *ImageInUseError) Unwrap() error { return ErrImageInUse }

// ImageService manages an account's image gallery. Binaries live elsewhere;
// only URLs are stored.
type ImageService struct {
	store storage.Store
}

func NewImageService(store storage.Store) *ImageService {
	return &ImageService{store: store}
}

func (s *ImageService) Register(ctx context.Context, accountID, ownerUserID string, draft *models.ImageDraft) (*models.Image, error) {
	if err := validateStruct(draft).orNil(); err != nil {
		return nil, err
	}
	return s.store.CreateImage(ctx, &models.Image{
		AccountID:   accountID,
		OwnerUserID: ownerUserID,
		Name:        draft.Name,
		URL:         draft.URL,
		StoragePath: draft.StoragePath,
	})
}

func (s *ImageService) List(ctx context.Context, accountID string) ([]*models.Image, error) {
	return s.store.ListImages(ctx, accountID)
}

func (s *ImageService) Get(ctx context.Context, accountID, id string) (*models.Image, error) {
	return s.store.GetImage(ctx, accountID, id)
}

// Delete removes an image. An image still referenced by options is only
// deleted when force is set; those options then render without a thumbnail.
func (s *ImageService) Delete(ctx context.Context, accountID, id string, force bool) error {
	if _, err := s.store.GetImage(ctx, accountID, id); err != nil {
		return err
	}

	usage, err := s.store.CountImageUsage(ctx, accountID, id)
	if err != nil {
		return fmt.Errorf("count image usage: %w", err)
	}
	if usage > 0 && !force {
		return &ImageInUseError{ImageID: id, Usage: usage}
	}

	if err := s.store.DeleteImage(ctx, accountID, id); err != nil {
		return err
	}
	if usage > 0 {
		logger.Log.Warn("deleted image still referenced by options",
			zap.String("account_id", accountID),
			zap.String("image_id", id),
			zap.Int64("usage", usage))
	}
	return nil
}
