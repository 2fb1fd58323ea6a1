package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Ananth-NQI/lineflow-backend/internal/logger"
	"github.com/Ananth-NQI/lineflow-backend/internal/storage"
)

// AssetResolver turns an image reference into a public URL. It never fails:
// absent, unknown or unreadable references resolve to "".
type AssetResolver struct {
	store storage.Store
}

func NewAssetResolver(store storage.Store) *AssetResolver {
	return &AssetResolver{store: store}
}

func (r *AssetResolver) Resolve(ctx context.Context, accountID string, imageRef *string) string {
	if imageRef == nil || strings.TrimSpace(*imageRef) == "" {
		return ""
	}

	image, err := r.store.GetImage(ctx, accountID, *imageRef)
	if err != nil {
		logger.Log.Debug("image reference not resolved",
			zap.String("account_id", accountID),
			zap.String("image_id", *imageRef),
			zap.Error(err))
		return ""
	}
	return image.URL
}
