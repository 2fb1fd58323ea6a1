package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/Ananth-NQI/lineflow-backend/internal/utils"
)

// Image is a gallery asset. Options reference it by ID; it is not owned by
// any message.
type Image struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	AccountID   string    `json:"account_id" gorm:"index;size:36;not null"`
	OwnerUserID string    `json:"owner_user_id" gorm:"size:64"`
	Name        string    `json:"name"`
	URL         string    `json:"url" gorm:"type:text;not null"`
	StoragePath string    `json:"storage_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BeforeCreate assigns an ID when the caller did not.
func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = utils.NewID()
	}
	return nil
}

// ImageDraft registers an already-uploaded asset by its public URL.
type ImageDraft struct {
	Name        string `json:"name" validate:"required"`
	URL         string `json:"url" validate:"required,url"`
	StoragePath string `json:"storage_path"`
}
