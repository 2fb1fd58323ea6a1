package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/Ananth-NQI/lineflow-backend/internal/utils"
)

// Account is one LINE bot configuration. It is the tenancy boundary: every
// message, option and image belongs to exactly one account.
type Account struct {
	ID          string `json:"id" gorm:"primaryKey;size:36"`
	OwnerUserID string `json:"owner_user_id" gorm:"index;size:64;not null"`
	Name        string `json:"name" gorm:"not null"`

	// LINE channel credentials
	ChannelID          string `json:"channel_id"`
	ChannelSecret      string `json:"channel_secret"`
	ChannelAccessToken string `json:"channel_access_token" gorm:"type:text"`
	BotUserID          string `json:"bot_user_id" gorm:"index;size:64"` // webhook "destination"

	// Branding and contact
	SpreadsheetID string  `json:"spreadsheet_id"` // external reporting, stored only
	IconImageID   *string `json:"icon_image_id" gorm:"size:36"`
	Email         string  `json:"email"`
	HomepageURL   string  `json:"homepage_url"`
	Tel           string  `json:"tel"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an ID when the caller did not.
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = utils.NewID()
	}
	return nil
}

// AccountDraft is the admin payload for creating or replacing an account.
type AccountDraft struct {
	Name               string  `json:"name" validate:"required"`
	ChannelID          string  `json:"channel_id" validate:"required"`
	ChannelSecret      string  `json:"channel_secret" validate:"required"`
	ChannelAccessToken string  `json:"channel_access_token" validate:"required"`
	BotUserID          string  `json:"bot_user_id"`
	SpreadsheetID      string  `json:"spreadsheet_id"`
	IconImageID        *string `json:"icon_image_id"`
	Email              string  `json:"email" validate:"omitempty,email"`
	HomepageURL        string  `json:"homepage_url" validate:"omitempty,url"`
	Tel                string  `json:"tel"`
}

// Apply copies the draft onto the account, leaving identity and ownership alone.
func (d *AccountDraft) Apply(a *Account) {
	a.Name = d.Name
	a.ChannelID = d.ChannelID
	a.ChannelSecret = d.ChannelSecret
	a.ChannelAccessToken = d.ChannelAccessToken
	a.BotUserID = d.BotUserID
	a.SpreadsheetID = d.SpreadsheetID
	a.IconImageID = utils.NormalizeRef(d.IconImageID)
	a.Email = d.Email
	a.HomepageURL = d.HomepageURL
	a.Tel = d.Tel
}
