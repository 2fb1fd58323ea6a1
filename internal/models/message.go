package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/Ananth-NQI/lineflow-backend/internal/utils"
)

// MessageType discriminates the two node kinds of the conversation graph.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeCarousel MessageType = "carousel"
)

// Message is a node in an account's conversation graph.
type Message struct {
	ID        string      `json:"id" gorm:"primaryKey;size:36"`
	AccountID string      `json:"account_id" gorm:"index;size:36;not null"`
	Title     string      `json:"title" gorm:"not null"` // admin label, never sent
	Type      MessageType `json:"type" gorm:"size:16;not null"`
	Content   string      `json:"content" gorm:"type:text;not null"`
	IsInitial bool        `json:"is_initial" gorm:"index"`

	// Options is only meaningful for carousel messages. Edges of the graph
	// are Option.NextMessageID -> Message.ID.
	Options []Option `json:"options" gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an ID when the caller did not.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.NewID()
	}
	return nil
}

// Option is one selectable branch of a carousel message.
type Option struct {
	ID            string  `json:"id" gorm:"primaryKey;size:36"`
	MessageID     string  `json:"message_id" gorm:"index;size:36;not null"`
	AccountID     string  `json:"account_id" gorm:"index;size:36;not null"`
	Position      int     `json:"position"`
	Text          string  `json:"text" gorm:"not null"`
	ImageID       *string `json:"image_id" gorm:"index;size:36"`
	NextMessageID *string `json:"next_message_id" gorm:"size:36"` // nil = terminal choice

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an ID when the caller did not.
func (o *Option) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = utils.NewID()
	}
	return nil
}

// MessageDraft is the admin payload for creating or fully replacing a message.
type MessageDraft struct {
	Title     string        `json:"title" validate:"required"`
	Type      MessageType   `json:"type" validate:"required,oneof=text carousel"`
	Content   string        `json:"content" validate:"required"`
	IsInitial bool          `json:"is_initial"`
	Options   []OptionDraft `json:"options"`
}

// OptionDraft is one option inside a MessageDraft.
type OptionDraft struct {
	Text          string  `json:"text"`
	ImageID       *string `json:"image_id"`
	NextMessageID *string `json:"next_message_id"`
}
