package storage

import (
	"context"
	"errors"

	"github.com/Ananth-NQI/lineflow-backend/internal/models"
)

// ErrNotFound is returned when an entity does not exist or lives in another
// account. Callers cannot tell the two apart.
var ErrNotFound = errors.New("not found")

// MessageFilter narrows ListMessages. Zero values match everything.
type MessageFilter struct {
	Type    models.MessageType
	Initial *bool
}

// InitialOnly is a filter for the account's initial message(s).
func InitialOnly() MessageFilter {
	initial := true
	return MessageFilter{Initial: &initial}
}

func (f MessageFilter) matches(m *models.Message) bool {
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.Initial != nil && m.IsInitial != *f.Initial {
		return false
	}
	return true
}

// Store defines the interface for storage operations. Every message, option
// and image operation is scoped by account ID.
type Store interface {
	// Account operations
	CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	GetAccountByBotUserID(ctx context.Context, botUserID string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	ListAccountsByOwner(ctx context.Context, ownerUserID string) ([]*models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error
	DeleteAccount(ctx context.Context, id string) error

	// Message operations. Listing order is creation order.
	GetMessage(ctx context.Context, accountID, id string) (*models.Message, error)
	ListMessages(ctx context.Context, accountID string, filter MessageFilter) ([]*models.Message, error)
	GetOptions(ctx context.Context, accountID, messageID string) ([]*models.Option, error)
	// CreateMessage inserts the message and its Options in input order.
	CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	// UpdateMessage replaces the message row and its whole option set,
	// all-or-nothing.
	UpdateMessage(ctx context.Context, msg *models.Message) error
	SetInitial(ctx context.Context, accountID, id string, initial bool) error
	DeleteMessage(ctx context.Context, accountID, id string) error

	// Image operations
	CreateImage(ctx context.Context, image *models.Image) (*models.Image, error)
	GetImage(ctx context.Context, accountID, id string) (*models.Image, error)
	ListImages(ctx context.Context, accountID string) ([]*models.Image, error)
	CountImageUsage(ctx context.Context, accountID, imageID string) (int64, error)
	DeleteImage(ctx context.Context, accountID, id string) error
}
