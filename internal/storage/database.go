package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Ananth-NQI/lineflow-backend/internal/models"
)

// DatabaseStore implements Store on top of GORM (PostgreSQL or SQLite).
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore wraps an open, migrated database.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return err
}

// Account operations

func (s *DatabaseStore) CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error) {
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func (s *DatabaseStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "account", id)
	}
	return &account, nil
}

func (s *DatabaseStore) GetAccountByBotUserID(ctx context.Context, botUserID string) (*models.Account, error) {
	if botUserID == "" {
		return nil, fmt.Errorf("account for bot %s: %w", botUserID, ErrNotFound)
	}
	var account models.Account
	err := s.db.WithContext(ctx).Where("bot_user_id = ?", botUserID).First(&account).Error
	if err != nil {
		return nil, notFound(err, "account for bot", botUserID)
	}
	return &account, nil
}

func (s *DatabaseStore) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	var accounts []*models.Account
	err := s.db.WithContext(ctx).Order("created_at, id").Find(&accounts).Error
	return accounts, err
}

func (s *DatabaseStore) ListAccountsByOwner(ctx context.Context, ownerUserID string) ([]*models.Account, error) {
	var accounts []*models.Account
	err := s.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at, id").
		Find(&accounts).Error
	return accounts, err
}

func (s *DatabaseStore) UpdateAccount(ctx context.Context, account *models.Account) error {
	res := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", account.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(account)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("account %s: %w", account.ID, ErrNotFound)
	}
	return nil
}

// DeleteAccount removes the account together with its graph and images.
func (s *DatabaseStore) DeleteAccount(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Account{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("account %s: %w", id, ErrNotFound)
		}
		if err := tx.Where("account_id = ?", id).Delete(&models.Option{}).Error; err != nil {
			return err
		}
		if err := tx.Where("account_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("account_id = ?", id).Delete(&models.Image{}).Error
	})
}

// Message operations

func (s *DatabaseStore) GetMessage(ctx context.Context, accountID, id string) (*models.Message, error) {
	var msg models.Message
	err := s.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", id, accountID).
		First(&msg).Error
	if err != nil {
		return nil, notFound(err, "message", id)
	}
	return &msg, nil
}

func (s *DatabaseStore) ListMessages(ctx context.Context, accountID string, filter MessageFilter) ([]*models.Message, error) {
	q := s.db.WithContext(ctx).Where("account_id = ?", accountID)
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Initial != nil {
		q = q.Where("is_initial = ?", *filter.Initial)
	}

	var messages []*models.Message
	err := q.Order("created_at, id").Find(&messages).Error
	return messages, err
}

func (s *DatabaseStore) GetOptions(ctx context.Context, accountID, messageID string) ([]*models.Option, error) {
	if _, err := s.GetMessage(ctx, accountID, messageID); err != nil {
		return nil, err
	}
	var options []*models.Option
	err := s.db.WithContext(ctx).
		Where("message_id = ? AND account_id = ?", messageID, accountID).
		Order("position, id").
		Find(&options).Error
	return options, err
}

func (s *DatabaseStore) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Options").Create(msg).Error; err != nil {
			return err
		}
		return insertOptions(tx, msg)
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *DatabaseStore) UpdateMessage(ctx context.Context, msg *models.Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Message{}).
			Where("id = ? AND account_id = ?", msg.ID, msg.AccountID).
			Updates(map[string]interface{}{
				"title":      msg.Title,
				"type":       msg.Type,
				"content":    msg.Content,
				"is_initial": msg.IsInitial,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("message %s: %w", msg.ID, ErrNotFound)
		}
		if err := tx.Where("message_id = ?", msg.ID).Delete(&models.Option{}).Error; err != nil {
			return err
		}
		return insertOptions(tx, msg)
	})
}

func insertOptions(tx *gorm.DB, msg *models.Message) error {
	if len(msg.Options) == 0 {
		return nil
	}
	for i := range msg.Options {
		opt := &msg.Options[i]
		opt.MessageID = msg.ID
		opt.AccountID = msg.AccountID
		opt.Position = i
	}
	return tx.Create(&msg.Options).Error
}

func (s *DatabaseStore) SetInitial(ctx context.Context, accountID, id string, initial bool) error {
	res := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ? AND account_id = ?", id, accountID).
		Update("is_initial", initial)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *DatabaseStore) DeleteMessage(ctx context.Context, accountID, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND account_id = ?", id, accountID).Delete(&models.Message{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("message %s: %w", id, ErrNotFound)
		}
		return tx.Where("message_id = ?", id).Delete(&models.Option{}).Error
	})
}

// Image operations

func (s *DatabaseStore) CreateImage(ctx context.Context, image *models.Image) (*models.Image, error) {
	if err := s.db.WithContext(ctx).Create(image).Error; err != nil {
		return nil, err
	}
	return image, nil
}

func (s *DatabaseStore) GetImage(ctx context.Context, accountID, id string) (*models.Image, error) {
	var image models.Image
	err := s.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", id, accountID).
		First(&image).Error
	if err != nil {
		return nil, notFound(err, "image", id)
	}
	return &image, nil
}

// ListImages returns the account's images, newest first.
func (s *DatabaseStore) ListImages(ctx context.Context, accountID string) ([]*models.Image, error) {
	var images []*models.Image
	err := s.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Find(&images).Error
	return images, err
}

func (s *DatabaseStore) CountImageUsage(ctx context.Context, accountID, imageID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Option{}).
		Where("account_id = ? AND image_id = ?", accountID, imageID).
		Count(&count).Error
	return count, err
}

func (s *DatabaseStore) DeleteImage(ctx context.Context, accountID, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND account_id = ?", id, accountID).
		Delete(&models.Image{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("image %s: %w", id, ErrNotFound)
	}
	return nil
}
