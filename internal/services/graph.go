package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Ananth-NQI/lineflow-backend/internal/logger"
	"github.com/Ananth-NQI/lineflow-backend/internal/models"
	"github.com/Ananth-NQI/lineflow-backend/internal/storage"
	"github.com/Ananth-NQI/lineflow-backend/internal/utils"
)

// MessageService is the only write path into the conversation graph. It
// validates drafts and keeps at most one initial message per account.
type MessageService struct {
	store storage.Store
}

func NewMessageService(store storage.Store) *MessageService {
	return &MessageService{store: store}
}

// ValidateDraft checks a message draft without touching the store.
func ValidateDraft(draft *models.MessageDraft) error {
	verr := validateStruct(draft)

	if draft.Type == models.MessageTypeCarousel {
		if len(draft.Options) == 0 {
			verr.add("options", "carousel needs at least one option")
		}
		for i, opt := range draft.Options {
			if strings.TrimSpace(opt.Text) == "" {
				verr.add(fmt.Sprintf("options[%d].text", i), "is required")
			}
		}
	}
	return verr.orNil()
}

// buildMessage turns a validated draft into a storable message. Text
// messages carry no options.
func buildMessage(accountID string, draft *models.MessageDraft) *models.Message {
	msg := &models.Message{
		AccountID: accountID,
		Title:     draft.Title,
		Type:      draft.Type,
		Content:   draft.Content,
		IsInitial: draft.IsInitial,
	}
	if draft.Type != models.MessageTypeCarousel {
		return msg
	}

	msg.Options = make([]models.Option, 0, len(draft.Options))
	for i, opt := range draft.Options {
		msg.Options = append(msg.Options, models.Option{
			AccountID:     accountID,
			Position:      i,
			Text:          opt.Text,
			ImageID:       utils.NormalizeRef(opt.ImageID),
			NextMessageID: utils.NormalizeRef(opt.NextMessageID),
		})
	}
	return msg
}

// List returns the account's messages in listing order, options included.
func (s *MessageService) List(ctx context.Context, accountID string) ([]*models.Message, error) {
	msgs, err := s.store.ListMessages(ctx, accountID, storage.MessageFilter{})
	if err != nil {
		return nil, err
	}
	for _, msg := range msgs {
		if err := s.attachOptions(ctx, msg); err != nil {
			return nil, err
		}
	}
	return msgs, nil
}

// Get returns one message with its options.
func (s *MessageService) Get(ctx context.Context, accountID, id string) (*models.Message, error) {
	msg, err := s.store.GetMessage(ctx, accountID, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachOptions(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *MessageService) attachOptions(ctx context.Context, msg *models.Message) error {
	msg.Options = []models.Option{}
	if msg.Type != models.MessageTypeCarousel {
		return nil
	}
	options, err := s.store.GetOptions(ctx, msg.AccountID, msg.ID)
	if err != nil {
		return err
	}
	for _, opt := range options {
		msg.Options = append(msg.Options, *opt)
	}
	return nil
}

// Create validates and stores a new message. When the draft is initial, the
// account's previous initial message is cleared once the new one is stored.
func (s *MessageService) Create(ctx context.Context, accountID string, draft *models.MessageDraft) (*models.Message, error) {
	if err := ValidateDraft(draft); err != nil {
		return nil, err
	}

	msg, err := s.store.CreateMessage(ctx, buildMessage(accountID, draft))
	if err != nil {
		return nil, err
	}

	if msg.IsInitial {
		if err := s.clearInitial(ctx, accountID, msg.ID); err != nil {
			if derr := s.store.DeleteMessage(ctx, accountID, msg.ID); derr != nil {
				logger.Log.Error("could not roll back message create",
					zap.String("account_id", accountID),
					zap.String("message_id", msg.ID),
					zap.Error(derr))
			}
			return nil, err
		}
	}

	logger.Log.Info("message created",
		zap.String("account_id", accountID),
		zap.String("message_id", msg.ID),
		zap.String("type", string(msg.Type)),
		zap.Bool("initial", msg.IsInitial))
	return msg, nil
}

// Update fully replaces a message, options included. When the draft is
// initial, other initial messages are cleared once the replacement is stored.
func (s *MessageService) Update(ctx context.Context, accountID, id string, draft *models.MessageDraft) (*models.Message, error) {
	if err := ValidateDraft(draft); err != nil {
		return nil, err
	}
	previous, err := s.Get(ctx, accountID, id)
	if err != nil {
		return nil, err
	}

	msg := buildMessage(accountID, draft)
	msg.ID = id
	if err := s.store.UpdateMessage(ctx, msg); err != nil {
		return nil, err
	}

	if draft.IsInitial {
		if err := s.clearInitial(ctx, accountID, id); err != nil {
			if rerr := s.store.UpdateMessage(ctx, previous); rerr != nil {
				logger.Log.Error("could not roll back message update",
					zap.String("account_id", accountID),
					zap.String("message_id", id),
					zap.Error(rerr))
			}
			return nil, err
		}
	}

	logger.Log.Info("message updated",
		zap.String("account_id", accountID),
		zap.String("message_id", id),
		zap.Int("options", len(msg.Options)))
	return s.Get(ctx, accountID, id)
}

// Delete removes a message and its options. Options elsewhere that point at
// it are left dangling.
func (s *MessageService) Delete(ctx context.Context, accountID, id string) error {
	if err := s.store.DeleteMessage(ctx, accountID, id); err != nil {
		return err
	}
	logger.Log.Info("message deleted",
		zap.String("account_id", accountID), zap.String("message_id", id))
	return nil
}

// clearInitial unsets the flag on every initial message of the account
// except keepID.
func (s *MessageService) clearInitial(ctx context.Context, accountID, keepID string) error {
	current, err := s.store.ListMessages(ctx, accountID, storage.InitialOnly())
	if err != nil {
		return fmt.Errorf("find initial message: %w", err)
	}
	for _, msg := range current {
		if msg.ID == keepID {
			continue
		}
		if err := s.store.SetInitial(ctx, accountID, msg.ID, false); err != nil {
			return fmt.Errorf("clear initial message %s: %w", msg.ID, err)
		}
	}
	return nil
}
