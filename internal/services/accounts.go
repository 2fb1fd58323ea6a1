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

// AccountService manages bot accounts on behalf of their owners.
type AccountService struct {
	store storage.Store
}

func NewAccountService(store storage.Store) *AccountService {
	return &AccountService{store: store}
}

func (s *AccountService) List(ctx context.Context, ownerUserID string) ([]*models.Account, error) {
	return s.store.ListAccountsByOwner(ctx, ownerUserID)
}

// ListAll returns every account; used by background jobs.
func (s *AccountService) ListAll(ctx context.Context) ([]*models.Account, error) {
	return s.store.ListAccounts(ctx)
}

// Get returns the account if ownerUserID owns it. Someone else's account is
// reported as not found.
func (s *AccountService) Get(ctx context.Context, ownerUserID, id string) (*models.Account, error) {
	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.OwnerUserID != ownerUserID {
		return nil, fmt.Errorf("account %s: %w", id, storage.ErrNotFound)
	}
	return account, nil
}

func (s *AccountService) Create(ctx context.Context, ownerUserID string, draft *models.AccountDraft) (*models.Account, error) {
	if err := validateStruct(draft).orNil(); err != nil {
		return nil, err
	}

	account := &models.Account{OwnerUserID: ownerUserID}
	draft.Apply(account)

	created, err := s.store.CreateAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	logger.Log.Info("account created",
		zap.String("account_id", created.ID), zap.String("owner", ownerUserID))
	return created, nil
}

func (s *AccountService) Update(ctx context.Context, ownerUserID, id string, draft *models.AccountDraft) (*models.Account, error) {
	if err := validateStruct(draft).orNil(); err != nil {
		return nil, err
	}

	account, err := s.Get(ctx, ownerUserID, id)
	if err != nil {
		return nil, err
	}
	draft.Apply(account)

	if err := s.store.UpdateAccount(ctx, account); err != nil {
		return nil, err
	}
	return s.store.GetAccount(ctx, id)
}

// Delete removes the account and everything it owns.
func (s *AccountService) Delete(ctx context.Context, ownerUserID, id string) error {
	if _, err := s.Get(ctx, ownerUserID, id); err != nil {
		return err
	}
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return err
	}
	logger.Log.Info("account deleted", zap.String("account_id", id))
	return nil
}

// ResolveWebhookAccount finds the account a webhook delivery belongs to: by
// the account ID in the URL first, then by the bot user ID LINE sends as
// "destination".
func (s *AccountService) ResolveWebhookAccount(ctx context.Context, accountID, destination string) (*models.Account, error) {
	if accountID != "" {
		account, err := s.store.GetAccount(ctx, accountID)
		if err == nil {
			return account, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
	}
	if destination != "" {
		return s.store.GetAccountByBotUserID(ctx, destination)
	}
	return nil, fmt.Errorf("webhook account %q: %w", accountID, storage.ErrNotFound)
}
