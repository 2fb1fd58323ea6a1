package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Ananth-NQI/lineflow-backend/internal/models"
	"github.com/Ananth-NQI/lineflow-backend/internal/utils"
)

// MemoryStore holds all data in memory, for tests and local runs.
type MemoryStore struct {
	accounts map[string]*models.Account
	messages map[string]*models.Message
	options  map[string][]models.Option // keyed by message ID, position order
	images   map[string]*models.Image

	// Lock order: accountMu, graphMu, imageMu.
	accountMu sync.RWMutex
	graphMu   sync.RWMutex
	imageMu   sync.RWMutex

	// Insertion counters give a stable listing order.
	messageCounter int
	messageSeq     map[string]int
	imageCounter   int
	imageSeq       map[string]int
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:   make(map[string]*models.Account),
		messages:   make(map[string]*models.Message),
		options:    make(map[string][]models.Option),
		images:     make(map[string]*models.Image),
		messageSeq: make(map[string]int),
		imageSeq:   make(map[string]int),
	}
}

// Account operations

func (m *MemoryStore) CreateAccount(ctx context.Context, account *models.Account) (*models.Account, error) {
	m.accountMu.Lock()
	defer m.accountMu.Unlock()

	if account.ID == "" {
		account.ID = utils.NewID()
	}
	if _, exists := m.accounts[account.ID]; exists {
		return nil, fmt.Errorf("account %s already exists", account.ID)
	}
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	stored := *account
	m.accounts[account.ID] = &stored
	return account, nil
}

func (m *MemoryStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	m.accountMu.RLock()
	defer m.accountMu.RUnlock()

	account, exists := m.accounts[id]
	if !exists {
		return nil, fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	out := *account
	return &out, nil
}

func (m *MemoryStore) GetAccountByBotUserID(ctx context.Context, botUserID string) (*models.Account, error) {
	m.accountMu.RLock()
	defer m.accountMu.RUnlock()

	if botUserID != "" {
		for _, account := range m.accounts {
			if account.BotUserID == botUserID {
				out := *account
				return &out, nil
			}
		}
	}
	return nil, fmt.Errorf("account for bot %s: %w", botUserID, ErrNotFound)
}

func (m *MemoryStore) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	return m.listAccounts(func(*models.Account) bool { return true }), nil
}

func (m *MemoryStore) ListAccountsByOwner(ctx context.Context, ownerUserID string) ([]*models.Account, error) {
	return m.listAccounts(func(a *models.Account) bool { return a.OwnerUserID == ownerUserID }), nil
}

func (m *MemoryStore) listAccounts(keep func(*models.Account) bool) []*models.Account {
	m.accountMu.RLock()
	defer m.accountMu.RUnlock()

	var accounts []*models.Account
	for _, account := range m.accounts {
		if keep(account) {
			out := *account
			accounts = append(accounts, &out)
		}
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].ID < accounts[j].ID
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts
}

func (m *MemoryStore) UpdateAccount(ctx context.Context, account *models.Account) error {
	m.accountMu.Lock()
	defer m.accountMu.Unlock()

	existing, exists := m.accounts[account.ID]
	if !exists {
		return fmt.Errorf("account %s: %w", account.ID, ErrNotFound)
	}
	account.CreatedAt = existing.CreatedAt
	account.UpdatedAt = time.Now()

	stored := *account
	m.accounts[account.ID] = &stored
	return nil
}

// DeleteAccount removes the account together with its graph and images.
func (m *MemoryStore) DeleteAccount(ctx context.Context, id string) error {
	m.accountMu.Lock()
	defer m.accountMu.Unlock()
	m.graphMu.Lock()
	defer m.graphMu.Unlock()
	m.imageMu.Lock()
	defer m.imageMu.Unlock()

	if _, exists := m.accounts[id]; !exists {
		return fmt.Errorf("account %s: %w", id, ErrNotFound)
	}
	delete(m.accounts, id)

	for msgID, msg := range m.messages {
		if msg.AccountID == id {
			delete(m.messages, msgID)
			delete(m.options, msgID)
			delete(m.messageSeq, msgID)
		}
	}
	for imgID, img := range m.images {
		if img.AccountID == id {
			delete(m.images, imgID)
			delete(m.imageSeq, imgID)
		}
	}
	return nil
}

// Message operations

func (m *MemoryStore) GetMessage(ctx context.Context, accountID, id string) (*models.Message, error) {
	m.graphMu.RLock()
	defer m.graphMu.RUnlock()

	msg, exists := m.messages[id]
	if !exists || msg.AccountID != accountID {
		return nil, fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	out := *msg
	return &out, nil
}

func (m *MemoryStore) ListMessages(ctx context.Context, accountID string, filter MessageFilter) ([]*models.Message, error) {
	m.graphMu.RLock()
	defer m.graphMu.RUnlock()

	var messages []*models.Message
	for _, msg := range m.messages {
		if msg.AccountID != accountID || !filter.matches(msg) {
			continue
		}
		out := *msg
		messages = append(messages, &out)
	}
	sort.Slice(messages, func(i, j int) bool {
		return m.messageSeq[messages[i].ID] < m.messageSeq[messages[j].ID]
	})
	return messages, nil
}

func (m *MemoryStore) GetOptions(ctx context.Context, accountID, messageID string) ([]*models.Option, error) {
	m.graphMu.RLock()
	defer m.graphMu.RUnlock()

	msg, exists := m.messages[messageID]
	if !exists || msg.AccountID != accountID {
		return nil, fmt.Errorf("message %s: %w", messageID, ErrNotFound)
	}

	stored := m.options[messageID]
	options := make([]*models.Option, 0, len(stored))
	for i := range stored {
		out := stored[i]
		options = append(options, &out)
	}
	return options, nil
}

func (m *MemoryStore) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	m.graphMu.Lock()
	defer m.graphMu.Unlock()

	if msg.ID == "" {
		msg.ID = utils.NewID()
	}
	if _, exists := m.messages[msg.ID]; exists {
		return nil, fmt.Errorf("message %s already exists", msg.ID)
	}
	now := time.Now()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	msg.UpdatedAt = now

	m.messageCounter++
	m.messageSeq[msg.ID] = m.messageCounter
	m.options[msg.ID] = m.stampOptions(msg, now)

	stored := *msg
	stored.Options = nil
	m.messages[msg.ID] = &stored
	return msg, nil
}

func (m *MemoryStore) UpdateMessage(ctx context.Context, msg *models.Message) error {
	m.graphMu.Lock()
	defer m.graphMu.Unlock()

	existing, exists := m.messages[msg.ID]
	if !exists || existing.AccountID != msg.AccountID {
		return fmt.Errorf("message %s: %w", msg.ID, ErrNotFound)
	}
	now := time.Now()
	msg.CreatedAt = existing.CreatedAt
	msg.UpdatedAt = now

	m.options[msg.ID] = m.stampOptions(msg, now)

	stored := *msg
	stored.Options = nil
	m.messages[msg.ID] = &stored
	return nil
}

// stampOptions fills IDs, ownership and positions on msg.Options and
// returns the copy to keep.
func (m *MemoryStore) stampOptions(msg *models.Message, now time.Time) []models.Option {
	options := make([]models.Option, len(msg.Options))
	for i := range msg.Options {
		opt := &msg.Options[i]
		if opt.ID == "" {
			opt.ID = utils.NewID()
		}
		opt.MessageID = msg.ID
		opt.AccountID = msg.AccountID
		opt.Position = i
		opt.CreatedAt = now
		opt.UpdatedAt = now
		options[i] = *opt
	}
	return options
}

func (m *MemoryStore) SetInitial(ctx context.Context, accountID, id string, initial bool) error {
	m.graphMu.Lock()
	defer m.graphMu.Unlock()

	msg, exists := m.messages[id]
	if !exists || msg.AccountID != accountID {
		return fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	msg.IsInitial = initial
	msg.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) DeleteMessage(ctx context.Context, accountID, id string) error {
	m.graphMu.Lock()
	defer m.graphMu.Unlock()

	msg, exists := m.messages[id]
	if !exists || msg.AccountID != accountID {
		return fmt.Errorf("message %s: %w", id, ErrNotFound)
	}
	delete(m.messages, id)
	delete(m.options, id)
	delete(m.messageSeq, id)
	return nil
}

// Image operations

func (m *MemoryStore) CreateImage(ctx context.Context, image *models.Image) (*models.Image, error) {
	m.imageMu.Lock()
	defer m.imageMu.Unlock()

	if image.ID == "" {
		image.ID = utils.NewID()
	}
	if _, exists := m.images[image.ID]; exists {
		return nil, fmt.Errorf("image %s already exists", image.ID)
	}
	if image.CreatedAt.IsZero() {
		image.CreatedAt = time.Now()
	}

	m.imageCounter++
	m.imageSeq[image.ID] = m.imageCounter

	stored := *image
	m.images[image.ID] = &stored
	return image, nil
}

func (m *MemoryStore) GetImage(ctx context.Context, accountID, id string) (*models.Image, error) {
	m.imageMu.RLock()
	defer m.imageMu.RUnlock()

	image, exists := m.images[id]
	if !exists || image.AccountID != accountID {
		return nil, fmt.Errorf("image %s: %w", id, ErrNotFound)
	}
	out := *image
	return &out, nil
}

// ListImages returns the account's images, newest first.
func (m *MemoryStore) ListImages(ctx context.Context, accountID string) ([]*models.Image, error) {
	m.imageMu.RLock()
	defer m.imageMu.RUnlock()

	var images []*models.Image
	for _, image := range m.images {
		if image.AccountID == accountID {
			out := *image
			images = append(images, &out)
		}
	}
	sort.Slice(images, func(i, j int) bool {
		return m.imageSeq[images[i].ID] > m.imageSeq[images[j].ID]
	})
	return images, nil
}

func (m *MemoryStore) CountImageUsage(ctx context.Context, accountID, imageID string) (int64, error) {
	m.graphMu.RLock()
	defer m.graphMu.RUnlock()

	var count int64
	for _, options := range m.options {
		for _, opt := range options {
			if opt.AccountID == accountID && opt.ImageID != nil && *opt.ImageID == imageID {
				count++
			}
		}
	}
	return count, nil
}

func (m *MemoryStore) DeleteImage(ctx context.Context, accountID, id string) error {
	m.imageMu.Lock()
	defer m.imageMu.Unlock()

	image, exists := m.images[id]
	if !exists || image.AccountID != accountID {
		return fmt.Errorf("image %s: %w", id, ErrNotFound)
	}
	delete(m.images, id)
	delete(m.imageSeq, id)
	return nil
}
