package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/lineflow-backend/internal/models"
	"github.com/Ananth-NQI/lineflow-backend/internal/storage"
)

var errStoreDown = errors.New("store unavailable")

func strPtr(s string) *string { return &s }

func newAccount(t *testing.T, store storage.Store) *models.Account {
	t.Helper()
	account, err := store.CreateAccount(context.Background(), &models.Account{
		OwnerUserID:        "owner-1",
		Name:               "Test Shop",
		ChannelID:          "1650000000",
		ChannelSecret:      "channel-secret",
		ChannelAccessToken: "channel-token",
		BotUserID:          "Ubot",
	})
	require.NoError(t, err)
	return account
}

func addMessage(t *testing.T, store storage.Store, msg *models.Message) *models.Message {
	t.Helper()
	created, err := store.CreateMessage(context.Background(), msg)
	require.NoError(t, err)
	return created
}

func addText(t *testing.T, store storage.Store, accountID, content string, initial bool) *models.Message {
	t.Helper()
	return addMessage(t, store, &models.Message{
		AccountID: accountID,
		Title:     "text " + content,
		Type:      models.MessageTypeText,
		Content:   content,
		IsInitial: initial,
	})
}

// flakyStore fails selected calls of an otherwise working store.
type flakyStore struct {
	storage.Store
	failInitial bool // ListMessages with the initial filter
	failList    bool // any other ListMessages
	failGet     bool
	failOptions bool
	failImage   bool
	failCreate  bool
	failUpdate  bool
	failClear   bool // SetInitial(false)
}

func (f *flakyStore) ListMessages(ctx context.Context, accountID string, filter storage.MessageFilter) ([]*models.Message, error) {
	if filter.Initial != nil && f.failInitial {
		return nil, errStoreDown
	}
	if filter.Initial == nil && f.failList {
		return nil, errStoreDown
	}
	return f.Store.ListMessages(ctx, accountID, filter)
}

func (f *flakyStore) GetMessage(ctx context.Context, accountID, id string) (*models.Message, error) {
	if f.failGet {
		return nil, errStoreDown
	}
	return f.Store.GetMessage(ctx, accountID, id)
}

func (f *flakyStore) GetOptions(ctx context.Context, accountID, messageID string) ([]*models.Option, error) {
	if f.failOptions {
		return nil, errStoreDown
	}
	return f.Store.GetOptions(ctx, accountID, messageID)
}

func (f *flakyStore) GetImage(ctx context.Context, accountID, id string) (*models.Image, error) {
	if f.failImage {
		return nil, errStoreDown
	}
	return f.Store.GetImage(ctx, accountID, id)
}

func (f *flakyStore) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	if f.failCreate {
		return nil, errStoreDown
	}
	return f.Store.CreateMessage(ctx, msg)
}

func (f *flakyStore) UpdateMessage(ctx context.Context, msg *models.Message) error {
	if f.failUpdate {
		return errStoreDown
	}
	return f.Store.UpdateMessage(ctx, msg)
}

func (f *flakyStore) SetInitial(ctx context.Context, accountID, id string, initial bool) error {
	if !initial && f.failClear {
		return errStoreDown
	}
	return f.Store.SetInitial(ctx, accountID, id, initial)
}

type sentReply struct {
	AccountID  string
	ReplyToken string
	Messages   []messaging_api.MessageInterface
}

// recordingSender captures replies instead of calling LINE.
type recordingSender struct {
	mu      sync.Mutex
	sent    []sentReply
	failFor map[string]error // by reply token
}

func (r *recordingSender) Reply(ctx context.Context, account *models.Account, replyToken string, messages ...messaging_api.MessageInterface) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failFor[replyToken]; err != nil {
		return err
	}
	r.sent = append(r.sent, sentReply{AccountID: account.ID, ReplyToken: replyToken, Messages: messages})
	return nil
}

func (r *recordingSender) tokens() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, s := range r.sent {
		out = append(out, s.ReplyToken)
	}
	return out
}

func carouselColumns(t *testing.T, msg messaging_api.MessageInterface) []messaging_api.CarouselColumn {
	t.Helper()
	tmpl, ok := msg.(*messaging_api.TemplateMessage)
	require.True(t, ok, "expected template message, got %T", msg)
	carousel, ok := tmpl.Template.(*messaging_api.CarouselTemplate)
	require.True(t, ok, "expected carousel template, got %T", tmpl.Template)
	return carousel.Columns
}

func postbackAction(t *testing.T, col messaging_api.CarouselColumn) *messaging_api.PostbackAction {
	t.Helper()
	require.Len(t, col.Actions, 1)
	action, ok := col.Actions[0].(*messaging_api.PostbackAction)
	require.True(t, ok, "expected postback action, got %T", col.Actions[0])
	return action
}
