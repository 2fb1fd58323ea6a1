package services

import (
	"context"
	"errors"
	"testing"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/lineflow-backend/internal/models"
	"github.com/Ananth-NQI/lineflow-backend/internal/storage"
)

func meta(token string) EventMeta {
	return EventMeta{ReplyToken: token, UserID: "Uuser"}
}

func TestDispatchMalformedPostbackDoesNotStopBatch(t *testing.T) {
	store := storage.NewMemoryStore()
	account := newAccount(t, store)
	addText(t, store, account.ID, "hello", false)
	sender := &recordingSender{}
	d := NewDispatcher(newEngine(store), NewReplyRenderer(), sender)

	result := d.Dispatch(context.Background(), account, []Event{
		PostbackEvent{EventMeta: meta("r1"), Data: "not-json"},
		TextEvent{EventMeta: meta("r2"), Text: "hello"},
	})

	require.Len(t, result.Results, 2)
	assert.Equal(t, 1, result.Failed())
	assert.ErrorIs(t, result.Results[0].Err, ErrMalformedPayload)
	assert.False(t, result.Results[0].Replied)
	assert.NoError(t, result.Results[1].Err)
	assert.True(t, result.Results[1].Replied)

	assert.Equal(t, []string{"r2"}, sender.tokens())
	text, ok := sender.sent[0].Messages[0].(messaging_api.TextMessage)
	require.True(t, ok)
	assert.Equal(t, "hello", text.Text)
}

func TestDispatchRepliesInReceivedOrder(t *testing.T) {
	store := storage.NewMemoryStore()
	account := newAccount(t, store)
	addText(t, store, account.ID, "Welcome", true)
	sender := &recordingSender{}
	d := NewDispatcher(newEngine(store), NewReplyRenderer(), sender)

	d.Dispatch(context.Background(), account, []Event{
		FollowEvent{EventMeta: meta("a")},
		TextEvent{EventMeta: meta("b"), Text: "unknown"},
		FollowEvent{EventMeta: meta("c")},
	})

	assert.Equal(t, []string{"a", "b", "c"}, sender.tokens())
}

func TestDispatchSendFailureIsRecorded(t *testing.T) {
	store := storage.NewMemoryStore()
	account := newAccount(t, store)
	sendErr := errors.New("429 too many requests")
	sender := &recordingSender{failFor: map[string]error{"r1": sendErr}}
	d := NewDispatcher(newEngine(store), NewReplyRenderer(), sender)

	result := d.Dispatch(context.Background(), account, []Event{
		FollowEvent{EventMeta: meta("r1")},
		FollowEvent{EventMeta: meta("r2")},
	})

	assert.ErrorIs(t, result.Results[0].Err, sendErr)
	assert.False(t, result.Results[0].Replied)
	assert.True(t, result.Results[1].Replied)
	assert.Equal(t, []string{"r2"}, sender.tokens())
}

func TestDispatchSendsFallbackForDanglingPostback(t *testing.T) {
	store := storage.NewMemoryStore()
	account := newAccount(t, store)
	sender := &recordingSender{}
	d := NewDispatcher(newEngine(store), NewReplyRenderer(), sender)

	result := d.Dispatch(context.Background(), account, []Event{
		PostbackEvent{EventMeta: meta("r1"), Data: `{"nextMessageId":"deleted"}`},
	})

	assert.ErrorIs(t, result.Results[0].Err, storage.ErrNotFound)
	assert.True(t, result.Results[0].Replied)
	text, ok := sender.sent[0].Messages[0].(messaging_api.TextMessage)
	require.True(t, ok)
	assert.Equal(t, ErrorFallbackText, text.Text)
}

type panickyHandler struct{ next EventHandler }

func (p panickyHandler) Handle(ctx context.Context, accountID string, ev Event) (*Reply, error) {
	if ev.Meta().ReplyToken == "boom" {
		panic("unexpected nil")
	}
	return p.next.Handle(ctx, accountID, ev)
}

func TestDispatchRecoversFromPanics(t *testing.T) {
	store := storage.NewMemoryStore()
	account := newAccount(t, store)
	sender := &recordingSender{}
	d := NewDispatcher(panickyHandler{next: newEngine(store)}, NewReplyRenderer(), sender)

	result := d.Dispatch(context.Background(), account, []Event{
		FollowEvent{EventMeta: meta("boom")},
		FollowEvent{EventMeta: meta("ok")},
	})

	assert.Error(t, result.Results[0].Err)
	assert.Equal(t, EventFollow, result.Results[0].Kind)
	assert.True(t, result.Results[1].Replied)
	assert.Equal(t, []string{"ok"}, sender.tokens())
}

func TestDispatchEmptyBatch(t *testing.T) {
	d := NewDispatcher(newEngine(storage.NewMemoryStore()), NewReplyRenderer(), &recordingSender{})
	result := d.Dispatch(context.Background(), &models.Account{ID: "acc"}, nil)
	assert.Equal(t, "acc", result.AccountID)
	assert.Empty(t, result.Results)
	assert.Zero(t, result.Failed())
}
