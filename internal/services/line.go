package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/lineflow-backend/internal/logger"
	"github.com/Ananth-NQI/lineflow-backend/internal/models"
)

// LineService talks to the LINE Messaging API on behalf of accounts. Each
// account has its own channel access token, so clients are built per call.
type LineService struct {
	endpoint string // optional API base URL override
}

// NewLineService creates a LINE service. An empty endpoint uses the public
// API.
func NewLineService(endpoint string) *LineService {
	return &LineService{endpoint: endpoint}
}

func (l *LineService) client(account *models.Account) (*messaging_api.MessagingApiAPI, error) {
	if account.ChannelAccessToken == "" {
		return nil, fmt.Errorf("account %s has no channel access token", account.ID)
	}
	var opts []messaging_api.MessagingApiAPIOption
	if l.endpoint != "" {
		opts = append(opts, messaging_api.WithEndpoint(l.endpoint))
	}
	return messaging_api.NewMessagingApiAPI(account.ChannelAccessToken, opts...)
}

// Reply sends messages with a reply token. Failures are logged and returned,
// never retried.
func (l *LineService) Reply(ctx context.Context, account *models.Account, replyToken string, messages ...messaging_api.MessageInterface) error {
	if replyToken == "" {
		return fmt.Errorf("empty reply token")
	}
	if len(messages) == 0 {
		return nil
	}

	bot, err := l.client(account)
	if err != nil {
		return err
	}

	_, err = bot.WithContext(ctx).ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   messages,
	})
	if err != nil {
		logger.Log.Error("LINE reply failed",
			zap.String("account_id", account.ID), zap.Error(err))
		return err
	}

	logger.Log.Debug("LINE reply sent",
		zap.String("account_id", account.ID), zap.Int("messages", len(messages)))
	return nil
}

// ValidateSignature checks X-Line-Signature against the channel secret.
func (l *LineService) ValidateSignature(channelSecret, signature string, body []byte) bool {
	if channelSecret == "" || signature == "" {
		return false
	}
	return webhook.ValidateSignature(channelSecret, signature, body)
}

// WebhookBatch is a decoded webhook delivery.
type WebhookBatch struct {
	Destination string
	Events      []Event
	Skipped     int // events of kinds the bot does not react to
}

// ParseWebhook decodes a webhook body into engine events, keeping their order.
// Event kinds other than follow, text message and postback are skipped.
func ParseWebhook(body []byte) (*WebhookBatch, error) {
	var req webhook.CallbackRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("decode webhook: %w", err)
	}

	batch := &WebhookBatch{Destination: req.Destination}
	for _, raw := range req.Events {
		ev, ok := convertEvent(raw)
		if !ok {
			batch.Skipped++
			continue
		}
		batch.Events = append(batch.Events, ev)
	}
	return batch, nil
}

func convertEvent(raw webhook.EventInterface) (Event, bool) {
	switch e := raw.(type) {
	case webhook.FollowEvent:
		return FollowEvent{EventMeta: EventMeta{ReplyToken: e.ReplyToken, UserID: sourceUserID(e.Source)}}, true
	case webhook.MessageEvent:
		text, ok := e.Message.(webhook.TextMessageContent)
		if !ok {
			return nil, false
		}
		return TextEvent{
			EventMeta: EventMeta{ReplyToken: e.ReplyToken, UserID: sourceUserID(e.Source)},
			Text:      text.Text,
		}, true
	case webhook.PostbackEvent:
		var data string
		if e.Postback != nil {
			data = e.Postback.Data
		}
		return PostbackEvent{
			EventMeta: EventMeta{ReplyToken: e.ReplyToken, UserID: sourceUserID(e.Source)},
			Data:      data,
		}, true
	default:
		return nil, false
	}
}

func sourceUserID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	default:
		return ""
	}
}
