package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Ananth-NQI/lineflow-backend/internal/logger"
	"github.com/Ananth-NQI/lineflow-backend/internal/models"
	"github.com/Ananth-NQI/lineflow-backend/internal/storage"
)

// Fixed replies used when the graph has nothing to say.
const (
	FollowGreetingText = "友だち追加ありがとうございます！"
	NoMatchText        = "申し訳ありません。お問い合わせ内容に対応するメッセージが見つかりませんでした。"
	ErrorFallbackText  = "申し訳ありません。メッセージの処理中にエラーが発生しました。"
)

// ReplyKind tells the renderer which payload to build.
type ReplyKind string

const (
	ReplyText     ReplyKind = "text"
	ReplyCarousel ReplyKind = "carousel"
)

// ResolvedOption is a carousel option with its image reference already
// turned into a URL ("" when there is none).
type ResolvedOption struct {
	Option   *models.Option
	ImageURL string
}

// Reply is what the engine decided to send for one event.
type Reply struct {
	Kind    ReplyKind
	Text    string          // ReplyText
	Message *models.Message // ReplyCarousel
	Options []ResolvedOption
}

func textReply(text string) *Reply {
	return &Reply{Kind: ReplyText, Text: text}
}

// ImageResolver resolves option images to URLs.
type ImageResolver interface {
	Resolve(ctx context.Context, accountID string, imageRef *string) string
}

// ConversationEngine walks an account's message graph in response to
// inbound events. It keeps no state between events.
type ConversationEngine struct {
	store  storage.Store
	assets ImageResolver
}

func NewConversationEngine(store storage.Store, assets ImageResolver) *ConversationEngine {
	return &ConversationEngine{store: store, assets: assets}
}

// Handle decides the reply for one event. A nil reply means nothing is sent.
// A non-nil error reports a handled failure; any reply returned with it is
// still meant to be sent.
func (e *ConversationEngine) Handle(ctx context.Context, accountID string, ev Event) (*Reply, error) {
	switch ev := ev.(type) {
	case FollowEvent:
		return e.handleFollow(ctx, accountID)
	case TextEvent:
		return e.handleText(ctx, accountID, ev.Text)
	case PostbackEvent:
		return e.handlePostback(ctx, accountID, ev.Data)
	default:
		return nil, fmt.Errorf("unsupported event %T", ev)
	}
}

func (e *ConversationEngine) handleFollow(ctx context.Context, accountID string) (*Reply, error) {
	initial, err := e.initialMessage(ctx, accountID)
	if err != nil {
		logger.Log.Warn("initial message lookup failed on follow",
			zap.String("account_id", accountID), zap.Error(err))
		return textReply(FollowGreetingText), nil
	}
	if initial == nil {
		return textReply(FollowGreetingText), nil
	}

	reply, err := e.render(ctx, accountID, initial)
	if err != nil {
		logger.Log.Warn("initial message could not be rendered on follow",
			zap.String("account_id", accountID), zap.Error(err))
		return textReply(FollowGreetingText), nil
	}
	return reply, nil
}

func (e *ConversationEngine) handleText(ctx context.Context, accountID, text string) (*Reply, error) {
	initial, err := e.initialMessage(ctx, accountID)
	if err != nil {
		logger.Log.Warn("initial message lookup failed on text",
			zap.String("account_id", accountID), zap.Error(err))
	} else if initial != nil && containsEither(initial.Content, text) {
		reply, err := e.render(ctx, accountID, initial)
		if err != nil {
			return textReply(ErrorFallbackText), err
		}
		return reply, nil
	}

	candidates, err := e.store.ListMessages(ctx, accountID, storage.MessageFilter{Type: models.MessageTypeText})
	if err != nil {
		// Degrades to the no-match reply; the error is still reported.
		return textReply(NoMatchText), fmt.Errorf("list text messages: %w", err)
	}
	for _, msg := range candidates {
		if containsEither(msg.Content, text) {
			return textReply(msg.Content), nil
		}
	}
	return textReply(NoMatchText), nil
}

func (e *ConversationEngine) handlePostback(ctx context.Context, accountID, data string) (*Reply, error) {
	next, err := DecodePostback(data)
	if err != nil {
		return nil, err
	}
	if next == nil || *next == "" {
		return nil, nil
	}

	msg, err := e.store.GetMessage(ctx, accountID, *next)
	if err != nil {
		return textReply(ErrorFallbackText), fmt.Errorf("postback target %s: %w", *next, err)
	}

	reply, err := e.render(ctx, accountID, msg)
	if err != nil {
		return textReply(ErrorFallbackText), err
	}
	return reply, nil
}

// initialMessage returns the account's initial message, or nil when none is
// marked. If several are marked the first in listing order wins.
func (e *ConversationEngine) initialMessage(ctx context.Context, accountID string) (*models.Message, error) {
	msgs, err := e.store.ListMessages(ctx, accountID, storage.InitialOnly())
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, nil
	}
	return msgs[0], nil
}

// render builds the reply for a message node.
func (e *ConversationEngine) render(ctx context.Context, accountID string, msg *models.Message) (*Reply, error) {
	if msg.Type != models.MessageTypeCarousel {
		return textReply(msg.Content), nil
	}

	options, err := e.store.GetOptions(ctx, accountID, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("load options of %s: %w", msg.ID, err)
	}

	resolved := make([]ResolvedOption, 0, len(options))
	for _, opt := range options {
		resolved = append(resolved, ResolvedOption{
			Option:   opt,
			ImageURL: e.assets.Resolve(ctx, accountID, opt.ImageID),
		})
	}
	return &Reply{Kind: ReplyCarousel, Message: msg, Options: resolved}, nil
}

// containsEither is the text-matching rule: one string contains the other.
// Empty strings never match.
func containsEither(content, text string) bool {
	if content == "" || text == "" {
		return false
	}
	return strings.Contains(content, text) || strings.Contains(text, content)
}
