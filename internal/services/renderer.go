package services

import (
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/Ananth-NQI/lineflow-backend/internal/utils"
)

// LINE carousel field limits.
const (
	columnTitleMax = 40
	columnTextMax  = 60
	actionLabelMax = 20
	altTextMax     = 400

	// DefaultAltText is shown in notifications when the carousel has no
	// content to preview.
	DefaultAltText = "選択してください"
)

// ReplyRenderer converts engine replies into LINE message payloads.
type ReplyRenderer struct{}

func NewReplyRenderer() *ReplyRenderer {
	return &ReplyRenderer{}
}

// Render builds the payload for reply.
func (r *ReplyRenderer) Render(reply *Reply) (messaging_api.MessageInterface, error) {
	if reply == nil {
		return nil, fmt.Errorf("nothing to render")
	}

	switch reply.Kind {
	case ReplyText:
		return RenderText(reply.Text), nil
	case ReplyCarousel:
		if reply.Message == nil {
			return nil, fmt.Errorf("carousel reply without message")
		}
		return RenderCarousel(reply.Message.Content, reply.Options), nil
	default:
		return nil, fmt.Errorf("unknown reply kind %q", reply.Kind)
	}
}

// RenderText wraps text unmodified.
func RenderText(text string) messaging_api.TextMessage {
	return messaging_api.TextMessage{Text: text}
}

// RenderCarousel builds one column per option, in order. The number of
// columns is not capped here.
func RenderCarousel(content string, options []ResolvedOption) *messaging_api.TemplateMessage {
	body := content
	if body == "" {
		body = " "
	}
	body = utils.Truncate(body, columnTextMax)

	columns := make([]messaging_api.CarouselColumn, 0, len(options))
	for _, opt := range options {
		columns = append(columns, messaging_api.CarouselColumn{
			ThumbnailImageUrl: opt.ImageURL,
			Title:             utils.Truncate(opt.Option.Text, columnTitleMax),
			Text:              body,
			Actions: []messaging_api.ActionInterface{
				&messaging_api.PostbackAction{
					Label:       utils.Truncate(opt.Option.Text, actionLabelMax),
					Data:        EncodePostback(opt.Option.NextMessageID),
					DisplayText: opt.Option.Text,
				},
			},
		})
	}

	altText := utils.Truncate(content, altTextMax)
	if altText == "" {
		altText = DefaultAltText
	}

	return &messaging_api.TemplateMessage{
		AltText: altText,
		Template: &messaging_api.CarouselTemplate{
			Columns: columns,
		},
	}
}
