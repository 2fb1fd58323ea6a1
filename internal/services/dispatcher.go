package services

import (
	"context"
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"go.uber.org/zap"

	"github.com/Ananth-NQI/lineflow-backend/internal/logger"
	"github.com/Ananth-NQI/lineflow-backend/internal/models"
)

// EventHandler decides the reply for one event.
type EventHandler interface {
	Handle(ctx context.Context, accountID string, ev Event) (*Reply, error)
}

// ReplySender delivers rendered payloads with a reply token.
type ReplySender interface {
	Reply(ctx context.Context, account *models.Account, replyToken string, messages ...messaging_api.MessageInterface) error
}

// EventResult records what happened to one event of a batch.
type EventResult struct {
	Index   int
	Kind    EventKind
	Replied bool
	Err     error
}

// BatchResult summarises one webhook delivery.
type BatchResult struct {
	AccountID string
	Results   []EventResult
}

// Failed counts events that ended with a recorded error.
func (b BatchResult) Failed() int {
	n := 0
	for _, r := range b.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Dispatcher runs a batch of events through the engine, one at a time and in
// order. A failing event never stops the rest of the batch.
type Dispatcher struct {
	engine   EventHandler
	renderer *ReplyRenderer
	sender   ReplySender
}

func NewDispatcher(engine EventHandler, renderer *ReplyRenderer, sender ReplySender) *Dispatcher {
	return &Dispatcher{engine: engine, renderer: renderer, sender: sender}
}

func (d *Dispatcher) Dispatch(ctx context.Context, account *models.Account, events []Event) BatchResult {
	result := BatchResult{AccountID: account.ID, Results: make([]EventResult, 0, len(events))}

	for i, ev := range events {
		res := d.dispatchOne(ctx, account, i, ev)
		if res.Err != nil {
			logger.Log.Warn("event handling failed",
				zap.String("account_id", account.ID),
				zap.Int("index", i),
				zap.String("kind", string(res.Kind)),
				zap.Bool("replied", res.Replied),
				zap.Error(res.Err))
		}
		result.Results = append(result.Results, res)
	}

	logger.Log.Info("webhook batch processed",
		zap.String("account_id", account.ID),
		zap.Int("events", len(events)),
		zap.Int("failed", result.Failed()))
	return result
}

func (d *Dispatcher) dispatchOne(ctx context.Context, account *models.Account, index int, ev Event) (res EventResult) {
	res = EventResult{Index: index, Kind: ev.Kind()}

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("panic handling %s event: %v", ev.Kind(), r)
		}
	}()

	reply, handleErr := d.engine.Handle(ctx, account.ID, ev)
	res.Err = handleErr
	if reply == nil {
		return res
	}

	payload, err := d.renderer.Render(reply)
	if err != nil {
		res.Err = fmt.Errorf("render %s reply: %w", reply.Kind, err)
		return res
	}

	if err := d.sender.Reply(ctx, account, ev.Meta().ReplyToken, payload); err != nil {
		if handleErr != nil {
			err = fmt.Errorf("%v; send reply: %w", handleErr, err)
		} else {
			err = fmt.Errorf("send reply: %w", err)
		}
		res.Err = err
		return res
	}
	res.Replied = true
	return res
}
