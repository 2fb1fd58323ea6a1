package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ananth-NQI/lineflow-backend/internal/models"
	"github.com/Ananth-NQI/lineflow-backend/internal/storage"
)

// OptionRef points at an option whose reference does not resolve.
type OptionRef struct {
	MessageID string `json:"message_id"`
	OptionID  string `json:"option_id"`
	Ref       string `json:"ref"`
}

// GraphReport describes the state of one account's conversation graph.
type GraphReport struct {
	AccountID         string      `json:"account_id"`
	MessageCount      int         `json:"message_count"`
	InitialMessageIDs []string    `json:"initial_message_ids"`
	DanglingNextRefs  []OptionRef `json:"dangling_next_refs"`
	DanglingImageRefs []OptionRef `json:"dangling_image_refs"`
	EmptyCarousels    []string    `json:"empty_carousels"`
	Unreachable       []string    `json:"unreachable"`
}

// Healthy reports a graph with exactly one initial message and no broken
// references. Unreachable messages alone do not make a graph unhealthy since
// text messages are reached by keyword.
func (r *GraphReport) Healthy() bool {
	return len(r.InitialMessageIDs) == 1 &&
		len(r.DanglingNextRefs) == 0 &&
		len(r.DanglingImageRefs) == 0 &&
		len(r.EmptyCarousels) == 0
}

// GraphAuditor inspects graphs for the problems the engine tolerates at
// read time.
type GraphAuditor struct {
	store storage.Store
}

func NewGraphAuditor(store storage.Store) *GraphAuditor {
	return &GraphAuditor{store: store}
}

func (a *GraphAuditor) Audit(ctx context.Context, accountID string) (*GraphReport, error) {
	msgs, err := a.store.ListMessages(ctx, accountID, storage.MessageFilter{})
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	report := &GraphReport{
		AccountID:         accountID,
		MessageCount:      len(msgs),
		InitialMessageIDs: []string{},
		DanglingNextRefs:  []OptionRef{},
		DanglingImageRefs: []OptionRef{},
		EmptyCarousels:    []string{},
		Unreachable:       []string{},
	}

	known := make(map[string]*models.Message, len(msgs))
	for _, msg := range msgs {
		known[msg.ID] = msg
	}

	edges := make(map[string][]string)
	imageExists := make(map[string]bool)
	gone := make(map[string]bool)

	for _, msg := range msgs {
		if msg.IsInitial {
			report.InitialMessageIDs = append(report.InitialMessageIDs, msg.ID)
		}
		if msg.Type != models.MessageTypeCarousel {
			continue
		}

		options, err := a.store.GetOptions(ctx, accountID, msg.ID)
		if errors.Is(err, storage.ErrNotFound) {
			// deleted since the listing
			gone[msg.ID] = true
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("options of %s: %w", msg.ID, err)
		}
		if len(options) == 0 {
			report.EmptyCarousels = append(report.EmptyCarousels, msg.ID)
		}

		for _, opt := range options {
			if opt.NextMessageID != nil {
				next := *opt.NextMessageID
				if _, ok := known[next]; ok {
					edges[msg.ID] = append(edges[msg.ID], next)
				} else {
					report.DanglingNextRefs = append(report.DanglingNextRefs,
						OptionRef{MessageID: msg.ID, OptionID: opt.ID, Ref: next})
				}
			}

			if opt.ImageID != nil {
				ok, err := a.imageExists(ctx, accountID, *opt.ImageID, imageExists)
				if err != nil {
					return nil, err
				}
				if !ok {
					report.DanglingImageRefs = append(report.DanglingImageRefs,
						OptionRef{MessageID: msg.ID, OptionID: opt.ID, Ref: *opt.ImageID})
				}
			}
		}
	}

	live := msgs[:0:0]
	for _, msg := range msgs {
		if !gone[msg.ID] {
			live = append(live, msg)
		}
	}
	report.Unreachable = unreachableCarousels(live, report.InitialMessageIDs, edges)
	return report, nil
}

func (a *GraphAuditor) imageExists(ctx context.Context, accountID, id string, cache map[string]bool) (bool, error) {
	if ok, seen := cache[id]; seen {
		return ok, nil
	}
	_, err := a.store.GetImage(ctx, accountID, id)
	switch {
	case err == nil:
		cache[id] = true
	case errors.Is(err, storage.ErrNotFound):
		cache[id] = false
	default:
		return false, fmt.Errorf("image %s: %w", id, err)
	}
	return cache[id], nil
}

// unreachableCarousels lists carousel messages no path from an initial
// message leads to. Text messages are excluded because keywords reach them.
func unreachableCarousels(msgs []*models.Message, roots []string, edges map[string][]string) []string {
	visited := make(map[string]bool)
	queue := append([]string(nil), roots...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		queue = append(queue, edges[id]...)
	}

	out := []string{}
	for _, msg := range msgs {
		if msg.Type == models.MessageTypeCarousel && !visited[msg.ID] {
			out = append(out, msg.ID)
		}
	}
	return out
}
