// ABOUTME: Webhook payload transformation into per-source-type delta records
// ABOUTME: Only requested source types applicable to the topic appear in the result
package webhooks

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tylercowie/intercomconnector/models"
)

// Event is the inbound Intercom notification envelope.
type Event struct {
	Topic string `json:"topic"`
	AppID string `json:"app_id"`
	Data  struct {
		Item models.Record `json:"item"`
	} `json:"data"`
}

// TransformRequest asks for the delta records of one event, limited to the
// requested source types.
type TransformRequest struct {
	Payload Event              `json:"payload"`
	Account models.Account     `json:"account"`
	Types   []models.SourceType `json:"types"`
}

// TransformResponse groups delta records by source type. Types that were
// not requested, or that the topic does not feed, are omitted.
type TransformResponse struct {
	Data map[models.SourceType][]models.Record `json:"data"`
}

// Transform routes the event topic and runs every matching delta builder
// concurrently.
func (s *Service) Transform(ctx context.Context, req TransformRequest) (*TransformResponse, error) {
	handler := &eventHandler{
		api:     s.api,
		data:    s.data,
		schemas: s.schemas,
		account: req.Account,
		logger:  s.logger,
	}

	requested := make(map[models.SourceType]bool, len(req.Types))
	for _, t := range req.Types {
		requested[t] = true
	}

	entries := handlersByTopic(req.Payload.Topic)
	results := make([][]models.Record, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range entries {
		if !requested[entry.source] {
			continue
		}
		g.Go(func() error {
			records, err := handler.build(gctx, entry, req.Payload.Data.Item)
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	data := make(map[models.SourceType][]models.Record)
	for i, entry := range entries {
		if results[i] != nil {
			data[entry.source] = results[i]
		}
	}
	return &TransformResponse{Data: data}, nil
}
