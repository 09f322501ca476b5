// ABOUTME: One-shot full export streaming every page of a source type
// ABOUTME: Fetch failures emit a single sentinel error record and end the stream
package sync

import (
	"context"

	"github.com/tylercowie/intercomconnector/intercom"
	"github.com/tylercowie/intercomconnector/models"
)

// StreamRequest is a full one-shot export of a single source type.
type StreamRequest struct {
	Source  models.SourceType `json:"source"`
	Account models.Account    `json:"account"`
	Filter  models.Filter     `json:"filter"`
}

// StreamData walks every page of the source, ignoring any delta
// checkpoint, and emits each formatted record. Records already emitted are
// preserved when a later page fails; the failure is reported in-band as a
// `__streamError` sentinel record. Errors before the first fetch (unknown
// source, schema failure) are returned to the caller instead.
func (s *Service) StreamData(ctx context.Context, req StreamRequest, emit func(models.Record) error) error {
	fetcher, ok := s.fetchers[req.Source]
	if !ok {
		return models.BadRequest("Unknown source type: %s", req.Source)
	}

	sch, err := s.schemas.GetSchema(ctx, req.Source, req.Account)
	if err != nil {
		return err
	}

	pagination := models.Pagination{}
	for hasNext := true; hasNext; {
		res, err := fetcher(ctx, Request{
			Account:    req.Account,
			Filter:     req.Filter,
			Pagination: pagination,
		})
		if err != nil {
			return s.emitStreamError(err, emit)
		}

		for _, item := range res.Items {
			record, err := FormatItem(sch, req.Account, item)
			if err != nil {
				return s.emitStreamError(err, emit)
			}
			if err := emit(record); err != nil {
				return err
			}
		}

		hasNext = res.Pagination.HasNext
		if res.Pagination.NextPageConfig != nil {
			pagination = *res.Pagination.NextPageConfig
		} else {
			pagination = models.Pagination{}
		}
	}
	return nil
}

func (s *Service) emitStreamError(err error, emit func(models.Record) error) error {
	transformed := intercom.TransformError(err)
	s.logger.Error("error streaming", "error", transformed)
	return emit(models.Record{
		"__streamError": map[string]any{
			"message": models.ErrorMessage(transformed),
			"code":    models.ErrorStatus(transformed),
		},
	})
}
