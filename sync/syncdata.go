// ABOUTME: Cursor-driven page synchronization: one fetch+format cycle per call
// ABOUTME: The caller stores the opaque continuation token and drives pagination
package sync

import (
	"context"

	"github.com/tylercowie/intercomconnector/models"
)

// SyncDataRequest is one page-sync call for a single source type.
type SyncDataRequest struct {
	RequestedType      models.SourceType `json:"requestedType"`
	Filter             models.Filter     `json:"filter"`
	Account            models.Account    `json:"account"`
	Pagination         models.Pagination `json:"pagination"`
	LastSynchronizedAt string            `json:"lastSynchronizedAt,omitempty"`
}

// GetSyncData fetches and formats one page. The delta window is applied to
// the caller's checkpoint before it reaches the fetcher.
func (s *Service) GetSyncData(ctx context.Context, req SyncDataRequest) (*models.SyncPage, error) {
	fetcher, ok := s.fetchers[req.RequestedType]
	if !ok {
		return nil, models.BadRequest("Unknown type: [%s]", req.RequestedType)
	}

	sch, err := s.schemas.GetSchema(ctx, req.RequestedType, req.Account)
	if err != nil {
		return nil, err
	}

	res, err := fetcher(ctx, Request{
		Account:            req.Account,
		Filter:             req.Filter,
		Pagination:         req.Pagination,
		LastSynchronizedAt: adjustLastSynchronizedAt(req.LastSynchronizedAt),
	})
	if err != nil {
		return nil, err
	}

	items, err := FormatItems(sch, req.Account, res.Items)
	if err != nil {
		return nil, err
	}

	return &models.SyncPage{
		Items:               items,
		Pagination:          res.Pagination,
		SynchronizationType: res.SynchronizationType,
	}, nil
}
