// ABOUTME: Companies scroll fetcher with engine-local delta filtering
// ABOUTME: The scroll endpoint has no server-side time filter, so the bound applies per page
package sync

import (
	"context"

	"github.com/tylercowie/intercomconnector/models"
)

func (s *Service) fetchCompanies(ctx context.Context, req Request) (*models.SyncPage, error) {
	res, err := s.api.ScrollCompanies(ctx, req.Account.Token, req.Pagination.ScrollParam)
	if err != nil {
		return nil, err
	}

	// An empty page terminates the scroll.
	hasNext := len(res.Data) > 0

	filtered := filterByUpdatedAt(res.Data, maxTimestamp(req.LastSynchronizedAt, req.Filter.UpdatedAt))

	s.logger.Info("fetched companies page",
		"fetched", len(res.Data), "filtered", len(filtered), "has_next", hasNext)

	page := &models.SyncPage{
		Items:               filtered,
		Pagination:          models.PageInfo{HasNext: hasNext},
		SynchronizationType: syncKind(req.LastSynchronizedAt),
	}
	if hasNext {
		page.Pagination.NextPageConfig = &models.Pagination{ScrollParam: res.ScrollParam}
	}
	return page, nil
}

// filterByUpdatedAt keeps items whose updated_at is at or after the bound.
// A zero bound keeps everything.
func filterByUpdatedAt(items []models.Record, bound int64) []models.Record {
	if bound == 0 {
		return items
	}
	filtered := make([]models.Record, 0, len(items))
	for _, item := range items {
		if updatedAt, ok := item["updated_at"].(float64); ok && int64(updatedAt) >= bound {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
