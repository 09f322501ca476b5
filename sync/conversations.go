// ABOUTME: Conversations search fetcher with per-item detail hydration
// ABOUTME: Every summary item is re-fetched in parallel for its full message history
package sync

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tylercowie/intercomconnector/intercom"
	"github.com/tylercowie/intercomconnector/models"
)

const conversationsPageSize = 100

func (s *Service) fetchConversations(ctx context.Context, req Request) (*models.SyncPage, error) {
	res, err := s.api.SearchConversations(ctx, req.Account.Token, intercom.SearchRequest{
		Pagination: intercom.SearchPagination{
			PerPage:       conversationsPageSize,
			StartingAfter: req.Pagination.StartingAfter,
		},
		Query: buildSearchQuery([]queryFilter{
			{field: models.Filters[models.FilterFieldUpdatedAt], value: maxTimestamp(req.LastSynchronizedAt, req.Filter.UpdatedAt)},
		}),
	})
	if err != nil {
		return nil, err
	}

	// Search summaries lack the chat history; hydrate each conversation
	// while keeping the upstream page order.
	detailed := make([]models.Record, len(res.Conversations))
	g, gctx := errgroup.WithContext(ctx)
	for i, conversation := range res.Conversations {
		g.Go(func() error {
			id, _ := conversation["id"].(string)
			item, err := s.DetailedConversation(gctx, req.Account, id)
			if err != nil {
				return err
			}
			detailed[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("fetched conversations page",
		"page", res.Pages.Page, "total_pages", res.Pages.TotalPages, "count", len(detailed))

	page := &models.SyncPage{
		Items:               detailed,
		Pagination:          models.PageInfo{HasNext: res.Pages.Next != nil},
		SynchronizationType: syncKind(req.LastSynchronizedAt),
	}
	if res.Pages.Next != nil {
		page.Pagination.NextPageConfig = &models.Pagination{StartingAfter: res.Pages.Next.StartingAfter}
	}
	return page, nil
}
