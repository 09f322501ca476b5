// ABOUTME: Contacts pagination fetcher with eager relation completion
// ABOUTME: Items never leave this fetcher with a truncated companies or tags relation
package sync

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tylercowie/intercomconnector/intercom"
	"github.com/tylercowie/intercomconnector/models"
)

const (
	contactsPageSize        = 100
	contactCompaniesPerPage = 50
)

func (s *Service) fetchContacts(ctx context.Context, req Request) (*models.SyncPage, error) {
	res, err := s.api.SearchContacts(ctx, req.Account.Token, intercom.SearchRequest{
		Pagination: intercom.SearchPagination{
			PerPage:       contactsPageSize,
			StartingAfter: req.Pagination.StartingAfter,
		},
		Query: buildSearchQuery([]queryFilter{
			{field: models.Filters[models.FilterFieldRole], value: req.Filter.Role},
			{field: models.Filters[models.FilterFieldUpdatedAt], value: maxTimestamp(req.Filter.UpdatedAt, req.LastSynchronizedAt)},
		}),
	})
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, contact := range res.Data {
		g.Go(func() error {
			return s.completeContactRelations(gctx, req.Account, contact)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Info("fetched contacts page",
		"page", res.Pages.Page, "total_pages", res.Pages.TotalPages, "count", len(res.Data))

	page := &models.SyncPage{
		Items:               res.Data,
		Pagination:          models.PageInfo{HasNext: res.Pages.Next != nil},
		SynchronizationType: syncKind(req.LastSynchronizedAt),
	}
	if res.Pages.Next != nil {
		page.Pagination.NextPageConfig = &models.Pagination{StartingAfter: res.Pages.Next.StartingAfter}
	}
	return page, nil
}

// ContactWithRelations fetches a single contact and completes any
// truncated embedded relation, mirroring what the page fetcher guarantees.
func (s *Service) ContactWithRelations(ctx context.Context, account models.Account, id string) (models.Record, error) {
	contact, err := s.api.FetchContact(ctx, account.Token, id)
	if err != nil {
		return nil, err
	}
	if err := s.completeContactRelations(ctx, account, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// completeContactRelations replaces truncated embedded relations on a
// contact with the fully paged lists.
func (s *Service) completeContactRelations(ctx context.Context, account models.Account, contact models.Record) error {
	id, _ := contact["id"].(string)

	if relationHasMore(contact, "companies") {
		companies, err := s.fetchAllContactCompanies(ctx, account, id)
		if err != nil {
			return err
		}
		contact["companies"] = companies
	}

	if relationHasMore(contact, "tags") {
		tags, err := s.api.ListContactTags(ctx, account.Token, id)
		if err != nil {
			return err
		}
		contact["tags"] = models.Record{"data": anySlice(tags.Data)}
	}
	return nil
}

// fetchAllContactCompanies pages through the whole companies relation of
// one contact.
func (s *Service) fetchAllContactCompanies(ctx context.Context, account models.Account, id string) (models.Record, error) {
	var companies []models.Record
	for page, hasNext := 1, true; hasNext; page++ {
		res, err := s.api.FetchContactCompanies(ctx, account.Token, id, contactCompaniesPerPage, page)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch companies of contact %s: %w", id, err)
		}
		companies = append(companies, res.Data...)
		hasNext = res.Pages.Next != nil
		s.logger.Info("fetched companies of contact",
			"contact", id, "page", res.Pages.Page, "total_pages", res.Pages.TotalPages)
	}
	return models.Record{"data": anySlice(companies), "has_more": false}, nil
}

func relationHasMore(item models.Record, relation string) bool {
	obj, ok := item[relation].(map[string]any)
	if !ok {
		return false
	}
	hasMore, _ := obj["has_more"].(bool)
	return hasMore
}

func anySlice(records []models.Record) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = map[string]any(r)
	}
	return out
}
