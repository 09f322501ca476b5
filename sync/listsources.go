// ABOUTME: Tags and admins fetchers: single full-list endpoints without pagination
// ABOUTME: These sources always produce a full synchronization
package sync

import (
	"context"

	"github.com/tylercowie/intercomconnector/models"
)

func (s *Service) fetchTags(ctx context.Context, req Request) (*models.SyncPage, error) {
	res, err := s.api.ListTags(ctx, req.Account.Token)
	if err != nil {
		return nil, err
	}

	s.logger.Info("fetched tags", "count", len(res.Data))

	return &models.SyncPage{
		Items:               res.Data,
		Pagination:          models.PageInfo{HasNext: false},
		SynchronizationType: models.SyncFull,
	}, nil
}

func (s *Service) fetchAdmins(ctx context.Context, req Request) (*models.SyncPage, error) {
	res, err := s.api.ListAdmins(ctx, req.Account.Token)
	if err != nil {
		return nil, err
	}

	s.logger.Info("fetched admins", "count", len(res.Admins))

	return &models.SyncPage{
		Items:               res.Admins,
		Pagination:          models.PageInfo{HasNext: false},
		SynchronizationType: models.SyncFull,
	}, nil
}
