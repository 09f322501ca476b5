// ABOUTME: Sync service wiring pagination fetchers, schemas, and formatting
// ABOUTME: One fetcher per source type; callers drive pagination or stream everything
package sync

import (
	"context"
	"log/slog"

	"github.com/tylercowie/intercomconnector/intercom"
	"github.com/tylercowie/intercomconnector/models"
	"github.com/tylercowie/intercomconnector/schema"
)

// Request carries the inputs of one page fetch for any source type.
type Request struct {
	Account            models.Account
	Filter             models.Filter
	Pagination         models.Pagination
	LastSynchronizedAt string
}

type fetchFunc func(ctx context.Context, req Request) (*models.SyncPage, error)

// Service fetches, enriches, and formats source data.
type Service struct {
	api       *intercom.Client
	schemas   *schema.Provider
	publicURL string
	logger    *slog.Logger
	fetchers  map[models.SourceType]fetchFunc
}

// NewService builds a Service. publicURL is the externally reachable base
// used when rewriting expiring conversation image URLs.
func NewService(api *intercom.Client, schemas *schema.Provider, publicURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{api: api, schemas: schemas, publicURL: publicURL, logger: logger}
	s.fetchers = map[models.SourceType]fetchFunc{
		models.SourceContacts:      s.fetchContacts,
		models.SourceCompanies:     s.fetchCompanies,
		models.SourceConversations: s.fetchConversations,
		models.SourceTags:          s.fetchTags,
		models.SourceAdmins:        s.fetchAdmins,
	}
	return s
}

func syncKind(lastSynchronizedAt string) string {
	if lastSynchronizedAt != "" {
		return models.SyncDelta
	}
	return models.SyncFull
}
