// ABOUTME: Delta builders turning webhook event items into output records
// ABOUTME: Refetch builders hit the API; patch builders derive records from the payload alone
package webhooks

import (
	"context"
	"log/slog"

	"github.com/tylercowie/intercomconnector/intercom"
	"github.com/tylercowie/intercomconnector/models"
	"github.com/tylercowie/intercomconnector/schema"
	syncdata "github.com/tylercowie/intercomconnector/sync"
)

// eventHandler builds deltas for one account's events.
type eventHandler struct {
	api     *intercom.Client
	data    *syncdata.Service
	schemas *schema.Provider
	account models.Account
	logger  *slog.Logger
}

// build dispatches one routed entry against the event item.
func (h *eventHandler) build(ctx context.Context, entry topicEntry, item models.Record) ([]models.Record, error) {
	switch entry.kind {
	case buildConversation:
		return h.conversationDelta(ctx, stringAt(item, entry.idPath))
	case buildConversationState:
		state, _ := schema.LookupPath(item, "state").(string)
		return patch(models.Record{
			"id":                   stringAt(item, entry.idPath),
			"state":                state,
			models.SyncActionField: models.SyncActionSet,
		}), nil
	case buildTagsIDs:
		return patch(models.Record{
			"id":                   stringAt(item, entry.idPath),
			"tagsIds":              tagIDs(tagList(item, entry.tagsPath)),
			models.SyncActionField: models.SyncActionSet,
		}), nil
	case buildNewTags:
		return h.newTagsDelta(ctx, tagList(item, entry.tagsPath))
	case buildCompany:
		return h.companyDelta(ctx, stringAt(item, entry.idPath))
	case buildContact:
		records, err := h.contactDelta(ctx, stringAt(item, entry.idPath))
		if err != nil && entry.swallowErrors {
			h.logger.Error("skipping contact delta error", "error", err, "item", item)
			return []models.Record{}, nil
		}
		return records, err
	case buildEmail:
		email, _ := schema.LookupPath(item, "email").(string)
		return patch(models.Record{
			"id":                   stringAt(item, entry.idPath),
			"email":                email,
			models.SyncActionField: models.SyncActionSet,
		}), nil
	case buildRemove:
		return patch(models.Record{
			"id":                   stringAt(item, entry.idPath),
			models.SyncActionField: models.SyncActionRemove,
		}), nil
	}
	return nil, nil
}

func (h *eventHandler) conversationDelta(ctx context.Context, id string) ([]models.Record, error) {
	sch, err := h.schemas.GetSchema(ctx, models.SourceConversations, h.account)
	if err != nil {
		return nil, err
	}
	conversation, err := h.data.DetailedConversation(ctx, h.account, id)
	if err != nil {
		return nil, err
	}
	record, err := syncdata.FormatItem(sch, h.account, conversation)
	if err != nil {
		return nil, err
	}
	return []models.Record{record}, nil
}

func (h *eventHandler) companyDelta(ctx context.Context, id string) ([]models.Record, error) {
	sch, err := h.schemas.GetSchema(ctx, models.SourceCompanies, h.account)
	if err != nil {
		return nil, err
	}
	company, err := h.api.FetchCompany(ctx, h.account.Token, id)
	if err != nil {
		return nil, err
	}
	record, err := syncdata.FormatItem(sch, h.account, company)
	if err != nil {
		return nil, err
	}
	return []models.Record{record}, nil
}

func (h *eventHandler) contactDelta(ctx context.Context, id string) ([]models.Record, error) {
	sch, err := h.schemas.GetSchema(ctx, models.SourceContacts, h.account)
	if err != nil {
		return nil, err
	}
	contact, err := h.data.ContactWithRelations(ctx, h.account, id)
	if err != nil {
		return nil, err
	}
	record, err := syncdata.FormatItem(sch, h.account, contact)
	if err != nil {
		return nil, err
	}
	return []models.Record{record}, nil
}

func (h *eventHandler) newTagsDelta(ctx context.Context, tags []any) ([]models.Record, error) {
	sch, err := h.schemas.GetSchema(ctx, models.SourceTags, h.account)
	if err != nil {
		return nil, err
	}
	records := make([]models.Record, 0, len(tags))
	for _, entry := range tags {
		tag, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		record, err := syncdata.FormatItem(sch, h.account, tag)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func patch(record models.Record) []models.Record {
	return []models.Record{record}
}

func stringAt(item models.Record, path string) string {
	v, _ := schema.LookupPath(item, path).(string)
	return v
}

// tagList resolves the tag objects an entry references: either a nested
// list or the single item.tag object.
func tagList(item models.Record, path string) []any {
	if path == "" {
		if tag, ok := item["tag"].(map[string]any); ok {
			return []any{tag}
		}
		return nil
	}
	list, _ := schema.LookupPath(item, path).([]any)
	return list
}

func tagIDs(tags []any) []any {
	ids := make([]any, 0, len(tags))
	for _, entry := range tags {
		if tag, ok := entry.(map[string]any); ok {
			ids = append(ids, tag["id"])
		}
	}
	return ids
}
