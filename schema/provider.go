// ABOUTME: Schema provider merging static catalogs with workspace data attributes
// ABOUTME: Attribute lists are fetched through the single-flight cache with a 6h TTL
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tylercowie/intercomconnector/cache"
	"github.com/tylercowie/intercomconnector/intercom"
	"github.com/tylercowie/intercomconnector/models"
)

// AttributeTTL bounds how long a workspace's attribute list is cached.
const AttributeTTL = 6 * time.Hour

// AttributeLister is the part of the Intercom client the provider needs.
type AttributeLister interface {
	ListAttributes(ctx context.Context, token, model string) (*intercom.AttributesResponse, error)
}

// Provider builds per-source schemas for an account.
type Provider struct {
	api   AttributeLister
	cache *cache.Cache
}

func NewProvider(api AttributeLister, c *cache.Cache) *Provider {
	return &Provider{api: api, cache: c}
}

// GetSchema merges the static catalog for source with the workspace's
// dynamic attributes. Field order is deterministic: static fields first in
// catalog order, newly discovered attributes appended in upstream order.
func (p *Provider) GetSchema(ctx context.Context, source models.SourceType, account models.Account) (*Schema, error) {
	static, ok := catalogs[source]
	if !ok {
		return nil, models.BadRequest("Schema is not defined for %s", source)
	}

	attrs, err := p.fetchAttributes(ctx, source, account)
	if err != nil {
		return nil, err
	}

	fields := make([]Field, len(static))
	copy(fields, static)
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		index[f.ID] = i
	}

	for _, attr := range attrs {
		staticIdx, isStatic := index[attr.FullName]
		if !attr.Custom && !isStatic {
			continue
		}

		var field Field
		if isStatic {
			// Statically typed fields win on type conflicts; the upstream
			// label and description still apply.
			field = Field{
				ID:      attr.FullName,
				Type:    fields[staticIdx].Type,
				SubType: fields[staticIdx].SubType,
			}
		} else {
			mapped, known := typeMapping[attr.DataType]
			if !known {
				continue
			}
			field = Field{ID: attr.FullName, Type: mapped.Type, SubType: mapped.SubType}
		}
		field.Name = attr.Label
		field.Description = attr.Description

		if isStatic {
			fields[staticIdx] = field
		} else {
			index[attr.FullName] = len(fields)
			fields = append(fields, field)
		}
	}

	for i := range fields {
		fields[i].Order = i
		fields[i].Name = escapeName(firstNonEmpty(fields[i].Name, fields[i].ID))
	}

	return &Schema{Fields: fields}, nil
}

// GetSyncSchema builds the schema for every requested source type
// concurrently.
func (p *Provider) GetSyncSchema(ctx context.Context, types []models.SourceType, account models.Account) (map[models.SourceType]*Schema, error) {
	schemas := make([]*Schema, len(types))
	g, gctx := errgroup.WithContext(ctx)
	for i, source := range types {
		g.Go(func() error {
			s, err := p.GetSchema(gctx, source, account)
			if err != nil {
				return err
			}
			schemas[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(map[models.SourceType]*Schema, len(types))
	for i, source := range types {
		result[source] = schemas[i]
	}
	return result, nil
}

// fetchAttributes resolves the dynamic attribute list for source through
// the cache. Sources without dynamic attributes skip network I/O entirely.
func (p *Provider) fetchAttributes(ctx context.Context, source models.SourceType, account models.Account) ([]intercom.Attribute, error) {
	model, ok := attributeModels[source]
	if !ok {
		return nil, nil
	}

	key := cache.Key(fmt.Sprintf("%s-%s", model, account.Token))
	raw, err := p.cache.EnsureValue(key, AttributeTTL, func() ([]byte, error) {
		res, err := p.api.ListAttributes(ctx, account.Token, model)
		if err != nil {
			return nil, err
		}
		return json.Marshal(res)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s attributes: %w", model, err)
	}

	var res intercom.AttributesResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("failed to decode cached %s attributes: %w", model, err)
	}
	return res.Data, nil
}

// escapeName rewrites raw attribute names for display: underscores become
// spaces and dots become hashes.
func escapeName(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ReplaceAll(name, ".", "#")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
