// ABOUTME: Tests for the sync service against a stubbed Intercom API
// ABOUTME: Covers pagination, delta filtering, relation completion, and streaming
package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tylercowie/intercomconnector/cache"
	"github.com/tylercowie/intercomconnector/intercom"
	"github.com/tylercowie/intercomconnector/models"
	"github.com/tylercowie/intercomconnector/schema"
)

type stubStore struct {
	mu     sync.Mutex
	values map[string][]byte
}

func (s *stubStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	return nil, cache.ErrNotFound
}

func (s *stubStore) Set(key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *stubStore) Flush() error { return nil }
func (s *stubStore) Close() error { return nil }

type upstream struct {
	mu       sync.Mutex
	requests []string
	handler  http.HandlerFunc
	server   *httptest.Server
}

func (u *upstream) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.requests)
}

// newTestService builds a Service talking to an httptest stub. The handler
// only sees non-attribute requests; data_attributes is answered empty.
func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *upstream) {
	t.Helper()
	u := &upstream{handler: handler}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/data_attributes" {
			_ = json.NewEncoder(w).Encode(intercom.AttributesResponse{})
			return
		}
		u.mu.Lock()
		u.requests = append(u.requests, r.Method+" "+r.URL.Path)
		u.mu.Unlock()
		u.handler(w, r)
	}))
	t.Cleanup(server.Close)
	u.server = server

	api := intercom.NewClient(intercom.ClientOptions{BaseURL: server.URL, MaxRetries: 1})
	provider := schema.NewProvider(api, cache.New(&stubStore{values: map[string][]byte{}}, nil))
	return NewService(api, provider, "http://127.0.0.1:3700", nil), u
}

func testAccount() models.Account {
	return models.Account{AccountID: "a1", Token: "tok", IntercomAppID: "app1"}
}

func TestGetSyncDataUnknownType(t *testing.T) {
	service, u := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected upstream request: %s", r.URL.Path)
	})

	_, err := service.GetSyncData(context.Background(), SyncDataRequest{
		RequestedType: "timezones",
		Account:       testAccount(),
	})
	require.Error(t, err)
	assert.Equal(t, 400, models.ErrorStatus(err))
	assert.Contains(t, err.Error(), "Unknown type: [timezones]")
	assert.Equal(t, 0, u.count())
}

func TestCompaniesScrollPagination(t *testing.T) {
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/companies/scroll", r.URL.Path)
		switch r.URL.Query().Get("scroll_param") {
		case "":
			_ = json.NewEncoder(w).Encode(intercom.ScrollResponse{
				ScrollParam: "s1",
				Data: []models.Record{
					{"id": "co1", "name": "One", "updated_at": float64(1615766400)},
					{"id": "co2", "name": "Two", "updated_at": float64(1615766401)},
				},
			})
		case "s1":
			_ = json.NewEncoder(w).Encode(intercom.ScrollResponse{ScrollParam: "s1"})
		default:
			t.Errorf("unexpected scroll param %q", r.URL.Query().Get("scroll_param"))
		}
	})

	page, err := service.GetSyncData(context.Background(), SyncDataRequest{
		RequestedType: models.SourceCompanies,
		Account:       testAccount(),
	})
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, models.SyncFull, page.SynchronizationType)
	assert.Equal(t, models.SyncActionSet, page.Items[0][models.SyncActionField])
	assert.Equal(t, "2021-03-15T00:00:00.000Z", page.Items[0]["updated_at"])
	require.True(t, page.Pagination.HasNext)
	require.NotNil(t, page.Pagination.NextPageConfig)
	assert.Equal(t, "s1", page.Pagination.NextPageConfig.ScrollParam)

	// The empty page ends the scroll without a continuation cursor.
	last, err := service.GetSyncData(context.Background(), SyncDataRequest{
		RequestedType: models.SourceCompanies,
		Account:       testAccount(),
		Pagination:    models.Pagination{ScrollParam: "s1"},
	})
	require.NoError(t, err)
	assert.Empty(t, last.Items)
	assert.False(t, last.Pagination.HasNext)
	assert.Nil(t, last.Pagination.NextPageConfig)
}

func TestCompaniesDeltaFiltersStaleItems(t *testing.T) {
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(intercom.ScrollResponse{
			ScrollParam: "s1",
			Data: []models.Record{
				{"id": "fresh", "updated_at": float64(1615770000)},
				{"id": "stale", "updated_at": float64(1615000000)},
			},
		})
	})

	// Checkpoint 2021-03-15T06:00:00Z minus the six hour window leaves a
	// bound of 2021-03-15T00:00:00Z (1615766400).
	page, err := service.GetSyncData(context.Background(), SyncDataRequest{
		RequestedType:      models.SourceCompanies,
		Account:            testAccount(),
		LastSynchronizedAt: "2021-03-15T06:00:00Z",
	})
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, "fresh", page.Items[0]["id"])
	assert.Equal(t, models.SyncDelta, page.SynchronizationType)
	// Dropping stale items must not end the scroll early.
	assert.True(t, page.Pagination.HasNext)
}

func TestContactsRelationCompletion(t *testing.T) {
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/contacts/search":
			_ = json.NewEncoder(w).Encode(intercom.ContactsSearchResponse{
				Data: []models.Record{{
					"id":   "c1",
					"name": "Alice",
					"companies": map[string]any{
						"has_more": true,
						"data":     []any{map[string]any{"id": "co1"}},
					},
					"tags": map[string]any{
						"has_more": false,
						"data":     []any{map[string]any{"id": "t1"}},
					},
				}},
				Pages: intercom.Pages{Page: 1, TotalPages: 1},
			})
		case "/contacts/c1/companies":
			if r.URL.Query().Get("page") == "2" {
				_ = json.NewEncoder(w).Encode(intercom.ContactCompaniesResponse{
					Data:  []models.Record{{"id": "co3"}},
					Pages: intercom.Pages{Page: 2, TotalPages: 2},
				})
				return
			}
			_ = json.NewEncoder(w).Encode(intercom.ContactCompaniesResponse{
				Data:  []models.Record{{"id": "co1"}, {"id": "co2"}},
				Pages: intercom.Pages{Page: 1, TotalPages: 2, Next: &intercom.PageCursor{Page: 2}},
			})
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	})

	page, err := service.GetSyncData(context.Background(), SyncDataRequest{
		RequestedType: models.SourceContacts,
		Account:       testAccount(),
	})
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	record := page.Items[0]
	assert.Equal(t, []any{"co1", "co2", "co3"}, record["companiesIds"])
	assert.Equal(t, []any{"t1"}, record["tagsIds"])
	assert.False(t, page.Pagination.HasNext)
	assert.Nil(t, page.Pagination.NextPageConfig)
}

func TestContactsPagination(t *testing.T) {
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req intercom.SearchRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotNil(t, req.Query, "search must always carry a filter query")

		_ = json.NewEncoder(w).Encode(intercom.ContactsSearchResponse{
			Data:  []models.Record{{"id": "c1", "name": "Alice"}},
			Pages: intercom.Pages{Page: 1, TotalPages: 3, Next: &intercom.PageCursor{StartingAfter: "cursor-2"}},
		})
	})

	page, err := service.GetSyncData(context.Background(), SyncDataRequest{
		RequestedType: models.SourceContacts,
		Account:       testAccount(),
		Filter:        models.Filter{Role: []string{"user"}},
	})
	require.NoError(t, err)

	require.True(t, page.Pagination.HasNext)
	require.NotNil(t, page.Pagination.NextPageConfig)
	assert.Equal(t, "cursor-2", page.Pagination.NextPageConfig.StartingAfter)
}

func TestTagsAlwaysFullSync(t *testing.T) {
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tags", r.URL.Path)
		_ = json.NewEncoder(w).Encode(intercom.TagsResponse{
			Data: []models.Record{{"id": "t1", "name": "vip"}},
		})
	})

	page, err := service.GetSyncData(context.Background(), SyncDataRequest{
		RequestedType:      models.SourceTags,
		Account:            testAccount(),
		LastSynchronizedAt: "2021-03-15T06:00:00Z",
	})
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, models.SyncFull, page.SynchronizationType)
	assert.False(t, page.Pagination.HasNext)
	// Tag records carry no sync action envelope.
	assert.NotContains(t, page.Items[0], models.SyncActionField)
}

func TestStreamDataWalksAllPages(t *testing.T) {
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("scroll_param") {
		case "":
			_ = json.NewEncoder(w).Encode(intercom.ScrollResponse{
				ScrollParam: "s1",
				Data:        []models.Record{{"id": "co1"}, {"id": "co2"}},
			})
		default:
			_ = json.NewEncoder(w).Encode(intercom.ScrollResponse{ScrollParam: "s1"})
		}
	})

	var records []models.Record
	err := service.StreamData(context.Background(), StreamRequest{
		Source:  models.SourceCompanies,
		Account: testAccount(),
	}, func(record models.Record) error {
		records = append(records, record)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "co1", records[0]["id"])
	assert.Equal(t, models.SyncActionSet, records[0][models.SyncActionField])
}

func TestStreamDataEmitsSentinelOnFailure(t *testing.T) {
	var calls int
	service, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_ = json.NewEncoder(w).Encode(intercom.ScrollResponse{
				ScrollParam: "s1",
				Data:        []models.Record{{"id": "co1"}},
			})
			return
		}
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":[{"code":"token_revoked","message":"Access token revoked"}]}`))
	})

	var records []models.Record
	err := service.StreamData(context.Background(), StreamRequest{
		Source:  models.SourceCompanies,
		Account: testAccount(),
	}, func(record models.Record) error {
		records = append(records, record)
		return nil
	})
	require.NoError(t, err, "mid-stream failures are reported in-band")

	require.Len(t, records, 2)
	sentinel, ok := records[1]["__streamError"].(map[string]any)
	require.True(t, ok, "last record should be the error sentinel")
	assert.Equal(t, "Access token revoked", sentinel["message"])
	assert.Equal(t, 403, sentinel["code"])
}

func TestStreamDataUnknownSource(t *testing.T) {
	service, u := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})

	err := service.StreamData(context.Background(), StreamRequest{Source: "nope", Account: testAccount()}, func(models.Record) error {
		t.Error("no records expected")
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 400, models.ErrorStatus(err))
	assert.Equal(t, 0, u.count())
}
