// ABOUTME: Tests for connector metadata endpoints: config, datalists, validation, status
// ABOUTME: Validation runs against a stubbed /me endpoint with version headers
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tylercowie/intercomconnector/intercom"
)

func TestConnectorConfig(t *testing.T) {
	env := newTestEnv(t, "production", nil)

	res, body := env.get(t, "/")
	require.Equal(t, http.StatusOK, res.StatusCode)

	assert.Equal(t, "Intercom", body["name"])
	assert.Equal(t, "intercomapp", body["id"])
	assert.Equal(t, "crunch", body["type"])
	assert.Equal(t, "1.2.0", body["version"])

	auth, _ := body["authentication"].([]any)
	require.Len(t, auth, 1)
	first, _ := auth[0].(map[string]any)
	assert.Equal(t, "oauth2", first["id"])

	sources, _ := body["sources"].([]any)
	require.Len(t, sources, 3)
	ids := make([]string, 0, 3)
	for _, s := range sources {
		m, _ := s.(map[string]any)
		ids = append(ids, m["id"].(string))
	}
	assert.Equal(t, []string{"contacts", "companies", "conversations"}, ids)

	contacts, _ := sources[0].(map[string]any)
	filters, _ := contacts["filter"].([]any)
	var sawDefault bool
	for _, f := range filters {
		m, _ := f.(map[string]any)
		if m["id"] == "updated_at" {
			raw, _ := m["defaultValue"].(string)
			parsed, err := time.Parse(time.RFC3339, raw)
			require.NoError(t, err)
			// Roughly one month back.
			assert.WithinDuration(t, time.Now().AddDate(0, -1, 0), parsed, time.Hour)
			sawDefault = true
		}
	}
	assert.True(t, sawDefault, "contacts filters carry a default updated_at")

	responsible, _ := body["responsibleFor"].(map[string]any)
	assert.Equal(t, true, responsible["dataSynchronization"])
	assert.Equal(t, false, responsible["dataImport"])
}

func TestConnectorConfigAdvertisesTokenAuthInDevelopment(t *testing.T) {
	env := newTestEnv(t, "development", nil)

	_, body := env.get(t, "/")
	auth, _ := body["authentication"].([]any)
	require.Len(t, auth, 2)
	second, _ := auth[1].(map[string]any)
	assert.Equal(t, "token", second["id"])
}

func TestDatalist(t *testing.T) {
	env := newTestEnv(t, "production", nil)

	res, err := http.Post(env.http.URL+"/datalist?source=contacts&field=role", "application/json", nil)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var items []map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&items))
	assert.Equal(t, []map[string]string{
		{"title": "User", "value": "user"},
		{"title": "Lead", "value": "lead"},
	}, items)
}

func TestDatalistUnknownSource(t *testing.T) {
	env := newTestEnv(t, "production", nil)

	res, body := env.post(t, "/datalist?source=timezones&field=role", "")
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, "Unknown source type: timezones - role", body["message"])
}

func TestSyncDatalist(t *testing.T) {
	env := newTestEnv(t, "production", nil)

	res, body := env.post(t, "/api/v1/synchronizer/datalist", `{"types":["contacts"],"field":"role"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)

	items, _ := body["items"].([]any)
	require.Len(t, items, 2)
	first, _ := items[0].(map[string]any)
	assert.Equal(t, "user", first["value"])
}

func TestSyncDatalistEmptyForOtherSources(t *testing.T) {
	env := newTestEnv(t, "production", nil)

	res, body := env.post(t, "/api/v1/synchronizer/datalist", `{"types":["companies"],"field":"role"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)
	items, _ := body["items"].([]any)
	assert.Empty(t, items)
}

func meHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me" {
			http.NotFound(w, r)
			return
		}
		if version != "" {
			w.Header().Set("Intercom-Version", version)
		}
		me := intercom.Me{ID: "admin-1", Name: "Jane Doe", Email: "jane@acme.example"}
		me.App.Name = "Acme"
		me.App.IDCode = "app-1"
		_ = json.NewEncoder(w).Encode(me)
	}
}

func TestValidate(t *testing.T) {
	env := newTestEnv(t, "production", meHandler(intercom.APIVersion))

	res, body := env.post(t, "/validate", `{"id":"x","fields":{"token":"tok-1"}}`)
	require.Equal(t, http.StatusOK, res.StatusCode)

	assert.Equal(t, "admin-1", body["accountId"])
	assert.Equal(t, "Jane Doe (Acme)", body["name"])
	assert.Equal(t, "jane@acme.example", body["email"])
	assert.Equal(t, "app-1", body["intercomAppId"])

	// The account is remembered so public routes can resolve the token.
	stored, err := env.accounts.FindByID(context.Background(), "admin-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "tok-1", stored.Token)
	assert.Equal(t, "app-1", stored.IntercomAppID)
}

func TestValidateRejectsOtherAPIVersions(t *testing.T) {
	env := newTestEnv(t, "production", meHandler("2.5"))

	res, body := env.post(t, "/validate", `{"id":"x","fields":{"token":"tok-1"}}`)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	message, _ := body["message"].(string)
	assert.Contains(t, message, "This connector uses Intercom API 2.2")
}

func TestValidateUpstreamFailure(t *testing.T) {
	env := newTestEnv(t, "production", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"code":"token_unauthorized","message":"Access Token Invalid"}]}`, http.StatusUnauthorized)
	})

	res, body := env.post(t, "/validate", `{"id":"x","fields":{"token":"bad"}}`)
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)
	assert.Equal(t, "Access Token Invalid", body["message"])
}

func TestValidateFilter(t *testing.T) {
	env := newTestEnv(t, "production", nil)

	res, err := http.Post(env.http.URL+"/validate/filter", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, "production", nil)

	res, body := env.get(t, "/status")
	require.Equal(t, http.StatusOK, res.StatusCode)

	assert.Equal(t, "1.2.0", body["version"])
	assert.NotZero(t, body["id"])
	assert.NotEmpty(t, body["up"])

	memory, _ := body["memory"].(map[string]any)
	for _, key := range []string{"sys", "heapUsed", "heapTotal"} {
		value, _ := memory[key].(string)
		assert.Regexp(t, `^\d+ Mb$`, value)
	}
}
