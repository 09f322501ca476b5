// ABOUTME: Connector metadata endpoints: config, datalists, validation, status
// ABOUTME: Shapes match what the sync platform expects from a connector app
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/tylercowie/intercomconnector/config"
	"github.com/tylercowie/intercomconnector/intercom"
	"github.com/tylercowie/intercomconnector/models"
)

type authField struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title,omitempty"`
	Name        string `json:"name,omitempty"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional,omitempty"`
}

type authType struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Fields      []authField `json:"fields"`
}

var tokenAuth = authType{
	ID:          models.AuthToken,
	Name:        "Token Authentication",
	Description: "Provide Intercom App Token",
	Fields: []authField{
		{ID: "token", Type: "text", Description: "Intercom Token"},
		{
			ID:          "token_link",
			Type:        "link",
			Value:       "https://app.intercom.com/a/apps/_/developer-hub",
			Name:        "Click here to open Developer Hub",
			Description: "You can find your Access Token in the Configure > Authentication section in your app within the Developer Hub.",
		},
		{
			ID:          "note",
			Type:        "link",
			Optional:    true,
			Description: "Please note: realtime synchronization is not supported for token-based accounts.",
		},
	},
}

var oauthAuth = authType{
	ID:          models.AuthOAuth2,
	Name:        "OAuth Authentication",
	Description: "OAuth-based authentication and authorization for access to Intercom",
	Fields: []authField{
		{ID: "redirect_uri", Type: "oauth", Title: "redirect_uri", Description: "OAuth post-auth redirect URI"},
	},
}

type filterInfo struct {
	models.FilterField
	DefaultValue string `json:"defaultValue,omitempty"`
}

func filterWithDefault(id string) filterInfo {
	info := filterInfo{FilterField: models.Filters[id]}
	if id == models.FilterFieldUpdatedAt {
		info.DefaultValue = time.Now().UTC().AddDate(0, -1, 0).Format(time.RFC3339)
	}
	return info
}

type sourceConfig struct {
	models.SourceInfo
	Filter []filterInfo `json:"filter"`
}

func (s *Server) handleConnectorConfig(w http.ResponseWriter, r *http.Request) {
	authentication := []authType{oauthAuth}
	if s.cfg.IsDevelopment() {
		authentication = append(authentication, tokenAuth)
	}

	sources := make([]sourceConfig, 0, len(models.SourceFilters))
	for _, source := range []models.SourceType{models.SourceContacts, models.SourceCompanies, models.SourceConversations} {
		filters := make([]filterInfo, 0, len(models.SourceFilters[source]))
		for _, id := range models.SourceFilters[source] {
			filters = append(filters, filterWithDefault(id))
		}
		sources = append(sources, sourceConfig{SourceInfo: models.Sources[source], Filter: filters})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"name":           "Intercom",
		"id":             "intercomapp",
		"type":           "crunch",
		"website":        "https://www.intercom.com/",
		"version":        config.Version,
		"description":    "Get data from Intercom",
		"authentication": authentication,
		"sources":        sources,
		"responsibleFor": map[string]bool{
			"dataSynchronization": true,
			"dataImport":          false,
		},
	})
}

// datalists holds the static choice lists for filter fields.
var datalists = map[models.SourceType]map[string][]datalistItem{
	models.SourceContacts: {
		models.FilterFieldRole: {
			{Title: "User", Value: "user"},
			{Title: "Lead", Value: "lead"},
		},
	},
}

type datalistItem struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

func datalist(source models.SourceType, field string) ([]datalistItem, error) {
	if !source.Valid() {
		return nil, models.BadRequest("Unknown source type: %s - %s", source, field)
	}
	if _, ok := models.Filters[field]; !ok {
		return nil, models.BadRequest("Unknown source type: %s - %s", source, field)
	}
	items := datalists[source][field]
	if items == nil {
		items = []datalistItem{}
	}
	return items, nil
}

func (s *Server) handleDatalist(w http.ResponseWriter, r *http.Request) {
	source := models.SourceType(r.URL.Query().Get("source"))
	field := r.URL.Query().Get("field")

	items, err := datalist(source, field)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type syncDatalistRequest struct {
	Types []models.SourceType `json:"types"`
	Field string              `json:"field"`
}

func (s *Server) handleSyncDatalist(w http.ResponseWriter, r *http.Request) {
	var req syncDatalistRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	items := []datalistItem{}
	for _, source := range req.Types {
		sourceItems, err := datalist(source, req.Field)
		if err != nil {
			s.writeError(w, err)
			return
		}
		items = append(items, sourceItems...)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type validateRequest struct {
	ID     string `json:"id"`
	Fields struct {
		Token string `json:"token"`
	} `json:"fields"`
}

type validateResponse struct {
	AccountID     string `json:"accountId"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	IntercomAppID string `json:"intercomAppId"`
}

// handleValidate checks the token against the live API, pins the supported
// API version and remembers the account so public routes can resolve its
// token later.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	me, headers, err := s.api.GetMe(r.Context(), req.Fields.Token)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if headers.Get("Intercom-Version") != intercom.APIVersion {
		s.writeError(w, models.Forbidden("Oops, looks like your app uses different API version. This connector uses Intercom API %s. Please consider switching to the same version if it's an option for you. https://developers.intercom.com/building-apps/docs/update-your-api-version", intercom.APIVersion))
		return
	}

	account := models.Account{
		AccountID:     me.ID,
		Token:         req.Fields.Token,
		IntercomAppID: me.App.IDCode,
	}
	if err := s.accounts.SetByID(r.Context(), me.ID, account); err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, validateResponse{
		AccountID:     me.ID,
		Name:          fmt.Sprintf("%s (%s)", me.Name, me.App.Name),
		Email:         me.Email,
		IntercomAppID: me.App.IDCode,
	})
}

func (s *Server) handleValidateFilter(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
	defer cancel()
	if err := s.database.PingContext(ctx); err != nil {
		s.logger.Error("database status check failed", "error", err)
		s.writeError(w, err)
		return
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	writeJSON(w, http.StatusOK, map[string]any{
		"id":      os.Getpid(),
		"up":      time.Since(s.started).Round(time.Second).String(),
		"version": config.Version,
		"memory": map[string]string{
			"sys":       mbSize(mem.Sys),
			"heapUsed":  mbSize(mem.HeapInuse),
			"heapTotal": mbSize(mem.HeapSys),
		},
	})
}

func mbSize(n uint64) string {
	return fmt.Sprintf("%d Mb", n/1024/1024)
}
