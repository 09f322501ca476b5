// ABOUTME: HTTP server wiring for every connector route
// ABOUTME: Maps service errors to JSON error responses with proper statuses
package handlers

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tylercowie/intercomconnector/config"
	"github.com/tylercowie/intercomconnector/db"
	"github.com/tylercowie/intercomconnector/intercom"
	"github.com/tylercowie/intercomconnector/models"
	"github.com/tylercowie/intercomconnector/oauth"
	"github.com/tylercowie/intercomconnector/schema"
	syncdata "github.com/tylercowie/intercomconnector/sync"
	"github.com/tylercowie/intercomconnector/webhooks"
)

type Server struct {
	cfg      *config.Config
	logger   *slog.Logger
	started  time.Time
	database *sql.DB

	api      *intercom.Client
	data     *syncdata.Service
	schemas  *schema.Provider
	webhooks *webhooks.Service
	oauth    *oauth.Flow
	accounts *db.AccountStore
}

func NewServer(cfg *config.Config, logger *slog.Logger, database *sql.DB, api *intercom.Client, data *syncdata.Service, schemas *schema.Provider, hooks *webhooks.Service, flow *oauth.Flow, accounts *db.AccountStore) *Server {
	return &Server{
		cfg:      cfg,
		logger:   logger,
		started:  time.Now(),
		database: database,
		api:      api,
		data:     data,
		schemas:  schemas,
		webhooks: hooks,
		oauth:    flow,
		accounts: accounts,
	}
}

// Routes builds the full route table.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleConnectorConfig)
	mux.HandleFunc("POST /{$}", s.handleStream)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /datalist", s.handleDatalist)
	mux.HandleFunc("POST /validate", s.handleValidate)
	mux.HandleFunc("POST /validate/filter", s.handleValidateFilter)
	mux.HandleFunc("POST /schema", s.handleSchema)

	mux.HandleFunc("POST /api/v1/synchronizer/config", s.handleSyncConfig)
	mux.HandleFunc("POST /api/v1/synchronizer/schema", s.handleSyncSchema)
	mux.HandleFunc("POST /api/v1/synchronizer/data", s.handleSyncData)
	mux.HandleFunc("POST /api/v1/synchronizer/datalist", s.handleSyncDatalist)
	mux.HandleFunc("POST /api/v1/synchronizer/webhooks", s.handleWebhookSetup)
	mux.HandleFunc("DELETE /api/v1/synchronizer/webhooks", s.handleWebhookDelete)
	mux.HandleFunc("POST /api/v1/synchronizer/webhooks/verify", s.handleWebhookVerify)
	mux.HandleFunc("POST /api/v1/synchronizer/webhooks/transform", s.handleWebhookTransform)
	mux.HandleFunc("POST /api/v1/synchronizer/webhooks/income", s.handleWebhookIncome)
	mux.HandleFunc("POST /api/v1/synchronizer/resource", s.handleResource)

	mux.HandleFunc("POST /oauth2/v1/authorize", s.handleAuthorize)
	mux.HandleFunc("POST /oauth2/v1/access_token", s.handleAccessToken)

	mux.HandleFunc("GET /api/v1/conversation/{id}/img", s.handleConversationImage)
	mux.HandleFunc("GET /api/v1/conversation/{id}/{partId}/img", s.handleConversationImage)

	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

type errorResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// writeError maps any error to its HTTP status. Client errors are logged as
// warnings, server errors as errors.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	transformed := intercom.TransformError(err)
	status := models.ErrorStatus(transformed)
	message := models.ErrorMessage(transformed)

	if status < http.StatusInternalServerError {
		s.logger.Warn("client error", "status", status, "message", message)
	} else {
		s.logger.Error("server error", "status", status, "message", message)
	}

	writeJSON(w, status, errorResponse{Message: message, Status: status})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, out any) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return models.BadRequest("Invalid request body")
	}
	return nil
}
