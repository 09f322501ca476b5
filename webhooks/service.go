// ABOUTME: Webhook service: consumer registration lifecycle and inbound fan-out
// ABOUTME: Inbound notifications are acknowledged immediately and relayed async
package webhooks

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/tylercowie/intercomconnector/intercom"
	"github.com/tylercowie/intercomconnector/models"
	"github.com/tylercowie/intercomconnector/schema"
	syncdata "github.com/tylercowie/intercomconnector/sync"
)

// RegistrationStore persists webhook consumer registrations.
type RegistrationStore interface {
	FindRegistrations(ctx context.Context, appID string, types []models.SourceType) ([]models.WebhookRegistration, error)
	InsertRegistration(ctx context.Context, reg *models.WebhookRegistration) error
	UpdateRegistration(ctx context.Context, reg *models.WebhookRegistration) error
	DeleteRegistration(ctx context.Context, id uuid.UUID) error
}

// Service wires webhook registration, transformation and delivery together.
type Service struct {
	api        *intercom.Client
	data       *syncdata.Service
	schemas    *schema.Provider
	store      RegistrationStore
	dispatcher *Dispatcher
	logger     *slog.Logger
}

func NewService(api *intercom.Client, data *syncdata.Service, schemas *schema.Provider, store RegistrationStore, dispatcher *Dispatcher, logger *slog.Logger) *Service {
	return &Service{
		api:        api,
		data:       data,
		schemas:    schemas,
		store:      store,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// SetupRequest registers or refreshes a consumer endpoint. Webhook carries
// the registration from a previous setup, when one exists.
type SetupRequest struct {
	Account models.Account              `json:"account"`
	Webhook *models.WebhookRegistration `json:"webhook"`
	URL     string                      `json:"url"`
	Types   []models.SourceType         `json:"types"`
}

// Setup registers the consumer URL for the account's workspace. Deliveries
// are matched to workspaces by Intercom app id, which only OAuth accounts
// carry.
func (s *Service) Setup(ctx context.Context, req SetupRequest) (*models.WebhookRegistration, error) {
	if req.Account.Auth != models.AuthOAuth2 {
		return nil, models.BadRequest("Webhooks are available only for OAuth accounts")
	}
	appID := req.Account.IntercomAppID

	if req.Webhook == nil {
		s.logger.Info("registering webhook", "appId", appID, "types", req.Types, "url", req.URL)
		reg := models.NewWebhookRegistration(appID, req.URL, req.Types)
		if err := s.store.InsertRegistration(ctx, reg); err != nil {
			return nil, fmt.Errorf("failed to store webhook registration: %w", err)
		}
		return reg, nil
	}

	if !sameTypes(req.Webhook.Types, req.Types) {
		s.logger.Info("updating webhook", "appId", appID, "types", req.Types, "url", req.URL)
		req.Webhook.AppID = appID
		req.Webhook.URL = req.URL
		req.Webhook.Types = req.Types
		if err := s.store.UpdateRegistration(ctx, req.Webhook); err != nil {
			return nil, fmt.Errorf("failed to update webhook registration: %w", err)
		}
	}
	return req.Webhook, nil
}

// Delete removes the consumer registration.
func (s *Service) Delete(ctx context.Context, webhook *models.WebhookRegistration) error {
	if webhook == nil {
		return models.BadRequest("Webhook is missing")
	}
	if err := s.store.DeleteRegistration(ctx, webhook.ID); err != nil {
		return fmt.Errorf("failed to delete webhook registration: %w", err)
	}
	return nil
}

// IncomeResponse acknowledges an inbound Intercom notification.
type IncomeResponse struct {
	Processed bool `json:"processed"`
}

// HandleIncoming fans an Intercom notification out to every registered
// consumer interested in the topic's source types. The notification is
// acknowledged before any delivery completes.
func (s *Service) HandleIncoming(ctx context.Context, event Event, rawBody []byte, signature string) (*IncomeResponse, error) {
	sources := topicSourceTypes(event.Topic)

	registrations, err := s.store.FindRegistrations(ctx, event.AppID, sources)
	if err != nil {
		return nil, fmt.Errorf("failed to look up webhook registrations: %w", err)
	}

	s.logger.Info("webhooks to update", "count", len(registrations), "topic", event.Topic, "appId", event.AppID)
	for _, reg := range registrations {
		s.dispatcher.Enqueue(Delivery{URL: reg.URL, Body: rawBody, Signature: signature})
	}
	return &IncomeResponse{Processed: true}, nil
}

func sameTypes(a, b []models.SourceType) bool {
	if len(a) != len(b) {
		return false
	}
	as := make([]string, len(a))
	bs := make([]string, len(b))
	for i := range a {
		as[i] = string(a[i])
		bs[i] = string(b[i])
	}
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
