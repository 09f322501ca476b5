// ABOUTME: Synchronizer endpoints: config, schema, data pages, webhooks, resources
// ABOUTME: Also serves the legacy streaming import route at POST /
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/tylercowie/intercomconnector/models"
	syncdata "github.com/tylercowie/intercomconnector/sync"
	"github.com/tylercowie/intercomconnector/webhooks"
)

func (s *Server) handleSyncConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"webhooks": map[string]bool{"enabled": true},
		"types": []models.SourceInfo{
			models.Sources[models.SourceConversations],
			models.Sources[models.SourceContacts],
			models.Sources[models.SourceCompanies],
			models.Sources[models.SourceTags],
			models.Sources[models.SourceAdmins],
		},
		"filters": []filterInfo{filterWithDefault(models.FilterFieldUpdatedAt)},
	})
}

type schemaRequest struct {
	Source  models.SourceType `json:"source"`
	Account models.Account    `json:"account"`
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	var req schemaRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	schema, err := s.schemas.GetSchema(r.Context(), req.Source, req.Account)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

type syncSchemaRequest struct {
	Types   []models.SourceType `json:"types"`
	Account models.Account      `json:"account"`
}

func (s *Server) handleSyncSchema(w http.ResponseWriter, r *http.Request) {
	var req syncSchemaRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	schemas, err := s.schemas.GetSyncSchema(r.Context(), req.Types, req.Account)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schemas)
}

func (s *Server) handleSyncData(w http.ResponseWriter, r *http.Request) {
	var req syncdata.SyncDataRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	page, err := s.data.GetSyncData(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleStream serves whole-source imports as one streamed JSON array.
// Failures mid-stream surface as a __streamError element because the
// response status is already committed.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	var req syncdata.StreamRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	flusher, _ := w.(http.Flusher)
	encoder := json.NewEncoder(w)
	started := false

	// The array opener is deferred until the first record so errors that
	// happen before anything streams can still be proper error responses.
	err := s.data.StreamData(r.Context(), req, func(record models.Record) error {
		delim := ","
		if !started {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			started = true
			delim = "["
		}
		if _, err := io.WriteString(w, delim); err != nil {
			return err
		}
		if err := encoder.Encode(record); err != nil {
			return err
		}
		if flusher != nil {
			flusher.Flush()
		}
		return nil
	})
	if err != nil {
		if !started {
			s.writeError(w, err)
			return
		}
		s.logger.Error("stream aborted", "source", req.Source, "error", err)
	}
	if !started {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = io.WriteString(w, "[")
	}
	_, _ = io.WriteString(w, "]")
}

func (s *Server) handleWebhookSetup(w http.ResponseWriter, r *http.Request) {
	var req webhooks.SetupRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	registration, err := s.webhooks.Setup(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, registration)
}

type webhookDeleteRequest struct {
	Webhook *models.WebhookRegistration `json:"webhook"`
}

func (s *Server) handleWebhookDelete(w http.ResponseWriter, r *http.Request) {
	var req webhookDeleteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.webhooks.Delete(r.Context(), req.Webhook); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type webhookVerifyRequest struct {
	Payload webhooks.Event `json:"payload"`
}

// handleWebhookVerify confirms a relayed payload came from this connector.
// The signature itself was checked on the income route; this echoes the
// workspace the payload belongs to.
func (s *Server) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	var req webhookVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": req.Payload.AppID})
}

func (s *Server) handleWebhookTransform(w http.ResponseWriter, r *http.Request) {
	var req webhooks.TransformRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	resp, err := s.webhooks.Transform(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleWebhookIncome accepts Intercom notifications. The signature covers
// the raw body, so it has to be read before decoding.
func (s *Server) handleWebhookIncome(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	signature := r.Header.Get("X-Hub-Signature")
	if err := webhooks.VerifySignature(rawBody, []byte(s.cfg.OAuthClientSecret), signature); err != nil {
		s.writeError(w, err)
		return
	}

	var event webhooks.Event
	if err := json.Unmarshal(rawBody, &event); err != nil {
		s.writeError(w, models.BadRequest("Invalid request body"))
		return
	}

	resp, err := s.webhooks.HandleIncoming(r.Context(), event, rawBody, signature)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type resourceRequest struct {
	Account models.Account          `json:"account"`
	Params  syncdata.ResourceParams `json:"params"`
}

func (s *Server) handleResource(w http.ResponseWriter, r *http.Request) {
	var req resourceRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	body, err := s.data.Resource(r.Context(), req.Account, req.Params)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = io.Copy(w, body)
}
