// ABOUTME: Public conversation image proxy for rewritten expiring CDN links
// ABOUTME: Resolves the workspace token by accountId before fetching upstream
package handlers

import (
	"io"
	"net/http"

	"github.com/tylercowie/intercomconnector/models"
)

func (s *Server) handleConversationImage(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("accountId")
	if accountID == "" {
		s.writeError(w, models.BadRequest("accountId is required"))
		return
	}

	account, err := s.accounts.FindByID(r.Context(), accountID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if account == nil {
		s.writeError(w, models.NotFound("Account not found"))
		return
	}

	body, err := s.data.ConversationImage(r.Context(), *account, r.PathValue("id"), r.PathValue("partId"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer body.Close()

	_, _ = io.Copy(w, body)
}
