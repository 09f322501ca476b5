// ABOUTME: OAuth endpoints: authorize URL generation and code exchange
package handlers

import (
	"net/http"
)

type authorizeRequest struct {
	State string `json:"state"`
}

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	var req authorizeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"redirect_uri": s.oauth.AuthorizeURL(req.State),
	})
}

type accessTokenRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleAccessToken(w http.ResponseWriter, r *http.Request) {
	var req accessTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	token, err := s.oauth.Exchange(r.Context(), req.Code)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}
