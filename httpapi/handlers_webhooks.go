package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "relaychat/errors"
)

type webhookRequest struct {
	Name string `json:"name" validate:"required"`
}

func (s *Server) handleCreateWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	webhook, err := s.engine.CreateWebhook(chi.URLParam(r, "channelID"), req.Name, s.currentUser(r).ID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	// The only response that ever carries the bearer token.
	s.respond(w, http.StatusCreated, webhook)
}

func (s *Server) handleListWebhooks(w http.ResponseWriter, r *http.Request) {
	webhooks, err := s.engine.ListWebhooks(chi.URLParam(r, "channelID"), s.currentUser(r).ID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, webhooks)
}

func (s *Server) handleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteWebhook(chi.URLParam(r, "webhookID"), s.currentUser(r).ID); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusNoContent, nil)
}

// handleWebhookMessage posts a bot message authenticated by the
// webhook's bearer token; no user session is involved.
func (s *Server) handleWebhookMessage(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		s.respondError(w, fmt.Errorf("missing webhook token: %w", apperrors.ErrInvalidToken))
		return
	}
	var req messageRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	msg, err := s.engine.CreateWebhookMessage(token, req.Content, req.Images)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, msg)
}
