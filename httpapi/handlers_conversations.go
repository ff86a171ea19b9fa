package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type conversationRequest struct {
	UserID string `json:"userId" validate:"required"`
}

type conversationResponse struct {
	Conversation any  `json:"conversation"`
	IsNew        bool `json:"isNew"`
}

func (s *Server) handleGetOrCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req conversationRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	conv, isNew, err := s.engine.GetOrCreateConversation(s.currentUser(r).ID, req.UserID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	s.respond(w, status, conversationResponse{Conversation: conv, IsNew: isNew})
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := s.engine.ListUserConversations(s.currentUser(r).ID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, conversations)
}

func (s *Server) handleCreateDirectMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	msg, err := s.engine.CreateDirectMessage(chi.URLParam(r, "conversationID"), s.currentUser(r).ID, req.Content, req.Images)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, msg)
}

func (s *Server) handleListConversationMessages(w http.ResponseWriter, r *http.Request) {
	limit, beforeID := pageParams(r)
	messages, err := s.engine.ListConversationMessages(chi.URLParam(r, "conversationID"), s.currentUser(r).ID, limit, beforeID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, messages)
}

func (s *Server) handleUpdateDirectMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	msg, removed, err := s.engine.UpdateDirectMessage(chi.URLParam(r, "messageID"), s.currentUser(r).ID, req.Content, req.Images)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, messageWithRemoved{Message: msg, RemovedImages: removed})
}

func (s *Server) handleDeleteDirectMessage(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteDirectMessage(chi.URLParam(r, "messageID"), s.currentUser(r).ID); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusNoContent, nil)
}
