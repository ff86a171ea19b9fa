package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"relaychat/domain"
)

type messageRequest struct {
	Content string   `json:"content"`
	Images  []string `json:"images"`
}

// messageWithRemoved is the edit response: the removed-image set lets
// the caller release blobs that no longer back any message.
type messageWithRemoved struct {
	Message       domain.Message `json:"message"`
	RemovedImages []string       `json:"removedImages,omitempty"`
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	msg, err := s.engine.CreateMessage(chi.URLParam(r, "channelID"), s.currentUser(r).ID, req.Content, req.Images)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, msg)
}

func (s *Server) handleListChannelMessages(w http.ResponseWriter, r *http.Request) {
	limit, beforeID := pageParams(r)
	messages, err := s.engine.ListChannelMessages(chi.URLParam(r, "channelID"), limit, beforeID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, messages)
}

func (s *Server) handleUpdateMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	msg, removed, err := s.engine.UpdateMessage(chi.URLParam(r, "messageID"), s.currentUser(r).ID, req.Content, req.Images)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, messageWithRemoved{Message: msg, RemovedImages: removed})
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteMessage(chi.URLParam(r, "messageID"), s.currentUser(r).ID); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleCreateThreadReply(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	reply, err := s.engine.CreateThreadReply(chi.URLParam(r, "messageID"), s.currentUser(r).ID, req.Content, req.Images)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, reply)
}

func (s *Server) handleListThreadReplies(w http.ResponseWriter, r *http.Request) {
	limit, beforeID := pageParams(r)
	replies, err := s.engine.ListThreadReplies(chi.URLParam(r, "messageID"), limit, beforeID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, replies)
}

func (s *Server) handleAddReaction(w http.ResponseWriter, r *http.Request) {
	msg, err := s.engine.AddReaction(chi.URLParam(r, "messageID"), s.currentUser(r).ID, chi.URLParam(r, "reaction"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, msg)
}

func (s *Server) handleRemoveReaction(w http.ResponseWriter, r *http.Request) {
	msg, err := s.engine.RemoveReaction(chi.URLParam(r, "messageID"), s.currentUser(r).ID, chi.URLParam(r, "reaction"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, msg)
}
