package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type channelRequest struct {
	Name string `json:"name" validate:"required"`
}

func (s *Server) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	channel, err := s.engine.CreateChannel(req.Name, s.currentUser(r).ID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, channel)
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.engine.ListChannels()
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, channels)
}

func (s *Server) handleGetChannel(w http.ResponseWriter, r *http.Request) {
	channel, err := s.engine.GetChannel(chi.URLParam(r, "channelID"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, channel)
}

func (s *Server) handleUpdateChannel(w http.ResponseWriter, r *http.Request) {
	var req channelRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	channel, err := s.engine.UpdateChannel(chi.URLParam(r, "channelID"), req.Name, s.currentUser(r).ID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, channel)
}

func (s *Server) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteChannel(chi.URLParam(r, "channelID"), s.currentUser(r).ID); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusNoContent, nil)
}
