package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"relaychat/domain"

	"github.com/samber/lo"
)

type addUserRequest struct {
	Email   string `json:"email" validate:"required,email"`
	IsAdmin bool   `json:"isAdmin"`
}

func (s *Server) handleAddUser(w http.ResponseWriter, r *http.Request) {
	var req addUserRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	user, err := s.engine.AddUser(req.Email, s.currentUser(r).ID, req.IsAdmin, false)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, user.Public())
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.engine.ListUsers()
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, lo.Map(users, func(u domain.User, _ int) domain.User {
		return u.Public()
	}))
}

func (s *Server) handleRemoveUser(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.RemoveUser(chi.URLParam(r, "userID"), s.currentUser(r).ID); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleExitUser(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.ExitUser(s.currentUser(r).ID); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusNoContent, nil)
}

type updateUserNameRequest struct {
	Name string `json:"name" validate:"required"`
}

func (s *Server) handleUpdateUserName(w http.ResponseWriter, r *http.Request) {
	var req updateUserNameRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	user, err := s.engine.UpdateUserName(chi.URLParam(r, "userID"), req.Name, s.currentUser(r).ID)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusOK, user.Public())
}

type setPasswordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

func (s *Server) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordRequest
	if err := s.decode(r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if err := s.engine.SetPassword(s.currentUser(r).ID, req.Password); err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusNoContent, nil)
}
