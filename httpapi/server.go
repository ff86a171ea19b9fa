// Package httpapi is the transport layer over the engine: a chi router
// exposing the operation set, a webhook posting endpoint authenticated
// by bearer token alone, and the websocket admission endpoint feeding
// the connection manager. Reading history is access-controlled here;
// event fan-out visibility is the connection manager's job.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"relaychat/auth"
	"relaychat/domain"
	"relaychat/engine"
	apperrors "relaychat/errors"
	"relaychat/realtime"
)

type Server struct {
	engine   *engine.Engine
	manager  *realtime.Manager
	verifier auth.TokenVerifier
	log      *slog.Logger
	validate *validator.Validate
	upgrader websocket.Upgrader
}

func New(eng *engine.Engine, manager *realtime.Manager, verifier auth.TokenVerifier, log *slog.Logger) *Server {
	return &Server{
		engine:   eng,
		manager:  manager,
		verifier: verifier,
		log:      log,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	// Webhook posting authenticates by bearer token only, outside the
	// user session middleware.
	r.Post("/api/webhooks/messages", s.handleWebhookMessage)

	r.Group(func(r chi.Router) {
		r.Use(s.withUser)

		r.Route("/api", func(r chi.Router) {
			r.Get("/users", s.handleListUsers)
			r.Post("/users", s.handleAddUser)
			r.Delete("/users/{userID}", s.handleRemoveUser)
			r.Post("/users/exit", s.handleExitUser)
			r.Patch("/users/{userID}", s.handleUpdateUserName)
			r.Put("/users/password", s.handleSetPassword)

			r.Get("/channels", s.handleListChannels)
			r.Post("/channels", s.handleCreateChannel)
			r.Get("/channels/{channelID}", s.handleGetChannel)
			r.Patch("/channels/{channelID}", s.handleUpdateChannel)
			r.Delete("/channels/{channelID}", s.handleDeleteChannel)
			r.Get("/channels/{channelID}/messages", s.handleListChannelMessages)
			r.Post("/channels/{channelID}/messages", s.handleCreateMessage)
			r.Get("/channels/{channelID}/webhooks", s.handleListWebhooks)
			r.Post("/channels/{channelID}/webhooks", s.handleCreateWebhook)

			r.Patch("/messages/{messageID}", s.handleUpdateMessage)
			r.Delete("/messages/{messageID}", s.handleDeleteMessage)
			r.Get("/messages/{messageID}/replies", s.handleListThreadReplies)
			r.Post("/messages/{messageID}/replies", s.handleCreateThreadReply)
			r.Put("/messages/{messageID}/reactions/{reaction}", s.handleAddReaction)
			r.Delete("/messages/{messageID}/reactions/{reaction}", s.handleRemoveReaction)

			r.Get("/conversations", s.handleListConversations)
			r.Post("/conversations", s.handleGetOrCreateConversation)
			r.Get("/conversations/{conversationID}/messages", s.handleListConversationMessages)
			r.Post("/conversations/{conversationID}/messages", s.handleCreateDirectMessage)
			r.Patch("/direct-messages/{messageID}", s.handleUpdateDirectMessage)
			r.Delete("/direct-messages/{messageID}", s.handleDeleteDirectMessage)

			r.Delete("/webhooks/{webhookID}", s.handleDeleteWebhook)
		})

		r.Get("/stream", s.handleStream)
	})

	return r
}

type contextKey struct{}

var userKey contextKey

// withUser resolves the bearer token (Authorization header, or the
// token query parameter for websocket clients that cannot set headers)
// to a user and stores it on the request context.
func (s *Server) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		email, err := s.verifier.Verify(token)
		if err != nil {
			s.respondError(w, fmt.Errorf("unauthenticated: %w", apperrors.ErrInvalidToken))
			return
		}
		user, err := s.engine.GetUserByEmail(email)
		if err != nil {
			s.respondError(w, fmt.Errorf("unauthenticated: %w", apperrors.ErrInvalidToken))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func (s *Server) currentUser(r *http.Request) domain.User {
	user, _ := r.Context().Value(userKey).(domain.User)
	return user
}

func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("malformed request body: %w", apperrors.ErrValidation)
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%s: %w", err, apperrors.ErrValidation)
	}
	return nil
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			s.log.Error("response encode failed", "err", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, apperrors.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrInvalidToken),
		errors.Is(err, apperrors.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "err", err)
	}
	s.respond(w, status, map[string]string{"error": err.Error()})
}

// pageParams reads the pagination window from the query string.
func pageParams(r *http.Request) (limit int, beforeID string) {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	return limit, r.URL.Query().Get("before")
}

// handleStream upgrades to a websocket and hands the connection to the
// manager; the returned cleanup runs when the client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("websocket upgrade failed", "user", user.ID, "err", err)
		return
	}

	cleanup := s.manager.Connect(user.ID, realtime.NewWSTransport(conn))

	// Drain the read side to observe client close and pong frames;
	// the server never expects inbound data on this socket.
	go func() {
		defer cleanup()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
