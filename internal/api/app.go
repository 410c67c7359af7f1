package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"
	"github.com/npezzotti/go-social/internal/config"
	"github.com/npezzotti/go-social/internal/database"
	"github.com/npezzotti/go-social/internal/server"
	"github.com/teris-io/shortid"
)

type GoSocialApp struct {
	log             *log.Logger
	db              database.GoSocialRepository
	mux             *http.Server
	cs              *server.ChatServer
	signingKey      []byte
	tokenExpiry     time.Duration
	allowedOrigins  []string
	upgrader        *websocket.Upgrader
	sanitizer       server.Sanitizer
	generateShortId func() (string, error)
}

func NewGoSocialApp(mux *http.ServeMux, logger *log.Logger, cs *server.ChatServer, db database.GoSocialRepository, cfg *config.Config) *GoSocialApp {
	s := &GoSocialApp{
		log:             logger,
		db:              db,
		cs:              cs,
		signingKey:      cfg.SigningKey,
		tokenExpiry:     cfg.TokenExpiry,
		allowedOrigins:  cfg.AllowedOrigins,
		sanitizer:       server.NewHTMLSanitizer(),
		generateShortId: shortid.Generate,
	}

	if s.tokenExpiry <= 0 {
		s.tokenExpiry = defaultJwtExpiration
	}

	s.upgrader = &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)
	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.HandleFunc("GET /api/auth/logout", s.authMiddleware(s.logout))
	mux.HandleFunc("GET /api/account", s.authMiddleware(s.session))
	mux.HandleFunc("PUT /api/account", s.authMiddleware(s.updateAccount))

	mux.HandleFunc("POST /api/events", s.authMiddleware(s.createEvent))
	mux.HandleFunc("GET /api/events", s.authMiddleware(s.listEvents))
	mux.HandleFunc("GET /api/events/{id}", s.authMiddleware(s.getEvent))
	mux.HandleFunc("DELETE /api/events/{id}", s.authMiddleware(s.deleteEvent))
	mux.HandleFunc("POST /api/events/{id}/join", s.authMiddleware(s.joinEvent))
	mux.HandleFunc("POST /api/events/{id}/leave", s.authMiddleware(s.leaveEvent))

	mux.HandleFunc("GET /api/friends/requests", s.authMiddleware(s.listFriendRequests))
	mux.HandleFunc("POST /api/friends/requests/{id}/accept", s.authMiddleware(s.acceptFriendRequest))
	mux.HandleFunc("POST /api/friends/requests/{id}/reject", s.authMiddleware(s.rejectFriendRequest))
	mux.HandleFunc("POST /api/friends/{username}", s.authMiddleware(s.sendFriendRequest))
	mux.HandleFunc("DELETE /api/friends/{username}", s.authMiddleware(s.removeFriend))
	mux.HandleFunc("GET /api/chats", s.authMiddleware(s.listChats))
	mux.HandleFunc("GET /api/notifications", s.authMiddleware(s.listNotifications))

	// the realtime endpoint authenticates through the chat server's session bridge
	mux.HandleFunc("GET /ws", s.serveWs)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	s.mux = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	return s
}

func (s *GoSocialApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *GoSocialApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
