package web

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/aguilalv/justletic/internal/api"
	"github.com/aguilalv/justletic/internal/db"
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr        string
	Accounts    AccountService
	Linker      Linker
	Sessions    SessionManager
	Users       *db.UserRepository
	Keys        *db.KeyRepository
	DBSessions  *db.SessionRepository
	TemplatesFS fs.FS
	StaticFS    fs.FS
	Log         *zap.Logger
}

// Server is the HTTP server for the web application.
type Server struct {
	router    chi.Router
	server    *http.Server
	templates *Templates
	handlers  *Handlers
	log       *zap.Logger
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, err
	}

	handlers := NewHandlers(cfg.Accounts, cfg.Linker, cfg.Sessions, templates, cfg.Log)

	router := chi.NewRouter()

	s := &Server{
		router:    router,
		templates: templates,
		handlers:  handlers,
		log:       cfg.Log,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(cfg ServerConfig) {
	// Static files
	fileServer := http.FileServer(http.FS(cfg.StaticFS))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Pages
	s.router.Get("/", s.handlers.Home)
	s.router.Get("/users/summary", s.handlers.Summary)

	// Account routes
	s.router.Post("/accounts/register", s.handlers.Register)
	s.router.Post("/accounts/login", s.handlers.Login)
	s.router.Post("/accounts/logout", s.handlers.Logout)

	// Provider linking routes
	s.router.Get("/strava/authorize", s.handlers.StravaAuthorize)
	s.router.Get("/strava/callback", s.handlers.StravaCallback)
	s.router.Get("/spotify/authorize", s.handlers.SpotifyAuthorize)
	s.router.Get("/spotify/callback", s.handlers.SpotifyCallback)

	// JSON API
	identity := &SessionIdentity{Sessions: cfg.Sessions, Users: cfg.Users}
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/key", api.Endpoint(&api.KeyDetail{Identity: identity, Keys: cfg.Keys}))
		r.Get("/users", api.Endpoint(&api.UserList{Identity: identity, Users: cfg.Users}))
		r.Get("/sessions", api.Endpoint(&api.SessionList{Identity: identity, Sessions: cfg.DBSessions}))
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info("starting server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.log.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return err
	}

	s.log.Info("server stopped")
	return nil
}
