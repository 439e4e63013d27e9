package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jjudge-oj/usersvc/config"
	"github.com/jjudge-oj/usersvc/internal/db"
	"github.com/jjudge-oj/usersvc/internal/handlers"
	"github.com/jjudge-oj/usersvc/internal/mq"
	"github.com/jjudge-oj/usersvc/internal/services"
	"github.com/jjudge-oj/usersvc/internal/store"
)

// Server wraps the HTTP server and the resources it owns.
type Server struct {
	httpServer *http.Server
	db         *sql.DB
	mq         *mq.MQ
	closeOnce  sync.Once
}

// New opens the database, applies migrations and wires the user routes.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(cfg.Database); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userService, tokens, err := NewUserService(cfg.Auth, store.NewUserRepository(dbConn))
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	broker, err := mq.NewFromConfig(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	if broker != nil {
		userService.UseEvents(mq.NewEventPublisher(broker, cfg.MQ.UserEventsChannel))
		slog.Info("publishing user events", "backend", cfg.MQ.Backend, "channel", cfg.MQ.UserEventsChannel)
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      NewRouter(userService, tokens),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		db:         dbConn,
		mq:         broker,
	}, nil
}

// NewUserService builds the user use-cases and the token manager from the
// auth settings.
func NewUserService(cfg config.AuthConfig, repo services.UserRepository) (*services.UserService, *services.TokenManager, error) {
	if cfg.JWTSecret == "" {
		return nil, nil, errors.New("JWT_SECRET is required")
	}
	hasher, err := services.NewPasswordHasher(cfg.PasswordHash, cfg.PBKDF2Iterations)
	if err != nil {
		return nil, nil, err
	}
	tokens, err := services.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, nil, err
	}
	return services.NewUserService(repo, hasher, tokens), tokens, nil
}

// NewRouter returns the full route table with middleware.
func NewRouter(userService *services.UserService, tokens *services.TokenManager) http.Handler {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		handlers.RequestLogger(),
		handlers.Recoverer,
	)
	router.NotFound(handlers.NotFound)
	router.MethodNotAllowed(handlers.MethodNotAllowed)

	router.Get("/", handlers.Health)
	router.Get("/healthz", handlers.Health)
	router.Route("/api", func(r chi.Router) {
		handlers.UserRouter(r, userService, handlers.RequireAuth(tokens))
		handlers.AuthRouter(r, userService)
	})
	return router
}

// Handler exposes the root handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the HTTP server until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	slog.Info("server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the database and broker.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.closeOnce.Do(func() {
		if s.mq != nil {
			if cerr := s.mq.Close(); cerr != nil {
				slog.Warn("failed to close message queue", "error", cerr)
			}
		}
		if s.db != nil {
			if cerr := s.db.Close(); cerr != nil {
				slog.Warn("failed to close database", "error", cerr)
			}
		}
	})
	return err
}
