// Package server is the wiring layer: it assembles the database, services,
// and handlers, defines the route table, and runs the HTTP server with
// graceful shutdown. main.go stays minimal — load config, call New, Start.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/genorama/genorama/internal/auth"
	"github.com/genorama/genorama/internal/handler"
	"github.com/genorama/genorama/internal/middleware"
	sqliteRepo "github.com/genorama/genorama/internal/repository/sqlite"
	"github.com/genorama/genorama/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port               int
	DBPath             string
	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and wires the full dependency chain:
// DB → repositories → services → handlers → routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware, builds every service, and declares the
// route table.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	google := auth.NewGoogleProvider(
		s.config.GoogleClientID,
		s.config.GoogleClientSecret,
		s.config.GoogleCallbackURL,
	)
	passwords := auth.NewPasswordService()

	// Services. The vote and attendance reconcilers are the same service
	// over different join tables.
	profileSvc := service.NewProfileService(s.db.Profiles(), s.db.Preferences(), s.logger)
	authSvc := service.NewAuthService(s.db.Credentials(), profileSvc, tokens, passwords, s.logger)
	releaseSvc := service.NewReleaseService(s.db.Releases(), s.logger)
	voteSvc := service.NewToggleService(s.db.Votes(), "vote", s.logger)
	attendSvc := service.NewToggleService(s.db.Attendance(), "attendance", s.logger)
	eventSvc := service.NewEventService(s.db.Events(), s.logger)
	donationSvc := service.NewDonationService(s.db.Donations(), s.db.Profiles(), s.logger)
	forumSvc := service.NewForumService(s.db.Forum(), s.logger)

	// Handlers.
	authHandler := handler.NewAuthHandler(google, authSvc, s.logger)
	profileHandler := handler.NewProfileHandler(profileSvc, s.logger)
	releaseHandler := handler.NewReleaseHandler(releaseSvc, voteSvc, s.logger)
	eventHandler := handler.NewEventHandler(eventSvc, attendSvc, s.logger)
	donationHandler := handler.NewDonationHandler(donationSvc, s.logger)
	forumHandler := handler.NewForumHandler(forumSvc, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	// OAuth flow — outside /api since these are browser navigations.
	s.router.Get("/auth/google/login", authHandler.HandleGoogleLogin)
	s.router.Get("/auth/google/callback", authHandler.HandleGoogleCallback)
	s.router.Post("/auth/logout", authHandler.HandleLogout)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)

		// Public reads. OptionalAuth marks viewer state (viewerVoted,
		// viewerAttending) for logged-in browsers.
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/releases", releaseHandler.HandleList)
			r.Get("/events", eventHandler.HandleList)
		})
		r.Get("/releases/{id}", releaseHandler.HandleGet)
		r.Get("/artists/{id}/releases", releaseHandler.HandleListByArtist)
		r.Get("/events/{id}", eventHandler.HandleGet)
		r.Get("/events/{id}/attendees", eventHandler.HandleAttendees)
		r.Get("/profiles/{username}", profileHandler.HandleGetByUsername)
		r.Get("/profiles/{id}/donations", donationHandler.HandleListForRecipient)
		r.Get("/profiles/{id}/donations/stats", donationHandler.HandleStats)
		r.Get("/bands", profileHandler.HandleSearchBands)
		r.Get("/forum/categories", forumHandler.HandleCategories)
		r.Get("/forum/posts", forumHandler.HandleListPosts)
		r.Get("/forum/posts/{id}", forumHandler.HandleGetPost)
		r.Get("/forum/posts/{id}/replies", forumHandler.HandleListReplies)

		// Authenticated writes.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.HandleMe)
			r.Post("/releases", releaseHandler.HandleCreate)
			r.Post("/releases/{id}/vote", releaseHandler.HandleVote)
			r.Post("/events", eventHandler.HandleCreate)
			r.Post("/events/{id}/attend", eventHandler.HandleAttend)
			r.Post("/donations", donationHandler.HandleRecord)
			r.Post("/forum/posts", forumHandler.HandleCreatePost)
			r.Post("/forum/posts/{id}/replies", forumHandler.HandleCreateReply)
			r.Put("/settings/profile", profileHandler.HandleUpdateSettings)
			r.Get("/settings/preferences", profileHandler.HandleGetPreferences)
			r.Put("/settings/preferences", profileHandler.HandleUpdatePreferences)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests (30s),
// close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
