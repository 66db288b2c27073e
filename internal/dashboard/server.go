package dashboard

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/climatelabs/carbontracker/internal/emissions"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

type ServerConfig struct {
	Logger   *slog.Logger
	Provider emissions.Provider
}

func (c *ServerConfig) Validate() error {
	if c.Logger == nil {
		return errors.New("logger is required")
	}
	if c.Provider == nil {
		return errors.New("provider is required")
	}
	return nil
}

type Server struct {
	log      *slog.Logger
	provider emissions.Provider

	Router    chi.Router
	templates *template.Template
}

func NewServer(cfg *ServerConfig) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	templates, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		log:       cfg.Logger,
		provider:  cfg.Provider,
		Router:    chi.NewRouter(),
		templates: templates,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.Router.Get("/", s.handleIndex)
	s.Router.Handle("/static/*", http.FileServer(http.FS(staticFS)))

	s.Router.Get("/api/years", s.handleYears)
	s.Router.Get("/api/emissions", s.handleEmissions)
	s.Router.Get("/api/emissions/top", s.handleTopEmitters)
	s.Router.Get("/api/summary", s.handleSummary)
	s.Router.Post("/api/refresh", s.handleRefresh)

	s.Router.Get("/healthz", s.handleHealthz)
	s.Router.Handle("/metrics", promhttp.Handler())
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler: s.Router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("server shutdown error", "error", err)
		} else {
			s.log.Info("server shutdown via context")
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			s.log.Info("server closed")
			return nil
		}
		return err
	}
}
