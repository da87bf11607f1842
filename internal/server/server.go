// Package server assembles the HTTP surface: router, middleware, and the
// handlers behind every route.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/walletpilot/pilot/internal/handler"
	"github.com/walletpilot/pilot/internal/keys"
	"github.com/walletpilot/pilot/internal/openapi"
	"github.com/walletpilot/pilot/internal/server/middleware"
	"github.com/walletpilot/pilot/internal/service"
	"github.com/walletpilot/pilot/internal/store"
	"github.com/walletpilot/pilot/internal/waitlist"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	AdminSecret     string
	Version         string
	PublicRateLimit int // requests per minute per IP on unauthenticated POST routes
	SDKRateLimit    int // requests per minute per credential on API-key routes
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		Version:         "dev",
		PublicRateLimit: 30,
		SDKRateLimit:    120,
	}
}

// Server is the top-level HTTP server. It owns the Chi router, the store,
// the key service, and the identity provider.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *store.Store
	keySvc     *keys.Service
	authSvc    *service.AuthService
	list       waitlist.List
	apiDoc     *openapi3.T
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, st *store.Store, keySvc *keys.Service, authSvc *service.AuthService, list waitlist.List, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		keySvc:  keySvc,
		authSvc: authSvc,
		list:    list,
		logger:  logger,
	}
	s.apiDoc = openapi.Generate(fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port), cfg.Version)
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Refresh-Token", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	authHandler := handler.NewAuthHandler(s.store, s.authSvc, s.keySvc)
	permHandler := handler.NewPermissionHandler(s.store)
	txHandler := handler.NewTransactionHandler(s.store)
	eventHandler := handler.NewTelemetryHandler(s.store)
	waitlistHandler := handler.NewWaitlistHandler(s.list, s.logger, s.cfg.AdminSecret)

	// --- Public routes ---
	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/openapi.json", s.handleOpenAPI)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(s.cfg.PublicRateLimit))
		r.Post("/waitlist", waitlistHandler.Join)
	})
	r.Get("/waitlist/count", waitlistHandler.Count)
	r.Get("/waitlist/list", waitlistHandler.List)

	r.Route("/v1", func(r chi.Router) {

		// Session lifecycle: no bearer token yet.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(s.cfg.PublicRateLimit))
			r.Post("/auth/signup", authHandler.Signup)
			r.Post("/auth/login", authHandler.Login)
			r.Post("/auth/refresh", authHandler.Refresh)
		})

		// Dashboard routes: session access token.
		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionAuth(s.authSvc))
			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/keys", authHandler.CreateKey)
			r.Delete("/auth/keys/{id}", authHandler.DeleteKey)
			r.Get("/events", eventHandler.List)
			r.Get("/stats", eventHandler.Stats)
		})

		// SDK routes: API key bearer, rate-limited per credential.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByHeader("Authorization", s.cfg.SDKRateLimit))
			r.Use(middleware.KeyAuth(s.keySvc))
			r.Post("/permissions/request", permHandler.Request)
			r.Get("/permissions", permHandler.List)
			r.Get("/permissions/{id}", permHandler.Get)
			r.Delete("/permissions/{id}", permHandler.Delete)
			r.Post("/tx/execute", txHandler.Execute)
			r.Get("/tx/{hash}", txHandler.Get)
		})

		// Telemetry ingestion: unauthenticated, rate-limited by IP.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(s.cfg.PublicRateLimit))
			r.Post("/events", eventHandler.Ingest)
		})
	})

	s.router = r
}

// handleRoot serves basic service info at the API root.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"name":    "WalletPilot API",
		"version": s.cfg.Version,
		"status":  "ok",
		"docs":    "/openapi.json",
	})
}

// handleHealth is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the store is
// reachable, or 503 when it is not.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK

	if err := s.store.Ping(r.Context()); err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// handleOpenAPI serves the generated OpenAPI document.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(s.apiDoc)
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before closing the store.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := s.store.Close(); err != nil {
		s.logger.Warn("store close", "error", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
