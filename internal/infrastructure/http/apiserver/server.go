// Package apiserver provides the JSON API HTTP server implementation
package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dspaces1/whatEatBE/internal/application/user"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/config"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/http/handlers"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/http/middleware"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/security"
	"github.com/dspaces1/whatEatBE/internal/ports/inbound"
	"github.com/dspaces1/whatEatBE/internal/ports/outbound"
	"github.com/dspaces1/whatEatBE/pkg/healthcheck"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Services bundles the application services the API server exposes.
type Services struct {
	Recipes  inbound.RecipeService
	Imports  inbound.ImportService
	MealPlan inbound.MealPlanService
	Users    *user.UserService
	Auth     *security.AuthService
	Storage  outbound.StorageService
}

// APIServer represents the JSON API HTTP server
type APIServer struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	router   *chi.Mux
	services Services
	health   *healthcheck.HealthCheck
	registry *prometheus.Registry
}

// New creates a new API server instance
func New(
	cfg *config.Config,
	log *zap.Logger,
	services Services,
	health *healthcheck.HealthCheck,
) *APIServer {
	s := &APIServer{
		config:   cfg,
		logger:   log,
		services: services,
		health:   health,
		registry: prometheus.NewRegistry(),
	}

	s.router = s.setupRoutes()

	var handler http.Handler = s.router
	if cfg.Monitoring.EnableTracing {
		handler = otelhttp.NewHandler(handler, "whateat-api")
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

// setupRoutes configures the JSON API routes
func (s *APIServer) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Security())
	r.Use(middleware.CORS(s.allowedOrigin()))

	if s.config.Monitoring.EnableMetrics {
		metrics := middleware.NewMetrics(s.registry)
		r.Use(metrics.Handler())
	}

	// API-specific middleware
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.JSONOnly())

	// Operational endpoints
	if s.health != nil {
		r.Get("/health", s.health.Handler())
		r.Get("/health/live", s.health.LivenessHandler())
		r.Get("/health/ready", s.health.ReadinessHandler())
	}
	if s.config.Monitoring.EnableMetrics {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		s.setupAPIV1Routes(r)
	})

	return r
}

// setupAPIV1Routes configures API v1 endpoints
func (s *APIServer) setupAPIV1Routes(r chi.Router) {
	authH := handlers.NewAuthAPIHandlers(s.services.Users, s.logger)
	recipeH := handlers.NewRecipeAPIHandlers(s.services.Recipes, s.logger)
	importH := handlers.NewImportAPIHandlers(s.services.Imports, s.logger)
	planH := handlers.NewMealPlanAPIHandlers(s.services.MealPlan, s.logger)

	authenticate := middleware.AuthenticateAPI(s.services.Auth)

	// Authentication routes
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authH.Register)
		r.Post("/login", authH.Login)
		r.Post("/refresh", authH.Refresh)

		// Protected auth routes
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/logout", authH.Logout)
			r.Get("/me", authH.Me)
			r.Put("/me/preferences", authH.UpdatePreferences)
			r.Put("/me/password", authH.ChangePassword)
		})
	})

	// Recipe routes
	r.Route("/recipes", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/", recipeH.List)
		r.Get("/saved", recipeH.ListSaved)
		r.Get("/search", recipeH.Search)
		r.Post("/", recipeH.Create)
		r.Get("/{id}", recipeH.Get)
		r.Put("/{id}", recipeH.Update)
		r.Delete("/{id}", recipeH.Delete)
		r.Post("/{id}/save", recipeH.Save)
	})

	// Import routes
	r.Route("/import", func(r chi.Router) {
		r.Use(authenticate)
		r.Post("/preview", importH.Preview)
		r.Post("/jobs", importH.CreateJob)
		r.Get("/jobs/{id}", importH.GetJob)
	})

	// Meal plan routes
	r.Route("/mealplan", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/today", planH.Today)
		r.Get("/{date}", planH.ByDate)
	})

	// Media upload routes
	if s.services.Storage != nil {
		uploadH := handlers.NewUploadAPIHandlers(s.services.Storage, s.config.Storage.PresignTTL, s.logger)
		r.Route("/uploads", func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/sign", uploadH.SignUpload)
		})
	}
}

// Start starts the API HTTP server
func (s *APIServer) Start() error {
	s.logger.Info("Starting JSON API server",
		zap.String("address", s.server.Addr),
	)

	return s.server.ListenAndServe()
}

// Server returns the underlying HTTP server instance
func (s *APIServer) Server() *http.Server {
	return s.server
}

// Shutdown gracefully shuts down the API server
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")
	return s.server.Shutdown(ctx)
}

func (s *APIServer) allowedOrigin() string {
	if len(s.config.Server.AllowedOrigins) > 0 {
		return s.config.Server.AllowedOrigins[0]
	}
	return "*"
}
