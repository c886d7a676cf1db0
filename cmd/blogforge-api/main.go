// Package main is the entry point for the blogforge-api server.
// User management and sessions are external; requests carry a JWT whose
// subject identifies the user.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/blogforge/blogforge-api/internal/config"
	"github.com/blogforge/blogforge-api/internal/database"
	"github.com/blogforge/blogforge-api/internal/http/handlers"
	"github.com/blogforge/blogforge-api/internal/http/mw"
	"github.com/blogforge/blogforge-api/internal/llm"
	"github.com/blogforge/blogforge-api/internal/logging"
	"github.com/blogforge/blogforge-api/internal/repository"
	"github.com/blogforge/blogforge-api/internal/service"
	"github.com/blogforge/blogforge-api/internal/version"
)

func main() {
	// Initialize logger with TTY detection, source paths, and format control
	logger := logging.SetDefault()

	// Log version info first thing
	v := version.Get()
	logger.Info("starting blogforge-api",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	// Run migrations (with logging for each migration applied)
	if err := database.MigrateWithLogger(db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	applied, err := database.GetAppliedMigrations(db)
	if err != nil {
		logger.Warn("failed to read migration state", "error", err)
	} else {
		logger.Info("database schema ready", "migrations_applied", len(applied))
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// S3-backed pricing overrides (optional)
	var pricing *llm.PricingLoader
	if cfg.StorageEnabled {
		s3Client, err := config.NewS3Client(cfg)
		if err != nil {
			logger.Error("failed to create S3 client", "error", err)
			os.Exit(1)
		}
		pricing = llm.NewPricingLoader(llm.PricingLoaderConfig{
			S3Client: s3Client,
			Bucket:   cfg.StorageBucket,
			Key:      cfg.PricingConfigKey,
			Logger:   logger,
		})
		logger.Info("S3 pricing overrides enabled",
			"bucket", cfg.StorageBucket,
			"key", cfg.PricingConfigKey,
		)
	}

	// Initialize services
	services, err := service.NewServices(cfg, repos, pricing, logger)
	if err != nil {
		logger.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	// Create router
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Request size limit (1MB) - prevent large payload attacks
	router.Use(middleware.RequestSize(1 * 1024 * 1024))

	// Global rate limit by IP
	router.Use(httprate.LimitByIP(cfg.RateLimitRequests, cfg.RateLimitWindow))

	// Global concurrency throttle - prevent system overload
	router.Use(middleware.Throttle(100))

	// Create Huma API config for main API with OpenAPI docs
	humaConfig := huma.DefaultConfig("BlogForge API", v.Version)
	humaConfig.Info.Description = "SEO blog content generation API with multi-provider LLM routing, keyword research, and Shopify publishing."
	humaConfig.Servers = []*huma.Server{
		{URL: cfg.BaseURL, Description: "API Server"},
	}
	// Add security scheme for Bearer auth
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearerAuth": {
			Type:        "http",
			Scheme:      "bearer",
			Description: "JWT authentication. Include your token in the Authorization header as `Bearer <token>`.",
		},
	}

	// Main API with OpenAPI docs
	api := humachi.New(router, humaConfig)

	// Config for hidden routes (K8s probes - no docs needed)
	hiddenConfig := huma.DefaultConfig("BlogForge API", v.Version)
	hiddenConfig.DocsPath = ""
	hiddenConfig.OpenAPIPath = ""
	hiddenConfig.SchemasPath = ""
	hiddenAPI := humachi.New(router, hiddenConfig)

	// Config for protected routes (no separate docs - served by the main API)
	protectedConfig := huma.DefaultConfig("BlogForge API", v.Version)
	protectedConfig.Info.Description = humaConfig.Info.Description
	protectedConfig.Servers = humaConfig.Servers
	protectedConfig.DocsPath = ""
	protectedConfig.OpenAPIPath = ""
	protectedConfig.SchemasPath = ""

	// Health check (public, shown in docs)
	huma.Get(api, "/api/v1/health", handlers.HealthCheck)

	// Kubernetes probes (hidden from docs - internal use only)
	huma.Get(hiddenAPI, "/healthz", handlers.Livez)
	readyzHandler := handlers.NewReadyzHandler(db)
	huma.Get(hiddenAPI, "/readyz", readyzHandler.Readyz)

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(mw.Auth(cfg.JWTSecret))

		// Create a new Huma API for protected routes
		protectedAPI := humachi.New(r, protectedConfig)

		// Blog generation routes
		blogHandler := handlers.NewBlogHandler(services.Blog)
		huma.Post(protectedAPI, "/api/v1/blog/generate", blogHandler.GenerateBlog)
		huma.Post(protectedAPI, "/api/v1/blog/generate-structured", blogHandler.GenerateStructuredBlog)
		huma.Post(protectedAPI, "/api/v1/blog/optimize-seo", blogHandler.OptimizeSeo)

		// Raw HTTP handler for SSE streaming (non-JSON content type)
		r.Post("/api/v1/blog/stream", blogHandler.StreamBlog)

		// Provider discovery routes
		providersHandler := handlers.NewProvidersHandler(services.Blog, repos.ProviderCatalog)
		huma.Get(protectedAPI, "/api/v1/llm/providers", providersHandler.ListProviders)
		huma.Get(protectedAPI, "/api/v1/llm/providers/status", providersHandler.GetProviderStatus)
		huma.Get(protectedAPI, "/api/v1/llm/providers/capabilities", providersHandler.GetProviderCapabilities)
		huma.Get(protectedAPI, "/api/v1/llm/models/{provider}", providersHandler.ListModels)

		// User LLM settings routes
		settingsHandler := handlers.NewSettingsHandler(services.Preference)
		huma.Get(protectedAPI, "/api/v1/settings/llm", settingsHandler.GetPreference)
		huma.Put(protectedAPI, "/api/v1/settings/llm", settingsHandler.PutPreference)
		huma.Delete(protectedAPI, "/api/v1/settings/llm", settingsHandler.DeletePreference)
		huma.Get(protectedAPI, "/api/v1/settings/llm/keys", settingsHandler.ListKeys)
		huma.Put(protectedAPI, "/api/v1/settings/llm/keys", settingsHandler.UpsertKey)
		huma.Delete(protectedAPI, "/api/v1/settings/llm/keys/{provider}", settingsHandler.DeleteKey)

		// Usage analytics routes
		usageHandler := handlers.NewUsageHandler(services.Usage)
		huma.Get(protectedAPI, "/api/v1/usage", usageHandler.GetUsage)
		huma.Get(protectedAPI, "/api/v1/usage/entries", usageHandler.GetUsageEntries)

		// Keyword research routes
		keywordHandler := handlers.NewKeywordHandler(services.Keyword)
		huma.Post(protectedAPI, "/api/v1/keywords/analyze", keywordHandler.AnalyzeKeywords)

		// Shopify publishing routes
		shopifyHandler := handlers.NewShopifyHandler(services.Shopify)
		huma.Post(protectedAPI, "/api/v1/shopify/test-connection", shopifyHandler.TestConnection)
		huma.Post(protectedAPI, "/api/v1/shopify/publish", shopifyHandler.PublishArticle)
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		<-sigChan

		logger.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	// Start server
	logger.Info("starting server", "port", cfg.Port, "base_url", cfg.BaseURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
