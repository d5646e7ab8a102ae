package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/checklist"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/config"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/handler"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/knowledge"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/middleware"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/pkg/logger"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/service"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/store"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/web"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := "config.yaml"
	if p := os.Getenv("CLEARANCE_CONFIG"); p != "" {
		configPath = p
	}

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("server exited gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	// Users and trade lanes
	db, err := store.Open(ctx, &cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	var google service.GoogleVerifier
	if cfg.Google.ClientID != "" {
		google = service.NewTokenInfoVerifier(&cfg.Google)
	} else {
		slog.Info("google sign-in disabled, no client_id configured")
	}
	identity := service.NewIdentityService(db, service.NewPasswordHasher(service.DefaultHashParams), google)
	if err := identity.Seed(ctx, cfg.Users); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	// Optional object storage for uploaded originals
	var storage service.ObjectStorage
	if cfg.Minio.Endpoint != "" {
		minioSvc, err := service.NewMinioService(&cfg.Minio)
		if err != nil {
			return fmt.Errorf("failed to initialize MINIO service: %w", err)
		}
		if err := minioSvc.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure MINIO bucket: %w", err)
		}
		storage = minioSvc
	} else {
		slog.Info("upload archiving disabled, no minio endpoint configured")
	}

	// Verification and chat model
	var (
		gen      service.Generator
		llm      *service.GenAIGenerator
		verifier service.Verifier = service.NewKeywordVerifier()
	)
	if cfg.Assistant.APIKey != "" {
		llm, err = service.NewGenAIGenerator(ctx, &cfg.Assistant)
		if err != nil {
			return err
		}
		gen = llm
		verifier = service.NewLLMVerifier(llm)
		slog.Info("assistant model configured", "model", cfg.Assistant.Model)
	} else {
		slog.Info("no assistant api key, using keyword verifier and offline answers")
	}

	// Reference library for retrieval
	var retriever service.Retriever
	library, err := knowledge.Bundled()
	if err != nil {
		slog.Warn("knowledge base unavailable, answering without references", "error", err)
	} else {
		defer library.Close()
		retriever = library
		slog.Info("knowledge base indexed", "passages", library.Len())
	}

	docs := service.NewDocumentStore(&cfg.Store)
	assistant := service.NewAssistantService(gen, docs, retriever, &cfg.Assistant)
	documents := service.NewDocumentService(docs, verifier, storage)
	if llm != nil {
		documents.WithOCR(llm).WithAnalysis(assistant, service.NewTranslator(llm))
	} else {
		documents.WithAnalysis(assistant, nil)
	}

	// Checklist reference data
	table := checklist.Bundled()
	var watcher *checklist.Watcher
	if cfg.Checklist.Path != "" {
		table, err = checklist.LoadFile(cfg.Checklist.Path)
		if err != nil {
			return fmt.Errorf("failed to load checklist override: %w", err)
		}
		watcher = checklist.NewWatcher(cfg.Checklist.Path, table, nil)
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(identity, cfg)
	laneHandler := handler.NewTradeLaneHandler(db, table)
	backendHandler := handler.NewBackendHandler(documents, assistant, cfg.Server.MaxUploadMB)
	pages := web.NewPages(identity, db, table)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware
	router.SetHTMLTemplate(web.Templates())

	// Add custom middleware
	router.Use(middleware.RequestID())                                  // Request ID for tracing
	router.Use(middleware.Recovery())                                   // Panic recovery
	router.Use(middleware.RequestLogger())                              // Access logging
	router.Use(corsMiddleware())                                        // CORS
	router.Use(noCacheMiddleware())                                     // Cache control
	router.Use(middleware.RateLimit(cfg.Server.RateLimit, time.Minute)) // Rate limiting per client IP

	router.GET("/health", backendHandler.Health)

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/signup", authHandler.Signup)
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/google", authHandler.Google)
		api.POST("/auth/logout", authHandler.Logout)
		api.GET("/checklist", laneHandler.Checklist)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.POST("/auth/refresh", authHandler.Refresh)
		protected.GET("/auth/me", authHandler.GetCurrentUser)
		protected.PATCH("/auth/profile", authHandler.UpdateProfile)
		protected.GET("/tradelanes", laneHandler.List)
		protected.POST("/tradelanes", laneHandler.Create)
		protected.DELETE("/tradelanes/:id", laneHandler.Delete)
		protected.GET("/documents", backendHandler.ListDocuments)
	}

	// Backend and pages work for guests too
	open := router.Group("/")
	open.Use(middleware.OptionalAuth(&cfg.Auth))
	{
		open.POST("/upload", backendHandler.Upload)
		open.POST("/chat", backendHandler.Chat)
		open.DELETE("/chat/history", backendHandler.ClearHistory)
		pages.Register(open)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	if watcher != nil {
		g.Go(func() error { return watcher.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// noCacheMiddleware marks every response uncacheable; pages, API and backend
// responses are all per-user
func noCacheMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")
		c.Next()
	}
}
