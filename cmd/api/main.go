// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yeagerd/adminee-sub001/internal/agent"
	"github.com/yeagerd/adminee-sub001/internal/config"
	"github.com/yeagerd/adminee-sub001/internal/drafts"
	"github.com/yeagerd/adminee-sub001/internal/handler"
	"github.com/yeagerd/adminee-sub001/internal/llm"
	"github.com/yeagerd/adminee-sub001/internal/middleware"
	natsclient "github.com/yeagerd/adminee-sub001/internal/nats"
	"github.com/yeagerd/adminee-sub001/internal/office"
	"github.com/yeagerd/adminee-sub001/internal/service"
	"github.com/yeagerd/adminee-sub001/internal/tools"
	"github.com/yeagerd/adminee-sub001/pkg/logger"
	"github.com/yeagerd/adminee-sub001/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "assistant-api", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS
	natsClient, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer natsClient.Close()

	// Ensure JetStream stream exists
	streamManager := natsclient.NewStreamManager(natsClient)
	if err := streamManager.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure stream", zap.Error(err))
		os.Exit(1)
	}

	// Draft state lives in a JetStream KV bucket so it survives restarts
	draftKV, err := natsclient.NewDraftKV(ctx, natsClient)
	if err != nil {
		log.Error("failed to create draft bucket", zap.Error(err))
		os.Exit(1)
	}
	draftManager := drafts.NewManager(draftKV)

	// Office data backend
	officeClient := office.NewClient(cfg.OfficeServiceURL, cfg.OfficeAPIKey, cfg.OfficeTimeout)

	// Tool catalog
	registry := tools.NewRegistry()
	if err := tools.RegisterRetrievalTools(registry, officeClient); err != nil {
		log.Error("failed to register retrieval tools", zap.Error(err))
		os.Exit(1)
	}
	if err := tools.RegisterDraftTools(registry, draftManager); err != nil {
		log.Error("failed to register draft tools", zap.Error(err))
		os.Exit(1)
	}
	if err := tools.RegisterRecordTools(registry); err != nil {
		log.Error("failed to register record tools", zap.Error(err))
		os.Exit(1)
	}

	// The tool loop needs a tool-capable model, which means OpenAI.
	// Anthropic can still serve plain-text calls like intent
	// classification when it is the configured default.
	if cfg.OpenAIAPIKey == "" {
		log.Error("OPENAI_API_KEY is required for tool execution")
		os.Exit(1)
	}
	toolModel, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	if err != nil {
		log.Error("failed to create OpenAI client", zap.Error(err))
		os.Exit(1)
	}

	var textModel llm.Client = toolModel
	if cfg.DefaultLLM == string(llm.ProviderAnthropic) && cfg.AnthropicAPIKey != "" {
		anthropicClient, err := llm.NewAnthropicClient(cfg.AnthropicAPIKey)
		if err != nil {
			log.Warn("failed to create Anthropic client, falling back to OpenAI", zap.Error(err))
		} else {
			textModel = anthropicClient
		}
	}

	// Coordinator drives routing, dispatch, and summary assembly
	coordinator := agent.NewCoordinator(toolModel, textModel, registry, draftManager, cfg.MaxToolIterations, log)

	// Initialize services
	threadSvc := service.NewThreadService(streamManager, log)
	turnSvc := service.NewTurnService(streamManager, threadSvc, coordinator, draftManager, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsClient)
	threadHandler := handler.NewThreadHandler(threadSvc, log)
	turnHandler := handler.NewTurnHandler(turnSvc, log)
	draftHandler := handler.NewDraftHandler(draftManager, log)
	toolHandler := handler.NewToolHandler(registry)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Sending without a thread id starts a new thread
		r.Post("/messages", turnHandler.Start)

		// Threads
		r.Route("/threads", func(r chi.Router) {
			r.Post("/", threadHandler.Create)
			r.Get("/", threadHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", threadHandler.Get)
				r.Delete("/", threadHandler.Delete)

				// Messages
				r.Get("/messages", threadHandler.Messages)
				r.Post("/messages", turnHandler.Start)

				// Drafts
				r.Get("/drafts", draftHandler.List)
				r.Delete("/drafts", draftHandler.Clear)
			})
		})

		// Tool catalog
		r.Route("/tools", func(r chi.Router) {
			r.Get("/", toolHandler.List)
			r.Get("/{id}", toolHandler.Get)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
