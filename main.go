package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/reloved/marketplace/internal/adapter/llm"
	"github.com/reloved/marketplace/internal/adapter/storage"
	"github.com/reloved/marketplace/internal/adapter/vision"
	"github.com/reloved/marketplace/internal/config"
	"github.com/reloved/marketplace/internal/hub"
	"github.com/reloved/marketplace/internal/policy"
	"github.com/reloved/marketplace/internal/repository"
	"github.com/reloved/marketplace/internal/service"
	v1 "github.com/reloved/marketplace/internal/transport/http/v1"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting marketplace...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Database: %s", cfg.DatabaseURL)
	log.Printf("LLM: %s (%s)", cfg.LLMBaseURL, cfg.LLMModel)

	// Initialize store
	db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Initialize LLM client for the negotiation agent
	llmClient := llm.NewLLMClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout)

	// Initialize vision analysis for listing intake (optional)
	var analyzer vision.Analyzer
	if cfg.GeminiAPIKey != "" {
		analyzer, err = vision.NewClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Fatalf("Failed to initialize vision client: %v", err)
		}
	} else {
		log.Printf("WARN: GEMINI_API_KEY not set, listing analysis disabled")
	}

	// Initialize image storage (optional)
	var uploader storage.Uploader
	if cfg.Storage.Bucket != "" {
		uploader, err = storage.NewS3Storage(ctx, cfg.Storage.Key, cfg.Storage.Secret,
			cfg.Storage.Region, cfg.Storage.Bucket, cfg.Storage.Endpoint)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
	} else {
		log.Printf("WARN: storage bucket not configured, image upload disabled")
	}

	// Initialize offer price policy
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize realtime hub
	eventHub := hub.NewHub()
	go eventHub.Run()

	// Initialize service
	svc := service.New(db, llmClient, analyzer, uploader, policyEngine, eventHub, cfg)

	// Initialize handler
	h := v1.NewHandler(svc, eventHub)

	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	h.RegisterRoutes(e)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Marketplace API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down marketplace...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Marketplace stopped")
}
