package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phambaophuc/visionprep/internal/config"
	"github.com/phambaophuc/visionprep/internal/http/handlers"
	"github.com/phambaophuc/visionprep/internal/http/routes"
	"github.com/phambaophuc/visionprep/internal/services/ai"
	"github.com/phambaophuc/visionprep/internal/services/orchestrator"
	"github.com/phambaophuc/visionprep/internal/services/processor"
	"github.com/phambaophuc/visionprep/internal/services/queue"
	"github.com/phambaophuc/visionprep/internal/services/storage"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg.Server.Env)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize services
	imageProcessor := processor.NewImageProcessor(cfg.AI.MaxImageDimension)

	genaiClient, err := ai.NewGeminiClient(ctx, cfg.AI.APIKey)
	if err != nil {
		logger.Fatal("Failed to initialize Gemini client", zap.Error(err))
	}

	describer, err := ai.NewGeminiDescriber(genaiClient.Models, imageProcessor, ai.GeminiConfig{
		Model:           cfg.AI.Model,
		Temperature:     float32(cfg.AI.Temperature),
		MaxOutputTokens: int32(cfg.AI.MaxOutputTokens),
	})
	if err != nil {
		logger.Fatal("Failed to initialize describer", zap.Error(err))
	}

	storageService, err := storage.NewStorageService(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage service", zap.Error(err))
	}
	defer storageService.Close()

	runner, err := orchestrator.New(describer, storageService, logger, orchestrator.Options{
		MaxAttempts:    cfg.Pipeline.MaxAttempts,
		Concurrency:    cfg.Pipeline.Concurrency,
		InitialBackoff: cfg.Pipeline.InitialBackoff,
	})
	if err != nil {
		logger.Fatal("Failed to initialize orchestrator", zap.Error(err))
	}

	// Async jobs are optional; the API still serves /api/generate without them.
	var jobQueue handlers.JobQueue

	queueService, err := queue.NewQueueService(cfg.RabbitMQ.URL, runner, storageService, logger)
	if err != nil {
		logger.Warn("Failed to initialize queue service, async jobs disabled", zap.Error(err))
	} else {
		defer queueService.Close()
		jobQueue = queueService

		for i := 1; i <= cfg.RabbitMQ.Workers; i++ {
			if err := queueService.StartWorker(ctx, i); err != nil {
				logger.Error("Failed to start worker", zap.Int("worker_id", i), zap.Error(err))
			}
		}
	}

	// Initialize handlers
	imageHandler := handlers.NewImageHandler(runner, storageService, jobQueue, logger, cfg)

	router := routes.NewRouter(imageHandler, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server",
			zap.String("addr", server.Addr),
			zap.String("model", cfg.AI.Model),
			zap.Bool("export_uploads", storageService.UploadsEnabled()),
			zap.Bool("async_jobs", jobQueue != nil))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	stop()

	logger.Info("Server exited")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
