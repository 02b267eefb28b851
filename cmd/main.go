package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/satriahrh/mentalhs/server/adapters"
	"github.com/satriahrh/mentalhs/server/adapters/badger"
	"github.com/satriahrh/mentalhs/server/adapters/camera"
	"github.com/satriahrh/mentalhs/server/adapters/llm"
	"github.com/satriahrh/mentalhs/server/adapters/mongo"
	"github.com/satriahrh/mentalhs/server/adapters/stt"
	"github.com/satriahrh/mentalhs/server/adapters/translate"
	"github.com/satriahrh/mentalhs/server/domain/repositories"
	"github.com/satriahrh/mentalhs/server/internal/api"
	"github.com/satriahrh/mentalhs/server/internal/auth"
	"github.com/satriahrh/mentalhs/server/internal/config"
	"github.com/satriahrh/mentalhs/server/internal/websocket"
	"github.com/satriahrh/mentalhs/server/usecase"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions, closeSessions, err := openSessionRepository(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize session storage", zap.Error(err))
	}
	defer closeSessions()

	settings, closeSettings, err := openSettingsStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize settings store", zap.Error(err))
	}
	defer closeSettings()

	// Initialize adapters
	factory := llm.NewGeminiFactory(cfg.Gemini, logger)
	speechToText := newSpeechToText(cfg, logger)
	detector := camera.NewSimulatedDetector(nil, logger)
	secondary := translate.NewGoogleFreeTranslator(cfg.Translate, logger)

	// Initialize usecase services
	credentials := usecase.NewCredentialValidator(settings, factory, cfg.Gemini.APIKey, logger)
	translator := usecase.NewTranslator(credentials, secondary, logger)
	chatService := usecase.NewChatService(usecase.ChatServiceDeps{
		Sessions:    sessions,
		Settings:    settings,
		Credentials: credentials,
		Classifier:  usecase.NewEmotionClassifier(credentials, logger),
		Responder:   usecase.NewResponseGenerator(credentials, logger),
		Translator:  translator,
		Detector:    detector,
	}, logger)

	tokens := auth.NewManager(cfg.JWTSecret, logger, auth.WithAdminKey(cfg.AdminKey))

	// Initialize WebSocket hub with chat service
	hub := websocket.NewHub(chatService, speechToText, tokens, logger)
	go hub.Run(ctx)

	cleanup := websocket.NewSessionCleanupService(sessions, 0, logger)
	cleanup.Start()
	defer cleanup.Stop()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	api.InitRoutes(e, api.Dependencies{
		Chat:        chatService,
		Credentials: credentials,
		Translator:  translator,
		Tokens:      tokens,
		Hub:         hub,
		Logger:      logger,
	})

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.String("storage", cfg.Storage),
		zap.String("settings_store", cfg.SettingsStore),
		zap.String("speech_provider", cfg.Speech))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func openSessionRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repositories.SessionRepository, func(), error) {
	switch cfg.Storage {
	case config.StorageMongo:
		client, err := mongo.NewClient(ctx, cfg.Mongo, logger)
		if err != nil {
			return nil, nil, err
		}
		repo := mongo.NewSessionRepository(client.Database, logger)
		if err := repo.EnsureIndexes(ctx); err != nil {
			client.Close(context.Background())
			return nil, nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		return repo, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			client.Close(closeCtx)
		}, nil
	default:
		logger.Info("Using in-memory session storage")
		return adapters.NewMemorySessionRepository(), func() {}, nil
	}
}

func openSettingsStore(cfg *config.Config, logger *zap.Logger) (repositories.SettingsStore, func(), error) {
	switch cfg.SettingsStore {
	case config.SettingsBadger:
		store, err := badger.Open(cfg.SettingsPath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error("Failed to close settings store", zap.Error(err))
			}
		}, nil
	default:
		logger.Info("Using in-memory settings store")
		return adapters.NewMemorySettingsStore(), func() {}, nil
	}
}

func newSpeechToText(cfg *config.Config, logger *zap.Logger) repositories.SpeechToText {
	if cfg.Speech == config.SpeechGoogle {
		return stt.NewGoogleSpeechToText(logger)
	}
	return stt.NewMockSpeechToText(logger)
}
