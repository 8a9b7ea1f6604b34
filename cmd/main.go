package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/hrdiansyah/serena/adapters/audio"
	"github.com/hrdiansyah/serena/adapters/device"
	"github.com/hrdiansyah/serena/adapters/dialogue"
	"github.com/hrdiansyah/serena/adapters/extraction"
	"github.com/hrdiansyah/serena/adapters/jsonstore"
	"github.com/hrdiansyah/serena/adapters/mongo"
	"github.com/hrdiansyah/serena/adapters/stt"
	"github.com/hrdiansyah/serena/adapters/translation"
	"github.com/hrdiansyah/serena/adapters/tts"
	"github.com/hrdiansyah/serena/domain/repositories"
	"github.com/hrdiansyah/serena/internal/api"
	"github.com/hrdiansyah/serena/internal/auth"
	"github.com/hrdiansyah/serena/internal/config"
	"github.com/hrdiansyah/serena/internal/transcript"
	"github.com/hrdiansyah/serena/internal/websocket"
	"github.com/hrdiansyah/serena/usecase"
)

const transcriptRetention = 7 * 24 * time.Hour

func main() {
	// .env is optional; real deployments use the environment directly.
	godotenv.Load()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	ctx := context.Background()

	// Dialogue, extraction and translation all ride on the same Gemini key.
	dialogueService, err := dialogue.NewGeminiLiveService(ctx, cfg.GeminiAPIKey, logger)
	if err != nil {
		logger.Fatal("Failed to create dialogue service", zap.Error(err))
	}

	extractor, err := extraction.NewGeminiExtractor(ctx, cfg.GeminiAPIKey, logger)
	if err != nil {
		logger.Fatal("Failed to create extractor", zap.Error(err))
	}

	var translatorFactory transcript.TranslatorFactory
	if cfg.TranslationEnabled {
		translatorFactory = func() (repositories.Translator, error) {
			return translation.NewGeminiTranslator(ctx, cfg.GeminiAPIKey, logger)
		}
	}

	store, err := jsonstore.NewReservationStore(cfg.ReservationFile, logger)
	if err != nil {
		logger.Fatal("Failed to create reservation store", zap.Error(err))
	}

	mongoClient, err := mongo.NewClient(cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Close(context.Background())
	reservationRepo := mongo.NewReservationRepository(mongoClient.Database, logger)

	authenticator, err := auth.NewAuthenticator(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("Failed to create authenticator", zap.Error(err))
	}
	deviceRepo := device.NewMemoryRepository(cfg.Devices)

	var textToSpeech repositories.TextToSpeech
	if cfg.ElevenLabsAPIKey != "" {
		textToSpeech, err = tts.NewElevenLabsTTS(tts.ElevenLabsConfig{
			APIKey:    cfg.ElevenLabsAPIKey,
			VoiceID:   cfg.ElevenLabsVoiceID,
			ModelID:   cfg.ElevenLabsModelID,
			Stability: cfg.ElevenLabsStability,
			Clarity:   cfg.ElevenLabsClarity,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create TTS adapter", zap.Error(err))
		}
	} else {
		logger.Warn("ELEVEN_LABS_API_KEY not set, device replies will be text only")
	}

	var capture repositories.AudioCapture
	if cfg.AudioInputPath != "" {
		capture = audio.NewCapture(audio.NewFileSource(cfg.AudioInputPath), audio.DefaultSampleRate, logger)
		logger.Info("Local microphone capture enabled", zap.String("input", cfg.AudioInputPath))
	}

	// Initialize usecase services
	conversationService := usecase.NewConversationService(
		dialogueService, extractor, store, translatorFactory, capture, cfg.TranscriptFile, logger)
	reservationService := usecase.NewReservationService(store, reservationRepo, logger)

	// Initialize WebSocket hub for device connections
	hub := websocket.NewHub(conversationService, stt.NewGoogleSpeechToText(logger), textToSpeech, logger)
	go hub.Run()

	retention := transcript.NewRetentionService(".", transcriptRetention, logger)
	retention.Start()
	defer retention.Stop()

	// Create Echo instance
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.InitRoutes(e, api.Deps{
		Hub:           hub,
		Devices:       deviceRepo,
		Auth:          authenticator,
		Conversations: conversationService,
		Reservations:  reservationService,
		Lister:        reservationRepo,
		Logger:        logger,
	})

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
