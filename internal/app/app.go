package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"lumen-chat/backend/internal/api"
	"lumen-chat/backend/internal/config"
	"lumen-chat/backend/internal/conversation"
	"lumen-chat/backend/internal/gateway"
	"lumen-chat/backend/internal/llm"
	"lumen-chat/backend/internal/memory"
	"lumen-chat/backend/internal/storage"
	"lumen-chat/backend/internal/upload"
)

// App holds the wired application: storage, the conversation service and the
// configured HTTP server.
type App struct {
	Config  *config.Config
	KV      storage.KV
	Service *conversation.Service
	Server  *http.Server
}

// NewApp builds the full dependency graph from configuration. The memory and
// upload surfaces are optional and only wired when their credentials are set.
func NewApp(cfg *config.Config) (*App, error) {
	kv, err := openStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("could not open storage: %w", err)
	}

	store := conversation.NewStore(kv)
	if err := store.Load(context.Background()); err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("could not load conversations: %w", err)
	}

	provider := llm.NewClient(cfg.ChatAPIURL, cfg.ChatAPIKey, cfg.ChatModel)

	var memClient *memory.Client
	var memStore gateway.MemoryStore
	if cfg.Mem0APIKey != "" {
		memClient = memory.NewClient(cfg.Mem0APIURL, cfg.Mem0APIKey)
		memStore = memClient
	} else {
		slog.Info("Memory service not configured; running without long-term memory.")
	}

	gw := gateway.New(provider, memStore, cfg.SystemPrompt, cfg.MemoryLimit)
	engine := conversation.NewEngine(store, gw, cfg.DefaultUserID, time.Duration(cfg.TypingIntervalMS)*time.Millisecond)
	service := conversation.NewService(store, engine, conversation.NewAttachmentManager())

	chatHandler := api.NewChatHandler(service)

	var uploadHandler *api.UploadHandler
	if cfg.CloudinaryCloud != "" {
		uploader := upload.NewCloudinaryUploader("", cfg.CloudinaryCloud, cfg.CloudinaryKey, cfg.CloudinarySecret, cfg.CloudinaryFolder)
		uploadHandler = api.NewUploadHandler(uploader, service)
	} else {
		slog.Info("Upload service not configured; attachment routes disabled.")
	}

	var memoryHandler *api.MemoryHandler
	if memClient != nil {
		memoryHandler = api.NewMemoryHandler(memClient, cfg.DefaultUserID)
	}

	router := api.NewRouter(chatHandler, uploadHandler, memoryHandler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}

	return &App{Config: cfg, KV: kv, Service: service, Server: server}, nil
}

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	setupLogger(cfg.LogLevel)
	logConfigSource()

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		return 1
	}
	defer func() {
		if err := app.KV.Close(); err != nil {
			slog.Error("Failed to close storage", "error", err)
		}
	}()

	slog.Info("Starting server", "port", cfg.AppPort, "storage", cfg.StorageBackend)
	if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server failed", "error", err)
		return 1
	}

	return 0
}

func openStorage(cfg *config.Config) (storage.KV, error) {
	switch strings.ToLower(cfg.StorageBackend) {
	case "redis":
		return storage.NewRedisKV(cfg.RedisAddr)
	case "sqlite", "":
		return storage.OpenSQLite(cfg.DatabasePath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
}

func setupLogger(logLevel string) {
	var level slog.Level
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}
