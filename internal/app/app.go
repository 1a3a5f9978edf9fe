// Package app wires configuration, storage, clients, and services together
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/akakabu/akakabu-server/internal/clients/gemini"
	"github.com/akakabu/akakabu-server/internal/clients/jquants"
	"github.com/akakabu/akakabu-server/internal/common"
	"github.com/akakabu/akakabu-server/internal/interfaces"
	"github.com/akakabu/akakabu-server/internal/services/favorites"
	"github.com/akakabu/akakabu-server/internal/services/stocks"
	"github.com/akakabu/akakabu-server/internal/storage/surrealdb"
)

// App holds all initialized services and clients.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Storage     interfaces.StorageManager
	JQuants     interfaces.QuotesClient
	Gemini      interfaces.GeminiClient
	Stocks      interfaces.StockService
	Favorites   interfaces.FavoriteService
	Scheduler   *Scheduler
	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes storage, clients, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Config resolution: explicit path, AKAKABU_CONFIG, binary dir, dev fallback
	if configPath == "" {
		configPath = os.Getenv("AKAKABU_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "akakabu.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/akakabu.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLogger(config.Logging.Level)

	storageManager, err := surrealdb.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	quotesClient := jquants.NewClient(
		jquants.WithBaseURL(config.Clients.JQuants.BaseURL),
		jquants.WithRateLimit(config.Clients.JQuants.RateLimit),
		jquants.WithTimeout(config.Clients.JQuants.GetTimeout()),
		jquants.WithLogger(logger),
		jquants.WithCredentialWriter(storageManager.CredentialStore()),
	)

	var geminiClient interfaces.GeminiClient
	if config.Clients.Gemini.APIKey != "" {
		gc, err := gemini.NewClient(context.Background(), config.Clients.Gemini.APIKey,
			gemini.WithModel(config.Clients.Gemini.Model),
			gemini.WithLogger(logger),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Gemini client unavailable - stock insights disabled")
		} else {
			geminiClient = gc
		}
	} else {
		logger.Info().Msg("Gemini API key not configured - stock insights disabled")
	}

	stockService := stocks.NewService(quotesClient, geminiClient, logger)
	favoriteService := favorites.NewService(storageManager, logger)

	a := &App{
		Config:      config,
		Logger:      logger,
		Storage:     storageManager,
		JQuants:     quotesClient,
		Gemini:      geminiClient,
		Stocks:      stockService,
		Favorites:   favoriteService,
		StartupTime: time.Now(),
	}

	a.Scheduler = NewScheduler(quotesClient, storageManager.CredentialStore(), logger)
	if err := a.Scheduler.Start(config.Auth.RefreshSchedule); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info().
		Str("version", common.GetVersion()).
		Str("environment", config.Environment).
		Msg("Application initialized")

	return a, nil
}

// Close shuts down the scheduler and storage.
func (a *App) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Storage close failed")
		}
	}
}
