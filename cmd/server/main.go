package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"reccord/internal/cache"
	"reccord/internal/config"
	"reccord/internal/handlers"
	"reccord/internal/models"
	"reccord/internal/repositories"
	"reccord/internal/services"
	syncengine "reccord/internal/sync"
	"reccord/internal/tokens"
)

func main() {
	// Load .env file for local development
	_ = godotenv.Load()

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize database
	db, err := models.NewDatabase(context.Background(), cfg.MongodbURL, "reccord")
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close(context.Background())

	if err := db.CreateIndexes(context.Background()); err != nil {
		slog.Error("Failed to create indexes", "error", err)
		os.Exit(1)
	}

	// Initialize cache; fall back to in-memory when Valkey is not configured
	var tokenCache cache.Cache
	if cfg.ValkeyURL != "" {
		tokenCache, err = cache.NewValkeyCache(cfg.ValkeyURL)
		if err != nil {
			slog.Error("Failed to initialize cache", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("VALKEY_URL not set, using in-memory cache")
		tokenCache = cache.NewMemoryCache()
	}
	defer tokenCache.Close()

	// Initialize repositories
	credentialRepo := repositories.NewMongoCredentialRepository(db)
	configRepo := repositories.NewMongoSyncConfigRepository(db)
	itemRepo := repositories.NewMongoListItemRepository(db)

	// Initialize fetchers and token managers for the configured services
	var managers []tokens.Manager
	var fetchers []services.TrackFetcher

	if cfg.SpotifyEnabled() {
		managers = append(managers, tokens.NewSpotifyTokenManager(credentialRepo, cfg.SpotifyClientID, cfg.SpotifyClientSecret))
		fetchers = append(fetchers, services.NewSpotifyService(cfg.ProviderTimeout))
	}
	if cfg.AppleMusicEnabled() {
		appleManager, err := tokens.NewAppleTokenManager(credentialRepo, tokenCache, cfg.AppleMusicKeyID, cfg.AppleMusicTeamID, cfg.AppleMusicKeyFile)
		if err != nil {
			slog.Error("Failed to initialize Apple Music token manager", "error", err)
			os.Exit(1)
		}
		managers = append(managers, appleManager)
		fetchers = append(fetchers, services.NewAppleMusicService(cfg.ProviderTimeout))
	}

	if len(fetchers) == 0 {
		slog.Warn("No streaming services configured, sync will report errors for every source")
	}

	engine := syncengine.NewEngine(configRepo, itemRepo, managers, fetchers, syncengine.Options{
		ListSize:          cfg.ListSize,
		TopSongsStaleness: cfg.TopSongsStaleness,
		PlaylistStaleness: cfg.PlaylistStaleness,
	})

	// Wire HTTP routes
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	handlers.NewSyncHandler(engine).RegisterRoutes(router)

	slog.Info("Starting server", "port", cfg.Port, "services", cfg.EnabledServices())
	if err := router.Run(":" + cfg.Port); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
