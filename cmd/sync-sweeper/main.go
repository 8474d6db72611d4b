// Command sync-sweeper runs one batch sweep over all due lists. It is meant
// to be invoked from cron or a scheduler; on-demand syncs go through the
// server's HTTP API instead.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"reccord/internal/cache"
	"reccord/internal/config"
	"reccord/internal/models"
	"reccord/internal/repositories"
	"reccord/internal/services"
	syncengine "reccord/internal/sync"
	"reccord/internal/tokens"
)

func main() {
	modeFlag := flag.String("mode", "top-songs", "which lists to sweep: top-songs or playlist")
	flag.Parse()

	var mode models.SyncMode
	switch *modeFlag {
	case "top-songs":
		mode = models.ModeTopSongs
	case "playlist":
		mode = models.ModePlaylist
	default:
		slog.Error("Unknown mode", "mode", *modeFlag)
		os.Exit(2)
	}

	// Load .env file for local development
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := models.NewDatabase(ctx, cfg.MongodbURL, "reccord")
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close(ctx)

	var tokenCache cache.Cache
	if cfg.ValkeyURL != "" {
		tokenCache, err = cache.NewValkeyCache(cfg.ValkeyURL)
		if err != nil {
			slog.Error("Failed to initialize cache", "error", err)
			os.Exit(1)
		}
	} else {
		tokenCache = cache.NewMemoryCache()
	}
	defer tokenCache.Close()

	credentialRepo := repositories.NewMongoCredentialRepository(db)
	configRepo := repositories.NewMongoSyncConfigRepository(db)
	itemRepo := repositories.NewMongoListItemRepository(db)

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

	engine := syncengine.NewEngine(configRepo, itemRepo, managers, fetchers, syncengine.Options{
		ListSize:          cfg.ListSize,
		TopSongsStaleness: cfg.TopSongsStaleness,
		PlaylistStaleness: cfg.PlaylistStaleness,
	})

	sweep, err := engine.SyncAllDue(ctx, mode)
	if err != nil {
		slog.Error("Sweep failed", "mode", mode, "error", err)
		os.Exit(1)
	}

	slog.Info("Sweep complete",
		"mode", sweep.Mode,
		"candidates", sweep.Candidates,
		"synced", sweep.Synced,
		"failed", sweep.Failed)

	if sweep.Failed > 0 {
		os.Exit(1)
	}
}
