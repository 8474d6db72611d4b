// Package sync orchestrates one sync attempt per list: token validation,
// per-source fetching, cross-source merge, and item replacement.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"reccord/internal/aggregate"
	"reccord/internal/models"
	"reccord/internal/repositories"
	"reccord/internal/services"
	"reccord/internal/tokens"
)

// Options tunes engine behavior; zero values fall back to defaults
type Options struct {
	ListSize          int
	TopSongsStaleness time.Duration
	PlaylistStaleness time.Duration
}

// Engine runs sync attempts. All collaborators are injected; the engine
// holds no global state and spawns no background work of its own.
type Engine struct {
	configs           repositories.SyncConfigRepository
	items             repositories.ListItemRepository
	managers          map[models.Service]tokens.Manager
	fetchers          map[models.Service]services.TrackFetcher
	listSize          int
	topSongsStaleness time.Duration
	playlistStaleness time.Duration
	now               func() time.Time
}

// NewEngine creates a sync engine over the given managers and fetchers.
// Services without both a manager and a fetcher are reported as source
// errors when a config asks for them.
func NewEngine(configs repositories.SyncConfigRepository, items repositories.ListItemRepository, managers []tokens.Manager, fetchers []services.TrackFetcher, opts Options) *Engine {
	managerMap := make(map[models.Service]tokens.Manager, len(managers))
	for _, m := range managers {
		managerMap[m.Service()] = m
	}
	fetcherMap := make(map[models.Service]services.TrackFetcher, len(fetchers))
	for _, f := range fetchers {
		fetcherMap[f.Service()] = f
	}

	e := &Engine{
		configs:           configs,
		items:             items,
		managers:          managerMap,
		fetchers:          fetcherMap,
		listSize:          opts.ListSize,
		topSongsStaleness: opts.TopSongsStaleness,
		playlistStaleness: opts.PlaylistStaleness,
		now:               time.Now,
	}
	if e.listSize <= 0 {
		e.listSize = aggregate.DefaultListSize
	}
	if e.topSongsStaleness <= 0 {
		e.topSongsStaleness = 24 * time.Hour
	}
	if e.playlistStaleness <= 0 {
		e.playlistStaleness = time.Hour
	}
	return e
}

// SyncList runs one sync attempt for one list
func (e *Engine) SyncList(ctx context.Context, listID string) (*Result, error) {
	cfg, err := e.configs.FindByList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("list %s: %w", listID, ErrConfigNotFound)
	}
	return e.syncConfig(ctx, cfg)
}

// SyncAllDue sweeps all candidate lists of one mode sequentially. A failure
// in one list, including a panic anywhere in its pipeline, is isolated and
// tallied; subsequent lists still run.
func (e *Engine) SyncAllDue(ctx context.Context, mode models.SyncMode) (*Sweep, error) {
	cutoff := e.now().Add(-e.staleness(mode))
	cfgs, err := e.configs.FindDue(ctx, mode, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to find due configs: %w", err)
	}

	sweep := &Sweep{Mode: mode, Candidates: len(cfgs)}
	for _, cfg := range cfgs {
		if err := e.syncIsolated(ctx, cfg); err != nil {
			sweep.Failed++
			slog.Error("List sync failed", "list_id", cfg.ListID, "mode", mode, "error", err)
			continue
		}
		sweep.Synced++
	}

	slog.Info("Sync sweep finished", "mode", mode,
		"candidates", sweep.Candidates, "synced", sweep.Synced, "failed", sweep.Failed)

	return sweep, nil
}

func (e *Engine) staleness(mode models.SyncMode) time.Duration {
	if mode == models.ModePlaylist {
		return e.playlistStaleness
	}
	return e.topSongsStaleness
}

// syncIsolated wraps one list's sync so a panic cannot take down the sweep
func (e *Engine) syncIsolated(ctx context.Context, cfg *models.SyncConfig) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during sync of list %s: %v", cfg.ListID, r)
		}
	}()
	_, err = e.syncConfig(ctx, cfg)
	return err
}

func (e *Engine) syncConfig(ctx context.Context, cfg *models.SyncConfig) (*Result, error) {
	if cfg.Mode == models.ModePlaylist {
		return e.syncPlaylist(ctx, cfg)
	}
	return e.syncTopSongs(ctx, cfg)
}

// syncTopSongs fetches each enabled source independently, merges, ranks,
// and replaces the list's items. Token and fetch failures are downgraded to
// per-source errors; only persistence failures abort the attempt.
func (e *Engine) syncTopSongs(ctx context.Context, cfg *models.SyncConfig) (*Result, error) {
	var batches [][]aggregate.Track
	var sourceErrors []SourceError

	for _, svc := range cfg.OrderedSources() {
		providerTracks, err := e.fetchSource(ctx, cfg, svc)
		if err != nil {
			slog.Warn("Source contributed nothing",
				"list_id", cfg.ListID, "service", svc, "error", err)
			sourceErrors = append(sourceErrors, SourceError{Service: svc, Err: err})
			continue
		}
		batches = append(batches, aggregate.Normalize(providerTracks, svc))
	}

	merged := aggregate.Merge(batches...)
	top := aggregate.SelectTop(merged, e.listSize)

	result := &Result{ListID: cfg.ListID, Errors: sourceErrors}

	if len(top) == 0 {
		// No listening history in the window. Prior items stay; the
		// watermark still advances so retries don't hot-loop.
		if err := e.configs.UpdateWatermark(ctx, cfg.ID, e.now()); err != nil {
			return nil, fmt.Errorf("failed to update watermark: %w", err)
		}
		result.Empty = true
		return result, nil
	}

	items := make([]*models.ListItem, len(top))
	for i, track := range top {
		items[i] = &models.ListItem{
			ListID:        cfg.ListID,
			Name:          track.Name,
			Description:   track.Artist,
			URL:           track.URL,
			SortOrder:     i,
			ISRC:          track.ISRC,
			AlbumName:     track.Album,
			SourceService: track.SourceTag(),
		}
	}

	if err := e.items.Replace(ctx, cfg.ListID, items); err != nil {
		return nil, fmt.Errorf("failed to replace list items: %w", err)
	}
	if err := e.configs.UpdateWatermark(ctx, cfg.ID, e.now()); err != nil {
		return nil, fmt.Errorf("failed to update watermark: %w", err)
	}

	result.ItemCount = len(items)
	return result, nil
}

// syncPlaylist mirrors the first ten tracks of a source playlist, in
// playlist order, with no aggregation
func (e *Engine) syncPlaylist(ctx context.Context, cfg *models.SyncConfig) (*Result, error) {
	result := &Result{ListID: cfg.ListID}

	sources := cfg.OrderedSources()
	if len(sources) == 0 {
		return nil, fmt.Errorf("playlist config for list %s has no source", cfg.ListID)
	}
	svc := sources[0]

	var playlistTracks []services.PlaylistTrack
	token, err := e.ensureValid(ctx, cfg, svc)
	if err == nil {
		fetcher, ok := e.fetchers[svc]
		if !ok {
			err = fmt.Errorf("no fetcher configured for %s", svc)
		} else {
			playlistTracks, err = fetcher.PlaylistTracks(ctx, token, cfg.PlaylistURL)
		}
	}
	if err != nil {
		slog.Warn("Playlist source contributed nothing",
			"list_id", cfg.ListID, "service", svc, "error", err)
		result.Errors = append(result.Errors, SourceError{Service: svc, Err: err})
	}

	if len(playlistTracks) == 0 {
		if err := e.configs.UpdateWatermark(ctx, cfg.ID, e.now()); err != nil {
			return nil, fmt.Errorf("failed to update watermark: %w", err)
		}
		result.Empty = true
		return result, nil
	}

	items := make([]*models.ListItem, len(playlistTracks))
	for i, track := range playlistTracks {
		items[i] = &models.ListItem{
			ListID:        cfg.ListID,
			Name:          track.Name,
			Description:   track.Description,
			URL:           track.URL,
			SortOrder:     i,
			SourceService: string(svc),
		}
	}

	if err := e.items.Replace(ctx, cfg.ListID, items); err != nil {
		return nil, fmt.Errorf("failed to replace list items: %w", err)
	}
	if err := e.configs.UpdateWatermark(ctx, cfg.ID, e.now()); err != nil {
		return nil, fmt.Errorf("failed to update watermark: %w", err)
	}

	result.ItemCount = len(items)
	return result, nil
}

// fetchSource runs token validation then the fetch for one source
func (e *Engine) fetchSource(ctx context.Context, cfg *models.SyncConfig, svc models.Service) ([]services.ProviderTrack, error) {
	token, err := e.ensureValid(ctx, cfg, svc)
	if err != nil {
		return nil, err
	}

	fetcher, ok := e.fetchers[svc]
	if !ok {
		return nil, fmt.Errorf("no fetcher configured for %s", svc)
	}

	return fetcher.TopTracks(ctx, token, cfg.TimeWindow)
}

func (e *Engine) ensureValid(ctx context.Context, cfg *models.SyncConfig, svc models.Service) (services.AccessToken, error) {
	manager, ok := e.managers[svc]
	if !ok {
		return services.AccessToken{}, fmt.Errorf("no token manager configured for %s", svc)
	}
	return manager.EnsureValid(ctx, cfg.UserID)
}
