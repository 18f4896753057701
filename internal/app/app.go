package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/varoOP/iptvmatchr/internal/config"
	"github.com/varoOP/iptvmatchr/internal/database"
	"github.com/varoOP/iptvmatchr/internal/domain"
	"github.com/varoOP/iptvmatchr/internal/iptveditor"
	"github.com/varoOP/iptvmatchr/internal/logger"
	"github.com/varoOP/iptvmatchr/internal/notification"
	"github.com/varoOP/iptvmatchr/internal/processor"
	"github.com/varoOP/iptvmatchr/internal/repository"
	"github.com/varoOP/iptvmatchr/internal/tmdb"
)

// fileStore is the file-backed persistence the app depends on.
type fileStore interface {
	domain.StateRepository
	domain.LedgerRepository
	domain.OverrideRepository
}

// App represents the main application with all dependencies initialized
type App struct {
	log                 zerolog.Logger
	config              *domain.Config
	fileRepo            fileStore
	notificationService domain.NotificationService
}

// NewApp creates a new application instance with all dependencies initialized
func NewApp() (*App, error) {
	// Initialize logger
	log := logger.NewLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &App{
		log:                 log,
		config:              cfg,
		fileRepo:            repository.NewFileRepository(log),
		notificationService: notification.NewService(log, cfg.DiscordWebhookURL),
	}, nil
}

// Run executes one processing batch rooted at rootPath. batchSize
// overrides the configured batch size when positive.
func (a *App) Run(rootPath string, batchSize int) (err error) {
	ctx := context.Background()

	// Send error notification if run fails
	defer func() {
		if err != nil {
			if notifyErr := a.notificationService.SendError(ctx, err); notifyErr != nil {
				a.log.Warn().Err(notifyErr).Msg("Failed to send error notification")
			}
		}
	}()

	if batchSize <= 0 {
		batchSize = a.config.BatchSize
	}

	paths := domain.NewPaths(rootPath)

	// Open the cache store for the lifetime of the run
	db, err := database.NewDB(rootPath, a.log)
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	defer db.Close()

	cacheRepo := database.NewCacheRepo(a.log, db)

	// Flush cache statistics at the end of the run, including on abort
	defer cacheRepo.Report()

	// The summary covers whatever was processed, including the partial
	// batch of an aborted run
	var stats *domain.RunStatistics
	defer func() {
		if stats == nil {
			return
		}
		a.log.Info().
			Int("processed", stats.Processed).
			Int("updated", stats.Updated).
			Int("not_found", stats.NotFound).
			Int("update_failed", stats.UpdateFailed).
			Int("errors", stats.Errored).
			Msg("=== BATCH SUMMARY ===")
	}()

	// Manual match overrides are optional; a broken file should not
	// stop the batch
	overrides, err := a.fileRepo.GetOverrides(ctx, paths.OverridesPath)
	if err != nil {
		a.log.Warn().Err(err).Msg("Failed to load match overrides, continuing without them")
		overrides = &domain.MatchOverrides{}
		err = nil
	}

	resolver := tmdb.NewService(a.log, a.config, cacheRepo, overrides)
	client := iptveditor.NewService(a.log, a.config, cacheRepo)
	proc := processor.NewService(a.log, resolver, client, a.fileRepo, a.fileRepo, paths, batchSize)

	stats, err = proc.Process(ctx)
	if err != nil {
		return fmt.Errorf("batch processing failed: %w", err)
	}

	if notifyErr := a.notificationService.SendSuccess(ctx, *stats); notifyErr != nil {
		a.log.Warn().Err(notifyErr).Msg("Failed to send success notification")
	}

	return nil
}

// GenerateOverrides seeds or refreshes the match-overrides file from
// the not-found ledger, preserving TMDB ids already filled in by hand.
func (a *App) GenerateOverrides(rootPath string) error {
	ctx := context.Background()
	paths := domain.NewPaths(rootPath)

	ledger, err := a.fileRepo.GetLedger(ctx, paths.LedgerPath)
	if err != nil {
		return fmt.Errorf("failed to load not-found ledger: %w", err)
	}

	overrides, err := a.fileRepo.GetOverrides(ctx, paths.OverridesPath)
	if err != nil {
		return fmt.Errorf("failed to load match overrides: %w", err)
	}

	added := 0
	for _, rec := range ledger.Shows {
		if !overrides.Has(rec.Name) {
			overrides.Add(rec.Name, 0)
			added++
		}
	}

	if err := a.fileRepo.StoreOverrides(ctx, paths.OverridesPath, overrides); err != nil {
		return fmt.Errorf("failed to store match overrides: %w", err)
	}

	a.log.Info().
		Int("added", added).
		Int("total", len(overrides.Overrides)).
		Str("path", paths.OverridesPath).
		Msg("Match overrides updated")

	return nil
}

// CacheStats prints per-namespace entry counts from the cache store.
func (a *App) CacheStats(rootPath string) error {
	ctx := context.Background()

	db, err := database.NewDB(rootPath, a.log)
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	defer db.Close()

	cacheRepo := database.NewCacheRepo(a.log, db)
	counts, err := cacheRepo.CountByNamespace(ctx)
	if err != nil {
		return fmt.Errorf("failed to count cache entries: %w", err)
	}

	total := 0
	for _, namespace := range []string{domain.NamespaceSearch, domain.NamespaceDetails, domain.NamespaceEpisodes, domain.NamespaceUpdate} {
		fmt.Printf("%-10s %d\n", namespace, counts[namespace])
		total += counts[namespace]
	}
	fmt.Printf("%-10s %d\n", "total", total)

	return nil
}
