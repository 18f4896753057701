package processor

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/iptvmatchr/internal/domain"
	"github.com/varoOP/iptvmatchr/internal/iptveditor"
	"github.com/varoOP/iptvmatchr/internal/tmdb"
)

// Service drives one batch of show processing. The run is resumable:
// processing state is persisted after every single show, success or
// failure, and the not-found ledger is written through on each append.
type Service interface {
	Process(ctx context.Context) (*domain.RunStatistics, error)
}

type service struct {
	log        zerolog.Logger
	resolver   tmdb.Service
	client     iptveditor.Service
	stateRepo  domain.StateRepository
	ledgerRepo domain.LedgerRepository
	paths      *domain.Paths
	batchSize  int
}

func NewService(log zerolog.Logger, resolver tmdb.Service, client iptveditor.Service, stateRepo domain.StateRepository, ledgerRepo domain.LedgerRepository, paths *domain.Paths, batchSize int) Service {
	return &service{
		log:        log.With().Str("module", "processor").Logger(),
		resolver:   resolver,
		client:     client,
		stateRepo:  stateRepo,
		ledgerRepo: ledgerRepo,
		paths:      paths,
		batchSize:  batchSize,
	}
}

// Process runs one batch of size batchSize across the category-grouped
// show list, resuming from the persisted state. Only failure to load
// the initial lists or to persist state aborts the run; a single show's
// failure never does.
func (s *service) Process(ctx context.Context) (*domain.RunStatistics, error) {
	categories, err := s.client.GetCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load categories")
	}

	shows, err := s.client.GetShows(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load shows")
	}

	s.log.Info().
		Int("categories", len(categories)).
		Int("shows", len(shows)).
		Msg("Loaded playlist data")

	state, err := s.stateRepo.GetState(ctx, s.paths.StatePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load processing state")
	}

	ledger, err := s.ledgerRepo.GetLedger(ctx, s.paths.LedgerPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load not-found ledger")
	}

	grouped := groupByCategory(categories, shows)
	stats := &domain.RunStatistics{}

	catIdx, ok := s.currentCategoryIndex(categories, state)
	if !ok {
		s.log.Info().Msg("All categories processed, nothing to do")
		return stats, nil
	}

	remaining := s.batchSize
	for remaining > 0 {
		category := categories[catIdx]
		catShows := grouped[category.ID]

		if state.LastProcessedIndex >= len(catShows) {
			catIdx++
			if catIdx >= len(categories) {
				s.log.Info().Msg("Reached the end of the catalog")
				break
			}
			if err := s.advanceCategory(ctx, state, categories[catIdx]); err != nil {
				return stats, err
			}
			continue
		}

		show := catShows[state.LastProcessedIndex]
		s.log.Info().
			Str("category", category.Name).
			Int("index", state.LastProcessedIndex).
			Int("total", len(catShows)).
			Str("show", show.Name).
			Msg("Processing show")

		s.processShow(ctx, show, category, ledger, stats)

		// Advance and persist after every show regardless of outcome;
		// this is the resumability anchor.
		state.LastProcessedIndex++
		if err := s.stateRepo.StoreState(ctx, s.paths.StatePath, state); err != nil {
			return stats, errors.Wrap(err, "failed to persist processing state")
		}
		remaining--
	}

	// Record a category transition that lands exactly on a boundary so
	// the next run starts in the right place.
	if catIdx < len(categories) && state.LastProcessedIndex >= len(grouped[categories[catIdx].ID]) {
		if catIdx+1 < len(categories) {
			if err := s.advanceCategory(ctx, state, categories[catIdx+1]); err != nil {
				return stats, err
			}
		}
	}

	return stats, nil
}

// processShow handles a single show. Every error is caught at this
// boundary, recorded in the ledger, and processing continues.
func (s *service) processShow(ctx context.Context, show domain.Show, category domain.Category, ledger *domain.NotFoundLedger, stats *domain.RunStatistics) {
	stats.Processed++

	outcome, err := s.resolver.Search(ctx, show.Name)
	if err != nil {
		s.log.Error().Err(err).Str("show", show.Name).Msg("Failed to resolve show")
		stats.Errored++
		s.recordFailure(ctx, ledger, domain.NotFoundRecord{
			ID:           show.ID,
			Name:         show.Name,
			CategoryID:   show.CategoryID,
			CategoryName: category.Name,
			Error:        err.Error(),
		})
		return
	}

	if !outcome.Found {
		s.log.Warn().Str("show", show.Name).Msg("Show not found on TMDB")
		stats.NotFound++
		s.recordFailure(ctx, ledger, domain.NotFoundRecord{
			ID:                 show.ID,
			Name:               show.Name,
			CategoryID:         show.CategoryID,
			CategoryName:       category.Name,
			TransliteratedName: outcome.Transliterated,
		})
		return
	}

	s.log.Info().
		Str("show", show.Name).
		Str("matched", outcome.Result.Name).
		Int("tmdb_id", outcome.Result.TmdbID).
		Msg("Found TMDB match")

	// Warm the episodes cache. The listing is informational only, but
	// a failure here is still a per-show failure.
	if _, err := s.client.GetEpisodes(ctx, show.ID); err != nil {
		s.log.Error().Err(err).Str("show", show.Name).Msg("Failed to fetch episodes")
		stats.Errored++
		s.recordFailure(ctx, ledger, domain.NotFoundRecord{
			ID:           show.ID,
			Name:         show.Name,
			CategoryID:   show.CategoryID,
			CategoryName: category.Name,
			Error:        err.Error(),
		})
		return
	}

	if !s.client.UpdateShow(ctx, show.ID, outcome.Result.TmdbID, show.CategoryID) {
		stats.UpdateFailed++
		s.recordFailure(ctx, ledger, domain.NotFoundRecord{
			ID:           show.ID,
			Name:         show.Name,
			CategoryID:   show.CategoryID,
			CategoryName: category.Name,
			Error:        "backend rejected update",
		})
		return
	}

	s.log.Info().Str("show", show.Name).Msg("Updated show")
	stats.Updated++
}

// recordFailure appends to the ledger, de-duplicated by show id, and
// writes it through immediately so the record survives a crash.
func (s *service) recordFailure(ctx context.Context, ledger *domain.NotFoundLedger, rec domain.NotFoundRecord) {
	if !ledger.Append(rec) {
		return
	}
	if err := s.ledgerRepo.StoreLedger(ctx, s.paths.LedgerPath, ledger); err != nil {
		s.log.Error().Err(err).Int("show_id", rec.ID).Msg("Failed to persist not-found ledger")
	}
}

// currentCategoryIndex resolves the category the run should continue
// in. An unset state starts at the first category; a state pointing at
// a category that no longer exists restarts from the first.
func (s *service) currentCategoryIndex(categories []domain.Category, state *domain.ProcessingState) (int, bool) {
	if len(categories) == 0 {
		return 0, false
	}

	if state.CurrentCategoryID == nil {
		id := categories[0].ID
		state.CurrentCategoryID = &id
		return 0, true
	}

	for i, c := range categories {
		if c.ID == *state.CurrentCategoryID {
			return i, true
		}
	}

	s.log.Warn().
		Int("category_id", *state.CurrentCategoryID).
		Msg("Saved category no longer exists, restarting from the first")
	id := categories[0].ID
	state.CurrentCategoryID = &id
	state.LastProcessedIndex = 0
	return 0, true
}

func (s *service) advanceCategory(ctx context.Context, state *domain.ProcessingState, next domain.Category) error {
	id := next.ID
	state.CurrentCategoryID = &id
	state.LastProcessedIndex = 0
	s.log.Info().Str("category", next.Name).Msg("Advancing to next category")
	if err := s.stateRepo.StoreState(ctx, s.paths.StatePath, state); err != nil {
		return errors.Wrap(err, "failed to persist category transition")
	}
	return nil
}

// groupByCategory partitions shows per category, preserving the
// backend's show order within each.
func groupByCategory(categories []domain.Category, shows []domain.Show) map[int][]domain.Show {
	grouped := make(map[int][]domain.Show, len(categories))
	for _, show := range shows {
		grouped[show.CategoryID] = append(grouped[show.CategoryID], show)
	}
	return grouped
}
