package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/varoOP/iptvmatchr/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileRepository implements the state, ledger and override repositories
// using plain files. State and ledger are JSON documents rewritten
// wholesale on every store so a crash never leaves a partial append.
type FileRepository struct {
	log zerolog.Logger
}

// NewFileRepository creates a new file-based repository
func NewFileRepository(log zerolog.Logger) *FileRepository {
	return &FileRepository{
		log: log.With().Str("module", "repository").Logger(),
	}
}

// Ensure FileRepository implements the repository interfaces
var _ domain.StateRepository = (*FileRepository)(nil)
var _ domain.LedgerRepository = (*FileRepository)(nil)
var _ domain.OverrideRepository = (*FileRepository)(nil)

// GetState loads the processing state. A missing file starts a fresh
// session rather than erroring.
func (r *FileRepository) GetState(ctx context.Context, path string) (*domain.ProcessingState, error) {
	state := &domain.ProcessingState{}

	body, err := r.readFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.log.Info().Msg("No state file found, starting new processing session")
			return state, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(body, state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state from %s: %w", path, err)
	}

	r.log.Info().Int("last_processed_index", state.LastProcessedIndex).Msg("Resuming from saved state")
	return state, nil
}

// StoreState rewrites the state file.
func (r *FileRepository) StoreState(ctx context.Context, path string, state *domain.ProcessingState) error {
	if err := r.writeJSON(path, state); err != nil {
		return err
	}

	r.log.Debug().Int("last_processed_index", state.LastProcessedIndex).Msg("stored state")
	return nil
}

// GetLedger loads the not-found ledger. A missing file yields an empty
// ledger.
func (r *FileRepository) GetLedger(ctx context.Context, path string) (*domain.NotFoundLedger, error) {
	ledger := &domain.NotFoundLedger{}

	body, err := r.readFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ledger, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(body, ledger); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ledger from %s: %w", path, err)
	}

	return ledger, nil
}

// StoreLedger rewrites the ledger file.
func (r *FileRepository) StoreLedger(ctx context.Context, path string, ledger *domain.NotFoundLedger) error {
	if err := r.writeJSON(path, ledger); err != nil {
		return err
	}

	r.log.Debug().Int("total", ledger.Total).Msg("stored not-found ledger")
	return nil
}

// GetOverrides loads the manual match-overrides file. A missing file
// yields an empty set.
func (r *FileRepository) GetOverrides(ctx context.Context, path string) (*domain.MatchOverrides, error) {
	overrides := &domain.MatchOverrides{}

	body, err := r.readFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return overrides, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(body, overrides); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml from %s: %w", path, err)
	}

	return overrides, nil
}

// StoreOverrides saves the match-overrides file, one blank line between
// entries so the file stays hand-editable.
func (r *FileRepository) StoreOverrides(ctx context.Context, path string, overrides *domain.MatchOverrides) error {
	b, err := yaml.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("failed to marshal yaml: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	text := string(b)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.Contains(line, "tmdbid") {
			lines[i] += "\n"
		}
	}

	modifiedText := strings.Join(lines, "\n")
	defer f.Close()
	_, err = f.Write([]byte(modifiedText))
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	r.log.Debug().Str("path", path).Int("count", len(overrides.Overrides)).Msg("stored match overrides")
	return nil
}

func (r *FileRepository) readFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return body, nil
}

func (r *FileRepository) writeJSON(path string, v any) error {
	j, err := json.MarshalIndent(v, "", "   ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(j); err != nil {
		return fmt.Errorf("failed to write to file %s: %w", path, err)
	}

	return nil
}
