package iptveditor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/iptvmatchr/internal/domain"
)

// updateAck is the literal body the editor API returns for an accepted
// save. Anything else is a failed update.
const updateAck = `{"status":"ok"}`

// Service is the IPTV Editor backend client. Category and show lists
// are fetched once per run and never cached; episode listings and
// updates are cached by composite key.
type Service interface {
	GetCategories(ctx context.Context) ([]domain.Category, error)
	GetShows(ctx context.Context) ([]domain.Show, error)
	GetEpisodes(ctx context.Context, showID int) (*domain.EpisodeList, error)
	UpdateShow(ctx context.Context, showID, tmdbID, categoryID int) bool
}

type service struct {
	log        zerolog.Logger
	config     *domain.Config
	cache      domain.CacheRepo
	httpClient *http.Client
}

type getDataRequest struct {
	Playlist string `json:"playlist"`
	Token    string `json:"token"`
}

type episodesRequest struct {
	SeriesID string  `json:"seriesId"`
	URL      *string `json:"url"`
	Token    string  `json:"token"`
}

type updateRequest struct {
	Items      []updateItem `json:"items"`
	CheckSaved bool         `json:"checkSaved"`
	Token      string       `json:"token"`
}

type updateItem struct {
	ID             int    `json:"id"`
	Tmdb           int    `json:"tmdb"`
	YoutubeTrailer string `json:"youtube_trailer"`
	Category       int    `json:"category"`
}

type itemsEnvelope struct {
	Items json.RawMessage `json:"items"`
}

func NewService(log zerolog.Logger, config *domain.Config, cache domain.CacheRepo) Service {
	return &service{
		log:        log.With().Str("module", "iptveditor").Logger(),
		config:     config,
		cache:      cache,
		httpClient: &http.Client{},
	}
}

// GetCategories fetches the category list. Not cached; loaded once per
// run and fatal to the run when it fails.
func (s *service) GetCategories(ctx context.Context) ([]domain.Category, error) {
	body, err := s.post(ctx, "/category/series/get-data", getDataRequest{
		Playlist: s.config.PlaylistID,
		Token:    s.config.EditorToken,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get categories")
	}

	var categories []domain.Category
	if err := unmarshalItems(body, &categories); err != nil {
		return nil, errors.Wrap(err, "malformed categories response")
	}

	return categories, nil
}

// GetShows fetches the show list. Not cached.
func (s *service) GetShows(ctx context.Context) ([]domain.Show, error) {
	body, err := s.post(ctx, "/stream/series/get-data", getDataRequest{
		Playlist: s.config.PlaylistID,
		Token:    s.config.EditorToken,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get shows")
	}

	var shows []domain.Show
	if err := unmarshalItems(body, &shows); err != nil {
		return nil, errors.Wrap(err, "malformed shows response")
	}

	return shows, nil
}

// GetEpisodes fetches the episode listing for a show, cached under the
// episodes namespace keyed by show id.
func (s *service) GetEpisodes(ctx context.Context, showID int) (*domain.EpisodeList, error) {
	key := strconv.Itoa(showID)
	if raw, ok := s.cache.Get(ctx, domain.NamespaceEpisodes, key); ok {
		episodes := &domain.EpisodeList{}
		if err := json.Unmarshal(raw, episodes); err == nil {
			return episodes, nil
		}
		s.log.Warn().Int("show_id", showID).Msg("corrupt cached episodes, refetching")
	}

	body, err := s.post(ctx, "/episode/get-data", episodesRequest{
		SeriesID: key,
		Token:    s.config.EditorToken,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get episodes for show %d", showID)
	}

	// The listing is informational; a payload without items is an
	// empty listing, not an error.
	episodes := &domain.EpisodeList{}
	if err := json.Unmarshal(body, episodes); err != nil {
		return nil, errors.Wrapf(err, "malformed episodes response for show %d", showID)
	}

	s.cache.Set(ctx, domain.NamespaceEpisodes, key, json.RawMessage(body))
	return episodes, nil
}

// UpdateShow pushes the matched TMDB id back to the backend. Success is
// the backend echoing the literal acknowledgement; any other body, or a
// transport error, reports false rather than an error. Responses are
// cached by (show, tmdb, category), so a resumed run re-evaluates the
// cached acknowledgement instead of re-posting.
func (s *service) UpdateShow(ctx context.Context, showID, tmdbID, categoryID int) bool {
	key := fmt.Sprintf("%d:%d:%d", showID, tmdbID, categoryID)
	if raw, ok := s.cache.Get(ctx, domain.NamespaceUpdate, key); ok {
		return isAck(raw)
	}

	body, err := s.post(ctx, "/stream/series/save", updateRequest{
		Items: []updateItem{{
			ID:             showID,
			Tmdb:           tmdbID,
			YoutubeTrailer: "",
			Category:       categoryID,
		}},
		CheckSaved: false,
		Token:      s.config.EditorToken,
	})
	if err != nil {
		s.log.Error().Err(err).Int("show_id", showID).Int("tmdb_id", tmdbID).Msg("Failed to update show")
		return false
	}

	if json.Valid(body) {
		s.cache.Set(ctx, domain.NamespaceUpdate, key, json.RawMessage(body))
	}

	if !isAck(body) {
		s.log.Warn().
			Int("show_id", showID).
			Int("tmdb_id", tmdbID).
			Str("body", string(body)).
			Msg("Backend did not acknowledge update")
		return false
	}

	return true
}

func (s *service) post(ctx context.Context, path string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.EditorBaseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	return body, nil
}

// unmarshalItems decodes the backend's {items: [...]} envelope, failing
// fast when the expected field is absent.
func unmarshalItems(body []byte, v any) error {
	envelope := &itemsEnvelope{}
	if err := json.Unmarshal(body, envelope); err != nil {
		return errors.Wrap(err, "failed to unmarshal envelope")
	}
	if envelope.Items == nil {
		return errors.New("missing items field")
	}
	return json.Unmarshal(envelope.Items, v)
}

func isAck(body []byte) bool {
	return strings.TrimSpace(string(body)) == updateAck
}
