package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/iptvmatchr/internal/domain"
)

// Service resolves show titles to TMDB identities. Search never guesses
// in the face of transport or protocol errors; it only guesses when the
// provider legitimately returns nothing.
type Service interface {
	Search(ctx context.Context, title string) (*domain.SearchOutcome, error)
	Details(ctx context.Context, tmdbID int) (*domain.ShowDetails, error)
}

type service struct {
	log        zerolog.Logger
	config     *domain.Config
	cache      domain.CacheRepo
	overrides  *domain.MatchOverrides
	httpClient *http.Client
}

type searchResponse struct {
	Page         int             `json:"page"`
	Results      json.RawMessage `json:"results"`
	TotalResults int             `json:"total_results"`
}

type searchCandidate struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	OriginalName     string `json:"original_name"`
	OriginalLanguage string `json:"original_language"`
	FirstAirDate     string `json:"first_air_date"`
}

func NewService(log zerolog.Logger, config *domain.Config, cache domain.CacheRepo, overrides *domain.MatchOverrides) Service {
	return &service{
		log:        log.With().Str("module", "tmdb").Logger(),
		config:     config,
		cache:      cache,
		overrides:  overrides,
		httpClient: &http.Client{},
	}
}

// Search resolves a title. A nil error with Found = false is a clean
// not-found; both outcomes are cached under the title so the network
// path is never repeated for the same title.
func (s *service) Search(ctx context.Context, title string) (*domain.SearchOutcome, error) {
	if tmdbID, ok := s.overrides.Lookup(title); ok {
		s.log.Info().Str("title", title).Int("tmdb_id", tmdbID).Msg("Using manual match override")
		return &domain.SearchOutcome{
			Found:  true,
			Result: domain.MatchResult{TmdbID: tmdbID, Name: title},
		}, nil
	}

	if raw, ok := s.cache.Get(ctx, domain.NamespaceSearch, title); ok {
		outcome := &domain.SearchOutcome{}
		if err := json.Unmarshal(raw, outcome); err == nil {
			return outcome, nil
		}
		s.log.Warn().Str("title", title).Msg("corrupt cached search outcome, refetching")
	}

	script := domain.DetectScript(title)
	s.log.Debug().Str("title", title).Str("script", string(script)).Msg("Detected title script")

	outcome := &domain.SearchOutcome{}

	match, empty, err := s.query(ctx, title, script)
	if err != nil {
		return nil, err
	}

	// Empty result set for a non-Latin title: retry with a
	// transliterated Latin form, then once more with the original title
	// under a Latin language hint. Candidates that were returned but
	// not selected are a clean not-found, not a reason to retry.
	if empty && script != domain.ScriptLatin {
		outcome.Transliterated = domain.Transliterate(title)
		s.log.Info().
			Str("title", title).
			Str("transliterated", outcome.Transliterated).
			Msg("No results in detected script, retrying with transliteration")

		match, empty, err = s.query(ctx, outcome.Transliterated, domain.ScriptLatin)
		if err != nil {
			return nil, err
		}

		if empty {
			match, _, err = s.query(ctx, title, domain.ScriptLatin)
			if err != nil {
				return nil, err
			}
		}
	}

	if match != nil {
		outcome.Found = true
		outcome.Result = *match
	} else {
		s.log.Warn().Str("title", title).Msg("No TMDB match found")
	}

	s.cache.Set(ctx, domain.NamespaceSearch, title, outcome)
	return outcome, nil
}

// Details fetches extended metadata for a TMDB id, cached under the
// details namespace.
func (s *service) Details(ctx context.Context, tmdbID int) (*domain.ShowDetails, error) {
	key := strconv.Itoa(tmdbID)
	if raw, ok := s.cache.Get(ctx, domain.NamespaceDetails, key); ok {
		details := &domain.ShowDetails{}
		if err := json.Unmarshal(raw, details); err == nil {
			return details, nil
		}
		s.log.Warn().Int("tmdb_id", tmdbID).Msg("corrupt cached details, refetching")
	}

	target, err := url.Parse(s.config.TmdbBaseURL + "/tv/" + key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build details url")
	}
	query := target.Query()
	query.Add("api_key", s.config.TmdbApiKey)
	query.Add("language", "en-US")
	target.RawQuery = query.Encode()

	body, err := s.fetch(ctx, target.String())
	if err != nil {
		return nil, err
	}

	details := &domain.ShowDetails{}
	if err := json.Unmarshal(body, details); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal details response")
	}
	if details.ID == 0 {
		return nil, errors.Errorf("malformed details response for tmdb id %d: missing id", tmdbID)
	}

	s.cache.Set(ctx, domain.NamespaceDetails, key, details)
	return details, nil
}

// query runs one search against the provider and applies the selection
// policy: exact title match first, then original-language match against
// the hint, then the first result if the fallback is enabled. The bool
// reports whether the provider returned no candidates at all, which is
// the only condition the caller retries on.
func (s *service) query(ctx context.Context, title string, lang domain.Script) (*domain.MatchResult, bool, error) {
	target, err := url.Parse(s.config.TmdbBaseURL + "/search/tv")
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to build search url")
	}
	query := target.Query()
	query.Add("api_key", s.config.TmdbApiKey)
	query.Add("language", string(lang))
	query.Add("query", title)
	query.Add("include_adult", "true")
	query.Add("page", "1")
	target.RawQuery = query.Encode()

	body, err := s.fetch(ctx, target.String())
	if err != nil {
		return nil, false, err
	}

	resp := &searchResponse{}
	if err := json.Unmarshal(body, resp); err != nil {
		return nil, false, errors.Wrap(err, "failed to unmarshal search response")
	}
	if resp.Results == nil {
		return nil, false, errors.Errorf("malformed search response for %q: missing results", title)
	}

	var candidates []searchCandidate
	if err := json.Unmarshal(resp.Results, &candidates); err != nil {
		return nil, false, errors.Wrap(err, "failed to unmarshal search results")
	}

	if len(candidates) == 0 {
		return nil, true, nil
	}

	if match := selectCandidate(candidates, title, lang, s.config.FallbackToFirstResult); match != nil {
		if match.ID == 0 {
			return nil, false, errors.Errorf("malformed search candidate for %q: missing id", title)
		}
		return &domain.MatchResult{
			TmdbID:           match.ID,
			Name:             candidateName(match),
			OriginalLanguage: match.OriginalLanguage,
		}, false, nil
	}

	s.log.Debug().
		Str("title", title).
		Str("language", string(lang)).
		Int("candidates", len(candidates)).
		Msg("No suitable candidate (fallback disabled)")
	return nil, false, nil
}

func (s *service) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	return body, nil
}

func selectCandidate(candidates []searchCandidate, title string, lang domain.Script, fallback bool) *searchCandidate {
	for i := range candidates {
		if strings.EqualFold(candidates[i].Name, title) || strings.EqualFold(candidates[i].OriginalName, title) {
			return &candidates[i]
		}
	}

	for i := range candidates {
		if candidates[i].OriginalLanguage == string(lang) {
			return &candidates[i]
		}
	}

	if fallback {
		return &candidates[0]
	}

	return nil
}

func candidateName(c *searchCandidate) string {
	if c.Name != "" {
		return c.Name
	}
	return c.OriginalName
}
