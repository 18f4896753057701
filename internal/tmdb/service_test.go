package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/varoOP/iptvmatchr/internal/domain"
)

// memCache is an in-memory domain.CacheRepo for tests.
type memCache struct {
	entries map[string]json.RawMessage
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]json.RawMessage)}
}

func (m *memCache) Get(ctx context.Context, namespace, key string) (json.RawMessage, bool) {
	v, ok := m.entries[namespace+"|"+key]
	return v, ok
}

func (m *memCache) Set(ctx context.Context, namespace, key string, value any) {
	b, err := json.Marshal(value)
	if err != nil {
		return
	}
	m.entries[namespace+"|"+key] = b
}

func (m *memCache) Stats() []domain.NamespaceStats { return nil }

func testConfig(baseURL string) *domain.Config {
	return &domain.Config{
		TmdbApiKey:            "test-key",
		TmdbBaseURL:           baseURL,
		FallbackToFirstResult: true,
	}
}

func searchBody(candidates ...map[string]any) string {
	body := map[string]any{
		"page":          1,
		"results":       candidates,
		"total_results": len(candidates),
	}
	if candidates == nil {
		body["results"] = []any{}
	}
	b, _ := json.Marshal(body)
	return string(b)
}

func TestSearchExactMatchPreferred(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/search/tv", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		// a popular decoy first, the exact match second
		fmt.Fprint(w, searchBody(
			map[string]any{"id": 999, "name": "Breaking Bad Extras", "original_name": "Breaking Bad Extras", "original_language": "en"},
			map[string]any{"id": 1396, "name": "Breaking Bad", "original_name": "Breaking Bad", "original_language": "en"},
		))
	}))
	defer srv.Close()

	svc := NewService(zerolog.Nop(), testConfig(srv.URL), newMemCache(), nil)

	outcome, err := svc.Search(context.Background(), "Breaking Bad")
	require.NoError(t, err)
	require.True(t, outcome.Found)
	assert.Equal(t, 1396, outcome.Result.TmdbID)
	assert.Equal(t, "Breaking Bad", outcome.Result.Name)
	assert.Empty(t, outcome.Transliterated)
	assert.Equal(t, 1, requests)
}

func TestSearchSecondCallHitsCache(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, searchBody(
			map[string]any{"id": 1396, "name": "Breaking Bad", "original_name": "Breaking Bad", "original_language": "en"},
		))
	}))
	defer srv.Close()

	svc := NewService(zerolog.Nop(), testConfig(srv.URL), newMemCache(), nil)
	ctx := context.Background()

	first, err := svc.Search(ctx, "Breaking Bad")
	require.NoError(t, err)
	second, err := svc.Search(ctx, "Breaking Bad")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, requests)
}

func TestSearchCachesNotFoundSentinel(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, searchBody())
	}))
	defer srv.Close()

	svc := NewService(zerolog.Nop(), testConfig(srv.URL), newMemCache(), nil)
	ctx := context.Background()

	outcome, err := svc.Search(ctx, "No Such Show")
	require.NoError(t, err)
	assert.False(t, outcome.Found)

	outcome, err = svc.Search(ctx, "No Such Show")
	require.NoError(t, err)
	assert.False(t, outcome.Found)

	// Latin title: one query on the first call, none on the second
	assert.Equal(t, 1, requests)
}

func TestSearchLanguageMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchBody(
			map[string]any{"id": 10, "name": "Some English Remake", "original_name": "Some English Remake", "original_language": "en"},
			map[string]any{"id": 20, "name": "Bab Al Hara", "original_name": "باب الحارة", "original_language": "ar"},
		))
	}))
	defer srv.Close()

	svc := NewService(zerolog.Nop(), testConfig(srv.URL), newMemCache(), nil)

	// Arabic title, no exact match: the candidate whose original
	// language equals the detected script wins over the first result.
	outcome, err := svc.Search(context.Background(), "مسلسل الحارة")
	require.NoError(t, err)
	require.True(t, outcome.Found)
	assert.Equal(t, 20, outcome.Result.TmdbID)
	assert.Equal(t, "ar", outcome.Result.OriginalLanguage)
}

func TestSearchFallbackDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, searchBody(
			map[string]any{"id": 10, "name": "Unrelated", "original_name": "Unrelated", "original_language": "fr"},
		))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.FallbackToFirstResult = false
	svc := NewService(zerolog.Nop(), cfg, newMemCache(), nil)

	outcome, err := svc.Search(context.Background(), "Something Else")
	require.NoError(t, err)
	assert.False(t, outcome.Found)
}

func TestSearchUnselectedCandidatesDoNotRetry(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, searchBody(
			map[string]any{"id": 10, "name": "Unrelated", "original_name": "Unrelated", "original_language": "fr"},
		))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.FallbackToFirstResult = false
	svc := NewService(zerolog.Nop(), cfg, newMemCache(), nil)

	// The provider returned candidates, none acceptable. That is a
	// clean not-found even for an Arabic title; only an empty result
	// set triggers the transliteration retries.
	outcome, err := svc.Search(context.Background(), "باب الحارة")
	require.NoError(t, err)
	assert.False(t, outcome.Found)
	assert.Empty(t, outcome.Transliterated)
	assert.Equal(t, 1, requests)
}

func TestSearchTransliterationRetry(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("query")
		queries = append(queries, q)
		if domain.DetectScript(q) == domain.ScriptArabic {
			fmt.Fprint(w, searchBody())
			return
		}
		fmt.Fprint(w, searchBody(
			map[string]any{"id": 777, "name": "Bab Al Hara", "original_name": "باب الحارة", "original_language": "ar"},
		))
	}))
	defer srv.Close()

	svc := NewService(zerolog.Nop(), testConfig(srv.URL), newMemCache(), nil)

	outcome, err := svc.Search(context.Background(), "باب الحارة")
	require.NoError(t, err)
	require.True(t, outcome.Found)
	assert.Equal(t, 777, outcome.Result.TmdbID)
	assert.NotEmpty(t, outcome.Transliterated)

	// one Arabic query, one transliterated Latin query, no third
	require.Len(t, queries, 2)
	assert.Equal(t, domain.ScriptArabic, domain.DetectScript(queries[0]))
	assert.Equal(t, domain.ScriptLatin, domain.DetectScript(queries[1]))
}

func TestSearchOriginalTitleLatinFallback(t *testing.T) {
	var queries []string
	title := "باب الحارة"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("query")
		queries = append(queries, q)
		// only the original title under a Latin hint yields a result
		if q == title && r.URL.Query().Get("language") == "en" {
			fmt.Fprint(w, searchBody(
				map[string]any{"id": 555, "name": "Bab Al Hara", "original_name": title, "original_language": "ar"},
			))
			return
		}
		fmt.Fprint(w, searchBody())
	}))
	defer srv.Close()

	svc := NewService(zerolog.Nop(), testConfig(srv.URL), newMemCache(), nil)

	outcome, err := svc.Search(context.Background(), title)
	require.NoError(t, err)
	require.True(t, outcome.Found)
	assert.Equal(t, 555, outcome.Result.TmdbID)
	require.Len(t, queries, 3)
}

func TestSearchOverrideShortCircuitsNetwork(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	overrides := &domain.MatchOverrides{
		Overrides: []domain.MatchOverride{{Name: "Breaking Bad", TmdbID: 1396}},
	}
	svc := NewService(zerolog.Nop(), testConfig(srv.URL), newMemCache(), overrides)

	outcome, err := svc.Search(context.Background(), "Breaking Bad")
	require.NoError(t, err)
	require.True(t, outcome.Found)
	assert.Equal(t, 1396, outcome.Result.TmdbID)
	assert.Equal(t, 0, requests)
}

func TestSearchTransportErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cache := newMemCache()
	svc := NewService(zerolog.Nop(), testConfig(srv.URL), cache, nil)

	_, err := svc.Search(context.Background(), "Breaking Bad")
	assert.Error(t, err)

	// errors are never cached
	_, ok := cache.Get(context.Background(), domain.NamespaceSearch, "Breaking Bad")
	assert.False(t, ok)
}

func TestSearchMalformedResponseErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"page":1}`)
	}))
	defer srv.Close()

	svc := NewService(zerolog.Nop(), testConfig(srv.URL), newMemCache(), nil)

	_, err := svc.Search(context.Background(), "Breaking Bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing results")
}

func TestDetailsCached(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, "/tv/1396", r.URL.Path)
		fmt.Fprint(w, `{"id":1396,"name":"Breaking Bad","original_name":"Breaking Bad","original_language":"en","first_air_date":"2008-01-20"}`)
	}))
	defer srv.Close()

	svc := NewService(zerolog.Nop(), testConfig(srv.URL), newMemCache(), nil)
	ctx := context.Background()

	details, err := svc.Details(ctx, 1396)
	require.NoError(t, err)
	assert.Equal(t, "Breaking Bad", details.Name)

	_, err = svc.Details(ctx, 1396)
	require.NoError(t, err)
	assert.Equal(t, 1, requests)
}

func TestDetailsMissingIDErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"Nameless"}`)
	}))
	defer srv.Close()

	svc := NewService(zerolog.Nop(), testConfig(srv.URL), newMemCache(), nil)

	_, err := svc.Details(context.Background(), 42)
	assert.Error(t, err)
}
