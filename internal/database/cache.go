package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/iptvmatchr/internal/domain"
)

// CacheRepo implements domain.CacheRepo on top of the sqlite store.
// Storage failures never surface to callers: a failed read degrades to
// a miss and a failed write is dropped, both logged. Caching must
// never abort the business operation it supports.
type CacheRepo struct {
	log zerolog.Logger
	db  *DB

	mu    sync.Mutex
	stats map[string]*domain.NamespaceStats
}

// NewCacheRepo creates a new cache repository
func NewCacheRepo(log zerolog.Logger, db *DB) *CacheRepo {
	return &CacheRepo{
		log:   log.With().Str("repo", "cache").Logger(),
		db:    db,
		stats: make(map[string]*domain.NamespaceStats),
	}
}

var _ domain.CacheRepo = (*CacheRepo)(nil)

// Get looks up a cached response. The bool reports whether the entry
// exists; storage errors count as a miss.
func (r *CacheRepo) Get(ctx context.Context, namespace, key string) (json.RawMessage, bool) {
	queryBuilder := r.db.squirrel.
		Select("value").
		From("api_cache").
		Where(sq.Eq{"namespace": namespace, "key": key})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		r.log.Warn().Err(err).Str("namespace", namespace).Msg("failed to build cache query")
		r.recordMiss(namespace)
		return nil, false
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Get")

	var value []byte
	err = r.db.handler.QueryRowContext(ctx, query, args...).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			r.log.Warn().Err(err).Str("namespace", namespace).Str("key", key).Msg("cache read failed, treating as miss")
		}
		r.recordMiss(namespace)
		return nil, false
	}

	r.recordHit(namespace)
	return json.RawMessage(value), true
}

// Set stores a response, overwriting any prior entry for the same
// (namespace, key) while preserving its created_at.
func (r *CacheRepo) Set(ctx context.Context, namespace, key string, value any) {
	b, err := json.Marshal(value)
	if err != nil {
		r.log.Warn().Err(err).Str("namespace", namespace).Str("key", key).Msg("failed to marshal cache value, dropping")
		return
	}

	now := time.Now().Format(time.RFC3339)

	queryBuilder := r.db.squirrel.
		Insert("api_cache").
		Columns("namespace", "key", "value", "created_at", "updated_at").
		Values(namespace, key, string(b), now, now).
		Suffix("ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		r.log.Warn().Err(err).Str("namespace", namespace).Msg("failed to build cache upsert")
		return
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Set")

	if _, err := r.db.handler.ExecContext(ctx, query, args...); err != nil {
		r.log.Warn().Err(err).Str("namespace", namespace).Str("key", key).Msg("cache write failed, dropping")
	}
}

// Stats returns the cumulative per-namespace hit/miss counters for
// this run, sorted by namespace.
func (r *CacheRepo) Stats() []domain.NamespaceStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.NamespaceStats, 0, len(r.stats))
	for _, s := range r.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Namespace < out[j].Namespace })
	return out
}

// Report logs the cumulative hit/miss table. Called at the end of a
// run, including on early abort.
func (r *CacheRepo) Report() {
	var hits, misses int
	for _, s := range r.Stats() {
		hits += s.Hits
		misses += s.Misses
		r.log.Info().
			Str("namespace", s.Namespace).
			Int("hits", s.Hits).
			Int("misses", s.Misses).
			Float64("hit_rate_pct", s.HitRate()*100).
			Msg("Cache statistics")
	}

	if hits+misses == 0 {
		return
	}

	r.log.Info().
		Int("hits", hits).
		Int("misses", misses).
		Float64("hit_rate_pct", float64(hits)/float64(hits+misses)*100).
		Msg("Cache statistics (all namespaces)")
}

// CountByNamespace returns the number of stored entries per namespace.
func (r *CacheRepo) CountByNamespace(ctx context.Context) (map[string]int, error) {
	queryBuilder := r.db.squirrel.
		Select("namespace", "COUNT(*)").
		From("api_cache").
		GroupBy("namespace")

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var namespace string
		var count int
		if err := rows.Scan(&namespace, &count); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		result[namespace] = count
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	return result, nil
}

// CreatedAt returns the created_at timestamp of an entry, for tests
// and inspection.
func (r *CacheRepo) CreatedAt(ctx context.Context, namespace, key string) (string, error) {
	queryBuilder := r.db.squirrel.
		Select("created_at").
		From("api_cache").
		Where(sq.Eq{"namespace": namespace, "key": key})

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return "", errors.Wrap(err, "error building query")
	}

	var createdAt string
	if err := r.db.handler.QueryRowContext(ctx, query, args...).Scan(&createdAt); err != nil {
		return "", errors.Wrap(err, "error executing query")
	}

	return createdAt, nil
}

func (r *CacheRepo) recordHit(namespace string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.namespaceStats(namespace).Hits++
}

func (r *CacheRepo) recordMiss(namespace string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.namespaceStats(namespace).Misses++
}

func (r *CacheRepo) namespaceStats(namespace string) *domain.NamespaceStats {
	s, ok := r.stats[namespace]
	if !ok {
		s = &domain.NamespaceStats{Namespace: namespace}
		r.stats[namespace] = s
	}
	return s
}
