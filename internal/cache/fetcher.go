package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"mlb_standings/ingestion/internal/metrics"
	"mlb_standings/ingestion/internal/models"

	"github.com/rs/zerolog/log"
)

// Cache is the byte store behind CachedFetcher
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Fetcher retrieves one day's standings
type Fetcher interface {
	FetchStandings(ctx context.Context, date models.Date) (models.RawStandings, error)
}

// CachedFetcher serves completed days from the cache and falls through to
// the provider otherwise. Only days before today with a non-empty payload are
// cached; cache failures never fail a fetch.
type CachedFetcher struct {
	next  Fetcher
	cache Cache
	ttl   time.Duration
	scope string
	now   func() time.Time
}

// NewCachedFetcher wraps next with cache. scope names the query the provider
// answers (its league ids) and is part of every key.
func NewCachedFetcher(next Fetcher, cache Cache, ttl time.Duration, scope string) *CachedFetcher {
	return &CachedFetcher{next: next, cache: cache, ttl: ttl, scope: scope, now: time.Now}
}

type refreshKey struct{}

// WithRefresh marks ctx so cached payloads are ignored and replaced by fresh ones
func WithRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, refreshKey{}, true)
}

func refreshing(ctx context.Context) bool {
	v, _ := ctx.Value(refreshKey{}).(bool)
	return v
}

func (f *CachedFetcher) standingsKey(date models.Date) string {
	return "standings:" + f.scope + ":" + date.String()
}

// FetchStandings implements Fetcher
func (f *CachedFetcher) FetchStandings(ctx context.Context, date models.Date) (models.RawStandings, error) {
	if !date.Before(models.DateOf(f.now())) {
		return f.next.FetchStandings(ctx, date)
	}

	key := f.standingsKey(date)
	var data []byte
	var err error
	if refreshing(ctx) {
		err = ErrCacheMiss
	} else {
		start := time.Now()
		data, err = f.cache.Get(ctx, key)
		metrics.RecordCacheOperation("get", time.Since(start).Seconds())
	}
	switch {
	case err == nil:
		var raw models.RawStandings
		if err := json.Unmarshal(data, &raw); err == nil {
			metrics.RecordCacheHit()
			log.Debug().Str("date", date.String()).Msg("Standings served from cache")
			return raw, nil
		}
		log.Warn().Str("key", key).Msg("Discarding undecodable cache entry")
	case errors.Is(err, ErrCacheMiss):
	default:
		log.Warn().Err(err).Str("key", key).Msg("Cache read failed")
	}
	metrics.RecordCacheMiss()

	raw, err := f.next.FetchStandings(ctx, date)
	if err != nil {
		return nil, err
	}
	if raw.Empty() {
		return raw, nil
	}

	data, err = json.Marshal(raw)
	if err != nil {
		log.Warn().Err(err).Str("date", date.String()).Msg("Failed to encode standings for cache")
		return raw, nil
	}
	start := time.Now()
	if err := f.cache.Set(ctx, key, data, f.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
	metrics.RecordCacheOperation("set", time.Since(start).Seconds())
	return raw, nil
}
