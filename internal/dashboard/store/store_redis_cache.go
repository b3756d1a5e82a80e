package store

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"log/slog"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"dashboard-service/internal/dashboard/models"
)

const companyCacheKeyPrefix = "dashboard:config:company:"

// CachedStore is a read-through Redis cache in front of another Store.
// Only company rows are cached: they are read on every effective-config
// request of every user in the company, and they change rarely. Writes and
// deletes of a company row replace its entry with a version floor after the
// inner store commits, and fills never lower an entry below its floor.
// Redis failures are logged and the call falls back to the inner store.
type CachedStore struct {
	inner  Store
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
	onHit  func(hit bool)
}

type CacheOption func(*CachedStore)

func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(s *CachedStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(s *CachedStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCacheObserver registers a callback told whether each company lookup hit.
func WithCacheObserver(fn func(hit bool)) CacheOption {
	return func(s *CachedStore) { s.onHit = fn }
}

func NewCached(inner Store, client redis.Cmdable, opts ...CacheOption) *CachedStore {
	s := &CachedStore{
		inner:  inner,
		client: client,
		ttl:    5 * time.Minute,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func companyCacheKey(companyID string) string {
	return companyCacheKeyPrefix + companyID
}

// cacheEntry is the stored value. Floor is the lowest row version the key
// may hold; a committed write or delete leaves an entry with a floor and no
// row, so a reader that loaded an older row before the write cannot put it
// back.
type cacheEntry struct {
	Floor int                     `json:"floor"`
	Row   *models.DashboardConfig `json:"row,omitempty"`
}

const deletedFloor = math.MaxInt32

// fillScript stores ARGV[1] unless the current entry's floor exceeds ARGV[2].
// Floors only rise, so a deleted key stays uncached until its marker expires
// even if the row is recreated.
var fillScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
  local ok, doc = pcall(cjson.decode, cur)
  if ok and type(doc) == 'table' and tonumber(doc['floor']) and tonumber(doc['floor']) > tonumber(ARGV[2]) then
    return 0
  end
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

func (s *CachedStore) Load(ctx context.Context, key models.Key) (*models.DashboardConfig, error) {
	if key.Scope != models.ScopeCompany {
		return s.inner.Load(ctx, key)
	}

	raw, err := s.client.Get(ctx, companyCacheKey(key.ScopeKey)).Bytes()
	switch {
	case err == nil:
		var entry cacheEntry
		if jsonErr := json.Unmarshal(raw, &entry); jsonErr != nil {
			s.logger.WarnContext(ctx, "discarding undecodable cached company config", "company_id", key.ScopeKey)
		} else if entry.Row != nil {
			s.observe(true)
			return entry.Row, nil
		}
	case !errors.Is(err, redis.Nil):
		s.logger.WarnContext(ctx, "company config cache read failed", "company_id", key.ScopeKey, "error", err)
	}
	s.observe(false)

	cfg, err := s.inner.Load(ctx, key)
	if err != nil || cfg == nil {
		return cfg, err
	}
	s.put(ctx, key, cacheEntry{Floor: cfg.Version, Row: cfg})
	return cfg, nil
}

// LoadUncached reads the row from the inner store without consulting or
// filling the cache. Writers use it to stamp against the committed version.
func (s *CachedStore) LoadUncached(ctx context.Context, key models.Key) (*models.DashboardConfig, error) {
	return s.inner.Load(ctx, key)
}

func (s *CachedStore) Save(ctx context.Context, cfg *models.DashboardConfig, expectedVersion *int) error {
	if err := s.inner.Save(ctx, cfg, expectedVersion); err != nil {
		return err
	}
	s.invalidate(ctx, cfg.Key(), cfg.Version)
	return nil
}

func (s *CachedStore) Delete(ctx context.Context, key models.Key, expectedVersion *int) error {
	if err := s.inner.Delete(ctx, key, expectedVersion); err != nil {
		return err
	}
	s.invalidate(ctx, key, deletedFloor)
	return nil
}

func (s *CachedStore) ListCompanyUserOverrides(ctx context.Context, companyID string) iter.Seq2[*models.DashboardConfig, error] {
	return s.inner.ListCompanyUserOverrides(ctx, companyID)
}

// invalidate replaces a company entry with a row-less marker at floor.
func (s *CachedStore) invalidate(ctx context.Context, key models.Key, floor int) {
	if key.Scope != models.ScopeCompany {
		return
	}
	if err := s.write(ctx, key, cacheEntry{Floor: floor}); err != nil {
		s.logger.ErrorContext(ctx, "company config cache invalidation failed",
			"company_id", key.ScopeKey,
			"error", err,
		)
	}
}

func (s *CachedStore) put(ctx context.Context, key models.Key, entry cacheEntry) {
	if err := s.write(ctx, key, entry); err != nil {
		s.logger.WarnContext(ctx, "company config cache fill failed", "company_id", key.ScopeKey, "error", err)
	}
}

func (s *CachedStore) write(ctx context.Context, key models.Key, entry cacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return fillScript.Run(ctx, s.client, []string{companyCacheKey(key.ScopeKey)},
		raw, entry.Floor, s.ttl.Milliseconds()).Err()
}

func (s *CachedStore) observe(hit bool) {
	if s.onHit != nil {
		s.onHit(hit)
	}
}
