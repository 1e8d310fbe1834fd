package rates

import (
	"context"
	"encoding/json"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"landedcost/internal/costmodel"
)

// Cache stores encoded rate quotes.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type MemoryCache struct {
	c *cache.Cache
}

func NewMemoryCache(defaultTTL time.Duration) *MemoryCache {
	cleanup := defaultTTL
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &MemoryCache{c: cache.New(defaultTTL, cleanup)}
}

func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	_ = ctx
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, true, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_ = ctx
	b := make([]byte, len(value))
	copy(b, value)
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	m.c.Set(key, b, ttl)
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	_ = ctx
	m.c.Delete(key)
	return nil
}

type RedisCache struct {
	Client *redis.Client
	Prefix string
}

func NewRedisCache(opt *redis.Options) *RedisCache {
	return &RedisCache{Client: redis.NewClient(opt), Prefix: "landedcost:rate:"}
}

func (s *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.Client.Get(ctx, s.Prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.Client.Set(ctx, s.Prefix+key, value, ttl).Err()
}

func (s *RedisCache) Delete(ctx context.Context, key string) error {
	return s.Client.Del(ctx, s.Prefix+key).Err()
}

// CachedProvider is a read-through cache in front of another provider. Only successful quotes are cached;
// a broken cache degrades to direct lookups.
type CachedProvider struct {
	Provider Provider
	Cache    Cache
	TTL      time.Duration
	Logger   *zap.Logger
}

func (p *CachedProvider) Name() string {
	return p.Provider.Name() + "+cache"
}

func (p *CachedProvider) LookupRate(ctx context.Context, hsCode, origin, destination string) (costmodel.RateQuote, error) {
	key := Key(hsCode, origin, destination)
	if p.Cache != nil {
		b, ok, err := p.Cache.Get(ctx, key)
		if err != nil {
			p.warn("rate cache get failed", key, err)
		} else if ok {
			var q costmodel.RateQuote
			if err := json.Unmarshal(b, &q); err == nil {
				return q, nil
			}
			_ = p.Cache.Delete(ctx, key)
		}
	}

	q, err := p.Provider.LookupRate(ctx, hsCode, origin, destination)
	if err != nil {
		return costmodel.RateQuote{}, err
	}
	if p.Cache != nil {
		if b, err := json.Marshal(q); err == nil {
			if err := p.Cache.Set(ctx, key, b, p.TTL); err != nil {
				p.warn("rate cache set failed", key, err)
			}
		}
	}
	return q, nil
}

func (p *CachedProvider) warn(msg, key string, err error) {
	if p.Logger == nil {
		return
	}
	p.Logger.Warn(msg, zap.String("key", key), zap.Error(err))
}
