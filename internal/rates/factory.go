package rates

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"landedcost/internal/config"
)

// New builds the configured provider, wrapped in the configured cache.
func New(cfg config.RatesConfig, cacheCfg config.RateCacheConfig, logger *zap.Logger) (Provider, error) {
	var base Provider
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "http":
		if strings.TrimSpace(cfg.BaseURL) == "" {
			return nil, errors.New("rates.base_url is required for the http provider")
		}
		base = &HTTPProvider{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			HTTP:    &http.Client{Timeout: cfg.Timeout},
		}
	case "static", "":
		if strings.TrimSpace(cfg.StaticFile) == "" {
			base = NewStaticProvider()
			break
		}
		p, err := LoadStaticFile(cfg.StaticFile)
		if err != nil {
			return nil, err
		}
		base = p
	default:
		return nil, errors.Errorf("unknown rates provider %q", cfg.Provider)
	}

	var c Cache
	switch strings.ToLower(strings.TrimSpace(cacheCfg.Backend)) {
	case "memory", "":
		c = NewMemoryCache(cacheCfg.TTL)
	case "redis":
		c = NewRedisCache(&redis.Options{
			Addr:     cacheCfg.RedisAddr,
			Password: cacheCfg.RedisPassword,
			DB:       cacheCfg.RedisDB,
		})
	case "none":
		return base, nil
	default:
		return nil, errors.Errorf("unknown rate cache backend %q", cacheCfg.Backend)
	}
	return &CachedProvider{Provider: base, Cache: c, TTL: cacheCfg.TTL, Logger: logger}, nil
}
