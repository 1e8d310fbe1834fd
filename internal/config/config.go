package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App             AppConfig             `mapstructure:"app"`
	Server          ServerConfig          `mapstructure:"server"`
	Log             LogConfig             `mapstructure:"log"`
	DB              DBConfig              `mapstructure:"db"`
	Cron            CronConfig            `mapstructure:"cron"`
	Rates           RatesConfig           `mapstructure:"rates"`
	RateCache       RateCacheConfig       `mapstructure:"rate_cache"`
	Scheduler       SchedulerConfig       `mapstructure:"scheduler"`
	CostModel       CostModelConfig       `mapstructure:"cost_model"`
	Analysis        AnalysisConfig        `mapstructure:"analysis"`
	Recommendations RecommendationsConfig `mapstructure:"recommendations"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
	// APIToken, when set, is required as a bearer token on /api and /swagger.
	APIToken        string        `mapstructure:"api_token"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

// DBConfig with an empty DSN selects the in-memory store.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled               bool   `mapstructure:"enabled"`
	StarvationScan        string `mapstructure:"starvation_scan"`
	RecommendationArchive string `mapstructure:"recommendation_archive"`
}

type RatesConfig struct {
	Provider      string        `mapstructure:"provider"`
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	LookupRetries uint          `mapstructure:"lookup_retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	StaticFile    string        `mapstructure:"static_file"`
}

type RateCacheConfig struct {
	Backend       string        `mapstructure:"backend"`
	TTL           time.Duration `mapstructure:"ttl"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

type SchedulerConfig struct {
	MaxConcurrent    int           `mapstructure:"max_concurrent"`
	MaxQueued        int           `mapstructure:"max_queued"`
	MaxRetries       int           `mapstructure:"max_retries"`
	BackoffBase      time.Duration `mapstructure:"backoff_base"`
	BackoffMax       time.Duration `mapstructure:"backoff_max"`
	StarvationAge    time.Duration `mapstructure:"starvation_age"`
	DispatchInterval time.Duration `mapstructure:"dispatch_interval"`
}

type ShippingRateConfig struct {
	Base        float64 `mapstructure:"base"`
	PerKg       float64 `mapstructure:"per_kg"`
	TransitDays int     `mapstructure:"transit_days"`
}

type CostModelConfig struct {
	Currency              string                        `mapstructure:"currency"`
	DefaultShippingMethod string                        `mapstructure:"default_shipping_method"`
	ShippingRates         map[string]ShippingRateConfig `mapstructure:"shipping_rates"`
	InsurancePct          float64                       `mapstructure:"insurance_pct"`
	BrokerFee             float64                       `mapstructure:"broker_fee"`
	FulfillmentFees       map[string]float64            `mapstructure:"fulfillment_fees"`
	VolumetricDivisor     float64                       `mapstructure:"volumetric_divisor"`
}

type AnalysisConfig struct {
	QuickWinConfidence      float64            `mapstructure:"quick_win_confidence"`
	HighImpactAnnualSavings float64            `mapstructure:"high_impact_annual_savings"`
	LongTermMinPct          float64            `mapstructure:"long_term_min_pct"`
	AxisSavingHints         map[string]float64 `mapstructure:"axis_saving_hints"`
	LookupTimeout           time.Duration      `mapstructure:"lookup_timeout"`
}

type RecommendationsConfig struct {
	MaterialityThreshold  float64       `mapstructure:"materiality_threshold"`
	HighPriorityThreshold float64       `mapstructure:"high_priority_threshold"`
	ArchiveAfter          time.Duration `mapstructure:"archive_after"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.api_token", "")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.starvation_scan", "@every 30s")
	v.SetDefault("cron.recommendation_archive", "@every 1h")

	v.SetDefault("rates.provider", "static")
	v.SetDefault("rates.base_url", "")
	v.SetDefault("rates.api_key", "")
	v.SetDefault("rates.timeout", "5s")
	v.SetDefault("rates.lookup_retries", 3)
	v.SetDefault("rates.retry_delay", "200ms")
	v.SetDefault("rates.static_file", "configs/rates.yaml")
	v.SetDefault("rate_cache.backend", "memory")
	v.SetDefault("rate_cache.ttl", "1h")
	v.SetDefault("rate_cache.redis_addr", "127.0.0.1:6379")
	v.SetDefault("rate_cache.redis_password", "")
	v.SetDefault("rate_cache.redis_db", 0)

	v.SetDefault("scheduler.max_concurrent", 2)
	v.SetDefault("scheduler.max_queued", 1000)
	v.SetDefault("scheduler.max_retries", 3)
	v.SetDefault("scheduler.backoff_base", "5s")
	v.SetDefault("scheduler.backoff_max", "5m")
	v.SetDefault("scheduler.starvation_age", "10m")
	v.SetDefault("scheduler.dispatch_interval", "1s")

	v.SetDefault("cost_model.currency", "USD")
	v.SetDefault("cost_model.default_shipping_method", "standard")
	v.SetDefault("cost_model.shipping_rates", map[string]any{
		"standard": map[string]any{"base": 12.0, "per_kg": 4.0, "transit_days": 12},
		"express":  map[string]any{"base": 25.0, "per_kg": 9.0, "transit_days": 4},
		"sea":      map[string]any{"base": 4.0, "per_kg": 0.8, "transit_days": 35},
		"air":      map[string]any{"base": 15.0, "per_kg": 6.0, "transit_days": 7},
	})
	v.SetDefault("cost_model.insurance_pct", 0.5)
	v.SetDefault("cost_model.broker_fee", 0)
	v.SetDefault("cost_model.fulfillment_fees", map[string]any{"fbm": 5.5, "fba": 3.9, "3pl": 4.5})
	v.SetDefault("cost_model.volumetric_divisor", 5000)

	v.SetDefault("analysis.quick_win_confidence", 0.8)
	v.SetDefault("analysis.high_impact_annual_savings", 10000)
	v.SetDefault("analysis.long_term_min_pct", 10)
	v.SetDefault("analysis.axis_saving_hints", map[string]any{
		"origin":          4.0,
		"classification":  3.0,
		"trade_agreement": 5.0,
	})
	v.SetDefault("analysis.lookup_timeout", "3s")

	v.SetDefault("recommendations.materiality_threshold", 1.0)
	v.SetDefault("recommendations.high_priority_threshold", 10.0)
	v.SetDefault("recommendations.archive_after", "720h")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
