package config

import "time"

// Defaults applied when neither the file nor the environment sets a value.
const (
	DefaultPort           = "8080"
	DefaultAttemptTimeout = 10 * time.Second
	DefaultMaxCandles     = 500
	DefaultCacheBackend   = "memory"
	DefaultChartTTL       = 30 * time.Second
	DefaultQuoteTTL       = 15 * time.Second
	DefaultListTTL        = 60 * time.Second
	DefaultSearchTTL      = time.Hour
	DefaultDBPort         = 5432
	DefaultSSLMode        = "disable"
	DefaultConnectTimeout = 60 * time.Second
	DefaultRedisPort      = 6379
	DefaultIngestCron     = "0 30 6 * * *" // 06:30 every day, seconds field first
	DefaultRateLimit      = 5
	DefaultRateWindow     = time.Minute
)

// DefaultIngestIntervals are archived when ingest.intervals is empty.
var DefaultIngestIntervals = []string{"1d", "1w", "1M"}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = DefaultPort
	}

	if cfg.Engine.AttemptTimeout == 0 {
		cfg.Engine.AttemptTimeout = DefaultAttemptTimeout
	}
	if cfg.Engine.MaxCandles == 0 {
		cfg.Engine.MaxCandles = DefaultMaxCandles
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	setDuration(&cfg.Cache.ChartTTL, DefaultChartTTL)
	setDuration(&cfg.Cache.QuoteTTL, DefaultQuoteTTL)
	setDuration(&cfg.Cache.ListTTL, DefaultListTTL)
	setDuration(&cfg.Cache.SearchTTL, DefaultSearchTTL)

	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = DefaultSSLMode
	}
	setDuration(&cfg.Database.ConnectTimeout, DefaultConnectTimeout)

	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = DefaultRedisPort
	}

	if cfg.Ingest.Cron == "" {
		cfg.Ingest.Cron = DefaultIngestCron
	}
	if len(cfg.Ingest.Intervals) == 0 {
		cfg.Ingest.Intervals = append([]string(nil), DefaultIngestIntervals...)
	}
	if cfg.Ingest.RateLimit == 0 {
		cfg.Ingest.RateLimit = DefaultRateLimit
	}
	setDuration(&cfg.Ingest.RateWindow, DefaultRateWindow)
}

func setDuration(d *time.Duration, def time.Duration) {
	if *d == 0 {
		*d = def
	}
}
