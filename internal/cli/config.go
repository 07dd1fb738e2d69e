package cli

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/corvidlabs/corvid/pkg/corerr"
)

// Config is the TOML shape `corvid run` loads (spec.md §5 "configuration
// inputs"): seed URLs, the concurrency limit, and retry/backend tuning.
// RetryDelay is a Go duration string (e.g. "250ms", "2s") rather than a
// time.Duration field, since TOML has no native duration type.
type Config struct {
	Seeds       []string `toml:"seeds"`
	Concurrency int      `toml:"concurrency"`
	RetryCount  int      `toml:"retry_count"`
	RetryDelay  string   `toml:"retry_delay"`
	ControlAddr string   `toml:"control_addr"`
	Dashboard   bool     `toml:"dashboard"`
	CacheDir    string   `toml:"cache_dir"`
	CacheTTL    string   `toml:"cache_ttl"`

	// cacheTTL is CacheTTL parsed, filled in by LoadConfig.
	cacheTTL time.Duration

	// retryDelay is RetryDelay parsed, filled in by LoadConfig.
	retryDelay time.Duration
}

// RetryDelayDuration returns the parsed retry delay.
func (c Config) RetryDelayDuration() time.Duration { return c.retryDelay }

// CacheTTLDuration returns the parsed response cache TTL.
func (c Config) CacheTTLDuration() time.Duration { return c.cacheTTL }

// defaultConfig mirrors the engine's own defaults so an empty config file
// still produces a runnable engine.
func defaultConfig() Config {
	return Config{
		Concurrency: 8,
		RetryCount:  3,
		retryDelay:  time.Second,
	}
}

// LoadConfig reads and decodes a TOML config file at path, starting from
// defaultConfig and overlaying whatever fields the file sets.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, corerr.Wrap(corerr.KindIO, err, "read config %s", path)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, corerr.Wrap(corerr.KindIO, err, "decode config %s", path)
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.RetryCount < 1 {
		cfg.RetryCount = 1
	}
	cfg.retryDelay = time.Second
	if cfg.RetryDelay != "" {
		d, err := time.ParseDuration(cfg.RetryDelay)
		if err != nil {
			return cfg, corerr.Wrap(corerr.KindIO, err, "parse retry_delay %q", cfg.RetryDelay)
		}
		cfg.retryDelay = d
	}
	if cfg.CacheTTL != "" {
		d, err := time.ParseDuration(cfg.CacheTTL)
		if err != nil {
			return cfg, corerr.Wrap(corerr.KindIO, err, "parse cache_ttl %q", cfg.CacheTTL)
		}
		cfg.cacheTTL = d
	}
	return cfg, nil
}
