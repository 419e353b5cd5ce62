// Package config loads and validates skiranker configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Output formats for crawl results.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// Storage backends for JSON output.
const (
	BackendLocal  = "local"
	BackendGCS    = "gcs"
	BackendMemory = "memory"
)

// Config captures all configuration knobs loaded via Viper. It is a value
// type; callers derive variants with the With* helpers instead of mutating.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Routing RoutingConfig `mapstructure:"routing"`
	Ranking RankingConfig `mapstructure:"ranking"`
	DB      DBConfig      `mapstructure:"db"`
	Storage StorageConfig `mapstructure:"storage"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
}

// ServerConfig controls the ranking API server.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// CrawlerConfig governs listing acquisition.
type CrawlerConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	UserAgent       string        `mapstructure:"user_agent"`
	RedirectAllowed bool          `mapstructure:"redirect_allowed"`
	Slow            bool          `mapstructure:"slow"`
	SlowDelay       time.Duration `mapstructure:"slow_delay"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	OutputFormat    string        `mapstructure:"output_format"`
}

// RoutingConfig configures the travel time service.
type RoutingConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	APIKeyFile string        `mapstructure:"api_key_file"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// RankingConfig sizes ranking results.
type RankingConfig struct {
	Limit          int `mapstructure:"limit"`
	EfficiencyPool int `mapstructure:"efficiency_pool"`
}

// DBConfig controls access to Postgres.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// StorageConfig selects where JSON output is written.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for crawl notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Load builds a Config from defaults, an optional file and SKIRANKER_*
// environment variables, in increasing precedence.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SKIRANKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if !strings.HasSuffix(cfg.Crawler.BaseURL, "/") {
		cfg.Crawler.BaseURL += "/"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("crawler.base_url", "https://www.skiresort.info/ski-resorts/")
	v.SetDefault("crawler.user_agent", "skiranker/0.1")
	v.SetDefault("crawler.redirect_allowed", false)
	v.SetDefault("crawler.slow", false)
	v.SetDefault("crawler.slow_delay", 5*time.Second)
	v.SetDefault("crawler.request_timeout", 30*time.Second)
	v.SetDefault("crawler.output_format", OutputTable)
	v.SetDefault("routing.base_url", "http://dev.virtualearth.net/REST/V1/Routes/Driving")
	v.SetDefault("routing.api_key", "")
	v.SetDefault("routing.api_key_file", "data/bingmapskey.txt")
	v.SetDefault("routing.timeout", 10*time.Second)
	v.SetDefault("ranking.limit", 20)
	v.SetDefault("ranking.efficiency_pool", 50)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 0)
	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.base_dir", "data")
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	u, err := url.Parse(c.Crawler.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("crawler.base_url must be an absolute url")
	}
	if c.Crawler.Slow && c.Crawler.SlowDelay <= 0 {
		return fmt.Errorf("crawler.slow_delay must be > 0 when crawler.slow is set")
	}
	if c.Crawler.RequestTimeout <= 0 {
		return fmt.Errorf("crawler.request_timeout must be > 0")
	}
	switch c.Crawler.OutputFormat {
	case OutputTable, OutputJSON:
	default:
		return fmt.Errorf("crawler.output_format must be %q or %q", OutputTable, OutputJSON)
	}
	if c.Routing.Timeout <= 0 {
		return fmt.Errorf("routing.timeout must be > 0")
	}
	if c.Ranking.Limit <= 0 {
		return fmt.Errorf("ranking.limit must be > 0")
	}
	if c.Ranking.EfficiencyPool < c.Ranking.Limit {
		return fmt.Errorf("ranking.efficiency_pool must be >= ranking.limit")
	}
	switch c.Storage.Backend {
	case BackendLocal:
		if c.Storage.BaseDir == "" {
			return fmt.Errorf("storage.base_dir is required for the local backend")
		}
	case BackendGCS:
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket is required for the gcs backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("storage.backend must be one of local, gcs, memory")
	}
	if (c.PubSub.ProjectID == "") != (c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set together")
	}
	return nil
}

// WithCrawlFlags returns a copy of c with command line crawl switches applied.
// A false flag leaves the configured value untouched.
func (c Config) WithCrawlFlags(redirect, slow, json bool) Config {
	if redirect {
		c.Crawler.RedirectAllowed = true
	}
	if slow {
		c.Crawler.Slow = true
	}
	if json {
		c.Crawler.OutputFormat = OutputJSON
	}
	return c
}

// FetchDelay is the pause before every page fetch.
func (c Config) FetchDelay() time.Duration {
	if !c.Crawler.Slow {
		return 0
	}
	return c.Crawler.SlowDelay
}
