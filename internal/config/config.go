// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Extract  ExtractConfig  `mapstructure:"extract"`
	Crawl    CrawlConfig    `mapstructure:"crawl"`
	Headless HeadlessConfig `mapstructure:"headless"`
	Verify   VerifyConfig   `mapstructure:"verify"`
	Quota    QuotaConfig    `mapstructure:"quota"`
	DB       DBConfig       `mapstructure:"db"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the status HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// PipelineConfig governs worker pool and per-user pipeline behavior.
type PipelineConfig struct {
	Concurrency  int    `mapstructure:"concurrency"`
	QueueDepth   int    `mapstructure:"queue_depth"`
	GuessEnabled bool   `mapstructure:"guess_enabled"`
	Topic        string `mapstructure:"topic"`
}

// ExtractConfig controls candidate extraction.
type ExtractConfig struct {
	DenyDomains    []string `mapstructure:"deny_domains"`
	DenyLocalParts []string `mapstructure:"deny_local_parts"`
	Deobfuscate    bool     `mapstructure:"deobfuscate"`
}

// CrawlConfig governs the link crawler.
type CrawlConfig struct {
	MaxDepth       int           `mapstructure:"max_depth"`
	MaxPages       int           `mapstructure:"max_pages"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxPageBytes   int64         `mapstructure:"max_page_bytes"`
	UserAgent      string        `mapstructure:"user_agent"`
	LinkKeywords   []string      `mapstructure:"link_keywords"`
	SkipDomains    []string      `mapstructure:"skip_domains"`
	RatePerDomain  float64       `mapstructure:"rate_per_domain"`
	RateBurst      int           `mapstructure:"rate_burst"`
	ArchivePages   bool          `mapstructure:"archive_pages"`
}

// HeadlessConfig configures the headless rendering escalation.
type HeadlessConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxParallel  int           `mapstructure:"max_parallel"`
	NavTimeout   time.Duration `mapstructure:"nav_timeout"`
	MinHTMLBytes int           `mapstructure:"min_html_bytes"`
	Markers      []string      `mapstructure:"markers"`
}

// VerifyConfig governs the deliverability verifier.
type VerifyConfig struct {
	ProbeEnabled bool          `mapstructure:"probe_enabled"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Port         int           `mapstructure:"port"`
	HELODomain   string        `mapstructure:"helo_domain"`
	MailFrom     string        `mapstructure:"mail_from"`
}

// QuotaConfig bounds simultaneous outbound connections.
type QuotaConfig struct {
	MaxOutbound int `mapstructure:"max_outbound"`
}

// DBConfig controls access to the relational database. Empty DSN disables it.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Table           string        `mapstructure:"table"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// PubSubConfig holds metadata for the downstream handoff topic.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
}

// ArchiveConfig selects the page-body archive backend.
type ArchiveConfig struct {
	// Provider is one of "", "memory", "local", "gcs". Empty disables archiving.
	Provider  string `mapstructure:"provider"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PROSPECTOR")
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

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("pipeline.concurrency", 4)
	v.SetDefault("pipeline.queue_depth", 64)
	v.SetDefault("pipeline.guess_enabled", false)
	v.SetDefault("extract.deny_domains", []string{
		"example.com",
		"example.org",
		"*.sentry.io",
		"*.wixpress.com",
		"*.cloudfront.net",
	})
	v.SetDefault("extract.deny_local_parts", []string{"noreply", "no-reply", "donotreply"})
	v.SetDefault("extract.deobfuscate", true)
	v.SetDefault("crawl.max_depth", 1)
	v.SetDefault("crawl.max_pages", 10)
	v.SetDefault("crawl.request_timeout", "10s")
	v.SetDefault("crawl.max_page_bytes", 5*1024*1024)
	v.SetDefault("crawl.user_agent", "prospector-bot/1.0")
	v.SetDefault("crawl.link_keywords", []string{"contact", "about", "impressum", "booking", "mailto"})
	v.SetDefault("crawl.skip_domains", []string{
		"linktr.ee",
		"instagram.com",
		"facebook.com",
		"twitter.com",
		"x.com",
		"tiktok.com",
		"youtube.com",
	})
	v.SetDefault("crawl.rate_per_domain", 1)
	v.SetDefault("crawl.rate_burst", 2)
	v.SetDefault("crawl.archive_pages", false)
	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout", "25s")
	v.SetDefault("headless.min_html_bytes", 2000)
	v.SetDefault("headless.markers", []string{
		"__NEXT_DATA__",
		"data-reactroot",
		"window.__NUXT__",
	})
	v.SetDefault("verify.probe_enabled", false)
	v.SetDefault("verify.timeout", "8s")
	v.SetDefault("verify.port", 25)
	v.SetDefault("quota.max_outbound", 8)
	v.SetDefault("db.table", "best_emails")
	v.SetDefault("archive.provider", "")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("pipeline.concurrency must be > 0")
	}
	if c.Crawl.MaxDepth < 0 {
		return fmt.Errorf("crawl.max_depth must be >= 0")
	}
	if c.Crawl.RequestTimeout <= 0 {
		return fmt.Errorf("crawl.request_timeout must be > 0")
	}
	if c.Verify.Timeout <= 0 {
		return fmt.Errorf("verify.timeout must be > 0")
	}
	if c.Quota.MaxOutbound <= 0 {
		return fmt.Errorf("quota.max_outbound must be > 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	switch c.Archive.Provider {
	case "", "memory":
	case "local":
		if c.Archive.BaseDir == "" {
			return fmt.Errorf("archive.base_dir must be set for the local provider")
		}
	case "gcs":
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket must be set for the gcs provider")
		}
	default:
		return fmt.Errorf("archive.provider %q is not supported", c.Archive.Provider)
	}
	return nil
}
