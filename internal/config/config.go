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
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	Headless HeadlessConfig `mapstructure:"headless"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	DB       DBConfig       `mapstructure:"db"`
	Images   ImagesConfig   `mapstructure:"images"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// CrawlerConfig governs frontier and crawl pool behavior.
type CrawlerConfig struct {
	Concurrency         int `mapstructure:"concurrency"`
	PageBudget          int `mapstructure:"page_budget"`
	MaxImagesPerProduct int `mapstructure:"max_images_per_product"`
}

// HeadlessConfig configures the headless rendering subsystem.
type HeadlessConfig struct {
	MaxParallel   int     `mapstructure:"max_parallel"`
	UserAgent     string  `mapstructure:"user_agent"`
	NavTimeoutSec int     `mapstructure:"nav_timeout_seconds"`
	SettleDelayMs int     `mapstructure:"settle_delay_ms"`
	PerDomainQPS  float64 `mapstructure:"per_domain_qps"`
}

// HTTPConfig configures the plain HTTP fetcher used for sitemaps and images.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// PipelineConfig bounds the product processing stage.
type PipelineConfig struct {
	Concurrency       int `mapstructure:"concurrency"`
	MaxProducts       int `mapstructure:"max_products"`
	JobTimeoutMinutes int `mapstructure:"job_timeout_minutes"`
}

// OpenAIConfig holds credentials for the enrichment model. An empty APIKey
// disables model enrichment and the rule-based fallback takes over.
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// DBConfig controls access to Postgres. An empty DSN selects the in-memory
// stores.
type DBConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxConns        int32  `mapstructure:"max_conns"`
	MinConns        int32  `mapstructure:"min_conns"`
	MaxConnLifetime int    `mapstructure:"max_conn_lifetime_minutes"`
}

// ImagesConfig selects where product images land.
type ImagesConfig struct {
	// Backend is "local" or "gcs".
	Backend   string `mapstructure:"backend"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	GCSPrefix string `mapstructure:"gcs_prefix"`
}

// NotifyConfig selects completion notification channels. All are optional;
// the application log always records completions.
type NotifyConfig struct {
	SMTP   SMTPConfig   `mapstructure:"smtp"`
	PubSub PubSubConfig `mapstructure:"pubsub"`
}

// SMTPConfig holds mail delivery parameters. An empty host disables mail.
type SMTPConfig struct {
	Host     string   `mapstructure:"host"`
	Port     int      `mapstructure:"port"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
}

// PubSubConfig holds the completion topic. An empty project disables it.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HARVESTER")
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
	v.SetDefault("crawler.concurrency", 4)
	v.SetDefault("crawler.page_budget", 60)
	v.SetDefault("crawler.max_images_per_product", 5)
	v.SetDefault("headless.max_parallel", 4)
	v.SetDefault("headless.user_agent", "jewel-harvester/0.1")
	v.SetDefault("headless.nav_timeout_seconds", 45)
	v.SetDefault("headless.settle_delay_ms", 2000)
	v.SetDefault("headless.per_domain_qps", 1.0)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.user_agent", "jewel-harvester/0.1")
	v.SetDefault("pipeline.concurrency", 4)
	v.SetDefault("pipeline.max_products", 0)
	v.SetDefault("pipeline.job_timeout_minutes", 30)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 500)
	v.SetDefault("images.backend", "local")
	v.SetDefault("images.base_dir", "./data/images")
	v.SetDefault("notify.smtp.port", 587)
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.Concurrency <= 0 {
		return fmt.Errorf("crawler.concurrency must be > 0")
	}
	if c.Crawler.PageBudget <= 0 {
		return fmt.Errorf("crawler.page_budget must be > 0")
	}
	if c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Pipeline.Concurrency <= 0 {
		return fmt.Errorf("pipeline.concurrency must be > 0")
	}
	switch c.Images.Backend {
	case "local":
		if c.Images.BaseDir == "" {
			return fmt.Errorf("images.base_dir must be set for the local backend")
		}
	case "gcs":
		if c.Images.GCSBucket == "" {
			return fmt.Errorf("images.gcs_bucket must be set for the gcs backend")
		}
	case "":
	default:
		return fmt.Errorf("images.backend must be local or gcs, got %q", c.Images.Backend)
	}
	return nil
}

// JobTimeout converts the pipeline timeout config into a duration.
func (c Config) JobTimeout() time.Duration {
	return time.Duration(c.Pipeline.JobTimeoutMinutes) * time.Minute
}
