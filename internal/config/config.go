package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Crawl     CrawlConfig     `yaml:"crawl" mapstructure:"crawl"`
	Scrape    ScrapeConfig    `yaml:"scrape" mapstructure:"scrape"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Verify    VerifyConfig    `yaml:"verify" mapstructure:"verify"`
	Trace     TraceConfig     `yaml:"trace" mapstructure:"trace"`
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "postgres" or "sqlite"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// CrawlConfig configures page discovery.
type CrawlConfig struct {
	MaxPages      int `yaml:"max_pages" mapstructure:"max_pages"`
	TimeoutSecs   int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CacheTTLHours int `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// ScrapeConfig configures per-page fetching and parsing.
type ScrapeConfig struct {
	TimeoutSecs         int  `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	HeadlessTimeoutSecs int  `yaml:"headless_timeout_secs" mapstructure:"headless_timeout_secs"`
	HeadlessEnabled     bool `yaml:"headless_enabled" mapstructure:"headless_enabled"`
	Concurrency         int  `yaml:"concurrency" mapstructure:"concurrency"`
}

// SearchConfig configures the external search enrichment stage.
type SearchConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	EngineID    string `yaml:"engine_id" mapstructure:"engine_id"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	DelayMillis int    `yaml:"delay_millis" mapstructure:"delay_millis"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxResults  int    `yaml:"max_results" mapstructure:"max_results"`
}

// AnthropicConfig holds Anthropic API settings for the extraction oracle.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// VerifyConfig configures the SMTP email-verification probe.
type VerifyConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	HeloDomain  string `yaml:"helo_domain" mapstructure:"helo_domain"`
	FromAddress string `yaml:"from_address" mapstructure:"from_address"`
}

// TraceConfig configures the durable execution trace sink.
type TraceConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// EngineConfig configures job bookkeeping.
type EngineConfig struct {
	MaxRetries int `yaml:"max_retries" mapstructure:"max_retries"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "enrich.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("crawl.max_pages", 10)
	v.SetDefault("crawl.timeout_secs", 15)
	v.SetDefault("crawl.cache_ttl_hours", 24)
	v.SetDefault("scrape.timeout_secs", 15)
	v.SetDefault("scrape.headless_timeout_secs", 30)
	v.SetDefault("scrape.headless_enabled", true)
	v.SetDefault("scrape.concurrency", 5)
	v.SetDefault("search.base_url", "https://www.googleapis.com/customsearch/v1")
	v.SetDefault("search.delay_millis", 1000)
	v.SetDefault("search.timeout_secs", 10)
	v.SetDefault("search.max_results", 5)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("verify.enabled", true)
	v.SetDefault("verify.timeout_secs", 10)
	v.SetDefault("verify.helo_domain", "mail.sellsadvisors.com")
	v.SetDefault("verify.from_address", "verify@sellsadvisors.com")
	v.SetDefault("trace.dir", "traces")
	v.SetDefault("engine.max_retries", 3)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
