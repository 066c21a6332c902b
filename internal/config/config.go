package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/dedupe/internal/dedupe"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Engine     dedupe.Config    `yaml:"engine" mapstructure:"engine"`
	Scan       ScanConfig       `yaml:"scan" mapstructure:"scan"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the record store backend.
type StoreConfig struct {
	Driver      string        `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"`
	Scope       string        `yaml:"scope" mapstructure:"scope"`
	Retry       RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Circuit     CircuitConfig `yaml:"circuit" mapstructure:"circuit"`
	MaxConns    int32         `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32         `yaml:"min_conns" mapstructure:"min_conns"`
}

// CircuitConfig configures the breaker guarding remote stores (salesforce, notion).
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// RetryConfig configures retries of transient store write failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// ScanConfig holds the default scan tuning.
type ScanConfig struct {
	Blocking    string `yaml:"blocking" mapstructure:"blocking"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	CORSOrigins    []string `yaml:"cors_origins" mapstructure:"cors_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst" mapstructure:"rate_limit_burst"`
}

// SalesforceConfig holds Salesforce JWT auth settings.
type SalesforceConfig struct {
	ClientID  string  `yaml:"client_id" mapstructure:"client_id"`
	Username  string  `yaml:"username" mapstructure:"username"`
	KeyPath   string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL  string  `yaml:"login_url" mapstructure:"login_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// NotionConfig holds Notion API credentials and the record database ID.
type NotionConfig struct {
	Token      string `yaml:"token" mapstructure:"token"`
	DatabaseID string `yaml:"database_id" mapstructure:"database_id"`
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
	v.SetEnvPrefix("DEDUPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	engine := dedupe.DefaultConfig()
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "dedupe.db")
	v.SetDefault("store.retry.max_attempts", 3)
	v.SetDefault("store.retry.initial_backoff_ms", 200)
	v.SetDefault("store.retry.max_backoff_ms", 5000)
	v.SetDefault("store.circuit.failure_threshold", 5)
	v.SetDefault("store.circuit.reset_timeout_secs", 30)
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("engine.duplicate_threshold", engine.DuplicateThreshold)
	v.SetDefault("engine.potential_duplicate_threshold", engine.PotentialDuplicateThreshold)
	v.SetDefault("engine.name_weight", engine.NameWeight)
	v.SetDefault("engine.phone_weight", engine.PhoneWeight)
	v.SetDefault("engine.address_weight", engine.AddressWeight)
	v.SetDefault("engine.domain_weight", engine.DomainWeight)
	v.SetDefault("engine.min_name_similarity", engine.MinNameSimilarity)
	v.SetDefault("engine.phone_match_is_duplicate", engine.PhoneMatchIsDuplicate)
	v.SetDefault("scan.blocking", string(dedupe.BlockingNone))
	v.SetDefault("scan.concurrency", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit_rps", 5.0)
	v.SetDefault("server.rate_limit_burst", 10)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.rate_limit", 20.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

	if err := cfg.Engine.Validate(); err != nil {
		return nil, eris.Wrap(err, "config: engine")
	}

	return &cfg, nil
}

// Validate checks the settings required by the given mode ("cli" or
// "serve"). All problems are reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	if err := c.Engine.Validate(); err != nil {
		errs = append(errs, "engine: "+err.Error())
	}
	if _, err := dedupe.ParseBlockingStrategy(c.Scan.Blocking); err != nil {
		errs = append(errs, "scan.blocking: "+err.Error())
	}
	if c.Scan.Concurrency < 0 || c.Scan.Concurrency > 64 {
		errs = append(errs, "scan.concurrency must be between 0 and 64")
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	case "salesforce":
		if c.Salesforce.ClientID == "" {
			errs = append(errs, "salesforce.client_id is required")
		}
		if c.Salesforce.Username == "" {
			errs = append(errs, "salesforce.username is required")
		}
		if c.Salesforce.KeyPath == "" {
			errs = append(errs, "salesforce.key_path is required")
		}
	case "notion":
		if c.Notion.Token == "" {
			errs = append(errs, "notion.token is required")
		}
		if c.Notion.DatabaseID == "" {
			errs = append(errs, "notion.database_id is required")
		}
	default:
		errs = append(errs, "store.driver must be one of sqlite, postgres, salesforce, notion")
	}

	switch mode {
	case "cli":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RateLimitRPS < 0 {
			errs = append(errs, "server.rate_limit_rps must be >= 0")
		}
		if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
			errs = append(errs, "server.rate_limit_burst must be >= 1 when rate limiting is enabled")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
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
