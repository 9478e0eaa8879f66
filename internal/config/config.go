package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Prediction PredictionConfig `yaml:"prediction" mapstructure:"prediction"`
	Tables     TablesConfig     `yaml:"tables" mapstructure:"tables"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings. An empty key disables AI
// prediction.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PredictionConfig tunes the AI tier of the field resolver.
type PredictionConfig struct {
	TimeoutSecs        int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	DefaultConfidence  float64 `yaml:"default_confidence" mapstructure:"default_confidence"`
	FallbackConfidence float64 `yaml:"fallback_confidence" mapstructure:"fallback_confidence"`
	RatePerSec         float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst              int     `yaml:"burst" mapstructure:"burst"`
	MaxAttempts        int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BreakerFailures    int     `yaml:"breaker_failures" mapstructure:"breaker_failures"`
	BreakerResetSecs   int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// Timeout returns the per-stage prediction budget.
func (p PredictionConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSecs) * time.Second
}

// BreakerReset returns how long an open circuit stays open.
func (p PredictionConfig) BreakerReset() time.Duration {
	return time.Duration(p.BreakerResetSecs) * time.Second
}

// TablesConfig points at threshold and emission factor overrides. Empty paths
// select the embedded tables.
type TablesConfig struct {
	ThresholdsPath string `yaml:"thresholds_path" mapstructure:"thresholds_path"`
	FactorsPath    string `yaml:"factors_path" mapstructure:"factors_path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("LCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "metal-lca.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("prediction.timeout_secs", 20)
	v.SetDefault("prediction.default_confidence", 60)
	v.SetDefault("prediction.fallback_confidence", 50)
	v.SetDefault("prediction.rate_per_sec", 2)
	v.SetDefault("prediction.burst", 2)
	v.SetDefault("prediction.max_attempts", 2)
	v.SetDefault("prediction.breaker_failures", 5)
	v.SetDefault("prediction.breaker_reset_secs", 30)
	v.SetDefault("tables.thresholds_path", "")
	v.SetDefault("tables.factors_path", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
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

	return &cfg, nil
}

// Validate checks the settings a command depends on. Mode is one of "serve",
// "store" or "cli".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
		}
		problems = append(problems, c.validateStore()...)
		problems = append(problems, c.validatePrediction()...)
	case "store":
		problems = append(problems, c.validateStore()...)
	case "cli":
		problems = append(problems, c.validateStore()...)
		problems = append(problems, c.validatePrediction()...)
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var problems []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	return problems
}

func (c *Config) validatePrediction() []string {
	var problems []string
	p := c.Prediction
	if p.TimeoutSecs <= 0 {
		problems = append(problems, "prediction.timeout_secs must be positive")
	}
	if p.MaxAttempts < 1 {
		problems = append(problems, "prediction.max_attempts must be at least 1")
	}
	if p.DefaultConfidence < 0 || p.DefaultConfidence > 100 {
		problems = append(problems, "prediction.default_confidence must be within 0..100")
	}
	if p.FallbackConfidence < 0 || p.FallbackConfidence > 100 {
		problems = append(problems, "prediction.fallback_confidence must be within 0..100")
	}
	return problems
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
