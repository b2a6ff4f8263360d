package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Analyzer AnalyzerConfig `mapstructure:"analyzer"`
	Lookup   LookupConfig   `mapstructure:"lookup"`
	Bot      BotConfig      `mapstructure:"bot"`
	Store    StoreConfig    `mapstructure:"store"`
	Database DatabaseConfig `mapstructure:"database"`
}

type TelegramConfig struct {
	AppID       int    `mapstructure:"app_id" validate:"gte=0"`
	AppHash     string `mapstructure:"app_hash"`
	BotToken    string `mapstructure:"bot_token"`
	SessionFile string `mapstructure:"session_file"`
	Workers     int    `mapstructure:"workers" validate:"gte=1"`
}

// AnalyzerConfig configures the upstream morphological analysis service.
type AnalyzerConfig struct {
	BaseURL      string        `mapstructure:"base_url" validate:"required,httpurl"`
	QueryCharset string        `mapstructure:"query_charset" validate:"oneof=iso-8859-1 utf-8"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UserAgent    string        `mapstructure:"user_agent"`
}

type LookupConfig struct {
	NotFoundMessage string        `mapstructure:"not_found_message" validate:"required"`
	ErrorMessage    string        `mapstructure:"error_message" validate:"required"`
	MaxRetries      uint          `mapstructure:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	// CacheTTL of zero keeps cached analyses forever.
	CacheTTL time.Duration `mapstructure:"cache_ttl" validate:"gte=0"`
}

type BotConfig struct {
	Separator string `mapstructure:"separator"`
	MaxWords  int    `mapstructure:"max_words" validate:"gte=0"`
}

const (
	StoreBackendSQL   = "sql"
	StoreBackendRedis = "redis"
)

type StoreConfig struct {
	Backend   string `mapstructure:"backend" validate:"oneof=sql redis"`
	RedisURL  string `mapstructure:"redis_url" validate:"required_if=Backend redis"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type DatabaseConfig struct {
	Driver          string            `mapstructure:"driver" validate:"oneof=sqlite mysql"`
	Path            string            `mapstructure:"path"`
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/sanabot")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("telegram.session_file", filepath.Join(".cache", "telegram", "session.json"))
	v.SetDefault("telegram.workers", 8)
	v.SetDefault("analyzer.base_url", "http://www2.lingsoft.fi/cgi-bin/fintwol")
	v.SetDefault("analyzer.query_charset", "iso-8859-1")
	v.SetDefault("analyzer.timeout", 10*time.Second)
	v.SetDefault("analyzer.user_agent", "sanabot/1.0")
	v.SetDefault("lookup.not_found_message", "No analysis found for this word.")
	v.SetDefault("lookup.error_message", "Could not reach the analysis service. Please try again later.")
	v.SetDefault("lookup.max_retries", 0)
	v.SetDefault("lookup.retry_delay", 500*time.Millisecond)
	v.SetDefault("lookup.cache_ttl", 0)
	v.SetDefault("bot.separator", "\n\n———\n\n")
	v.SetDefault("bot.max_words", 0)
	v.SetDefault("store.backend", "sql")
	v.SetDefault("store.key_prefix", "sanabot:analysis:")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", filepath.Join("data", "sanabot.db"))
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "sanabot")
	v.SetDefault("database.username", "user")

	// Secrets are bound to environment variables only
	envBindings := map[string]string{
		"telegram.bot_token": "BOT_TOKEN",
		"telegram.app_id":    "TELEGRAM_APP_ID",
		"telegram.app_hash":  "TELEGRAM_APP_HASH",
		"database.password":  "DB_PASSWORD",
		"store.redis_url":    "REDIS_URL",
	}
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}

// Validate reports the credentials missing for running the Telegram bot.
func (cfg TelegramConfig) Validate() error {
	var missing []string
	if cfg.AppID <= 0 {
		missing = append(missing, "TELEGRAM_APP_ID")
	}
	if cfg.AppHash == "" {
		missing = append(missing, "TELEGRAM_APP_HASH")
	}
	if cfg.BotToken == "" {
		missing = append(missing, "BOT_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing telegram credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}
