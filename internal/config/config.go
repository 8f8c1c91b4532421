// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ListenAddr      string         `mapstructure:"listen_addr"`
	ForwardTimeout  time.Duration  `mapstructure:"forward_timeout"`
	TokenWindow     time.Duration  `mapstructure:"token_window"`
	EventWindow     time.Duration  `mapstructure:"event_window"`
	ShutdownTimeout time.Duration  `mapstructure:"shutdown_timeout"`
	Provider        ProviderConfig `mapstructure:"provider"`
	Telegram        TelegramConfig `mapstructure:"telegram"`
	Log             LogConfig      `mapstructure:"log"`
}

// ProviderConfig describes the indexing provider's callback API
type ProviderConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Network  string        `mapstructure:"network"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxTries uint          `mapstructure:"max_tries"`
	Offline  bool          `mapstructure:"offline"` // no upstream subscriptions at all
}

// TelegramConfig enables operator alerts when Token is set
type TelegramConfig struct {
	Token   string        `mapstructure:"token"`
	ChatID  int64         `mapstructure:"chat_id"`
	Timeout time.Duration `mapstructure:"timeout"` // per alert, alerts are sent inside the ingress request
}

type LogConfig struct {
	File        string `mapstructure:"file"`
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

const (
	EnvPrefix = "RELAY"

	DefaultListenAddr      = ":5000"
	DefaultForwardTimeout  = 10 * time.Second
	DefaultTokenWindow     = 20 * time.Second
	DefaultEventWindow     = 300 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultProviderURL     = "https://api.shyft.so"
	DefaultNetwork         = "mainnet-beta"
	DefaultProviderTimeout = 10 * time.Second
	DefaultMaxTries        = 3
	DefaultTelegramTimeout = 10 * time.Second
	DefaultLogFile         = "relay.log"
)

// Load reads configuration from an optional file, a .env file in the working
// directory and RELAY_* environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	defaults := map[string]interface{}{
		"listen_addr":        DefaultListenAddr,
		"forward_timeout":    DefaultForwardTimeout,
		"token_window":       DefaultTokenWindow,
		"event_window":       DefaultEventWindow,
		"shutdown_timeout":   DefaultShutdownTimeout,
		"provider.base_url":  DefaultProviderURL,
		"provider.api_key":   "",
		"provider.network":   DefaultNetwork,
		"provider.timeout":   DefaultProviderTimeout,
		"provider.max_tries": DefaultMaxTries,
		"provider.offline":   false,
		"telegram.token":     "",
		"telegram.chat_id":   0,
		"telegram.timeout":   DefaultTelegramTimeout,
		"log.file":           DefaultLogFile,
		"log.level":          "",
		"log.development":    false,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	bindEnvironment(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, validateConfig(&cfg)
}

func loadDotEnv(file string) error {
	err := godotenv.Load(file)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", file, err)
}

// bindEnvironment maps nested keys to RELAY_SECTION_KEY variables
func bindEnvironment(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func validateConfig(cfg *Config) error {
	if cfg.ListenAddr == "" {
		return errors.New("listen_addr is empty")
	}
	if _, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
		return fmt.Errorf("invalid listen_addr: %w", err)
	}
	if err := validateDurations(cfg); err != nil {
		return err
	}
	if !cfg.Provider.Offline {
		if err := validateURLWithCache(cfg.Provider.BaseURL, "http"); err != nil {
			return errors.New("invalid provider base_url protocol")
		}
		if cfg.Provider.APIKey == "" {
			return errors.New("provider.api_key is required unless provider.offline is set")
		}
	}
	if cfg.Provider.MaxTries == 0 {
		return errors.New("invalid provider.max_tries")
	}
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID == 0 {
		return errors.New("telegram.chat_id is required when telegram.token is set")
	}
	if cfg.Telegram.Token != "" && cfg.Telegram.Timeout <= 0 {
		return errors.New("invalid telegram.timeout")
	}
	return nil
}

func validateDurations(cfg *Config) error {
	if cfg.ForwardTimeout <= 0 {
		return errors.New("invalid forward_timeout")
	}
	if cfg.TokenWindow <= 0 {
		return errors.New("invalid token_window")
	}
	if cfg.EventWindow <= 0 {
		return errors.New("invalid event_window")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("invalid shutdown_timeout")
	}
	if cfg.Provider.Timeout <= 0 {
		return errors.New("invalid provider.timeout")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) || parsed.Host == "" {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}
