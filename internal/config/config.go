package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type DocsRSConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type CratesIOConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type HTTPConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type SearchConfig struct {
	Limit int `mapstructure:"limit"`
}

type Config struct {
	DocsRS   DocsRSConfig   `mapstructure:"docs_rs"`
	CratesIO CratesIOConfig `mapstructure:"crates_io"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Search   SearchConfig   `mapstructure:"search"`
}

// cacheBase returns the base cache directory for bookworm.
// Checks XDG_CACHE_HOME, then ~/.cache, then /tmp/bookworm as fallback.
func cacheBase() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "bookworm")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "bookworm")
	}
	return filepath.Join(os.TempDir(), "bookworm")
}

// CratesDir returns the directory holding unpacked crate docsets.
func CratesDir() string {
	return filepath.Join(cacheBase(), "crates")
}

func InitializeViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "bookworm"))
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "bookworm"))
	}

	viper.SetDefault("docs_rs.base_url", "https://docs.rs")
	viper.SetDefault("crates_io.base_url", "https://crates.io")
	viper.SetDefault("http.user_agent", "bookworm (https://github.com/dcdpr/bookworm)")
	viper.SetDefault("http.timeout_seconds", 60)
	viper.SetDefault("search.limit", 0)

	viper.SetEnvPrefix("BOOKWORM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	if err := InitializeViper(); err != nil {
		return nil, err
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
