// ABOUTME: Configuration loader for the academix CLI
// ABOUTME: Layers flags, ACADEMIX_* environment, .env and a YAML file over defaults

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable, e.g. ACADEMIX_API_URL.
const EnvPrefix = "ACADEMIX"

// Keys understood by the loader.
const (
	KeyAPIURL        = "api_url"
	KeyStore         = "store"
	KeyStoreDir      = "store_dir"
	KeyRedisURL      = "redis_url"
	KeyRedisPrefix   = "redis_prefix"
	KeyTimezone      = "timezone"
	KeySessionCookie = "session_cookie"
	KeyTimeout       = "timeout"
	KeyLogLevel      = "log_level"
	KeyLogFormat     = "log_format"
)

// Token store kinds.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

const DefaultAPIURL = "http://localhost:8000"

type Config struct {
	APIURL        string        `mapstructure:"api_url"`
	Store         string        `mapstructure:"store"`
	StoreDir      string        `mapstructure:"store_dir"`
	RedisURL      string        `mapstructure:"redis_url"`
	RedisPrefix   string        `mapstructure:"redis_prefix"`
	Timezone      string        `mapstructure:"timezone"`
	SessionCookie string        `mapstructure:"session_cookie"`
	Timeout       time.Duration `mapstructure:"timeout"`
	LogLevel      string        `mapstructure:"log_level"`
	LogFormat     string        `mapstructure:"log_format"`
}

// fileLayout is the on-disk YAML shape.
type fileLayout struct {
	APIURL        string `yaml:"api_url"`
	Store         string `yaml:"store"`
	StoreDir      string `yaml:"store_dir"`
	RedisURL      string `yaml:"redis_url"`
	RedisPrefix   string `yaml:"redis_prefix"`
	Timezone      string `yaml:"timezone"`
	SessionCookie string `yaml:"session_cookie"`
	Timeout       string `yaml:"timeout"`
	LogLevel      string `yaml:"log_level"`
	LogFormat     string `yaml:"log_format"`
}

// DefaultDir returns the config directory following the XDG spec
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "academix")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "academix")
}

// DefaultFile is the config file used when none is given.
func DefaultFile() string {
	dir := DefaultDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Defaults returns the built-in settings.
func Defaults() *Config {
	return &Config{
		APIURL:      DefaultAPIURL,
		Store:       StoreFile,
		StoreDir:    DefaultDir(),
		RedisURL:    "redis://localhost:6379/0",
		RedisPrefix: "academix",
		Timeout:     30 * time.Second,
		LogLevel:    "warn",
		LogFormat:   "text",
	}
}

// NewViper returns a viper instance with defaults, environment binding and,
// if file is non-empty, the YAML config file registered.
func NewViper(file string) *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault(KeyAPIURL, d.APIURL)
	v.SetDefault(KeyStore, d.Store)
	v.SetDefault(KeyStoreDir, d.StoreDir)
	v.SetDefault(KeyRedisURL, d.RedisURL)
	v.SetDefault(KeyRedisPrefix, d.RedisPrefix)
	v.SetDefault(KeyTimezone, d.Timezone)
	v.SetDefault(KeySessionCookie, d.SessionCookie)
	v.SetDefault(KeyTimeout, d.Timeout)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
	}
	return v
}

// Load reads .env (if present) and the config file (if present) into v and
// returns the effective settings.
func Load(v *viper.Viper) (*Config, error) {
	// .env is optional; variables may be set directly
	_ = godotenv.Load()

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later in confusing ways.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreFile, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("store must be one of file, redis, memory; got %q", c.Store)
	}
	if c.Store == StoreFile && c.StoreDir == "" {
		return fmt.Errorf("store_dir is required for the file store")
	}
	if c.APIURL == "" {
		return fmt.Errorf("api_url is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// Location resolves the configured timezone; empty means the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) layout() fileLayout {
	return fileLayout{
		APIURL:        c.APIURL,
		Store:         c.Store,
		StoreDir:      c.StoreDir,
		RedisURL:      c.RedisURL,
		RedisPrefix:   c.RedisPrefix,
		Timezone:      c.Timezone,
		SessionCookie: c.SessionCookie,
		Timeout:       c.Timeout.String(),
		LogLevel:      c.LogLevel,
		LogFormat:     c.LogFormat,
	}
}

// YAML renders the settings in config-file form. The session cookie is redacted
// unless reveal is set.
func (c *Config) YAML(reveal bool) ([]byte, error) {
	l := c.layout()
	if !reveal && l.SessionCookie != "" {
		l.SessionCookie = "<redacted>"
	}
	return yaml.Marshal(l)
}

// WriteDefault creates a config file with the built-in settings. An existing
// file is kept unless force is set.
func WriteDefault(path string, force bool) error {
	if path == "" {
		return fmt.Errorf("no config path available")
	}
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := Defaults().YAML(true)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
