// Package config handles loading and persisting user configuration
// for ndstream. Configuration is stored in ~/.ndstream/config.json.
//
// Precedence, highest first: flags (applied by the caller), NDSTREAM_*
// environment variables (a .env file in the working directory is honoured),
// the config file, built-in defaults.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	dirName   = ".ndstream"
	fileName  = "config"
	fileType  = "json"
	envPrefix = "NDSTREAM"

	defaultModel          = "llama3.2:latest"
	defaultEndpoint       = "http://localhost:11434"
	defaultConnectTimeout = 5 * time.Second
	defaultReadSize       = 4096
)

// Config holds the user's configuration.
type Config struct {
	Model    string `mapstructure:"model" json:"model"`
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`
	APIKey   string `mapstructure:"api_key" json:"api_key,omitempty"`

	// ConnectTimeout bounds dialing the server. The stream itself has no
	// deadline.
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" json:"connect_timeout"`
	// ReadSize is the buffer size for each read of the response body.
	ReadSize int `mapstructure:"read_size" json:"read_size"`

	// History records finished requests to ~/.ndstream/history.json.
	History bool `mapstructure:"history" json:"history"`
	Debug   bool `mapstructure:"debug" json:"debug"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model:          defaultModel,
		Endpoint:       defaultEndpoint,
		ConnectTimeout: defaultConnectTimeout,
		ReadSize:       defaultReadSize,
		History:        true,
	}
}

// Dir returns the configuration directory path.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, dirName)
}

func configPath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// Path returns the config file path.
func Path() string {
	return configPath()
}

// Load reads the configuration from defaults, the config file, and the
// environment. A missing or unreadable config file is not an error; the
// defaults apply.
func Load() (*Config, error) {
	// .env is optional; a missing file is the common case.
	_ = godotenv.Load()

	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// A corrupt file falls back to defaults rather than locking the
			// user out of the CLI that would fix it.
			v = newViper()
		}
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return Default(), nil
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	return cfg, nil
}

// Validate reports settings that would make every request fail.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Model) == "" {
		return errors.New("model must not be empty")
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("endpoint %q must be an http(s) URL", c.Endpoint)
	}
	if c.ReadSize <= 0 {
		return fmt.Errorf("read size must be positive, got %d", c.ReadSize)
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("connect timeout must not be negative, got %s", c.ConnectTimeout)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("model", d.Model)
	v.SetDefault("endpoint", d.Endpoint)
	v.SetDefault("api_key", "")
	v.SetDefault("connect_timeout", d.ConnectTimeout)
	v.SetDefault("read_size", d.ReadSize)
	v.SetDefault("history", d.History)
	v.SetDefault("debug", d.Debug)

	v.SetConfigName(fileName)
	v.SetConfigType(fileType)
	v.AddConfigPath(Dir())
	return v
}

// set writes a single key to the config file, leaving the others as they
// are on disk. Environment overrides are not persisted.
func set(key string, value any) error {
	if err := os.MkdirAll(Dir(), 0o700); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(configPath())
	v.SetConfigType(fileType)
	if err := v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	v.Set(key, value)

	if err := v.WriteConfigAs(configPath()); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return os.Chmod(configPath(), 0o600)
}

// SetAPIKey saves the API key to the config file.
func SetAPIKey(key string) error {
	return set("api_key", key)
}

// SetModel saves the model preference to the config file.
func SetModel(model string) error {
	if strings.TrimSpace(model) == "" {
		return errors.New("model must not be empty")
	}
	return set("model", model)
}

// SetEndpoint saves the server URL to the config file.
func SetEndpoint(endpoint string) error {
	c := Default()
	c.Endpoint = strings.TrimRight(endpoint, "/")
	if err := c.Validate(); err != nil {
		return err
	}
	return set("endpoint", c.Endpoint)
}
