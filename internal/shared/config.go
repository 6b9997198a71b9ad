package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML or YAML file.
type Config struct {
	SABnzbd  SABnzbdConfig  `toml:"sabnzbd" yaml:"sabnzbd"`
	Listener ListenerConfig `toml:"listener" yaml:"listener"`
	Limits   LimitsConfig   `toml:"limits" yaml:"limits"`
	Database DatabaseConfig `toml:"database" yaml:"database"`
	Server   ServerConfig   `toml:"server" yaml:"server"`
	Notify   NotifyConfig   `toml:"notify" yaml:"notify"`
	Log      LogConfig      `toml:"log" yaml:"log"`
}

// SABnzbdConfig contains the download queue connection settings.
type SABnzbdConfig struct {
	URL               string  `toml:"url" yaml:"url"`
	APIKey            string  `toml:"api_key" yaml:"api_key"`
	RequestsPerSecond float64 `toml:"requests_per_second" yaml:"requests_per_second"`
}

// ListenerConfig tunes the reconciliation loop.
type ListenerConfig struct {
	PollInterval      time.Duration `toml:"poll_interval" yaml:"poll_interval"`
	TaskTimeout       time.Duration `toml:"task_timeout" yaml:"task_timeout"`
	PlaceholderPrefix string        `toml:"placeholder_prefix" yaml:"placeholder_prefix"`
}

// LimitsConfig holds quota settings for NZB jobs.
type LimitsConfig struct {
	MaxNZBSize string `toml:"max_nzb_size" yaml:"max_nzb_size"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" yaml:"path"`
	MaxOpenConns int    `toml:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns" yaml:"max_idle_conns"`
}

// ServerConfig contains control API settings.
type ServerConfig struct {
	Host string `toml:"host" yaml:"host"`
	Port int    `toml:"port" yaml:"port"`
}

// Addr returns host:port for net.Listen.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BaseURL returns the http URL clients use to reach the control API.
func (s ServerConfig) BaseURL() string {
	host := s.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, s.Port)
}

// NotifyConfig configures auto-expiring notices.
type NotifyConfig struct {
	WebhookURL  string        `toml:"webhook_url" yaml:"webhook_url"`
	ExpireAfter time.Duration `toml:"expire_after" yaml:"expire_after"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// LoadConfig reads and parses a configuration file from the specified path.
//
// Files ending in .yaml or .yml are parsed as YAML, everything else as TOML.
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
		}
	default:
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the values the listener depends on.
func (c *Config) Validate() error {
	if c.SABnzbd.URL == "" {
		return fmt.Errorf("%w: sabnzbd.url is required", ErrInvalidConfig)
	}
	if c.Listener.PollInterval <= 0 {
		return fmt.Errorf("%w: listener.poll_interval must be positive", ErrInvalidConfig)
	}
	if c.Listener.TaskTimeout <= 0 {
		return fmt.Errorf("%w: listener.task_timeout must be positive", ErrInvalidConfig)
	}
	if c.Limits.MaxNZBSize != "" {
		if _, err := ParseSize(c.Limits.MaxNZBSize); err != nil {
			return fmt.Errorf("%w: limits.max_nzb_size: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadOrDefault loads the config at path when it exists and falls back to the defaults otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}
