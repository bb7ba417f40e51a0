package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Cyvadra/tv-bots/broker"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig     `yaml:"server"`
	Database  DatabaseConfig   `yaml:"database"`
	Log       LogConfig        `yaml:"log"`
	Webhook   WebhookConfig    `yaml:"webhook"`
	Exchanges ExchangesConfig  `yaml:"exchanges"`
	Endpoints []EndpointConfig `yaml:"endpoints"`
	Janitor   JanitorConfig    `yaml:"janitor"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      string `yaml:"port"`
	PublicURL string `yaml:"public_url"` // externally reachable base, used in issued webhook URLs
	Mode      string `yaml:"mode"`       // gin mode: debug, release, test
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	port := strings.TrimPrefix(s.Port, ":")
	return s.Host + ":" + port
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // sqlite, postgres, mysql
	DSN      string `yaml:"dsn"`
	LogLevel string `yaml:"log_level"` // silent, error, warn, info
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // text, json
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// WebhookConfig represents webhook issuing configuration
type WebhookConfig struct {
	DefaultExpirationDays int    `yaml:"default_expiration_days"`
	PathPrefix            string `yaml:"path_prefix"`
}

// ExchangesConfig represents exchange connection settings
type ExchangesConfig struct {
	Bybit   broker.Settings `yaml:"bybit"`
	Binance broker.Settings `yaml:"binance"`
}

// EndpointConfig represents a downstream notification endpoint
type EndpointConfig struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"` // telegram, wechat, dingtalk, webhook
	URL      string `yaml:"url"`
	Token    string `yaml:"token,omitempty"`
	ChatID   string `yaml:"chat_id,omitempty"`
	IsActive bool   `yaml:"is_active"`
}

// JanitorConfig controls the expired token cleanup job
type JanitorConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"` // cron expression with seconds
	RetentionDays int    `yaml:"retention_days"`
}

const (
	DefaultPort                 = "8080"
	DefaultDSN                  = "tv-bots.db"
	DefaultExpirationDays       = 30
	DefaultWebhookPathPrefix    = "/processAlert"
	DefaultJanitorSchedule      = "0 0 3 * * *"
	DefaultJanitorRetentionDays = 7
	DefaultBybitMainnetURL      = "https://api.bybit.com"
	DefaultBybitTestnetURL      = "https://api-testnet.bybit.com"
	DefaultBybitCategory        = "linear"
	DefaultBybitRecvWindow      = "5000"
	DefaultExchangeTimeout      = 10 * time.Second
)

var (
	validDrivers       = map[string]bool{"sqlite": true, "postgres": true, "mysql": true}
	validEndpointTypes = map[string]bool{"telegram": true, "wechat": true, "dingtalk": true, "webhook": true}
)

// LoadConfig loads configuration from a YAML file. Environment variable
// references such as ${BYBIT_URL} are expanded before decoding.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes, defaults and validates a YAML document
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ApplyDefaults fills zero values with their defaults
func (c *Config) ApplyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.DSN == "" && c.Database.Driver == "sqlite" {
		c.Database.DSN = DefaultDSN
	}
	if c.Database.LogLevel == "" {
		c.Database.LogLevel = "warn"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Webhook.DefaultExpirationDays == 0 {
		c.Webhook.DefaultExpirationDays = DefaultExpirationDays
	}
	if c.Webhook.PathPrefix == "" {
		c.Webhook.PathPrefix = DefaultWebhookPathPrefix
	}
	c.Webhook.PathPrefix = "/" + strings.Trim(c.Webhook.PathPrefix, "/")
	c.Server.PublicURL = strings.TrimRight(c.Server.PublicURL, "/")

	bybit := &c.Exchanges.Bybit
	if bybit.MainnetURL == "" {
		bybit.MainnetURL = DefaultBybitMainnetURL
	}
	if bybit.TestnetURL == "" {
		bybit.TestnetURL = DefaultBybitTestnetURL
	}
	if bybit.Category == "" {
		bybit.Category = DefaultBybitCategory
	}
	if bybit.RecvWindow == "" {
		bybit.RecvWindow = DefaultBybitRecvWindow
	}
	if bybit.Timeout == 0 {
		bybit.Timeout = DefaultExchangeTimeout
	}
	if c.Exchanges.Binance.Timeout == 0 {
		c.Exchanges.Binance.Timeout = DefaultExchangeTimeout
	}

	if c.Janitor.Schedule == "" {
		c.Janitor.Schedule = DefaultJanitorSchedule
	}
	if c.Janitor.RetentionDays == 0 {
		c.Janitor.RetentionDays = DefaultJanitorRetentionDays
	}
}

// Validate checks the configuration for values the service cannot run with
func (c *Config) Validate() error {
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required for driver %s", c.Database.Driver)
	}
	if c.Server.PublicURL == "" {
		return fmt.Errorf("server.public_url is required")
	}
	if c.Webhook.DefaultExpirationDays < 0 {
		return fmt.Errorf("webhook.default_expiration_days must be positive, got %d", c.Webhook.DefaultExpirationDays)
	}
	if c.Janitor.RetentionDays < 0 {
		return fmt.Errorf("janitor.retention_days must be positive, got %d", c.Janitor.RetentionDays)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	for _, endpoint := range c.Endpoints {
		if !validEndpointTypes[endpoint.Type] {
			return fmt.Errorf("endpoint %q has unsupported type %q", endpoint.Name, endpoint.Type)
		}
	}
	return nil
}

// ExchangeSettings returns the connection settings keyed by exchange name
func (c *Config) ExchangeSettings() map[string]broker.Settings {
	return map[string]broker.Settings{
		"bybit":   c.Exchanges.Bybit,
		"binance": c.Exchanges.Binance,
	}
}

// ActiveEndpoints returns the endpoints notifications should go to
func (c *Config) ActiveEndpoints() []EndpointConfig {
	var active []EndpointConfig
	for _, endpoint := range c.Endpoints {
		if endpoint.IsActive {
			active = append(active, endpoint)
		}
	}
	return active
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, filename string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
