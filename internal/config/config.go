// Package config provides configuration management for the MLB predictor.
package config

import (
	"fmt"
	"time"
)

// Model backends.
const (
	BackendNative = "native"
	BackendRemote = "remote"
	BackendGRPC   = "grpc"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Model     ModelConfig     `mapstructure:"model" validate:"required"`
	MLService MLServiceConfig `mapstructure:"ml_service"`
	StatsAPI  StatsAPIConfig  `mapstructure:"stats_api" validate:"required"`
	Feeds     FeedsConfig     `mapstructure:"feeds" validate:"required"`
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Secrets   SecretsConfig   `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// ModelConfig locates the trained artifact and picks the classifier backend
type ModelConfig struct {
	ArtifactPath string `mapstructure:"artifact_path" validate:"required"`
	Backend      string `mapstructure:"backend" validate:"required,oneof=native remote grpc"`
	CacheEnabled bool   `mapstructure:"cache_enabled"`
}

// MLServiceConfig represents the remote model server configuration
type MLServiceConfig struct {
	URL                   string  `mapstructure:"url" validate:"omitempty,url"`
	GRPCAddress           string  `mapstructure:"grpc_address"`
	APIKey                string  `mapstructure:"api_key"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds" validate:"gte=0"`
	RetryAttempts         int     `mapstructure:"retry_attempts" validate:"gte=0"`
	RateLimit             float64 `mapstructure:"rate_limit" validate:"gte=0"`
	CacheTTLSeconds       int     `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
	CacheMaxSize          int     `mapstructure:"cache_max_size" validate:"gte=0"`
}

// StatsAPIConfig represents MLB Stats API access
type StatsAPIConfig struct {
	BaseURL               string  `mapstructure:"base_url" validate:"required,url"`
	Season                int     `mapstructure:"season" validate:"required,gte=1876"`
	RateLimit             float64 `mapstructure:"rate_limit" validate:"gte=0"`
	MaxRetries            int     `mapstructure:"max_retries" validate:"gte=0"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
	CacheTTLSeconds       int     `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	RecentGames           int     `mapstructure:"recent_games" validate:"required,gt=0"`
	Timezone              string  `mapstructure:"timezone" validate:"required"`
}

// FeedsConfig represents RSS news sources
type FeedsConfig struct {
	TeamNewsURL    string `mapstructure:"team_news_url" validate:"required"`
	LeagueNewsURL  string `mapstructure:"league_news_url" validate:"required,url"`
	RedditURL      string `mapstructure:"reddit_url" validate:"required"`
	MaxEntries     int    `mapstructure:"max_entries" validate:"required,gt=0"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
}

// ServerConfig represents the HTTP API server
type ServerConfig struct {
	Host                string `mapstructure:"host"`
	Port                int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeoutSeconds  int    `mapstructure:"read_timeout_seconds" validate:"gte=0"`
	WriteTimeoutSeconds int    `mapstructure:"write_timeout_seconds" validate:"gte=0"`
	StreamEnabled       bool   `mapstructure:"stream_enabled"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Host               string `mapstructure:"host" validate:"required_if=Enabled true"`
	Port               int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required_if=Enabled true"`
	User               string `mapstructure:"user" validate:"required_if=Enabled true"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"gte=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
}

// ScheduleConfig represents the daily slate refresh job
type ScheduleConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	SlateRefreshCron string `mapstructure:"slate_refresh_cron" validate:"required_if=Enabled true"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// SecretsConfig enables the AWS Secrets Manager overlay
type SecretsConfig struct {
	AWSEnabled bool   `mapstructure:"aws_enabled"`
	Region     string `mapstructure:"region" validate:"required_if=AWSEnabled true"`
	SecretName string `mapstructure:"secret_name" validate:"required_if=AWSEnabled true"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ServerAddress returns the listen address for the API server
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// StatsCacheTTL returns the stats cache expiry
func (c *Config) StatsCacheTTL() time.Duration {
	return time.Duration(c.StatsAPI.CacheTTLSeconds) * time.Second
}

// Location resolves the timezone that defines "today" for the slate
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.StatsAPI.Timezone)
}
