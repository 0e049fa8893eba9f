package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix         = "MLB_PREDICTOR"
	defaultConfigPath = "config/config.yaml"
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	// app.log_level -> MLB_PREDICTOR_APP_LOG_LEVEL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// setDefaults registers every key so AutomaticEnv can override values that
// are absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "mlb-predictor")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("model.artifact_path", "models/model.json")
	v.SetDefault("model.backend", BackendNative)
	v.SetDefault("model.cache_enabled", true)

	v.SetDefault("ml_service.url", "")
	v.SetDefault("ml_service.grpc_address", "")
	v.SetDefault("ml_service.api_key", "")
	v.SetDefault("ml_service.request_timeout_seconds", 5)
	v.SetDefault("ml_service.retry_attempts", 2)
	v.SetDefault("ml_service.rate_limit", 50.0)
	v.SetDefault("ml_service.cache_ttl_seconds", 300)
	v.SetDefault("ml_service.cache_max_size", 10000)

	v.SetDefault("stats_api.base_url", "https://statsapi.mlb.com/api/v1")
	v.SetDefault("stats_api.season", 2025)
	v.SetDefault("stats_api.rate_limit", 10.0)
	v.SetDefault("stats_api.max_retries", 3)
	v.SetDefault("stats_api.request_timeout_seconds", 15)
	v.SetDefault("stats_api.cache_ttl_seconds", 3600)
	v.SetDefault("stats_api.recent_games", 10)
	v.SetDefault("stats_api.timezone", "America/New_York")

	v.SetDefault("feeds.team_news_url", "https://www.mlb.com/%s/feeds/news/rss.xml")
	v.SetDefault("feeds.league_news_url", "https://www.espn.com/espn/rss/mlb/news")
	v.SetDefault("feeds.reddit_url", "https://www.reddit.com/r/%s/.rss")
	v.SetDefault("feeds.max_entries", 3)
	v.SetDefault("feeds.timeout_seconds", 10)

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 15)
	v.SetDefault("server.stream_enabled", true)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("schedule.enabled", true)
	v.SetDefault("schedule.slate_refresh_cron", "0 */15 * * * *")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("secrets.aws_enabled", false)
	v.SetDefault("secrets.region", "")
	v.SetDefault("secrets.secret_name", "")
}

func readExpanded(v *viper.Viper, data []byte) error {
	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Load reads and parses the configuration from file and environment variables.
// The file must exist. ${VAR_NAME} placeholders in the YAML are expanded.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := readExpanded(v, data); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// LoadWithDefaults loads configuration over built-in defaults. A missing file
// is not an error; defaults and environment variables still apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := readExpanded(v, data); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// ReloadFromEnv reloads the configuration from MLB_PREDICTOR_CONFIG_PATH when set
func ReloadFromEnv(cfg *Config) error {
	envPath := os.Getenv(envPrefix + "_CONFIG_PATH")
	if envPath == "" {
		return nil
	}

	newCfg, err := LoadWithDefaults(envPath)
	if err != nil {
		return err
	}
	*cfg = *newCfg
	return nil
}
