package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Auth     AuthConfig     `mapstructure:"auth"`
	TMDB     TMDBConfig     `mapstructure:"tmdb"`
	Stremio  StremioConfig  `mapstructure:"stremio"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSecret    string `mapstructure:"jwt_secret"`
	TokenTTLMins int    `mapstructure:"token_ttl_minutes"`
}

// TMDBConfig holds metadata provider configuration.
type TMDBConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// StremioConfig holds placeholder store configuration.
type StremioConfig struct {
	PlaceholderTTLMins int `mapstructure:"placeholder_ttl_minutes"`
	PruneIntervalMins  int `mapstructure:"prune_interval_minutes"`
	MaxSearchResults   int `mapstructure:"max_search_results"`
}

// PlaceholderTTL returns the configured placeholder lifetime.
func (c *StremioConfig) PlaceholderTTL() time.Duration {
	return time.Duration(c.PlaceholderTTLMins) * time.Minute
}

// PruneInterval returns how often expired placeholders are swept.
func (c *StremioConfig) PruneInterval() time.Duration {
	return time.Duration(c.PruneIntervalMins) * time.Minute
}

// TokenTTL returns the configured session token lifetime.
func (c *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMins) * time.Minute
}

// Load reads configuration from file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.streambridge")
	}

	v.SetEnvPrefix("STREAMBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8480)

	v.SetDefault("database.path", "./data/streambridge.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.path", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl_minutes", 24*60)

	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.timeout", 15)

	v.SetDefault("stremio.placeholder_ttl_minutes", 24*60)
	v.SetDefault("stremio.prune_interval_minutes", 15)
	v.SetDefault("stremio.max_search_results", 25)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
