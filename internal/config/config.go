// Package config loads process configuration the way the teacher's
// internal/config does: a YAML file read through viper, a .env overlay
// for local secrets, and environment-variable overrides — re-shaped to
// this spec's own field set (SPEC_FULL.md §6).
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full process configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
}

// ServerConfig holds the HTTP listen address.
type ServerConfig struct {
	Address      string `mapstructure:"address"`
	Environment  string `mapstructure:"environment"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// DatabaseConfig holds the Postgres connection parameters.
type DatabaseConfig struct {
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	DBName         string `mapstructure:"dbname"`
	Address        string `mapstructure:"address"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// DSN builds a lib/pq-compatible connection string out of the configured
// database fields.
func (d DatabaseConfig) DSN() string {
	addr := d.Address
	if addr == "" {
		addr = "localhost:5432"
	}
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", d.Username, d.Password, addr, d.DBName)
}

// Load reads configFile (YAML) through viper, overlays a .env file for
// local secrets, and applies environment-variable overrides. configFile
// defaults to "config.yaml" when empty.
func Load(configFile string) (*Config, error) {
	if configFile == "" {
		configFile = "config.yaml"
	}

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables only", "error", err)
	}

	setDefaults()

	viper.SetEnvPrefix("WALRUS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigFile(configFile)
	if err := viper.ReadInConfig(); err != nil {
		slog.Warn("no config file found, using defaults and environment variables", "path", configFile, "error", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.address", "0.0.0.0:8080")
	viper.SetDefault("server.environment", "development")
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)

	viper.SetDefault("database.username", "walrus")
	viper.SetDefault("database.dbname", "walrus")
	viper.SetDefault("database.address", "localhost:5432")
	viper.SetDefault("database.max_connections", 25)
}

func validate(cfg *Config) error {
	if cfg.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if cfg.Database.DBName == "" {
		return fmt.Errorf("database.dbname is required")
	}
	return nil
}
