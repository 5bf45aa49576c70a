// Package config holds the runtime configuration for the skg CLI and
// server, loaded from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings.
type Config struct {
	// Artifacts configures where upstream JSON artifacts are read from.
	Artifacts ArtifactsConfig `yaml:"artifacts" mapstructure:"artifacts"`

	// Store configures the persisted triple store.
	Store StoreConfig `yaml:"store" mapstructure:"store"`

	// Staging configures the optional relational staging database.
	Staging StagingConfig `yaml:"staging" mapstructure:"staging"`

	// Server configures the HTTP query API.
	Server ServerConfig `yaml:"server" mapstructure:"server"`
}

type ArtifactsConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

type StagingConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // "sqlite3" or "postgres"
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Artifacts: ArtifactsConfig{
			Dir: filepath.Join("data", "output"),
		},
		Store: StoreConfig{
			Path: filepath.Join("data", "output", "kg.ttl"),
		},
		Staging: StagingConfig{
			Driver: "sqlite3",
			DSN:    filepath.Join("data", "staging.db"),
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load loads configuration from file, falling back to defaults when no
// config file exists.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	cfg := Default()
	v.SetDefault("artifacts", cfg.Artifacts)
	v.SetDefault("store", cfg.Store)
	v.SetDefault("staging", cfg.Staging)
	v.SetDefault("server", cfg.Server)

	v.SetEnvPrefix("SKG")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".scholarkg")
		v.AddConfigPath(".")
		homeDir, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(homeDir, ".scholarkg"))
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// WriteDefault renders the default configuration as YAML at path.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("render default config: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory %s: %w", dir, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// loadEnvFiles loads .env files in order of precedence.
func loadEnvFiles() {
	envFiles := []string{
		".env.local",
		".env",
	}
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			godotenv.Load(file)
		}
	}
	homeDir, _ := os.UserHomeDir()
	homeEnvFile := filepath.Join(homeDir, ".scholarkg", ".env")
	if _, err := os.Stat(homeEnvFile); err == nil {
		godotenv.Load(homeEnvFile)
	}
}

// applyEnvOverrides applies flat environment variable overrides that
// predate the SKG_ viper prefix and remain supported.
func applyEnvOverrides(cfg *Config) {
	if dir := os.Getenv("SKG_ARTIFACTS_DIR"); dir != "" {
		cfg.Artifacts.Dir = dir
	}
	if path := os.Getenv("SKG_STORE_PATH"); path != "" {
		cfg.Store.Path = path
	}
	if driver := os.Getenv("SKG_STAGING_DRIVER"); driver != "" {
		cfg.Staging.Driver = driver
	}
	if dsn := os.Getenv("SKG_STAGING_DSN"); dsn != "" {
		cfg.Staging.DSN = dsn
	}
	if addr := os.Getenv("SKG_SERVER_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
}
