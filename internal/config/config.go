// Package config provides YAML-based configuration loading for Sprintdeck.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Sprintdeck configuration, loaded from config.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AI       AIConfig       `yaml:"ai"`
	Notify   NotifyConfig   `yaml:"notify"`
	GitHub   GitHubConfig   `yaml:"github"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig selects and configures the storage backend.
// Driver is "sqlite" (default, Path-based) or "mysql" (Host/Port/Name).
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// AIConfig configures the hosted LLM used by the smart features.
// The API key is read from the environment, never from the file.
type AIConfig struct {
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// NotifyConfig configures outbound notification delivery.
type NotifyConfig struct {
	Slack      SlackConfig   `yaml:"slack"`
	Discord    DiscordConfig `yaml:"discord"`
	DigestCron string        `yaml:"digest_cron"`
}

// SlackConfig holds Slack delivery settings.
type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
	Channel  string `yaml:"channel"`
}

// DiscordConfig holds Discord delivery settings.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
	Channel  string `yaml:"channel"`
}

// GitHubConfig holds settings for importing issues from GitHub.
type GitHubConfig struct {
	TokenEnv string `yaml:"token_env"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// AIAPIKey resolves the LLM API key from the configured environment variable.
func (c *Config) AIAPIKey() string {
	return os.Getenv(c.AI.APIKeyEnv)
}

// GitHubToken resolves the GitHub token from the configured environment variable.
func (c *Config) GitHubToken() string {
	return os.Getenv(c.GitHub.TokenEnv)
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "sprintdeck.db"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.Name == "" {
			c.Database.Name = "sprintdeck"
		}
		if c.Database.User == "" {
			c.Database.User = "root"
		}
	}
	if c.AI.Model == "" {
		c.AI.Model = "claude-sonnet-4-5"
	}
	if c.AI.MaxTokens == 0 {
		c.AI.MaxTokens = 2048
	}
	if c.AI.APIKeyEnv == "" {
		c.AI.APIKeyEnv = "ANTHROPIC_API_KEY"
	}
	if c.GitHub.TokenEnv == "" {
		c.GitHub.TokenEnv = "GITHUB_TOKEN"
	}
	if c.Notify.DigestCron == "" {
		c.Notify.DigestCron = "0 9 * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d is out of range", c.Server.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
