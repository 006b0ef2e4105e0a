package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	Resend    ResendConfig    `yaml:"resend"`
	Turnstile TurnstileConfig `yaml:"turnstile"`
	Subscribe SubscribeConfig `yaml:"subscribe"`
	Contact   ContactConfig   `yaml:"contact"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	// Allow override via environment
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// RedisConfig holds connection settings for the pending-subscription store
type RedisConfig struct {
	URL string `yaml:"url"`
}

// ResendConfig holds Resend API configuration. Resend serves as both the
// transactional email provider and the mailing-list (contacts) provider.
type ResendConfig struct {
	APIKey         string `yaml:"api_key"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c ResendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TurnstileConfig holds Cloudflare Turnstile CAPTCHA verification settings
type TurnstileConfig struct {
	SecretKey      string `yaml:"secret_key"`
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c TurnstileConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SubscribeConfig holds the double opt-in workflow settings
type SubscribeConfig struct {
	// BaseURL is the public origin used to build confirmation links,
	// e.g. "https://example.com". The token is appended as ?code=.
	BaseURL    string `yaml:"base_url"`
	FromName   string `yaml:"from_name"`
	FromEmail  string `yaml:"from_email"`
	TTLSeconds int    `yaml:"ttl_seconds"`
	// Audiences maps uppercased audience names to Resend audience IDs.
	// A name with no entry falls back to the default contact list.
	Audiences map[string]string `yaml:"audiences"`
}

// TTL returns the pending-subscription lifetime as a duration
func (c SubscribeConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// ListID resolves an audience name to a provider audience ID.
// Lookup is by uppercased name; a missing or empty entry reports false.
func (c SubscribeConfig) ListID(audience string) (string, bool) {
	id, ok := c.Audiences[strings.ToUpper(audience)]
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// ContactConfig holds contact-form forwarding settings
type ContactConfig struct {
	FromName  string `yaml:"from_name"`
	FromEmail string `yaml:"from_email"`
	// Recipient receives forwarded contact-form submissions.
	Recipient string `yaml:"recipient"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Redis.URL == "" {
		cfg.Redis.URL = "redis://localhost:6379"
	}
	if cfg.Resend.BaseURL == "" {
		cfg.Resend.BaseURL = "https://api.resend.com"
	}
	if cfg.Resend.TimeoutSeconds == 0 {
		cfg.Resend.TimeoutSeconds = 30
	}
	if cfg.Turnstile.BaseURL == "" {
		cfg.Turnstile.BaseURL = "https://challenges.cloudflare.com"
	}
	if cfg.Turnstile.TimeoutSeconds == 0 {
		cfg.Turnstile.TimeoutSeconds = 10
	}
	if cfg.Subscribe.TTLSeconds == 0 {
		cfg.Subscribe.TTLSeconds = 86400
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		cfg.Resend.APIKey = v
	}
	if v := os.Getenv("RESEND_BASE_URL"); v != "" {
		cfg.Resend.BaseURL = v
	}
	if v := os.Getenv("TURNSTILE_SECRET_KEY"); v != "" {
		cfg.Turnstile.SecretKey = v
	}
	if v := os.Getenv("SUBSCRIBE_BASE_URL"); v != "" {
		cfg.Subscribe.BaseURL = v
	}
	if v := os.Getenv("CONTACT_RECIPIENT"); v != "" {
		cfg.Contact.Recipient = v
	}

	return cfg, nil
}
