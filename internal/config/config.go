package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Provider kinds accepted in provider.kind.
const (
	ProviderOpenAI          = "openai"
	ProviderOpenAIAssistant = "openai-assistant"
	ProviderAnthropic       = "anthropic"
	ProviderEcho            = "echo"
)

// Config is the top-level relay configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Provider ProviderConfig `yaml:"provider"`
	Relay    RelayConfig    `yaml:"relay"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host        string   `yaml:"host" env:"RELAY_HOST"`
	Port        int      `yaml:"port" env:"PORT"`
	TokenPath   string   `yaml:"token_path" env:"RELAY_TOKEN_PATH"`
	CORSOrigins []string `yaml:"cors_origins" env:"RELAY_CORS_ORIGINS" envSeparator:","`
}

// ProviderConfig selects and configures the completion provider.
type ProviderConfig struct {
	Kind         string `yaml:"kind" env:"PROVIDER"`
	APIKey       string `yaml:"api_key" env:"PROVIDER_API_KEY"`
	BaseURL      string `yaml:"base_url" env:"PROVIDER_BASE_URL"`
	Model        string `yaml:"model" env:"PROVIDER_MODEL"`
	AssistantID  string `yaml:"assistant_id" env:"OPENAI_ASSISTANT_ID"`
	Instructions string `yaml:"instructions" env:"PROVIDER_INSTRUCTIONS"`
	MaxTokens    int    `yaml:"max_tokens" env:"PROVIDER_MAX_TOKENS"`
}

// RelayConfig holds the completion wait budget.
type RelayConfig struct {
	MaxWait      time.Duration `yaml:"max_wait" env:"RELAY_MAX_WAIT"`
	PollInterval time.Duration `yaml:"poll_interval" env:"RELAY_POLL_INTERVAL"`
	EmptyReply   string        `yaml:"empty_reply" env:"RELAY_EMPTY_REPLY"`
}

// WebhookConfig holds outbound chat platform webhook settings.
// An empty URL disables delivery.
type WebhookConfig struct {
	URL     string        `yaml:"url" env:"JIVO_WEBHOOK_URL"`
	Timeout time.Duration `yaml:"timeout" env:"JIVO_WEBHOOK_TIMEOUT"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// defaults applies sane defaults to zero-valued fields.
func (c *Config) defaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Provider.Kind == "" {
		c.Provider.Kind = ProviderOpenAI
	}
	if c.Provider.MaxTokens == 0 {
		c.Provider.MaxTokens = 1024
	}
	if c.Relay.MaxWait == 0 {
		c.Relay.MaxWait = 10 * time.Second
	}
	if c.Relay.PollInterval == 0 {
		c.Relay.PollInterval = time.Second
	}
	if c.Relay.EmptyReply == "" {
		c.Relay.EmptyReply = "(no response)"
	}
	if c.Webhook.Timeout == 0 {
		c.Webhook.Timeout = 3 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// validate checks required fields and value constraints.
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.TokenPath == "" {
		return fmt.Errorf("server.token_path is required")
	}
	if strings.Contains(c.Server.TokenPath, "/") {
		return fmt.Errorf("server.token_path must be a single path segment")
	}

	switch c.Provider.Kind {
	case ProviderOpenAI, ProviderAnthropic:
	case ProviderOpenAIAssistant:
		if c.Provider.AssistantID == "" {
			return fmt.Errorf("provider.assistant_id is required for provider %q", c.Provider.Kind)
		}
	case ProviderEcho:
	default:
		return fmt.Errorf("provider.kind %q is not supported", c.Provider.Kind)
	}
	if c.Provider.Kind != ProviderEcho && c.Provider.APIKey == "" {
		return fmt.Errorf("provider.api_key is required for provider %q", c.Provider.Kind)
	}
	if c.Provider.MaxTokens < 0 {
		return fmt.Errorf("provider.max_tokens must be non-negative")
	}

	if c.Relay.MaxWait <= 0 {
		return fmt.Errorf("relay.max_wait must be positive")
	}
	if c.Relay.PollInterval <= 0 || c.Relay.PollInterval > c.Relay.MaxWait {
		return fmt.Errorf("relay.poll_interval must be positive and at most relay.max_wait")
	}

	if c.Webhook.URL != "" {
		u, err := url.Parse(c.Webhook.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("webhook.url %q is not an absolute URL", c.Webhook.URL)
		}
	}
	if c.Webhook.Timeout <= 0 {
		return fmt.Errorf("webhook.timeout must be positive")
	}
	return nil
}

// expandEnv replaces ${VAR} references in secret-bearing fields with
// environment variable values. This allows keeping secrets out of YAML.
func (c *Config) expandEnv() {
	c.Provider.APIKey = os.ExpandEnv(c.Provider.APIKey)
	c.Webhook.URL = os.ExpandEnv(c.Webhook.URL)
}

// Load reads an optional YAML config file, overlays environment variables,
// applies defaults, expands env references, and validates.
// An empty path skips the file and configures from the environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	cfg.defaults()
	cfg.expandEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// LoadEnvFile loads variables from a dotenv file without overriding ones
// already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// DeliveryEnabled reports whether outbound webhook delivery is configured.
func (c WebhookConfig) DeliveryEnabled() bool {
	return c.URL != ""
}

// MaskedAPIKey returns the provider credential with all but its last four
// characters hidden.
func (c ProviderConfig) MaskedAPIKey() string {
	if len(c.APIKey) <= 4 {
		return strings.Repeat("*", len(c.APIKey))
	}
	return strings.Repeat("*", len(c.APIKey)-4) + c.APIKey[len(c.APIKey)-4:]
}
