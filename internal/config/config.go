// ABOUTME: Configuration loading and parsing for coven-chat
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config represents the complete coven-chat configuration
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Chat    ChatConfig    `yaml:"chat" toml:"chat"`
	Data    DataConfig    `yaml:"data" toml:"data"`
	Render  RenderConfig  `yaml:"render" toml:"render"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// ServerConfig holds the chat backend location
type ServerConfig struct {
	BaseURL string        `yaml:"base_url" toml:"base_url"`
	Token   string        `yaml:"token" toml:"token"`
	Timeout time.Duration `yaml:"-" toml:"-"`

	TimeoutRaw string `yaml:"timeout" toml:"timeout"`
}

// ChatConfig holds conversation behaviour settings
type ChatConfig struct {
	Language           string        `yaml:"language" toml:"language"`
	SmartQuestionMarks bool          `yaml:"smart_question_marks" toml:"smart_question_marks"`
	RetryDelay         time.Duration `yaml:"-" toml:"-"`
	BatchDelay         time.Duration `yaml:"-" toml:"-"`

	// Raw string values for unmarshaling
	RetryDelayRaw string `yaml:"retry_delay" toml:"retry_delay"`
	BatchDelayRaw string `yaml:"batch_delay" toml:"batch_delay"`
}

// DataConfig holds local state configuration
type DataConfig struct {
	// Path is the SQLite file holding the client identity.
	// Empty means $XDG_DATA_HOME/coven-chat/client.db.
	Path string `yaml:"path" toml:"path"`
}

// RenderConfig holds output configuration
type RenderConfig struct {
	TranscriptPath string `yaml:"transcript_path" toml:"transcript_path"`
	Color          bool   `yaml:"color" toml:"color"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8080",
		},
		Chat: ChatConfig{
			Language:           "en",
			SmartQuestionMarks: true,
			RetryDelay:         time.Second,
			BatchDelay:         time.Second,
		},
		Render: RenderConfig{
			Color: true,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Values missing from the file keep their defaults. The result is not
// validated; callers apply their overrides first and then call Validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expandedData, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads path when it exists and falls back to Default otherwise.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil {
		return fmt.Errorf("server.base_url is invalid: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server.base_url must use http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("server.base_url must include a host")
	}

	if c.Chat.Language == "" {
		return fmt.Errorf("chat.language is required")
	}
	if c.Chat.RetryDelay < 0 {
		return fmt.Errorf("chat.retry_delay must not be negative")
	}
	if c.Chat.BatchDelay < 0 {
		return fmt.Errorf("chat.batch_delay must not be negative")
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("server.timeout must not be negative")
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Server.TimeoutRaw != "" {
		cfg.Server.Timeout, err = time.ParseDuration(cfg.Server.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing timeout %q: %w", cfg.Server.TimeoutRaw, err)
		}
	}

	if cfg.Chat.RetryDelayRaw != "" {
		cfg.Chat.RetryDelay, err = time.ParseDuration(cfg.Chat.RetryDelayRaw)
		if err != nil {
			return fmt.Errorf("parsing retry_delay %q: %w", cfg.Chat.RetryDelayRaw, err)
		}
	}

	if cfg.Chat.BatchDelayRaw != "" {
		cfg.Chat.BatchDelay, err = time.ParseDuration(cfg.Chat.BatchDelayRaw)
		if err != nil {
			return fmt.Errorf("parsing batch_delay %q: %w", cfg.Chat.BatchDelayRaw, err)
		}
	}

	return nil
}
