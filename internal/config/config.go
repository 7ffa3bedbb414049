package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied when neither the environment nor the config file
// provides a value.
const (
	DefaultMessageLimit    = 75
	DefaultTimeWindowHours = 24
)

// Config is the frozen process configuration. It is built once at
// startup and passed explicitly to every component; nothing reads the
// environment after Load returns.
type Config struct {
	TelegramToken   string  `toml:"telegram_token"`
	OpenAIKey       string  `toml:"openai_api_key"`
	FirecrawlKey    string  `toml:"firecrawl_api_key"`
	MessageLimit    int     `toml:"message_limit"`
	TimeWindowHours int     `toml:"time_window_hours"`
	AllowedChatIDs  []int64 `toml:"allowed_chat_ids"`

	// Base URL overrides, mainly for tests and self-hosted gateways.
	TelegramBaseURL  string `toml:"telegram_base_url"`
	OpenAIBaseURL    string `toml:"openai_base_url"`
	FirecrawlBaseURL string `toml:"firecrawl_base_url"`
}

// TimeWindow returns the configured rolling window as a duration.
func (c *Config) TimeWindow() time.Duration {
	return time.Duration(c.TimeWindowHours) * time.Hour
}

// ChatAllowed reports whether the chat is in the allow-list.
// An empty allow-list permits nothing.
func (c *Config) ChatAllowed(chatID int64) bool {
	for _, id := range c.AllowedChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

// Load builds the config: optional TOML file first, then environment
// overrides, then validation. A missing file is fine; an invalid one
// is not.
func Load(path string) (*Config, error) {
	cfg := &Config{
		MessageLimit:    DefaultMessageLimit,
		TimeWindowHours: DefaultTimeWindowHours,
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("decode config file: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.TelegramToken = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIKey = v
	}
	if v := os.Getenv("FIRECRAWL_API_KEY"); v != "" {
		c.FirecrawlKey = v
	}
	if v := os.Getenv("MESSAGE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MESSAGE_LIMIT must be a valid integer: %q", v)
		}
		c.MessageLimit = n
	}
	if v := os.Getenv("TIME_WINDOW_HOURS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TIME_WINDOW_HOURS must be a valid integer: %q", v)
		}
		c.TimeWindowHours = n
	}
	if v, set := os.LookupEnv("ALLOWED_CHAT_IDS"); set {
		ids, err := parseChatIDs(v)
		if err != nil {
			return err
		}
		c.AllowedChatIDs = ids
	}
	if v := os.Getenv("TELEGRAM_BASE_URL"); v != "" {
		c.TelegramBaseURL = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.OpenAIBaseURL = v
	}
	if v := os.Getenv("FIRECRAWL_BASE_URL"); v != "" {
		c.FirecrawlBaseURL = v
	}
	return nil
}

func (c *Config) validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.FirecrawlKey == "" {
		return fmt.Errorf("FIRECRAWL_API_KEY is required")
	}
	if c.MessageLimit <= 0 {
		return fmt.Errorf("MESSAGE_LIMIT must be positive, got %d", c.MessageLimit)
	}
	if c.TimeWindowHours <= 0 {
		return fmt.Errorf("TIME_WINDOW_HOURS must be positive, got %d", c.TimeWindowHours)
	}
	return nil
}

func parseChatIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ALLOWED_CHAT_IDS contains invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
