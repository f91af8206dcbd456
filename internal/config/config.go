// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TokenEnv overrides bot.token when set.
const TokenEnv = "SCRAPER_BOT_TOKEN"

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token     string `yaml:"token"`
	Mode      string `yaml:"mode"`        // polling | noop
	Workers   int    `yaml:"workers"`     // polling workers, updates are sharded by chat id
	DevChatID int64  `yaml:"dev_chat_id"` // chat id used by the noop console driver
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port      int           `yaml:"port"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RateLimitConfig struct {
	Backend       string        `yaml:"backend"` // memory | redis
	MaxMessages   int           `yaml:"max_messages"`
	Window        time.Duration `yaml:"window"`
	BlockDuration time.Duration `yaml:"block_duration"`
}

type QueueConfig struct {
	MaxConcurrency int           `yaml:"max_concurrency"`
	JobTimeout     time.Duration `yaml:"job_timeout"` // 0 = no deadline
}

type ScraperConfig struct {
	MaxResults      int           `yaml:"max_results"`
	Timeout         time.Duration `yaml:"timeout"`
	UserAgent       string        `yaml:"user_agent"`
	Disabled        []string      `yaml:"disabled"`
	DigikalaBaseURL string        `yaml:"digikala_base_url"`
	EbayBaseURL     string        `yaml:"ebay_base_url"`
	SearchBaseURL   string        `yaml:"search_base_url"`
}

type SessionsConfig struct {
	IdleTTL       time.Duration `yaml:"idle_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type I18nConfig struct {
	Lang string `yaml:"lang"`
}

type Config struct {
	Bot       BotConfig              `yaml:"bot"`
	Log       LogConfig              `yaml:"log"`
	Admin     AdminConfig            `yaml:"admin"`
	Redis     RedisConfig            `yaml:"redis"`
	RateLimit RateLimitConfig        `yaml:"rate_limit"`
	Queues    map[string]QueueConfig `yaml:"queues"`
	Scraper   ScraperConfig          `yaml:"scraper"`
	Sessions  SessionsConfig         `yaml:"sessions"`
	I18n      I18nConfig             `yaml:"i18n"`

	Runtime RuntimeConfig `yaml:"-"`
}

// DefaultQueues lists the resources served when the config has no queues section.
var DefaultQueues = []string{"digikala", "ebay", "global"}

// LoadConfig reads the YAML file at path, fills defaults and validates it.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

// Parse is LoadConfig without the file system.
func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if tok := strings.TrimSpace(os.Getenv(TokenEnv)); tok != "" {
		cfg.Bot.Token = tok
	}
	cfg.applyDefaults()
	cfg.Runtime.Dev = dev

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Bot.Mode == "" {
		cfg.Bot.Mode = "polling"
	}
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.DevChatID == 0 {
		cfg.Bot.DevChatID = 1
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.TokenTTL <= 0 {
		cfg.Admin.TokenTTL = 24 * time.Hour
	}

	if cfg.RateLimit.Backend == "" {
		cfg.RateLimit.Backend = "memory"
	}
	if cfg.RateLimit.MaxMessages <= 0 {
		cfg.RateLimit.MaxMessages = 7
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = 3 * time.Second
	}
	if cfg.RateLimit.BlockDuration <= 0 {
		cfg.RateLimit.BlockDuration = 30 * time.Second
	}

	if len(cfg.Queues) == 0 {
		cfg.Queues = make(map[string]QueueConfig, len(DefaultQueues))
		for _, name := range DefaultQueues {
			cfg.Queues[name] = QueueConfig{}
		}
	}
	for name, q := range cfg.Queues {
		if q.MaxConcurrency <= 0 {
			q.MaxConcurrency = 3
		}
		cfg.Queues[name] = q
	}

	if cfg.Scraper.MaxResults <= 0 {
		cfg.Scraper.MaxResults = 5
	}
	if cfg.Scraper.Timeout <= 0 {
		cfg.Scraper.Timeout = 20 * time.Second
	}
	if cfg.Scraper.UserAgent == "" {
		cfg.Scraper.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0 Safari/537.36"
	}

	if cfg.Sessions.IdleTTL <= 0 {
		cfg.Sessions.IdleTTL = time.Hour
	}
	if cfg.Sessions.SweepInterval <= 0 {
		cfg.Sessions.SweepInterval = 10 * time.Minute
	}
	if cfg.I18n.Lang == "" {
		cfg.I18n.Lang = "en"
	}
}

func (cfg *Config) validate() error {
	switch strings.ToLower(cfg.Bot.Mode) {
	case "polling":
		if cfg.Bot.Token == "" {
			return errors.New("bot.token is required")
		}
	case "noop":
	default:
		return fmt.Errorf("bot.mode %q is not supported", cfg.Bot.Mode)
	}

	switch strings.ToLower(cfg.RateLimit.Backend) {
	case "memory":
	case "redis":
		if cfg.Redis.URL == "" {
			return errors.New("redis.url is required for rate_limit.backend=redis")
		}
	default:
		return fmt.Errorf("rate_limit.backend %q is not supported", cfg.RateLimit.Backend)
	}
	return nil
}
