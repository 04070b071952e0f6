package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

// Feed grouping values used in config.yaml.
const (
	FeedGroupLocal   = "local"
	FeedGroupForeign = "foreign"
)

type AppConfig struct {
	Logging     LoggingConfig   `yaml:"logging"`
	Server      ServerConfig    `yaml:"server"`
	GeminiModel string          `yaml:"gemini_model"`
	Feeds       []FeedSource    `yaml:"feeds"`
	Scheduler   SchedulerConfig `yaml:"scheduler"`
	RateLimits  RateLimitConfig `yaml:"rate_limits"`
	MongoDBName string          `yaml:"mongo_db_name"`
	BaseURL     string          `yaml:"base_url"`

	// Secrets and connection strings, loaded from the environment.
	MongoURI          string `yaml:"-"`
	GeminiAPIKey      string `yaml:"-"`
	UnsplashAccessKey string `yaml:"-"`
	TelegramBotToken  string `yaml:"-"`
	TelegramChannelID string `yaml:"-"`
	InstagramUserID   string `yaml:"-"`
	InstagramToken    string `yaml:"-"`
	CronSecret        string `yaml:"-"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// SchedulerConfig controls the periodic generation cycle.
type SchedulerConfig struct {
	// GenerateEveryHours is the interval between automatic RSS
	// generation + publish cycles. 0 disables the scheduler.
	GenerateEveryHours int `yaml:"generate_every_hours"`
}

// RateLimitConfig holds per-route-class request budgets (requests per
// minute). Zero or negative values fall back to the class defaults.
type RateLimitConfig struct {
	GeneralPerMinute int `yaml:"general_per_minute"`
	AuthPerMinute    int `yaml:"auth_per_minute"`
	AIPerMinute      int `yaml:"ai_per_minute"`
}

// FeedSource is a single syndication feed configuration item. The list may
// change between runs without code changes.
type FeedSource struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Language string `yaml:"language"`
	Group    string `yaml:"group"`
}

// Load reads .env and config.yaml, applies environment overrides and
// validates the result. Misconfiguration is returned as an error so the
// caller decides how to fail.
func Load() (*AppConfig, error) {
	base := basePath()
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load(filepath.Join(base, ENV_FILE))

	data, err := os.ReadFile(filepath.Join(base, CONFIG_FILE))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", CONFIG_FILE, err)
	}

	var c AppConfig
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", CONFIG_FILE, err)
	}

	c.MongoURI = os.Getenv("MONGO_URI")
	c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	c.UnsplashAccessKey = os.Getenv("UNSPLASH_ACCESS_KEY")
	c.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	c.TelegramChannelID = os.Getenv("TELEGRAM_CHANNEL_ID")
	c.InstagramUserID = os.Getenv("INSTAGRAM_USER_ID")
	c.InstagramToken = os.Getenv("INSTAGRAM_ACCESS_TOKEN")
	c.CronSecret = os.Getenv("CRON_SECRET")
	if v := os.Getenv("BASE_URL"); v != "" {
		c.BaseURL = v
	}

	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":5000"
	}
	if c.GeminiModel == "" {
		c.GeminiModel = "gemini-2.0-flash-exp"
	}
	if c.MongoURI == "" {
		c.MongoURI = "mongodb://localhost:27017"
	}
	if c.MongoDBName == "" {
		c.MongoDBName = "realnews"
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://realnews.uz"
	}
	if c.RateLimits.GeneralPerMinute <= 0 {
		c.RateLimits.GeneralPerMinute = 100
	}
	if c.RateLimits.AuthPerMinute <= 0 {
		c.RateLimits.AuthPerMinute = 5
	}
	if c.RateLimits.AIPerMinute <= 0 {
		c.RateLimits.AIPerMinute = 10
	}
}

func (c *AppConfig) validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY must be set")
	}
	if c.UnsplashAccessKey == "" {
		return fmt.Errorf("UNSPLASH_ACCESS_KEY must be set")
	}
	for i, f := range c.Feeds {
		if f.URL == "" {
			return fmt.Errorf("feeds[%d]: url is required", i)
		}
		if f.Group != FeedGroupLocal && f.Group != FeedGroupForeign {
			return fmt.Errorf("feeds[%d] %q: group must be %q or %q", i, f.Name, FeedGroupLocal, FeedGroupForeign)
		}
	}
	return nil
}

// LocalFeeds returns the configured local-language feeds.
func (c *AppConfig) LocalFeeds() []FeedSource { return c.feedsByGroup(FeedGroupLocal) }

// ForeignFeeds returns the configured foreign-language feeds.
func (c *AppConfig) ForeignFeeds() []FeedSource { return c.feedsByGroup(FeedGroupForeign) }

func (c *AppConfig) feedsByGroup(group string) []FeedSource {
	var out []FeedSource
	for _, f := range c.Feeds {
		if f.Group == group {
			out = append(out, f)
		}
	}
	return out
}

// basePath walks up from the working directory until it finds config.yaml,
// so tests and binaries run from subdirectories still resolve it.
func basePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
