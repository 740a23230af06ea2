// Load envs from .env
// Load YAML config
// Validate config
// Provide default values

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

type Config struct {
	Browser   BrowserConfig   `yaml:"browser"`
	Wait      WaitConfig      `yaml:"wait"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Search    SearchConfig    `yaml:"search"`
	Paths     PathsConfig     `yaml:"paths"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Database  DatabaseConfig  `yaml:"database"`
	Logger    LoggerConfig    `yaml:"logger"`
}

type BrowserConfig struct {
	// Engine is chromium, firefox or webkit.
	Engine    string   `yaml:"engine"`
	Headless  bool     `yaml:"headless"`
	UserAgent string   `yaml:"user_agent"`
	Args      []string `yaml:"args"`
	Stealth   bool     `yaml:"stealth"`
	Install   bool     `yaml:"install"`
	Width     int      `yaml:"width"`
	Height    int      `yaml:"height"`
	TimeoutMs float64  `yaml:"timeout_ms"`
}

type WaitConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

type RateLimitConfig struct {
	MaxPages int           `yaml:"max_pages"`
	MinDelay time.Duration `yaml:"min_delay"`
	MaxDelay time.Duration `yaml:"max_delay"`
}

// Search criteria
type SearchConfig struct {
	Keywords        []string `yaml:"keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
	Locations       []string `yaml:"locations"`
	MaxAgeDays      int      `yaml:"max_age_days"`
	// Sites picks the boards to scrape, by name.
	Sites []string `yaml:"sites"`
}

type PathsConfig struct {
	CookiesPath    string `yaml:"cookies_path"`
	CachePath      string `yaml:"cache_path"`
	ScreenshotPath string `yaml:"screenshot_path"`
	ResultsPath    string `yaml:"results_path"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
	// PerSecond caps outgoing messages.
	PerSecond float64 `yaml:"per_second"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type LoggerConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	ServiceName string `yaml:"service_name"`
	File        string `yaml:"file"`
	MaxSizeMB   int    `yaml:"max_size_mb"`
	MaxBackups  int    `yaml:"max_backups"`
	MaxAgeDays  int    `yaml:"max_age_days"`
}

// Load reads .env, then the YAML file at path (a missing file is not an
// error), applies env overrides and fills defaults. Validation is separate.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Override with env vars
func (c *Config) applyEnv() error {
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.Database.URL = url
	}
	if headless := os.Getenv("SCRAPER_HEADLESS"); headless != "" {
		v, err := strconv.ParseBool(headless)
		if err != nil {
			return fmt.Errorf("invalid SCRAPER_HEADLESS: %w", err)
		}
		c.Browser.Headless = v
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logger.Level = level
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Browser.Engine == "" {
		c.Browser.Engine = "chromium"
	}
	if c.Browser.TimeoutMs == 0 {
		c.Browser.TimeoutMs = 30000
	}
	if c.Wait.Timeout == 0 {
		c.Wait.Timeout = 15 * time.Second
	}
	if c.Wait.PollInterval == 0 {
		c.Wait.PollInterval = 250 * time.Millisecond
	}
	if c.RateLimit.MaxPages == 0 {
		c.RateLimit.MaxPages = 20
	}
	if c.RateLimit.MinDelay == 0 && c.RateLimit.MaxDelay == 0 {
		c.RateLimit.MinDelay = 2 * time.Second
		c.RateLimit.MaxDelay = 5 * time.Second
	}
	if len(c.Search.Sites) == 0 {
		c.Search.Sites = []string{"topcv", "itviec", "linkedin"}
	}
	if c.Search.MaxAgeDays == 0 {
		c.Search.MaxAgeDays = 60
	}
	if c.Paths.CookiesPath == "" {
		c.Paths.CookiesPath = ".cookies"
	}
	if c.Paths.CachePath == "" {
		c.Paths.CachePath = ".cache"
	}
	if c.Paths.ScreenshotPath == "" {
		c.Paths.ScreenshotPath = "logs/screenshots"
	}
	if c.Paths.ResultsPath == "" {
		c.Paths.ResultsPath = "logs"
	}
	if c.Telegram.PerSecond == 0 {
		c.Telegram.PerSecond = 1
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "console"
	}
	if c.Logger.ServiceName == "" {
		c.Logger.ServiceName = "scraper"
	}
}

// Validate checks the settings a scrape run cannot do without. Telegram and
// the database are only required when notify is set.
func (c *Config) Validate(notify bool) error {
	var errs []error
	if len(c.Search.Keywords) == 0 {
		errs = append(errs, errors.New("search.keywords must not be empty"))
	}
	if c.RateLimit.MaxPages < 0 {
		errs = append(errs, errors.New("rate_limit.max_pages must not be negative"))
	}
	if c.RateLimit.MinDelay < 0 || c.RateLimit.MaxDelay < c.RateLimit.MinDelay {
		errs = append(errs, fmt.Errorf("rate_limit delay range [%s, %s] is invalid", c.RateLimit.MinDelay, c.RateLimit.MaxDelay))
	}
	if c.Wait.Timeout <= 0 {
		errs = append(errs, errors.New("wait.timeout must be positive"))
	}
	if notify {
		if c.Telegram.Token == "" {
			errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
		}
		if c.Telegram.ChatID == 0 {
			errs = append(errs, errors.New("TELEGRAM_CHAT_ID is required"))
		}
	}
	return errors.Join(errs...)
}
