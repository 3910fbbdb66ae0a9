package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Asia/Seoul"

	configPathEnv    = "REPORT_SCANNER_CONFIG"
	ledgerPathEnv    = "LEDGER_PATH"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv  = "TELEGRAM_CHAT_ID"
	geminiAPIKeyEnv  = "GEMINI_API_KEY"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Site          SiteConfig         `yaml:"site"`
	Ledger        LedgerConfig       `yaml:"ledger"`
	Extractor     ExtractorConfig    `yaml:"extractor"`
	Gemini        GeminiConfig       `yaml:"gemini"`
	Notifications NotificationConfig `yaml:"notifications"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SiteConfig describes the listing site endpoint and its scan parameters.
type SiteConfig struct {
	BaseURL       string   `yaml:"baseUrl"`
	ListingPath   string   `yaml:"listingPath"`
	Scanner       string   `yaml:"scanner"`
	UserAgent     string   `yaml:"userAgent"`
	Categories    []string `yaml:"categories"`
	Pages         int      `yaml:"pages"`
	DateLayouts   []string `yaml:"dateLayouts"`
	CategoryParam string   `yaml:"categoryParam"`
	PageParam     string   `yaml:"pageParam"`
	TimeoutSecs   int      `yaml:"timeoutSeconds"`
}

// Timeout resolves the listing fetch timeout.
func (s SiteConfig) Timeout() time.Duration {
	if s.TimeoutSecs <= 0 {
		return 15 * time.Second
	}
	return time.Duration(s.TimeoutSecs) * time.Second
}

// LedgerConfig points at the append-only seen-report file.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// ExtractorConfig tunes document fetching and content extraction.
type ExtractorConfig struct {
	MaxPages      int    `yaml:"maxPages"`
	MinTextChars  int    `yaml:"minTextChars"`
	UpscaleFactor int    `yaml:"upscaleFactor"`
	Referer       string `yaml:"referer"`
	LegacyTLS     bool   `yaml:"legacyTls"`
	TimeoutSecs   int    `yaml:"timeoutSeconds"`
}

// Timeout resolves the document fetch timeout.
func (e ExtractorConfig) Timeout() time.Duration {
	if e.TimeoutSecs <= 0 {
		return 20 * time.Second
	}
	return time.Duration(e.TimeoutSecs) * time.Second
}

// GeminiConfig defines how to contact the generateContent API.
type GeminiConfig struct {
	Endpoint    string   `yaml:"endpoint"`
	APIKey      string   `yaml:"apiKey"`
	Models      []string `yaml:"models"`
	ClipChars   int      `yaml:"clipChars"`
	TimeoutSecs int      `yaml:"timeoutSeconds"`
}

// Timeout resolves the backend call timeout.
func (g GeminiConfig) Timeout() time.Duration {
	if g.TimeoutSecs <= 0 {
		return 60 * time.Second
	}
	return time.Duration(g.TimeoutSecs) * time.Second
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send and edit messages.
type TelegramConfig struct {
	BotToken   string `yaml:"botToken"`
	ChatID     string `yaml:"chatId"`
	APIBaseURL string `yaml:"apiBaseUrl"`
}

// PipelineConfig tunes the per-run orchestration behavior.
type PipelineConfig struct {
	CutoffHour    int    `yaml:"cutoffHour"`
	Timezone      string `yaml:"timezone"`
	NotifyDelayMS int    `yaml:"notifyDelayMillis"`
	TwoPhase      *bool  `yaml:"twoPhase"`

	location *time.Location `yaml:"-"`
}

// TwoPhaseEnabled resolves the two-phase delivery toggle; a pointer keeps
// "absent" distinguishable from an explicit false, since the default is on.
func (p PipelineConfig) TwoPhaseEnabled() bool {
	if p.TwoPhase == nil {
		return true
	}
	return *p.TwoPhase
}

// NotifyDelay resolves the mandatory pause between successive notifications.
func (p PipelineConfig) NotifyDelay() time.Duration {
	if p.NotifyDelayMS <= 0 {
		return 1500 * time.Millisecond
	}
	return time.Duration(p.NotifyDelayMS) * time.Millisecond
}

// Location resolves the pipeline timezone string to a time.Location.
func (p PipelineConfig) Location() *time.Location {
	if p.location != nil {
		return p.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// SchedulerConfig defines the optional daemon-mode cron trigger.
type SchedulerConfig struct {
	Enabled        bool   `yaml:"enabled"`
	CronExpression string `yaml:"cronExpression"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(ledgerPathEnv); v != "" {
		c.Ledger.Path = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Pipeline.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Pipeline.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Site.BaseURL != "" {
		base.Site.BaseURL = override.Site.BaseURL
	}
	if override.Site.ListingPath != "" {
		base.Site.ListingPath = override.Site.ListingPath
	}
	if override.Site.Scanner != "" {
		base.Site.Scanner = override.Site.Scanner
	}
	if override.Site.UserAgent != "" {
		base.Site.UserAgent = override.Site.UserAgent
	}
	if len(override.Site.Categories) > 0 {
		base.Site.Categories = override.Site.Categories
	}
	if override.Site.Pages > 0 {
		base.Site.Pages = override.Site.Pages
	}
	if len(override.Site.DateLayouts) > 0 {
		base.Site.DateLayouts = override.Site.DateLayouts
	}
	if override.Site.CategoryParam != "" {
		base.Site.CategoryParam = override.Site.CategoryParam
	}
	if override.Site.PageParam != "" {
		base.Site.PageParam = override.Site.PageParam
	}
	if override.Site.TimeoutSecs > 0 {
		base.Site.TimeoutSecs = override.Site.TimeoutSecs
	}

	if override.Ledger.Path != "" {
		base.Ledger = override.Ledger
	}

	if override.Extractor.MaxPages > 0 {
		base.Extractor.MaxPages = override.Extractor.MaxPages
	}
	if override.Extractor.MinTextChars > 0 {
		base.Extractor.MinTextChars = override.Extractor.MinTextChars
	}
	if override.Extractor.UpscaleFactor > 0 {
		base.Extractor.UpscaleFactor = override.Extractor.UpscaleFactor
	}
	if override.Extractor.Referer != "" {
		base.Extractor.Referer = override.Extractor.Referer
	}
	if override.Extractor.LegacyTLS {
		base.Extractor.LegacyTLS = true
	}
	if override.Extractor.TimeoutSecs > 0 {
		base.Extractor.TimeoutSecs = override.Extractor.TimeoutSecs
	}

	if override.Gemini.Endpoint != "" {
		base.Gemini.Endpoint = override.Gemini.Endpoint
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}
	if len(override.Gemini.Models) > 0 {
		base.Gemini.Models = override.Gemini.Models
	}
	if override.Gemini.ClipChars > 0 {
		base.Gemini.ClipChars = override.Gemini.ClipChars
	}
	if override.Gemini.TimeoutSecs > 0 {
		base.Gemini.TimeoutSecs = override.Gemini.TimeoutSecs
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.APIBaseURL != "" {
		base.Notifications.Telegram.APIBaseURL = override.Notifications.Telegram.APIBaseURL
	}

	if override.Pipeline.CutoffHour > 0 {
		base.Pipeline.CutoffHour = override.Pipeline.CutoffHour
	}
	if override.Pipeline.Timezone != "" {
		base.Pipeline.Timezone = override.Pipeline.Timezone
	}
	if override.Pipeline.NotifyDelayMS > 0 {
		base.Pipeline.NotifyDelayMS = override.Pipeline.NotifyDelayMS
	}
	if override.Pipeline.TwoPhase != nil {
		base.Pipeline.TwoPhase = override.Pipeline.TwoPhase
	}

	if override.Scheduler.Enabled {
		base.Scheduler.Enabled = true
	}
	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Site: SiteConfig{
			BaseURL:       "https://consensus.hankyung.com",
			ListingPath:   "/analysis/list",
			Scanner:       "consensus",
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36",
			Categories:    []string{"industry", "market"},
			Pages:         2,
			DateLayouts:   []string{"2006.01.02", "2006-01-02", "06-01-02"},
			CategoryParam: "category",
			PageParam:     "page",
		},
		Ledger: LedgerConfig{Path: "sent_reports.txt"},
		Extractor: ExtractorConfig{
			MaxPages:      4,
			MinTextChars:  100,
			UpscaleFactor: 2,
			Referer:       "https://consensus.hankyung.com/analysis/list",
		},
		Gemini: GeminiConfig{
			Endpoint:  "https://generativelanguage.googleapis.com",
			Models:    []string{"gemini-2.0-flash", "gemini-2.5-flash", "gemini-2.5-pro"},
			ClipChars: 8000,
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{APIBaseURL: "https://api.telegram.org"},
		},
		Pipeline: PipelineConfig{
			CutoffHour:    17,
			Timezone:      defaultTimezone,
			NotifyDelayMS: 1500,
		},
		Scheduler: SchedulerConfig{
			Enabled:        false,
			CronExpression: "*/30 7-17 * * 1-5",
		},
	}
}
