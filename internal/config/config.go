package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"workcal/internal/model"
	"workcal/internal/workcal"
)

// FeedConfig describes a single ICS subscription (meetings or holidays).
type FeedConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// SourceID returns ID, falling back to Name and then URL.
func (f FeedConfig) SourceID() string {
	switch {
	case f.ID != "":
		return f.ID
	case f.Name != "":
		return f.Name
	default:
		return f.URL
	}
}

// HolidayConfig selects where public holidays come from.
type HolidayConfig struct {
	// Country picks the built-in fallback table ("KR", "US"). Empty disables it.
	Country string `yaml:"country" json:"country"`
	// ICS lists holiday calendars; their all-day events become holidays.
	ICS []FeedConfig `yaml:"ics" json:"ics"`
	// Static holidays are always included, e.g. company days off.
	Static []model.Holiday `yaml:"static" json:"static"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// RateLimitConfig bounds API requests per client. PerMinute 0 disables it.
type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute" json:"per_minute"`
	Burst     int `yaml:"burst" json:"burst"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone calendar feeds are normalized into.
	Timezone string `yaml:"timezone" json:"timezone"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// RefreshCron is a standard cron expression for reloading feeds.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is how far ahead meeting feeds are expanded.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// CacheDir stores fetched ICS bodies between runs.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// Schedule is the default weekly work pattern.
	Schedule model.ScheduleConfig `yaml:"schedule" json:"schedule"`

	// ExcludeHolidays / ExcludeMeetings are the default exclusion flags.
	ExcludeHolidays bool `yaml:"exclude_holidays" json:"exclude_holidays"`
	ExcludeMeetings bool `yaml:"exclude_meetings" json:"exclude_meetings"`

	// OptionalKeywords mark meetings as optional when found in their title.
	OptionalKeywords []string `yaml:"optional_keywords" json:"optional_keywords"`

	// Meetings is the list of subscribed meeting calendars.
	Meetings []FeedConfig `yaml:"meetings" json:"meetings"`

	Holidays HolidayConfig `yaml:"holidays" json:"holidays"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultTimezone    = "Asia/Seoul"
	defaultRefreshCron = "*/15 * * * *"
	defaultHorizonDays = 90
	defaultCacheDir    = "./var/ics-cache"
	defaultPerMinute   = 120
	defaultBurst       = 20
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:           defaultListen,
		Timezone:         defaultTimezone,
		LogLevel:         "info",
		RefreshCron:      defaultRefreshCron,
		HorizonDays:      defaultHorizonDays,
		CacheDir:         defaultCacheDir,
		Schedule:         workcal.DefaultScheduleConfig(),
		ExcludeHolidays:  true,
		ExcludeMeetings:  true,
		OptionalKeywords: []string{"optional", "선택"},
		Meetings:         []FeedConfig{},
		Holidays: HolidayConfig{
			Country: "KR",
			ICS:     []FeedConfig{},
			Static:  []model.Holiday{},
		},
		RateLimit: RateLimitConfig{PerMinute: defaultPerMinute, Burst: defaultBurst},
	}
}

// Normalize fills in missing/zero values so partially written files still
// behave. Exclusion flags are left alone: false is a valid choice.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = defaultHorizonDays
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}

	def := workcal.DefaultScheduleConfig()
	if c.Schedule.StartTime == "" {
		c.Schedule.StartTime = def.StartTime
	}
	if c.Schedule.EndTime == "" {
		c.Schedule.EndTime = def.EndTime
	}
	if c.Schedule.LunchStart == "" && c.Schedule.LunchEnd == "" {
		c.Schedule.LunchStart = def.LunchStart
		c.Schedule.LunchEnd = def.LunchEnd
	}
	if c.Schedule.WorkDays == nil {
		c.Schedule.WorkDays = def.WorkDays
	}

	if c.OptionalKeywords == nil {
		c.OptionalKeywords = []string{}
	}
	if c.Meetings == nil {
		c.Meetings = []FeedConfig{}
	}
	if c.Holidays.ICS == nil {
		c.Holidays.ICS = []FeedConfig{}
	}
	if c.Holidays.Static == nil {
		c.Holidays.Static = []model.Holiday{}
	}

	if c.RateLimit.PerMinute < 0 {
		c.RateLimit.PerMinute = 0
	}
	if c.RateLimit.PerMinute > 0 && c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 1
	}
}

// Validate checks the values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("refresh %q: %w", c.RefreshCron, err)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if _, err := workcal.NewSchedule(c.Schedule); err != nil {
		return err
	}
	for _, h := range c.Holidays.Static {
		if _, err := workcal.ParseDateKey(h.Date, time.UTC); err != nil {
			return fmt.Errorf("static holiday %q: %w", h.Name, err)
		}
	}
	return nil
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is decoded, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	// Decode over the defaults so absent keys keep their default values.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms,
// creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".workcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience wrapper around the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
