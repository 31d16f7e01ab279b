package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Asia/Bangkok"
	configPathEnv   = "EGP_SCANNER_CONFIG"
	databasePathEnv = "EGP_DATABASE_PATH"
	feedBaseURLEnv  = "EGP_FEED_URL"
	downloadDirEnv  = "EGP_DOWNLOAD_DIR"
	logLevelEnv     = "EGP_LOG_LEVEL"
	defaultFeedURL  = "http://process3.gprocurement.go.th/EPROCRssFeedWeb/egpannouncerss.xml"
	defaultDBPath   = "data/database.sqlite"
	defaultDocsDir  = "data/project_docs"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database    DatabaseConfig     `yaml:"database"`
	Feed        FeedConfig         `yaml:"feed"`
	Download    DownloadConfig     `yaml:"download"`
	Scheduler   SchedulerConfig    `yaml:"scheduler"`
	Logging     LoggingConfig      `yaml:"logging"`
	Departments []DepartmentConfig `yaml:"departments"`
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// FeedConfig describes the e-GP RSS endpoint and its quirks.
type FeedConfig struct {
	BaseURL        string       `yaml:"baseUrl"`
	TimeoutSeconds int          `yaml:"timeoutSeconds"`
	AllowedWindows []TimeWindow `yaml:"allowedWindows"`
}

// TimeWindow is an hours-of-day span (HH:MM) during which the feed server
// is known to answer. Requests outside it still go out; the collector only
// warns. Windows may cross midnight.
type TimeWindow struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// DownloadConfig controls where project documents land on disk.
type DownloadConfig struct {
	Dir            string `yaml:"dir"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// SchedulerConfig defines when the watch command pulls the feed.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// LoggingConfig carries the minimum level string.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DepartmentConfig names a government unit tracked by the watch schedule.
type DepartmentConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
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
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(feedBaseURLEnv); v != "" {
		c.Feed.BaseURL = v
	}

	if v := os.Getenv(downloadDirEnv); v != "" {
		c.Download.Dir = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Feed.BaseURL != "" {
		base.Feed.BaseURL = override.Feed.BaseURL
	}
	if override.Feed.TimeoutSeconds > 0 {
		base.Feed.TimeoutSeconds = override.Feed.TimeoutSeconds
	}
	if len(override.Feed.AllowedWindows) > 0 {
		base.Feed.AllowedWindows = override.Feed.AllowedWindows
	}

	if override.Download.Dir != "" {
		base.Download.Dir = override.Download.Dir
	}
	if override.Download.TimeoutSeconds > 0 {
		base.Download.TimeoutSeconds = override.Download.TimeoutSeconds
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if len(override.Departments) > 0 {
		base.Departments = override.Departments
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Database: DatabaseConfig{Path: defaultDBPath},
		Feed: FeedConfig{
			BaseURL:        defaultFeedURL,
			TimeoutSeconds: 30,
			// Published availability of the e-GP feed server.
			AllowedWindows: []TimeWindow{
				{Start: "12:01", End: "12:59"},
				{Start: "17:01", End: "08:59"},
			},
		},
		Download:  DownloadConfig{Dir: defaultDocsDir, TimeoutSeconds: 60},
		Scheduler: SchedulerConfig{CronExpression: "0 18 * * *", Timezone: defaultTimezone, location: tz},
		Logging:   LoggingConfig{Level: "info"},
		Departments: []DepartmentConfig{
			{ID: "0307", Name: "Revenue Department"},
		},
	}
}
