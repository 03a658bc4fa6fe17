package app

import (
	"fmt"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/finbot/core/config"
	coredatabase "github.com/m3rciful/finbot/core/database"
	"github.com/m3rciful/finbot/internal/reminder"
)

// Session backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// ReminderConfig controls the daily reminder.
type ReminderConfig struct {
	// Enabled defaults to true.
	Enabled  *bool  `yaml:"enabled" envconfig:"REMINDER_ENABLED"`
	Schedule string `yaml:"schedule" envconfig:"REMINDER_SCHEDULE"`
	// Timezone is an IANA name; empty means the host zone.
	Timezone string `yaml:"timezone" envconfig:"REMINDER_TIMEZONE"`
}

// On reports whether the reminder should run.
func (r ReminderConfig) On() bool {
	return r.Enabled == nil || *r.Enabled
}

// SessionConfig selects where conversation sessions live.
type SessionConfig struct {
	Backend       string        `yaml:"backend" envconfig:"SESSION_BACKEND"`
	RedisAddr     string        `yaml:"redis_addr" envconfig:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" envconfig:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" envconfig:"REDIS_DB"`
	Prefix        string        `yaml:"prefix" envconfig:"SESSION_PREFIX"`
	TTL           time.Duration `yaml:"ttl" envconfig:"SESSION_TTL"`
}

// Config is the complete finbot configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Reminder ReminderConfig      `yaml:"reminder"`
	Session  SessionConfig       `yaml:"session"`

	location *time.Location
}

// CoreConfig exposes the shared core section.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Location is the zone used for "today" and reply timestamps.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.Local
	}
	return c.location
}

// Load reads path (optional) and the environment, then validates.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}

	if c.Reminder.Schedule = strings.TrimSpace(c.Reminder.Schedule); c.Reminder.Schedule == "" {
		c.Reminder.Schedule = reminder.DefaultSchedule
	}
	c.location = time.Local
	if tz := strings.TrimSpace(c.Reminder.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("invalid reminder.timezone %q: %w", tz, err)
		}
		c.location = loc
	}

	backend := strings.ToLower(strings.TrimSpace(c.Session.Backend))
	switch backend {
	case "", SessionMemory:
		backend = SessionMemory
	case SessionRedis:
		if strings.TrimSpace(c.Session.RedisAddr) == "" {
			return fmt.Errorf("session.redis_addr is required when session.backend is 'redis' (REDIS_ADDR)")
		}
	default:
		return fmt.Errorf("invalid session.backend %q; allowed: memory, redis", c.Session.Backend)
	}
	c.Session.Backend = backend
	if c.Session.TTL < 0 {
		return fmt.Errorf("session.ttl must be >= 0")
	}
	return nil
}
