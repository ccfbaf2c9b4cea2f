// Package config is the todobot configuration: the shared transport
// settings plus storage, sessions, timezone and informational links.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	coreconfig "github.com/m3rciful/todobot/core/config"
	"github.com/m3rciful/todobot/core/database"
)

// Session backends.
const (
	SessionsMemory = "memory"
	SessionsRedis  = "redis"
)

const (
	defaultSessionTTL  = 30 * time.Minute
	defaultSweep       = "@every 1m"
	defaultRedisAddr   = "localhost:6379"
	defaultRedisPrefix = "todobot:session:"
)

// RedisConfig addresses the redis session backend.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
	Prefix   string `yaml:"prefix" envconfig:"REDIS_PREFIX"`
}

// SessionsConfig selects where conversation state lives and how long it idles.
type SessionsConfig struct {
	Backend string        `yaml:"backend" envconfig:"SESSIONS_BACKEND"`
	TTL     time.Duration `yaml:"ttl" envconfig:"SESSIONS_TTL"`
	// Sweep is a cron schedule for purging expired memory sessions.
	Sweep string      `yaml:"sweep" envconfig:"SESSIONS_SWEEP"`
	Redis RedisConfig `yaml:"redis"`
}

// TasksConfig holds task rules.
type TasksConfig struct {
	// Timezone names the IANA zone for "today", "tomorrow" and typed dates.
	Timezone string `yaml:"timezone" envconfig:"TASKS_TIMEZONE"`

	loc *time.Location
}

// Location returns the parsed timezone; valid after Normalize.
func (t TasksConfig) Location() *time.Location {
	if t.loc == nil {
		return time.Local
	}
	return t.loc
}

// InfoConfig holds links for /contribute, /review and /donate.
type InfoConfig struct {
	RepositoryURL string `yaml:"repository_url" envconfig:"INFO_REPOSITORY_URL"`
	ReviewContact string `yaml:"review_contact" envconfig:"INFO_REVIEW_CONTACT"`
	DonateURL     string `yaml:"donate_url" envconfig:"INFO_DONATE_URL"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database database.Config `yaml:"database"`
	Sessions SessionsConfig  `yaml:"sessions"`
	Tasks    TasksConfig     `yaml:"tasks"`
	Info     InfoConfig      `yaml:"info"`
}

// Load reads path, overlays the environment and normalizes every section.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// CoreConfig exposes the transport section for core packages.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Normalize validates and fills defaults in place.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("nil config")
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}
	if err := cfg.Database.Normalize(); err != nil {
		return err
	}
	if err := cfg.Sessions.normalize(); err != nil {
		return err
	}
	return cfg.Tasks.normalize()
}

func (s *SessionsConfig) normalize() error {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	switch s.Backend {
	case "":
		s.Backend = SessionsMemory
	case SessionsMemory, SessionsRedis:
	default:
		return fmt.Errorf("invalid sessions.backend %q; allowed: memory, redis", s.Backend)
	}
	if s.TTL < 0 {
		return errors.New("sessions.ttl must be >= 0")
	}
	if s.TTL == 0 {
		s.TTL = defaultSessionTTL
	}
	if strings.TrimSpace(s.Sweep) == "" {
		s.Sweep = defaultSweep
	}
	if s.Redis.Addr == "" {
		s.Redis.Addr = defaultRedisAddr
	}
	if s.Redis.Prefix == "" {
		s.Redis.Prefix = defaultRedisPrefix
	}
	if s.Redis.DB < 0 {
		return errors.New("sessions.redis.db must be >= 0")
	}
	return nil
}

func (t *TasksConfig) normalize() error {
	name := strings.TrimSpace(t.Timezone)
	if name == "" {
		name = "Local"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("invalid tasks.timezone %q: %w", t.Timezone, err)
	}
	t.Timezone = name
	t.loc = loc
	return nil
}
