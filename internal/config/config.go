// Package config loads service settings from an optional YAML file and the
// environment. Environment variables win over file values.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Server    ServerConfig    `yaml:"server"`
	Historian HistorianConfig `yaml:"historian"`
	LogLevel  string          `yaml:"log_level"`
}

type PostgresConfig struct {
	// DSN takes precedence over the individual fields.
	DSN      string `yaml:"dsn"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Addr        string `yaml:"addr"`
	DB          int    `yaml:"db"`
	EventsQueue string `yaml:"events_queue"`
}

type ServerConfig struct {
	Port             string        `yaml:"port"`
	DeleteConfirmTTL time.Duration `yaml:"delete_confirm_ttl"`
}

type HistorianConfig struct {
	BatchSize  int           `yaml:"batch_size"`
	FlushDelay time.Duration `yaml:"flush_delay"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Postgres: PostgresConfig{Host: "localhost", Port: "5432", Database: "truco"},
		Redis:    RedisConfig{Addr: "localhost:6379", EventsQueue: "truco_score_events"},
		Server:   ServerConfig{Port: "8080", DeleteConfirmTTL: 2 * time.Minute},
		Historian: HistorianConfig{
			BatchSize:  20,
			FlushDelay: 500 * time.Millisecond,
		},
		LogLevel: "debug",
	}
}

// Load reads the YAML file at path when path is not empty, then applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv loads the file named by TRUCO_CONFIG, if any, plus the environment.
func FromEnv() (Config, error) {
	return Load(os.Getenv("TRUCO_CONFIG"))
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("DATABASE_URL", &c.Postgres.DSN)
	str("POSTGRES_USER", &c.Postgres.User)
	str("POSTGRES_PASSWORD", &c.Postgres.Password)
	str("PG_HOST", &c.Postgres.Host)
	str("PG_PORT", &c.Postgres.Port)
	str("PG_DATABASE", &c.Postgres.Database)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("SCORE_EVENTS_QUEUE", &c.Redis.EventsQueue)
	str("PORT", &c.Server.Port)
	str("LOG_LEVEL", &c.LogLevel)

	ints := []struct {
		key string
		dst *int
	}{
		{"REDIS_DB", &c.Redis.DB},
		{"HISTORIAN_BATCH_SIZE", &c.Historian.BatchSize},
	}
	for _, e := range ints {
		v, ok := lookup(e.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", e.key, err)
		}
		*e.dst = n
	}

	if v, ok := lookup("HISTORIAN_FLUSH_MS"); ok && v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HISTORIAN_FLUSH_MS: %w", err)
		}
		c.Historian.FlushDelay = time.Duration(ms) * time.Millisecond
	}
	if v, ok := lookup("DELETE_CONFIRM_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("DELETE_CONFIRM_TTL: %w", err)
		}
		c.Server.DeleteConfirmTTL = d
	}
	return nil
}

// PostgresURL returns the connection string for pgxpool.
func (c Config) PostgresURL() string {
	if c.Postgres.DSN != "" {
		return c.Postgres.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Postgres.User, c.Postgres.Password),
		Host:   c.Postgres.Host + ":" + c.Postgres.Port,
		Path:   "/" + c.Postgres.Database,
	}
	return u.String()
}

// Addr is the listen address of the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Server.Port
}

// NewLogger builds the service logger at the configured level, falling back
// to debug for an unknown level.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logger.WithField("log_level", c.LogLevel).Warn("unknown log level, using debug")
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)
	return logger
}
