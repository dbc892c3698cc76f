package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultConfigPath             = "config.toml"
	DefaultHTTPAddr               = ":3000"
	DefaultAnalyzerTimeoutSeconds = 30
	DefaultStorageDir             = "data/images"
	DefaultSweepInterval          = "10m"
	DefaultStagedMaxAge           = "1h"
	DefaultPGHost                 = "127.0.0.1"
	DefaultPGPort                 = 5432
	DefaultPGUser                 = "postgres"
	DefaultPGDatabase             = "bodycheck"
	DefaultPGSSLMode              = "disable"
)

type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Line     LineConfig     `toml:"line"`
	Analyzer AnalyzerConfig `toml:"analyzer"`
	Storage  StorageConfig  `toml:"storage"`
	Postgres PostgresConfig `toml:"postgres"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// LineConfig holds the LINE Messaging API channel credentials.
type LineConfig struct {
	ChannelSecret      string `toml:"channel_secret" validate:"required"`
	ChannelAccessToken string `toml:"channel_access_token" validate:"required"`
}

// AnalyzerConfig points at the external body-analysis service.
type AnalyzerConfig struct {
	BaseURL        string `toml:"base_url" validate:"required"`
	TimeoutSeconds int    `toml:"timeout_seconds" validate:"gte=0"`
}

// Timeout returns the analyzer HTTP timeout.
func (c AnalyzerConfig) Timeout() time.Duration {
	seconds := c.TimeoutSeconds
	if seconds <= 0 {
		seconds = DefaultAnalyzerTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

// StorageConfig controls where downloaded images are staged and how
// orphaned files are swept.
type StorageConfig struct {
	Dir           string `toml:"dir"`
	SweepInterval string `toml:"sweep_interval"`
	StagedMaxAge  string `toml:"staged_max_age"`
}

// SweepEvery returns the sweep cadence, falling back to the default when
// the configured value is empty or unparsable.
func (c StorageConfig) SweepEvery() time.Duration {
	return parseDurationOr(c.SweepInterval, DefaultSweepInterval)
}

// MaxAge returns how old a staged file must be before the sweeper removes it.
func (c StorageConfig) MaxAge() time.Duration {
	return parseDurationOr(c.StagedMaxAge, DefaultStagedMaxAge)
}

func parseDurationOr(raw, fallback string) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(raw)); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

// PostgresConfig configures the optional diagnosis history store.
type PostgresConfig struct {
	Enabled  bool   `toml:"enabled"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// DSN builds a pgx-compatible connection URL.
func (c PostgresConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	u.RawQuery = query.Encode()
	return u.String()
}

// Load reads the TOML config at path over built-in defaults, then applies
// environment overrides. A missing file is not an error; the environment
// alone can carry the full configuration.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Analyzer: AnalyzerConfig{
			TimeoutSeconds: DefaultAnalyzerTimeoutSeconds,
		},
		Storage: StorageConfig{
			Dir:           DefaultStorageDir,
			SweepInterval: DefaultSweepInterval,
			StagedMaxAge:  DefaultStagedMaxAge,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return cfg, err
		}
	} else if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays the environment variables the deployment platform sets.
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("LINE_CHANNEL_SECRET")); v != "" {
		c.Line.ChannelSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("LINE_CHANNEL_ACCESS_TOKEN")); v != "" {
		c.Line.ChannelAccessToken = v
	}
	if v := strings.TrimSpace(os.Getenv("ANALYZER_URL")); v != "" {
		c.Analyzer.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		c.Server.Addr = ":" + v
	}
}

// Validate checks that the configuration is complete enough to serve.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
