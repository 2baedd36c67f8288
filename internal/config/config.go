package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	EnvListen   = "FV_LISTEN"
	EnvLogLevel = "FV_LOG_LEVEL"
	EnvWorkDir  = "FV_WORK_DIR"
	EnvRedisURL = "FV_REDIS_URL"

	defaultListen        = ":8080"
	defaultSessionTTL    = time.Hour
	defaultSweepInterval = 10 * time.Minute
	defaultSweepWorkers  = 4
	defaultMaxTextSize   = 1 << 20
	defaultCookieName    = "fv_session"
	defaultWorkDirName   = "fileviewer"
)

type FetchConfig struct {
	Timeout time.Duration `yaml:"timeout"`  // 0 keeps the http client default (no timeout)
	MaxSize int64         `yaml:"max_size"` // 0 means unlimited
}

type RenderConfig struct {
	MaxTextSize int64 `yaml:"max_text_size"`
}

type HandlerConfig struct {
	CookieName   string `yaml:"cookie_name"`
	TemplateFile string `yaml:"template"`
	EnableSweep  bool   `yaml:"enable_sweep"` // exposes POST /sweep/
}

type SessionConfig struct {
	RedisURL      string        `yaml:"redis_url"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	SweepWorkers  int           `yaml:"sweep_workers"`
}

// Persistent reports whether sessions outlive the process.
func (c *SessionConfig) Persistent() bool {
	return c.RedisURL != ""
}

type Config struct {
	Listen        string        `yaml:"listen"`
	LogLevel      string        `yaml:"log_level"`
	WorkDir       string        `yaml:"work_dir"`
	FetchConfig   FetchConfig   `yaml:"fetch"`
	RenderConfig  RenderConfig  `yaml:"render"`
	HandlerConfig HandlerConfig `yaml:"handler"`
	SessionConfig SessionConfig `yaml:"session"`
}

func (c *Config) SetDefaults() {
	c.Listen = defaultListen
	c.LogLevel = LogLevelInfo
	c.WorkDir = filepath.Join(os.TempDir(), defaultWorkDirName)
	c.RenderConfig.MaxTextSize = defaultMaxTextSize
	c.HandlerConfig.CookieName = defaultCookieName
	c.SessionConfig.TTL = defaultSessionTTL
	c.SessionConfig.SweepInterval = defaultSweepInterval
	c.SessionConfig.SweepWorkers = defaultSweepWorkers
}

func (c *Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return fmt.Errorf("unknown log level: %s", c.LogLevel)
	}

	if c.Listen == "" {
		return fmt.Errorf("listen address must be set")
	}

	if c.WorkDir == "" {
		return fmt.Errorf("work dir must be set")
	}

	if c.SessionConfig.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}

	if c.SessionConfig.SweepWorkers < 1 {
		return fmt.Errorf("sweep workers must be at least 1")
	}

	return nil
}

// Load reads the yaml config file, then applies .env and environment
// overrides. A missing config file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.SetDefaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
		}
	}

	// .env is optional, existing variables win
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvListen); v != "" {
		c.Listen = v
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}

	if v := os.Getenv(EnvWorkDir); v != "" {
		c.WorkDir = v
	}

	if v := os.Getenv(EnvRedisURL); v != "" {
		c.SessionConfig.RedisURL = v
	}
}
