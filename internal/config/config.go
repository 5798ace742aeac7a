package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

// BackendConfig points at the backend-as-a-service the orchestrator talks to.
type BackendConfig struct {
	BaseURL   string        `yaml:"base_url"`
	AuthToken string        `yaml:"auth_token"`
	Timeout   time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"` // optional; empty disables the session cache
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type WebConfig struct {
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

type MetricsConfig struct {
	Port int `yaml:"port"`
}

// OrchestratorConfig tunes the async coordination loops.
type OrchestratorConfig struct {
	// PollInterval is the delay between job watcher queries.
	PollInterval time.Duration `yaml:"poll_interval"`
	// SettleDelay pads the gap between an exchange response and the panel
	// refresh to absorb storage propagation lag. Heuristic, not a guarantee.
	SettleDelay time.Duration `yaml:"settle_delay"`
	// PostPath overrides the path pattern that marks the panel as open.
	PostPath string `yaml:"post_path"`
}

type Config struct {
	Log          LogConfig          `yaml:"log"`
	Backend      BackendConfig      `yaml:"backend"`
	Redis        RedisConfig        `yaml:"redis"`
	Web          WebConfig          `yaml:"web"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 15 * time.Second
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Web.Port <= 0 {
		cfg.Web.Port = 8080
	}
	if cfg.Metrics.Port <= 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Orchestrator.PollInterval <= 0 {
		cfg.Orchestrator.PollInterval = 2 * time.Second
	}
	if cfg.Orchestrator.SettleDelay <= 0 {
		cfg.Orchestrator.SettleDelay = 500 * time.Millisecond
	}

	// Minimal validation
	if cfg.Backend.BaseURL == "" {
		return nil, errors.New("backend.base_url is required")
	}
	if cfg.Web.JWTSecret == "" && !dev {
		return nil, errors.New("web.jwt_secret is required outside dev mode")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
