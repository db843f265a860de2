package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oss-sentinel/sentinel/internal/domain"
)

const (
	DefaultInterval   = 300 * time.Second
	DefaultTimeout    = 10 * time.Second
	DefaultQueryLimit = 20
)

// Config is the fully resolved monitor configuration. Any error out of
// Load is fatal at startup; nothing here is reloaded at runtime.
type Config struct {
	Services             []domain.ServiceSpec `yaml:"services"`
	CheckIntervalSeconds int                  `yaml:"check_interval_seconds"`
	ProbeTimeoutSeconds  int                  `yaml:"probe_timeout_seconds"`
	Database             DatabaseConfig       `yaml:"database"`
	API                  APIConfig            `yaml:"api"`
	Logging              LoggingConfig        `yaml:"logging"`
	Notifications        NotificationsConfig  `yaml:"notifications"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// APIConfig controls the optional read-only HTTP API. An empty Addr
// leaves the API disabled.
type APIConfig struct {
	Addr              string `yaml:"addr"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	Burst             int    `yaml:"burst"`
}

type LoggingConfig struct {
	Dir string `yaml:"dir"`
}

type NotificationsConfig struct {
	SlackWebhookURL string `yaml:"slack_webhook_url"`
	SMTP            SMTPConfig
}

// SMTPConfig comes from the environment, not the YAML file, so that
// credentials stay out of checked-in config.
type SMTPConfig struct {
	Server   string
	Port     int
	User     string
	Password string
	From     string
	To       string
}

// Complete reports whether every field needed to send mail is present.
func (c SMTPConfig) Complete() bool {
	return c.Server != "" && c.User != "" && c.Password != "" && c.From != "" && c.To != ""
}

// Load reads and validates the YAML config file and merges SMTP settings
// from the environment.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.Notifications.SMTP = smtpFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.CheckIntervalSeconds == 0 {
		c.CheckIntervalSeconds = int(DefaultInterval.Seconds())
	}
	if c.ProbeTimeoutSeconds == 0 {
		c.ProbeTimeoutSeconds = int(DefaultTimeout.Seconds())
	}
	if c.Database.Path == "" {
		c.Database.Path = "monitor.db"
	}
	if c.Logging.Dir == "" {
		c.Logging.Dir = "logs"
	}
	if c.API.RequestsPerMinute == 0 {
		c.API.RequestsPerMinute = 120
	}
	if c.API.Burst == 0 {
		c.API.Burst = 30
	}
	for i := range c.Services {
		s := &c.Services[i]
		if s.Method == "" {
			s.Method = "GET"
		}
		s.Method = strings.ToUpper(s.Method)
		if s.ExpectedStatus == 0 {
			s.ExpectedStatus = 200
		}
	}
}

// Validate checks the resolved configuration, failing fast on missing
// required fields instead of letting the loop trip over them later.
func (c *Config) Validate() error {
	if len(c.Services) == 0 {
		return fmt.Errorf("at least one service must be configured")
	}
	seen := make(map[string]bool, len(c.Services))
	for i, s := range c.Services {
		if s.Name == "" {
			return fmt.Errorf("services[%d]: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("service %q: url is required", s.Name)
		}
		if seen[s.Name] {
			return fmt.Errorf("service %q: duplicate name", s.Name)
		}
		seen[s.Name] = true
		if s.ExpectedStatus < 100 || s.ExpectedStatus > 599 {
			return fmt.Errorf("service %q: expected_status %d out of range", s.Name, s.ExpectedStatus)
		}
	}
	if c.CheckIntervalSeconds <= 0 {
		return fmt.Errorf("check_interval_seconds must be positive")
	}
	if c.ProbeTimeoutSeconds <= 0 {
		return fmt.Errorf("probe_timeout_seconds must be positive")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	return nil
}

func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

func smtpFromEnv() SMTPConfig {
	port := 587
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			port = n
		}
	}
	return SMTPConfig{
		Server:   os.Getenv("SMTP_SERVER"),
		Port:     port,
		User:     os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("FROM_EMAIL"),
		To:       os.Getenv("TO_EMAIL"),
	}
}
