package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"taskcycle/internal/recurrence"
)

const configRelPath = "taskcycle/config.yaml"

// Config represents the application configuration
type Config struct {
	Agenda       string             `yaml:"agenda"`
	Enumeration  EnumerationConfig  `yaml:"enumeration"`
	Reminders    []ReminderConfig   `yaml:"reminders"`
	Notification NotificationConfig `yaml:"notification"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// EnumerationConfig holds the step caps of occurrence enumeration
type EnumerationConfig struct {
	BackwardLimit int `yaml:"backward_limit"`
	ForwardLimit  int `yaml:"forward_limit"`
}

// ReminderConfig is how long before an occurrence a reminder fires
type ReminderConfig struct {
	Value     int    `yaml:"value"`
	Unit      string `yaml:"unit"`
	Important bool   `yaml:"important,omitempty"`
}

// NotificationConfig represents notification system configuration
type NotificationConfig struct {
	Backend       string `yaml:"backend"`
	AppName       string `yaml:"app_name"`
	ExpireSeconds int    `yaml:"expire_seconds"`
	// Template names a file under $XDG_CONFIG_HOME/taskcycle/templates
	Template string `yaml:"template,omitempty"`

	// MinPriority drops reminders ranked below it: low, normal, high or
	// critical
	MinPriority      string   `yaml:"min_priority,omitempty"`
	HighKeywords     []string `yaml:"high_keywords,omitempty"`
	CriticalKeywords []string `yaml:"critical_keywords,omitempty"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Duration converts ReminderConfig to time.Duration
func (r ReminderConfig) Duration() (time.Duration, error) {
	switch r.Unit {
	case "seconds", "second", "s":
		return time.Duration(r.Value) * time.Second, nil
	case "minutes", "minute", "m":
		return time.Duration(r.Value) * time.Minute, nil
	case "hours", "hour", "h":
		return time.Duration(r.Value) * time.Hour, nil
	case "days", "day", "d":
		return time.Duration(r.Value) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported time unit: %s", r.Unit)
	}
}

// Expire returns the notification timeout
func (n NotificationConfig) Expire() time.Duration {
	return time.Duration(n.ExpireSeconds) * time.Second
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) (string, error) {
	expanded := os.ExpandEnv(path)
	if len(expanded) > 0 && expanded[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		expanded = filepath.Join(homeDir, expanded[1:])
	}
	return expanded, nil
}

// DefaultAgendaPath is the agenda file under the XDG data directory
func DefaultAgendaPath() string {
	return filepath.Join(xdg.DataHome, "taskcycle", "agenda.yaml")
}

// Validate checks if the configuration is valid and fills in defaults
func (c *Config) Validate() error {
	if c.Agenda == "" {
		c.Agenda = DefaultAgendaPath()
	}
	agenda, err := ExpandPath(c.Agenda)
	if err != nil {
		return fmt.Errorf("agenda: %w", err)
	}
	c.Agenda = agenda

	if c.Enumeration.BackwardLimit == 0 {
		c.Enumeration.BackwardLimit = recurrence.DefaultBackwardLimit
	}
	if c.Enumeration.ForwardLimit == 0 {
		c.Enumeration.ForwardLimit = recurrence.DefaultForwardLimit
	}
	if c.Enumeration.BackwardLimit < 0 || c.Enumeration.ForwardLimit < 0 {
		return fmt.Errorf("enumeration limits must be positive")
	}

	for i, reminder := range c.Reminders {
		if reminder.Value < 0 {
			return fmt.Errorf("reminder %d: value cannot be negative", i)
		}
		if _, err := reminder.Duration(); err != nil {
			return fmt.Errorf("reminder %d: %w", i, err)
		}
	}

	// Validate notification backend
	if c.Notification.Backend == "" {
		c.Notification.Backend = "dbus"
	}
	if c.Notification.Backend != "dbus" && c.Notification.Backend != "log" {
		return fmt.Errorf("unsupported notification backend: %s", c.Notification.Backend)
	}
	if c.Notification.AppName == "" {
		c.Notification.AppName = "taskcycle"
	}
	if c.Notification.ExpireSeconds < 0 {
		return fmt.Errorf("notification expire_seconds cannot be negative")
	}
	if c.Notification.MinPriority == "" {
		c.Notification.MinPriority = "low"
	}
	switch c.Notification.MinPriority {
	case "low", "normal", "high", "critical":
	default:
		return fmt.Errorf("invalid notification min_priority: %s", c.Notification.MinPriority)
	}

	// Validate logging level
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	return nil
}

// Load loads configuration from XDG-compliant locations. A missing file
// yields the defaults.
func Load() (*Config, error) {
	configPath, err := xdg.SearchConfigFile(configRelPath)
	if err != nil {
		config := DefaultConfig()
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("invalid default configuration: %w", err)
		}
		return config, nil
	}

	return LoadFromFile(configPath)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Agenda: DefaultAgendaPath(),
		Enumeration: EnumerationConfig{
			BackwardLimit: recurrence.DefaultBackwardLimit,
			ForwardLimit:  recurrence.DefaultForwardLimit,
		},
		Reminders: []ReminderConfig{
			{Value: 15, Unit: "minutes"},
		},
		Notification: NotificationConfig{
			Backend:       "dbus",
			AppName:       "taskcycle",
			ExpireSeconds: 5,
			MinPriority:   "low",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// DefaultConfigPath returns where init-config writes the configuration,
// creating the directory
func DefaultConfigPath() (string, error) {
	configPath, err := xdg.ConfigFile(configRelPath)
	if err != nil {
		return "", fmt.Errorf("failed to determine config file path: %w", err)
	}
	return configPath, nil
}

// WriteConfig writes config to path, creating its directory
func WriteConfig(path string, config *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
