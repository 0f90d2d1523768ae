// Package config loads the YAML fleet configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"printwatch/pkg/flashforge"
)

// Root configuration for the fleet monitor. This mirrors config.yaml.

type Config struct {
	Printers      map[string]PrinterConfig `yaml:"printers"`
	Watcher       WatcherConfig            `yaml:"watcher"`
	SMTP          SMTPConfig               `yaml:"smtp"`
	Notifications NotificationConfig       `yaml:"notifications"`
	Storage       StorageConfig            `yaml:"storage"`
	LogLevel      string                   `yaml:"log_level"`
}

// PrinterConfig locates one printer on the network. The map key becomes the
// printer id.
type PrinterConfig struct {
	Host       string `yaml:"host"`
	APIPort    int    `yaml:"api_port"`
	CameraPort int    `yaml:"camera_port"`
}

type WatcherConfig struct {
	Interval           time.Duration `yaml:"interval"`
	RecordTemperatures bool          `yaml:"record_temperatures"`
}

type SMTPConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Encryption string `yaml:"encryption"` // none | starttls
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	From       string `yaml:"from"`
}

// Enabled reports whether mail can be sent at all.
func (s SMTPConfig) Enabled() bool { return s.Host != "" }

type NotificationConfig struct {
	OnDone DestinationConfig `yaml:"on_done"`
}

// DestinationConfig lists where one event class is delivered.
type DestinationConfig struct {
	Emails   []string `yaml:"emails"`
	Webhooks []string `yaml:"webhooks"`
	Desktop  bool     `yaml:"desktop"`
}

type StorageConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DBPath       string `yaml:"db_path"`
	MaxQueueSize int    `yaml:"max_queue_size"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	// Defaults
	if cfg.Watcher.Interval <= 0 {
		cfg.Watcher.Interval = 60 * time.Second
	}
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = 587
	}
	if cfg.SMTP.Encryption == "" {
		cfg.SMTP.Encryption = "starttls"
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = "printwatch.db"
	}
	if cfg.Storage.MaxQueueSize <= 0 {
		cfg.Storage.MaxQueueSize = 1000
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	for id, p := range cfg.Printers {
		if p.APIPort == 0 {
			p.APIPort = flashforge.APIPort
		}
		if p.CameraPort == 0 {
			p.CameraPort = flashforge.CamPort
		}
		cfg.Printers[id] = p
	}
	// Basic validation
	if len(cfg.Printers) == 0 {
		return Config{}, fmt.Errorf("no printers configured")
	}
	for id, p := range cfg.Printers {
		if p.Host == "" {
			return Config{}, fmt.Errorf("printer %s: host must be set", id)
		}
	}
	switch cfg.SMTP.Encryption {
	case "none", "starttls":
	default:
		return Config{}, fmt.Errorf("smtp: unsupported encryption %q", cfg.SMTP.Encryption)
	}
	if len(cfg.Notifications.OnDone.Emails) > 0 && !cfg.SMTP.Enabled() {
		return Config{}, fmt.Errorf("notifications: emails configured without smtp host")
	}
	return cfg, nil
}
