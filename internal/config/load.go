package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	defaultAPIURL       = "https://barby.co.il/api/shows/find"
	defaultBaseURL      = "https://barby.co.il"
	defaultImageBaseURL = "https://images.barby.co.il/Logos/"

	defaultSchedule = "@every 15m"
)

// Load reads, decodes and validates the config file at path.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	jb, format, err := coerceToJSONBytes(path, raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse %s config: %w", format, err)
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Venue.APIURL) == "" {
		cfg.Venue.APIURL = defaultAPIURL
	}
	if strings.TrimSpace(cfg.Venue.BaseURL) == "" {
		cfg.Venue.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.Venue.ImageBaseURL) == "" {
		cfg.Venue.ImageBaseURL = defaultImageBaseURL
	}
	if strings.TrimSpace(cfg.Watcher.Schedule) == "" {
		cfg.Watcher.Schedule = defaultSchedule
	}
	if strings.TrimSpace(cfg.Storage.Driver) == "" {
		cfg.Storage.Driver = "badger"
	}
	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = "info"
	}
	if strings.TrimSpace(cfg.Metrics.Addr) == "" {
		cfg.Metrics.Addr = "127.0.0.1:9090"
	}
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return errors.New("telegram.token is required")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
	case "badger", "sqlite", "sqlite3", "memory":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q", cfg.Storage.Driver)
	}
	if d := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)); d != "memory" && strings.TrimSpace(cfg.Storage.Path) == "" {
		return fmt.Errorf("storage.path is required for driver %q", cfg.Storage.Driver)
	}

	// Fail early on malformed durations instead of at first use.
	for _, f := range []struct{ path, raw string }{
		{"telegram.poll_timeout", cfg.Telegram.PollTimeout},
		{"venue.fetch_timeout", cfg.Venue.FetchTimeout},
		{"watcher.run_timeout", cfg.Watcher.RunTimeout},
		{"notifier.user_delay", cfg.Notifier.UserDelay},
		{"notifier.show_delay", cfg.Notifier.ShowDelay},
		{"storage.busy_timeout", cfg.Storage.BusyTimeout},
		{"storage.retention", cfg.Storage.Retention},
	} {
		if _, err := ParseDurationField(f.path, f.raw); err != nil {
			return err
		}
	}
	return nil
}
