package config

// Config is the whole bot configuration.
//
// The file may be JSON or YAML (YAML is coerced to JSON before the strict
// decode, so unknown keys are rejected uniformly). All durations are Go
// duration strings (e.g. "500ms", "10s", "15m").
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Venue    VenueConfig    `json:"venue"`
	Watcher  WatcherConfig  `json:"watcher"`
	Notifier NotifierConfig `json:"notifier"`
	Storage  StorageConfig  `json:"storage"`
	Metrics  MetricsConfig  `json:"metrics,omitempty"`
	Logging  LoggingConfig  `json:"logging"`
}

type TelegramConfig struct {
	Token string `json:"token"`
	// PollTimeout is the long-poll timeout (default "10s").
	PollTimeout string `json:"poll_timeout,omitempty"`
}

// VenueConfig points at the venue's public API and asset hosts.
type VenueConfig struct {
	APIURL       string `json:"api_url,omitempty"`
	BaseURL      string `json:"base_url,omitempty"`
	ImageBaseURL string `json:"image_base_url,omitempty"`
	FetchTimeout string `json:"fetch_timeout,omitempty"`
}

// WatcherConfig controls the periodic show check.
//
// Schedule accepts robfig/cron specs, including "@every 15m".
type WatcherConfig struct {
	Enabled    bool   `json:"enabled"`
	Schedule   string `json:"schedule,omitempty"`
	RunTimeout string `json:"run_timeout,omitempty"`
	Timezone   string `json:"timezone,omitempty"`
}

// NotifierConfig controls delivery pacing.
//
// UserDelay spaces sends to successive subscribers; ShowDelay spaces
// successive show batches. "0s" disables pacing (tests use this).
type NotifierConfig struct {
	UserDelay string `json:"user_delay,omitempty"`
	ShowDelay string `json:"show_delay,omitempty"`
}

// StorageConfig controls the persistence layer.
//
// Driver values:
//   - "badger": embedded KV store (default); snapshot entries carry a TTL
//   - "sqlite": SQLite database file
//   - "memory": process-local, lost on restart (tests, dry runs)
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
	// Retention bounds snapshot entry lifetime (default "168h"). A safety
	// net against unbounded growth if the watcher stops running, not a
	// correctness mechanism.
	Retention string `json:"retention,omitempty"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default "127.0.0.1:9090"
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}
