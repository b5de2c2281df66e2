package config

import "time"

// Config holds runtime settings for the TrainTrack CLI.
//
// Fields:
//   - APIBaseURL: base URL of the backend REST API.
//   - DatabasePath: path of the local SQLite file.
//   - SyncInterval: how often a background sync pass runs.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - HistoryLimit: number of recent activities pulled during bootstrap.
//   - PlanRetention: how long soft-deleted plans are kept locally.
//
// Units: intervals are time.Duration values (e.g., 30*time.Second).
type Config struct {
	APIBaseURL          string
	DatabasePath        string
	SyncInterval        time.Duration
	OnlineCheckInterval time.Duration
	HistoryLimit        int
	PlanRetention       time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.DatabasePath = "traintrack.db"
	c.SyncInterval = 30 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.HistoryLimit = 100
	c.PlanRetention = 10 * 24 * time.Hour
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
