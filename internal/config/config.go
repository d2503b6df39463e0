// Package config defines service configuration structures and loading.
//
// Conventions:
// - Defaults come from New; Load layers an optional YAML file and env vars
//   on top.
// - External errors are wrapped via this package's sentinel kinds.
package config

import "runtime"

// Session store backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Remote model settings. An empty api key disables the model and the
	// pipeline runs heuristics-only.
	ModelProvider string `koanf:"model_provider"`
	ModelName     string `koanf:"model_name"`
	ModelAPIKey   string `koanf:"model_api_key"`
	ModelBaseURL  string `koanf:"model_base_url"`

	// Per-mode timeout budgets for the model call, in milliseconds.
	ModelTimeoutQuickMS int `koanf:"model_timeout_quick_ms"`
	ModelTimeoutDeepMS  int `koanf:"model_timeout_deep_ms"`

	// Async job processing.
	JobQueueSize   int `koanf:"queue_size"`
	WorkerCount    int `koanf:"worker_count"`
	MaxTrackedJobs int `koanf:"max_tracked_jobs"`

	// Session history persistence.
	SessionBackend string `koanf:"session_backend"`
	SessionDBPath  string `koanf:"session_db_path"`

	// MaxUploadBytes bounds the multipart image size.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// DedupeDistance is the perceptual-hash distance under which two
	// uploads count as the same thumbnail.
	DedupeDistance int `koanf:"dedupe_distance"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":8080",
		ModelProvider:       "openai",
		ModelTimeoutQuickMS: 45_000,
		ModelTimeoutDeepMS:  60_000,
		JobQueueSize:        1024,
		WorkerCount:         runtime.NumCPU(),
		MaxTrackedJobs:      10_000,
		SessionBackend:      SessionBackendMemory,
		SessionDBPath:       "thumbscope.db",
		MaxUploadBytes:      10 << 20,
		DedupeDistance:      10,
	}
}
