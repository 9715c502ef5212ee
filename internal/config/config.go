// Package config provides the configuration schema and loader for gijiroku.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for gijiroku.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	// LogLevel controls verbosity. Default: info.
	LogLevel LogLevel `yaml:"log_level"`

	// Providers selects the collaborator backends for each pipeline stage.
	Providers ProvidersConfig `yaml:"providers"`

	// Progress configures the cross-process progress snapshot.
	Progress ProgressConfig `yaml:"progress"`
}

// ProvidersConfig declares which collaborator implementation to use for each
// external stage of the pipeline.
type ProvidersConfig struct {
	ASR         ProviderEntry `yaml:"asr"`
	Diarization ProviderEntry `yaml:"diarization"`
	OCR         ProviderEntry `yaml:"ocr"`
}

// ProviderEntry is the common configuration block shared by all collaborator
// kinds. Which fields are meaningful depends on the selected backend.
type ProviderEntry struct {
	// Name selects the backend implementation (e.g., "whisper-native",
	// "pyannote", "tesseract").
	Name string `yaml:"name"`

	// APIKey is the authentication key for hosted backends, if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the backend's default endpoint (whisper-server,
	// pyannote sidecar, OpenAI-compatible gateways).
	BaseURL string `yaml:"base_url"`

	// Model selects a model preset or identifier within the backend
	// (e.g., "medium", "large-v3", "turbo").
	Model string `yaml:"model"`

	// ModelPath is the local model file for in-process backends
	// (whisper-native ggml weights).
	ModelPath string `yaml:"model_path"`

	// Language is the expected audio language (e.g., "ja", "en"). Empty lets
	// the backend auto-detect where supported.
	Language string `yaml:"language"`
}

// ProgressConfig holds the progress snapshot location and the watcher's
// timing parameters.
type ProgressConfig struct {
	// Path is the snapshot file location. Empty means the platform default
	// ($TMPDIR/gijiroku-progress.json).
	Path string `yaml:"path"`

	// PollIntervalSeconds is the watcher poll interval. Default: 1.
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`

	// StaleAfterSeconds is the snapshot age after which the watcher flags a
	// running pipeline as stale. Default: 30.
	StaleAfterSeconds int `yaml:"stale_after_seconds"`
}

// PollInterval returns PollIntervalSeconds as a duration.
func (p ProgressConfig) PollInterval() time.Duration {
	return time.Duration(p.PollIntervalSeconds) * time.Second
}

// StaleAfter returns StaleAfterSeconds as a duration.
func (p ProgressConfig) StaleAfter() time.Duration {
	return time.Duration(p.StaleAfterSeconds) * time.Second
}

// Default returns the configuration used when no config file is present:
// local whisper via a whisper-server sidecar, pyannote sidecar diarization,
// and tesseract OCR.
func Default() *Config {
	return &Config{
		LogLevel: LogInfo,
		Providers: ProvidersConfig{
			ASR:         ProviderEntry{Name: "whisper-server", Model: "medium"},
			Diarization: ProviderEntry{Name: "pyannote"},
			OCR:         ProviderEntry{Name: "tesseract"},
		},
		Progress: ProgressConfig{
			PollIntervalSeconds: 1,
			StaleAfterSeconds:   30,
		},
	}
}
