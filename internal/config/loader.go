package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known backend names per collaborator kind.
// Used by [Validate] to warn about unrecognised names without rejecting them
// (forward compatibility with externally registered backends).
var ValidProviderNames = map[string][]string{
	"asr":         {"whisper-native", "whisper-server", "openai"},
	"diarization": {"pyannote", "none"},
	"ocr":         {"tesseract", "none"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and
// [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, fills defaults for omitted
// fields, and validates the result. Useful in tests where configs are
// constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills zero values that the YAML decode may have cleared or
// that an explicit empty block left unset.
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = LogInfo
	}
	if cfg.Progress.PollIntervalSeconds <= 0 {
		cfg.Progress.PollIntervalSeconds = 1
	}
	if cfg.Progress.StaleAfterSeconds <= 0 {
		cfg.Progress.StaleAfterSeconds = 30
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	validateProviderName("asr", cfg.Providers.ASR.Name)
	validateProviderName("diarization", cfg.Providers.Diarization.Name)
	validateProviderName("ocr", cfg.Providers.OCR.Name)

	switch cfg.Providers.ASR.Name {
	case "whisper-native":
		if cfg.Providers.ASR.ModelPath == "" {
			errs = append(errs, errors.New("providers.asr.model_path is required for the whisper-native backend"))
		}
	case "openai":
		if cfg.Providers.ASR.APIKey == "" {
			errs = append(errs, errors.New("providers.asr.api_key is required for the openai backend"))
		}
	}

	return errors.Join(errs...)
}

// validateProviderName warns (but does not fail) when a provider name is not
// in the known set for its kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	if !slices.Contains(ValidProviderNames[kind], name) {
		slog.Warn("unrecognised provider name", "kind", kind, "name", name, "known", ValidProviderNames[kind])
	}
}
