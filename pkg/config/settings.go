package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings are process-level options: where the tree lives and how the
// daemons run. They come from flags, optionally seeded by a YAML file.
// Runtime tunables (thresholds, auto-lockdown) are NOT here — those live
// in the management store so `config set` applies without restarts.
type Settings struct {
	BasePath    string        `yaml:"base_path"`
	Interval    time.Duration `yaml:"interval"`
	LogLevel    string        `yaml:"log_level"`
	JSONLogs    bool          `yaml:"json_logs"`
	MetricsAddr string        `yaml:"metrics_addr"`
}

// DefaultSettings returns the settings used when neither file nor flags
// override them.
func DefaultSettings() Settings {
	return Settings{
		BasePath: DefaultBasePath,
		Interval: 60 * time.Second,
		LogLevel: "info",
	}
}

// UnmarshalYAML accepts Go duration syntax ("60s", "5m") for the
// interval and leaves defaulted fields alone when the file omits them.
func (s *Settings) UnmarshalYAML(value *yaml.Node) error {
	type raw struct {
		BasePath    string `yaml:"base_path"`
		Interval    string `yaml:"interval"`
		LogLevel    string `yaml:"log_level"`
		JSONLogs    bool   `yaml:"json_logs"`
		MetricsAddr string `yaml:"metrics_addr"`
	}
	var r raw
	if err := value.Decode(&r); err != nil {
		return err
	}

	if r.BasePath != "" {
		s.BasePath = r.BasePath
	}
	if r.Interval != "" {
		d, err := time.ParseDuration(r.Interval)
		if err != nil {
			return fmt.Errorf("invalid interval %q: %w", r.Interval, err)
		}
		s.Interval = d
	}
	if r.LogLevel != "" {
		s.LogLevel = r.LogLevel
	}
	s.JSONLogs = r.JSONLogs
	if r.MetricsAddr != "" {
		s.MetricsAddr = r.MetricsAddr
	}
	return nil
}

// LoadSettings reads a YAML settings file over the defaults. A missing
// path is not an error when optional is true, so `--config` stays
// optional while a misspelled explicit path still fails loudly.
func LoadSettings(path string, optional bool) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read settings file: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings file %s: %w", path, err)
	}
	if s.BasePath == "" {
		s.BasePath = DefaultBasePath
	}
	if s.Interval <= 0 {
		s.Interval = 60 * time.Second
	}
	return s, nil
}
