package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/mail"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
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

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills zero-valued fields that have documented defaults.
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = LogInfo
	}
	if cfg.Storage.MappingsPath == "" {
		cfg.Storage.MappingsPath = "mappings.json"
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	if cfg.Profile.Email != "" {
		if _, err := mail.ParseAddress(cfg.Profile.Email); err != nil {
			errs = append(errs, fmt.Errorf("profile.email %q is not a valid address", cfg.Profile.Email))
		}
	}
	if cfg.Profile.Name == "" && cfg.Profile.Email != "" {
		slog.Warn("profile.email is set without profile.name; single-speaker inference stays disabled")
	}

	// Directory: one backing at a time.
	if cfg.Directory.PostgresDSN != "" && len(cfg.Directory.Contacts) > 0 {
		slog.Warn("both directory.postgres_dsn and directory.contacts are set; the static contact list will be ignored")
	}
	seen := make(map[string]int, len(cfg.Directory.Contacts))
	for i, c := range cfg.Directory.Contacts {
		prefix := fmt.Sprintf("directory.contacts[%d]", i)
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
		}
		if c.Email == "" {
			errs = append(errs, fmt.Errorf("%s.email is required", prefix))
		} else {
			if _, err := mail.ParseAddress(c.Email); err != nil {
				errs = append(errs, fmt.Errorf("%s.email %q is not a valid address", prefix, c.Email))
			}
			if prev, ok := seen[c.Email]; ok {
				errs = append(errs, fmt.Errorf("%s.email %q is a duplicate of directory.contacts[%d]", prefix, c.Email, prev))
			}
			seen[c.Email] = i
		}
	}

	if cfg.Export.OutputDir != "" {
		if info, err := os.Stat(cfg.Export.OutputDir); err == nil && !info.IsDir() {
			errs = append(errs, fmt.Errorf("export.output_dir %q is not a directory", cfg.Export.OutputDir))
		}
	}

	return errors.Join(errs...)
}
