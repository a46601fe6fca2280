package config_test

import (
	"strings"
	"testing"

	"github.com/scrivenerhq/scrivener/internal/config"
)

const validYAML = `
log_level: debug
storage:
  mappings_path: /var/lib/scrivener/mappings.json
profile:
  name: Alex Lee
  email: alex@example.com
directory:
  contacts:
    - name: Dana Sato
      email: dana@example.com
    - name: Miguel Ortiz
      email: miguel@example.com
export:
  use_link_syntax: true
metrics:
  listen_addr: ":9090"
`

func TestLoadFromReader(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.LogLevel != config.LogDebug {
		t.Errorf("LogLevel=%q", cfg.LogLevel)
	}
	if cfg.Storage.MappingsPath != "/var/lib/scrivener/mappings.json" {
		t.Errorf("MappingsPath=%q", cfg.Storage.MappingsPath)
	}
	if cfg.Profile.Name != "Alex Lee" || cfg.Profile.Email != "alex@example.com" {
		t.Errorf("Profile=%+v", cfg.Profile)
	}
	if len(cfg.Directory.Contacts) != 2 {
		t.Errorf("Contacts=%+v", cfg.Directory.Contacts)
	}
	if !cfg.Export.UseLinkSyntax {
		t.Error("UseLinkSyntax=false")
	}
	if cfg.Metrics.ListenAddr != ":9090" {
		t.Errorf("ListenAddr=%q", cfg.Metrics.ListenAddr)
	}
}

func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.LogLevel != config.LogInfo {
		t.Errorf("LogLevel=%q, want the info default", cfg.LogLevel)
	}
	if cfg.Storage.MappingsPath != "mappings.json" {
		t.Errorf("MappingsPath=%q, want the default", cfg.Storage.MappingsPath)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()

	if _, err := config.LoadFromReader(strings.NewReader("log_levle: debug\n")); err == nil {
		t.Fatal("expected an error for a misspelled key")
	}
}

func TestValidate_Failures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "bad log level",
			yaml: "log_level: loud\n",
			want: "log_level",
		},
		{
			name: "bad profile email",
			yaml: "profile:\n  name: X\n  email: not-an-address\n",
			want: "profile.email",
		},
		{
			name: "contact missing name",
			yaml: "directory:\n  contacts:\n    - email: a@example.com\n",
			want: "name is required",
		},
		{
			name: "duplicate contact email",
			yaml: "directory:\n  contacts:\n    - {name: A, email: a@example.com}\n    - {name: B, email: a@example.com}\n",
			want: "duplicate",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.LoadFromReader(strings.NewReader(tc.yaml))
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err=%v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestLogLevelIsValid(t *testing.T) {
	t.Parallel()

	for _, l := range []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError} {
		if !l.IsValid() {
			t.Errorf("%q reported invalid", l)
		}
	}
	if config.LogLevel("verbose").IsValid() {
		t.Error("verbose reported valid")
	}
}
