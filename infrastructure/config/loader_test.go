package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonesrussell/north-cloud/aisearch/infrastructure/config"
)

type testConfig struct {
	Endpoint string        `env:"TEST_AISEARCH_ENDPOINT" yaml:"endpoint"`
	Timeout  time.Duration `env:"TEST_AISEARCH_TIMEOUT"  yaml:"timeout"`
	Retries  int           `env:"TEST_AISEARCH_RETRIES"  yaml:"retries"`
	Debug    bool          `env:"TEST_AISEARCH_DEBUG"    yaml:"debug"`
	Nested   struct {
		Tags []string `env:"TEST_AISEARCH_TAGS" yaml:"tags"`
	} `yaml:"nested"`
}

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_ReadsYAML(t *testing.T) {
	path := writeFile(t, "endpoint: https://svc.search.windows.net\ntimeout: 5s\nretries: 2\n")

	cfg, err := config.Load[testConfig](path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Endpoint != "https://svc.search.windows.net" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout)
	}
	if cfg.Retries != 2 {
		t.Errorf("Retries = %d, want 2", cfg.Retries)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "endpoint: https://file.search.windows.net\nretries: 2\n")
	t.Setenv("TEST_AISEARCH_ENDPOINT", "https://env.search.windows.net")
	t.Setenv("TEST_AISEARCH_TIMEOUT", "90s")
	t.Setenv("TEST_AISEARCH_DEBUG", "yes")
	t.Setenv("TEST_AISEARCH_TAGS", "a, b ,c")

	cfg, err := config.Load[testConfig](path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Endpoint != "https://env.search.windows.net" {
		t.Errorf("Endpoint = %q, want env value", cfg.Endpoint)
	}
	if cfg.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v, want 90s", cfg.Timeout)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
	if got := cfg.Nested.Tags; len(got) != 3 || got[1] != "b" {
		t.Errorf("Nested.Tags = %v, want [a b c]", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yml")

	if _, err := config.Load[testConfig](missing); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want os.ErrNotExist", err)
	}

	t.Setenv("TEST_AISEARCH_RETRIES", "4")
	cfg, err := config.Load[testConfig](missing, config.AllowMissing())
	if err != nil {
		t.Fatalf("Load(AllowMissing) error = %v", err)
	}
	if cfg.Retries != 4 {
		t.Errorf("Retries = %d, want 4 from env", cfg.Retries)
	}
}

func TestLoadWithDefaults_EnvWinsOverDefaults(t *testing.T) {
	path := writeFile(t, "retries: 0\n")
	t.Setenv("TEST_AISEARCH_ENDPOINT", "https://env.search.windows.net")

	cfg, err := config.LoadWithDefaults(path, func(c *testConfig) {
		c.Endpoint = "https://default.search.windows.net"
		if c.Retries == 0 {
			c.Retries = 3
		}
	})
	if err != nil {
		t.Fatalf("LoadWithDefaults() error = %v", err)
	}
	if cfg.Endpoint != "https://env.search.windows.net" {
		t.Errorf("Endpoint = %q, want env value", cfg.Endpoint)
	}
	if cfg.Retries != 3 {
		t.Errorf("Retries = %d, want default 3", cfg.Retries)
	}
}

func TestValidateHTTPURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"https", "https://svc.search.windows.net", false},
		{"http with port", "http://127.0.0.1:8089", false},
		{"empty", "", true},
		{"no scheme", "svc.search.windows.net", true},
		{"ftp", "ftp://svc.search.windows.net", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := config.ValidateHTTPURL("search.endpoint", tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHTTPURL(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			var vErr *config.ValidationError
			if err != nil && !errors.As(err, &vErr) {
				t.Errorf("error %T is not *ValidationError", err)
			}
		})
	}
}
