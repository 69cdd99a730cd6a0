package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
[api]
base_url = "https://flow.example.org"
timeout = "3s"

[cache]
redis_addr = "localhost:6379"
ttl = "24h"

[print]
footer_text = "Hospital"
surface_width = 1800

[artifacts]
s3_bucket = "exports"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL != "https://flow.example.org" || cfg.API.Timeout.Duration != 3*time.Second {
		t.Errorf("api = %+v", cfg.API)
	}
	if cfg.Cache.RedisAddr != "localhost:6379" || cfg.Cache.TTL.Duration != 24*time.Hour {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Print.FooterText != "Hospital" || cfg.Print.SurfaceWidth != 1800 {
		t.Errorf("print = %+v", cfg.Print)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("default server addr lost: %q", cfg.Server.Addr)
	}
	if cfg.Artifacts.S3Bucket != "exports" {
		t.Errorf("artifacts = %+v", cfg.Artifacts)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "[api]\nbase_url = \"https://file\"\n")
	t.Setenv("CAREPATH_API_BASE_URL", "https://env")
	t.Setenv("CAREPATH_API_TIMEOUT", "1m")
	t.Setenv("CAREPATH_PRINT_SURFACE_WIDTH", "2400")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.API.BaseURL != "https://env" || cfg.API.Timeout.Duration != time.Minute || cfg.Print.SurfaceWidth != 2400 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if _, err := Load(""); err != nil {
		t.Errorf("missing default file: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("missing explicit file accepted")
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
		want string
	}{
		{"bad duration", "[api]\ntimeout = \"soon\"\n", nil, "invalid duration"},
		{"zero ttl", "[cache]\nttl = \"0s\"\n", nil, "cache.ttl"},
		{"endpoint without bucket", "[artifacts]\ns3_endpoint = \"http://minio\"\n", nil, "s3_bucket"},
		{"bad env width", "", map[string]string{"CAREPATH_PRINT_SURFACE_WIDTH": "wide"}, "SURFACE_WIDTH"},
		{"syntax", "[api\n", nil, "read config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	if got := Path(); got != filepath.Join("/cfg", "carepath", "config.toml") {
		t.Errorf("Path() = %q", got)
	}
}
