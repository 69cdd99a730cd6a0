// Package config loads carepath settings from a TOML file and CAREPATH_*
// environment variables. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full configuration.
type Config struct {
	API       APIConfig       `toml:"api"`
	Cache     CacheConfig     `toml:"cache"`
	Print     PrintConfig     `toml:"print"`
	Server    ServerConfig    `toml:"server"`
	Artifacts ArtifactsConfig `toml:"artifacts"`
}

// APIConfig locates the document service.
type APIConfig struct {
	BaseURL string   `toml:"base_url"`
	Token   string   `toml:"token"`
	Timeout Duration `toml:"timeout"`
}

// CacheConfig selects the export cache. RedisAddr takes precedence over Dir.
type CacheConfig struct {
	Dir       string   `toml:"dir"`
	RedisAddr string   `toml:"redis_addr"`
	TTL       Duration `toml:"ttl"`
}

// PrintConfig holds the static parts of exported pages.
type PrintConfig struct {
	Logo         string  `toml:"logo"`
	FooterLogo   string  `toml:"footer_logo"`
	FooterText   string  `toml:"footer_text"`
	SurfaceWidth float64 `toml:"surface_width"`
}

// ServerConfig configures the reference document service.
type ServerConfig struct {
	Addr          string `toml:"addr"`
	Token         string `toml:"token"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
	NATSURL       string `toml:"nats_url"`
}

// ArtifactsConfig is the upload destination for exports.
type ArtifactsConfig struct {
	S3Bucket   string `toml:"s3_bucket"`
	S3Region   string `toml:"s3_region"`
	S3Endpoint string `toml:"s3_endpoint"`
	S3Prefix   string `toml:"s3_prefix"`
}

// Duration is a time.Duration written as a string ("10s", "24h") in TOML.
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
			Timeout: Duration{10 * time.Second},
		},
		Cache: CacheConfig{
			Dir: filepath.Join(cacheHome(), "carepath"),
			TTL: Duration{7 * 24 * time.Hour},
		},
		Print: PrintConfig{
			SurfaceWidth: 2000,
		},
		Server: ServerConfig{
			Addr:          ":8080",
			MongoDatabase: "carepath",
		},
	}
}

// Path returns the default config file location.
func Path() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "carepath", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".carepath", "config.toml")
	}
	return filepath.Join(home, ".config", "carepath", "config.toml")
}

// Load reads path over the defaults and applies environment overrides. An
// empty path means [Path]; a missing default file is not an error, a missing
// explicit one is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = Path()
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.API.BaseURL = envOrDefault("CAREPATH_API_BASE_URL", c.API.BaseURL)
	c.API.Token = envOrDefault("CAREPATH_API_TOKEN", c.API.Token)
	c.Cache.Dir = envOrDefault("CAREPATH_CACHE_DIR", c.Cache.Dir)
	c.Cache.RedisAddr = envOrDefault("CAREPATH_CACHE_REDIS_ADDR", c.Cache.RedisAddr)
	c.Print.Logo = envOrDefault("CAREPATH_PRINT_LOGO", c.Print.Logo)
	c.Print.FooterLogo = envOrDefault("CAREPATH_PRINT_FOOTER_LOGO", c.Print.FooterLogo)
	c.Print.FooterText = envOrDefault("CAREPATH_PRINT_FOOTER_TEXT", c.Print.FooterText)
	c.Server.Addr = envOrDefault("CAREPATH_SERVER_ADDR", c.Server.Addr)
	c.Server.Token = envOrDefault("CAREPATH_SERVER_TOKEN", c.Server.Token)
	c.Server.MongoURI = envOrDefault("CAREPATH_SERVER_MONGO_URI", c.Server.MongoURI)
	c.Server.MongoDatabase = envOrDefault("CAREPATH_SERVER_MONGO_DATABASE", c.Server.MongoDatabase)
	c.Server.NATSURL = envOrDefault("CAREPATH_SERVER_NATS_URL", c.Server.NATSURL)
	c.Artifacts.S3Bucket = envOrDefault("CAREPATH_ARTIFACTS_S3_BUCKET", c.Artifacts.S3Bucket)
	c.Artifacts.S3Region = envOrDefault("CAREPATH_ARTIFACTS_S3_REGION", c.Artifacts.S3Region)
	c.Artifacts.S3Endpoint = envOrDefault("CAREPATH_ARTIFACTS_S3_ENDPOINT", c.Artifacts.S3Endpoint)
	c.Artifacts.S3Prefix = envOrDefault("CAREPATH_ARTIFACTS_S3_PREFIX", c.Artifacts.S3Prefix)

	var err error
	if c.API.Timeout.Duration, err = envDuration("CAREPATH_API_TIMEOUT", c.API.Timeout.Duration); err != nil {
		return err
	}
	if c.Cache.TTL.Duration, err = envDuration("CAREPATH_CACHE_TTL", c.Cache.TTL.Duration); err != nil {
		return err
	}
	if v := os.Getenv("CAREPATH_PRINT_SURFACE_WIDTH"); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CAREPATH_PRINT_SURFACE_WIDTH: %w", err)
		}
		c.Print.SurfaceWidth = w
	}
	return nil
}

// Validate checks values that would otherwise fail much later.
func (c Config) Validate() error {
	if c.API.Timeout.Duration <= 0 {
		return errors.New("api.timeout must be positive")
	}
	if c.Cache.TTL.Duration <= 0 {
		return errors.New("cache.ttl must be positive")
	}
	if c.Print.SurfaceWidth <= 0 {
		return errors.New("print.surface_width must be positive")
	}
	if c.Artifacts.S3Endpoint != "" && c.Artifacts.S3Bucket == "" {
		return errors.New("artifacts.s3_endpoint set without artifacts.s3_bucket")
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func cacheHome() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return dir
	}
	if dir, err := os.UserCacheDir(); err == nil {
		return dir
	}
	return os.TempDir()
}
