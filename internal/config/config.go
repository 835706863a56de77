package config

import (
	"fmt"
	"net/url"
	"os"
	"reflect"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/Paaskehare/SevenShift/client/session"
)

// Prefix is the environment variable prefix, e.g. FLEET_API_URL.
const Prefix = "FLEET"

// Credential store backends.
const (
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds the configuration of the fleet dashboard.
// Environment variables are parsed from the FLEET_ prefix. An optional YAML
// file fills in values the environment leaves unset.
type Config struct {
	// API root, including the /api mount point.
	APIURL      string        `envconfig:"API_URL" default:"http://localhost:8000/api" yaml:"api_url"`
	HTTPTimeout time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s" yaml:"http_timeout"`
	PageSize    int           `envconfig:"PAGE_SIZE" default:"25" yaml:"page_size"`

	// Credential storage
	CredentialStore string `envconfig:"CREDENTIAL_STORE" default:"file" yaml:"credential_store"`
	CredentialPath  string `envconfig:"CREDENTIAL_PATH" default:"" yaml:"credential_path"`
	RedisAddr       string `envconfig:"REDIS_ADDR" default:"localhost:6379" yaml:"redis_addr"`
	RedisPrefix     string `envconfig:"REDIS_PREFIX" default:"sevenshift:session" yaml:"redis_prefix"`

	Debug bool `envconfig:"DEBUG" default:"false" yaml:"debug"`

	// Tracing is enabled when OTELEndpoint is set.
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"" yaml:"otel_endpoint"`
	OTELInsecure bool   `envconfig:"OTEL_INSECURE" default:"false" yaml:"otel_insecure"`

	// Listen address of the development backend.
	DevAddr string `envconfig:"DEV_ADDR" default:"localhost:8000" yaml:"dev_addr"`

	ConfigFile string `envconfig:"CONFIG_FILE" default:"" yaml:"-"`
}

// Validate rejects configurations the client cannot start with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API_URL: %q", c.APIURL)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be > 0, got %s", c.HTTPTimeout)
	}
	if c.PageSize <= 0 || c.PageSize > 100 {
		return fmt.Errorf("PAGE_SIZE must be in [1, 100], got %d", c.PageSize)
	}
	switch c.CredentialStore {
	case StoreFile, StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("unsupported CREDENTIAL_STORE: %s", c.CredentialStore)
	}
	return nil
}

// ResolveDefaults derives values that depend on the host.
func (c *Config) ResolveDefaults() error {
	if c.CredentialStore == StoreFile && c.CredentialPath == "" {
		p, err := session.DefaultCredentialPath()
		if err != nil {
			return err
		}
		c.CredentialPath = p
	}
	return nil
}

// New loads the configuration from the environment, overlaid on the file
// named by FLEET_CONFIG_FILE when set.
func New() (*Config, error) {
	return Load("")
}

// Load is New with an explicit YAML file. An empty path falls back to
// FLEET_CONFIG_FILE; a missing file is an error only when one was named.
// Precedence: environment, then file, then defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if path == "" {
		path = cfg.ConfigFile
	}
	if path != "" {
		if err := overlayFile(&cfg, path); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("api_url", cfg.APIURL).
		Dur("http_timeout", cfg.HTTPTimeout).
		Int("page_size", cfg.PageSize).
		Str("credential_store", cfg.CredentialStore).
		Str("credential_path", cfg.CredentialPath).
		Str("redis_addr", cfg.RedisAddr).
		Bool("debug", cfg.Debug).
		Bool("tracing", cfg.OTELEndpoint != "").
		Str("config_file", cfg.ConfigFile).
		Msg("Configuration loaded")

	return &cfg, nil
}

// overlayFile copies every key present in the YAML file into cfg unless the
// matching environment variable is set.
func overlayFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fromFile Config
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	var present map[string]any
	if err := yaml.Unmarshal(data, &present); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	dst := reflect.ValueOf(cfg).Elem()
	src := reflect.ValueOf(fromFile)
	typ := dst.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		key := f.Tag.Get("yaml")
		if key == "" || key == "-" {
			continue
		}
		if _, ok := present[key]; !ok {
			continue
		}
		if _, set := os.LookupEnv(Prefix + "_" + f.Tag.Get("envconfig")); set {
			continue
		}
		dst.Field(i).Set(src.Field(i))
	}
	return nil
}

// NewForTesting creates a config specifically for testing.
func NewForTesting() *Config {
	return &Config{
		APIURL:          "http://127.0.0.1:0/api",
		HTTPTimeout:     5 * time.Second,
		PageSize:        25,
		CredentialStore: StoreMemory,
		RedisPrefix:     "sevenshift:test",
		DevAddr:         "127.0.0.1:0",
	}
}
