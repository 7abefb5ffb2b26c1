package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
)

// EnvPrefix is the prefix of environment variables overriding the config file.
// Nested keys are separated by a double underscore, e.g. NEWSREADER_API__BASE_URL.
const EnvPrefix = "NEWSREADER_"

// Config represents the application configuration
type Config struct {
	API          APIConfig          `koanf:"api" yaml:"api"`
	Cache        CacheConfig        `koanf:"cache" yaml:"cache"`
	Connectivity ConnectivityConfig `koanf:"connectivity" yaml:"connectivity"`
	Worker       WorkerConfig       `koanf:"worker" yaml:"worker"`
	Log          LogConfig          `koanf:"log" yaml:"log"`
}

// APIConfig describes the news backend
type APIConfig struct {
	BaseURL  string `koanf:"base_url" yaml:"base_url"`
	Endpoint string `koanf:"endpoint" yaml:"endpoint"`
	Timeout  string `koanf:"timeout" yaml:"timeout"`
	// Share one in-flight fetch between identical concurrent requests
	Coalesce bool `koanf:"coalesce" yaml:"coalesce"`
}

// CacheConfig contains response cache configuration
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled"`
	TTL     string `koanf:"ttl" yaml:"ttl"`
}

// ConnectivityConfig controls the backend reachability probe
type ConnectivityConfig struct {
	ProbeInterval string `koanf:"probe_interval" yaml:"probe_interval"`
	ProbeTimeout  string `koanf:"probe_timeout" yaml:"probe_timeout"`
}

// WorkerConfig contains the interception worker configuration
type WorkerConfig struct {
	Port         int          `koanf:"port" yaml:"port"`
	ControlPort  int          `koanf:"control_port" yaml:"control_port"`
	Origin       string       `koanf:"origin" yaml:"origin"`
	Generation   string       `koanf:"generation" yaml:"generation"`
	Manifest     []string     `koanf:"manifest" yaml:"manifest"`
	RootDocument string       `koanf:"root_document" yaml:"root_document"`
	Store        StoreConfig  `koanf:"store" yaml:"store"`
	Rules        []BypassRule `koanf:"rules" yaml:"rules"`
	HTTPS        HTTPSConfig  `koanf:"https" yaml:"https"`
}

// StoreConfig selects the persistent asset store backend
type StoreConfig struct {
	Driver   string `koanf:"driver" yaml:"driver"` // "disk", "sqlite" or "redis"
	Folder   string `koanf:"folder" yaml:"folder"`
	DSN      string `koanf:"dsn" yaml:"dsn"`
	RedisURL string `koanf:"redis_url" yaml:"redis_url"`
}

// BypassRule defines requests the worker forwards without interception
type BypassRule struct {
	BaseURI string   `koanf:"base_uri" yaml:"base_uri"`
	Methods []string `koanf:"methods" yaml:"methods"`
}

// HTTPSConfig configures TLS interception
type HTTPSConfig struct {
	Enabled         bool   `koanf:"enabled" yaml:"enabled"`
	CACertFile      string `koanf:"ca_cert_file" yaml:"ca_cert_file"`
	CAKeyFile       string `koanf:"ca_key_file" yaml:"ca_key_file"`
	TransparentAddr string `koanf:"transparent_addr" yaml:"transparent_addr"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level string `koanf:"level" yaml:"level"`
}

// Default returns the configuration used when no file overrides a key
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:  "http://localhost:3000",
			Endpoint: "/data",
			Timeout:  "5s",
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     "5m",
		},
		Connectivity: ConnectivityConfig{
			ProbeInterval: "10s",
			ProbeTimeout:  "2s",
		},
		Worker: WorkerConfig{
			Port:         8081,
			ControlPort:  8082,
			Origin:       "http://localhost:3000",
			Generation:   "news-app-cache-v1",
			Manifest:     []string{"/main.js", "/index.html", "/css/style.css"},
			RootDocument: "/index.html",
			Store: StoreConfig{
				Driver: "disk",
				Folder: "./cache",
			},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load loads configuration from a YAML file, layered over the defaults and
// under NEWSREADER_ environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &config, nil
}

// NEWSREADER_WORKER__STORE__DRIVER -> worker.store.driver
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// GetTimeout parses and returns the request timeout
func (c *Config) GetTimeout() (time.Duration, error) {
	return time.ParseDuration(c.API.Timeout)
}

// GetCacheTTL parses and returns the default cache TTL duration
func (c *Config) GetCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Cache.TTL)
}

// GetProbeInterval parses and returns the connectivity probe interval
func (c *Config) GetProbeInterval() (time.Duration, error) {
	return time.ParseDuration(c.Connectivity.ProbeInterval)
}

// GetProbeTimeout parses and returns the connectivity probe timeout
func (c *Config) GetProbeTimeout() (time.Duration, error) {
	return time.ParseDuration(c.Connectivity.ProbeTimeout)
}

// GetLogLevel parses the configured log level
func (c *Config) GetLogLevel() (logrus.Level, error) {
	return logrus.ParseLevel(c.Log.Level)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validateBaseURL("api base URL", c.API.BaseURL); err != nil {
		return err
	}

	if !strings.HasPrefix(c.API.Endpoint, "/") {
		return fmt.Errorf("api endpoint must start with '/', got: %q", c.API.Endpoint)
	}

	timeout, err := c.GetTimeout()
	if err != nil {
		return fmt.Errorf("invalid api timeout format: %w", err)
	}
	if timeout <= 0 {
		return fmt.Errorf("api timeout must be positive, got: %s", timeout)
	}

	ttl, err := c.GetCacheTTL()
	if err != nil {
		return fmt.Errorf("invalid cache TTL format: %w", err)
	}
	if ttl < 0 {
		return fmt.Errorf("cache TTL must not be negative, got: %s", ttl)
	}

	interval, err := c.GetProbeInterval()
	if err != nil {
		return fmt.Errorf("invalid probe interval format: %w", err)
	}
	if interval <= 0 {
		return fmt.Errorf("probe interval must be positive, got: %s", interval)
	}

	if _, err := c.GetProbeTimeout(); err != nil {
		return fmt.Errorf("invalid probe timeout format: %w", err)
	}

	if _, err := c.GetLogLevel(); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	return c.Worker.Validate()
}

// Validate validates the worker section only
func (w *WorkerConfig) Validate() error {
	if w.Port <= 0 || w.Port > 65535 {
		return fmt.Errorf("invalid worker port: %d", w.Port)
	}

	if w.ControlPort <= 0 || w.ControlPort > 65535 {
		return fmt.Errorf("invalid worker control port: %d", w.ControlPort)
	}

	if err := validateBaseURL("worker origin", w.Origin); err != nil {
		return err
	}

	if w.Generation == "" {
		return fmt.Errorf("worker generation is required")
	}

	if !strings.HasPrefix(w.RootDocument, "/") {
		return fmt.Errorf("worker root document must start with '/', got: %q", w.RootDocument)
	}

	switch w.Store.Driver {
	case "disk":
		if w.Store.Folder == "" {
			return fmt.Errorf("store folder is required for the disk driver")
		}
	case "sqlite":
		if w.Store.DSN == "" {
			return fmt.Errorf("store dsn is required for the sqlite driver")
		}
	case "redis":
		if w.Store.RedisURL == "" {
			return fmt.Errorf("store redis_url is required for the redis driver")
		}
	default:
		return fmt.Errorf("store driver must be 'disk', 'sqlite' or 'redis', got: %s", w.Store.Driver)
	}

	for i, rule := range w.Rules {
		if rule.BaseURI == "" {
			return fmt.Errorf("rule %d: base_uri is required", i)
		}
	}

	if w.HTTPS.CACertFile != "" && w.HTTPS.CAKeyFile == "" {
		return fmt.Errorf("https ca_key_file is required when ca_cert_file is set")
	}

	return nil
}

func validateBaseURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme, got: %q", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host: %q", name, raw)
	}
	return nil
}
