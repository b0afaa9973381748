package config

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/vango-dev/navrouter/internal/errors"
	"github.com/vango-dev/navrouter/pkg/routepath"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "navrouter.json"

	// DefaultBaseURL is the location resolve starts from when given a bare
	// path.
	DefaultBaseURL = "http://localhost/"

	// DefaultAddr is the default serve address.
	DefaultAddr = ":8080"

	// DefaultMaxRedirects bounds one redirect chain.
	DefaultMaxRedirects = 16
)

// Parse modes.
const (
	ParseLower     = "lower"
	ParseCanonical = "canonical"
	ParseExact     = "exact"
)

// Config represents navrouter.json.
type Config struct {
	// Routes is the route manifest location: a file path or s3://bucket/key.
	Routes string `json:"routes,omitempty"`

	// BaseURL is the absolute URL relative targets resolve against.
	BaseURL string `json:"baseURL,omitempty"`

	// Parse selects the active-path parse function.
	Parse string `json:"parse,omitempty"`

	// MaxRedirects bounds one redirect chain.
	MaxRedirects int `json:"maxRedirects,omitempty"`

	// Serve contains serve command settings.
	Serve ServeConfig `json:"serve,omitempty"`

	// Log contains logging settings.
	Log LogConfig `json:"log,omitempty"`

	// S3 contains settings for s3:// manifests.
	S3 S3Config `json:"s3,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServeConfig contains serve command settings.
type ServeConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty"`

	// WSPath is the WebSocket endpoint path.
	WSPath string `json:"wsPath,omitempty"`

	// MetricsPath is the Prometheus endpoint path.
	MetricsPath string `json:"metricsPath,omitempty"`

	// AllowedOrigins lists origins allowed to open a WebSocket. Empty
	// allows same-origin requests only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// S3Config contains settings for s3:// manifests.
type S3Config struct {
	// Region is the AWS region.
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint (e.g., MinIO).
	Endpoint string `json:"endpoint,omitempty"`

	// PathStyle enables path-style addressing.
	PathStyle bool `json:"pathStyle,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads navrouter.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigUnreadable).
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path))
		}
		return nil, errors.New(errors.CodeConfigUnreadable).Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigUnreadable).
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads navrouter.json from dir, or returns the defaults
// when the file does not exist.
func LoadOrDefault(dir string) (*Config, error) {
	if !Exists(dir) {
		return New(), nil
	}
	return Load(dir)
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Parse == "" {
		c.Parse = ParseLower
	}
	if c.MaxRedirects == 0 {
		c.MaxRedirects = DefaultMaxRedirects
	}

	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
	if c.Serve.WSPath == "" {
		c.Serve.WSPath = "/ws"
	}
	if c.Serve.MetricsPath == "" {
		c.Serve.MetricsPath = "/metrics"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || !u.IsAbs() {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("baseURL must be an absolute URL, got " + c.BaseURL)
	}

	switch c.Parse {
	case ParseLower, ParseCanonical, ParseExact:
	default:
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("parse must be lower, canonical or exact, got " + c.Parse).
			WithSuggestion(`Set "parse": "lower" to match on the lower-cased path`)
	}

	if c.MaxRedirects < 0 {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("maxRedirects must not be negative")
	}

	if !strings.HasPrefix(c.Serve.WSPath, "/") || !strings.HasPrefix(c.Serve.MetricsPath, "/") {
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("serve.wsPath and serve.metricsPath must start with /")
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New(errors.CodeConfigInvalid).
			WithDetail("log.format must be text or json, got " + c.Log.Format)
	}

	return nil
}

// ParseFunc returns the active-path parse function selected by Parse.
func (c *Config) ParseFunc() routepath.ParseFunc {
	switch c.Parse {
	case ParseCanonical:
		return routepath.CanonicalLowerPath
	case ParseExact:
		return routepath.ExactPath
	default:
		return routepath.LowerPath
	}
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, errors.New(errors.CodeConfigInvalid).
			WithDetail("log.level must be debug, info, warn or error, got " + c.Log.Level)
	}
	return level, nil
}

// IsS3Routes reports whether the manifest lives in S3.
func (c *Config) IsS3Routes() bool {
	return strings.HasPrefix(c.Routes, "s3://")
}

// RoutesPath returns the manifest location. Relative file paths resolve
// against the config file's directory; s3:// URLs are returned unchanged.
func (c *Config) RoutesPath() string {
	if c.Routes == "" || c.IsS3Routes() || filepath.IsAbs(c.Routes) {
		return c.Routes
	}
	return filepath.Join(c.Dir(), c.Routes)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
