package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vango-dev/navrouter/pkg/routepath"
	"github.com/vango-dev/navrouter/pkg/router"
)

// Config configures a Server.
type Config struct {
	// Addr is the listen address for Run.
	// Default: ":8080".
	Addr string

	// WSPath is the WebSocket endpoint.
	// Default: "/ws".
	WSPath string

	// MetricsPath is the Prometheus endpoint. Empty disables it.
	MetricsPath string

	// Routes is the route list every session resolves.
	Routes []router.Entry

	// ParseURL derives each session's active path.
	// Default: routepath.LowerPath.
	ParseURL routepath.ParseFunc

	// MaxRedirects bounds one redirect chain. Values below 1 select
	// router.DefaultMaxRedirects.
	MaxRedirects int

	// CheckOrigin validates the Origin header of WebSocket upgrades.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// HandshakeTimeout bounds the wait for a tab's hello frame.
	// Default: 10s.
	HandshakeTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown in Run.
	// Default: 10s.
	ShutdownTimeout time.Duration

	// Registry receives the server and router metrics and backs
	// MetricsPath. Default: a new prometheus.Registry.
	Registry *prometheus.Registry

	// Logger is the server logger.
	// Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with defaults filled in.
func DefaultConfig() *Config {
	return &Config{
		Addr:             ":8080",
		WSPath:           "/ws",
		MetricsPath:      "/metrics",
		ParseURL:         routepath.LowerPath,
		CheckOrigin:      SameOriginCheck,
		HandshakeTimeout: 10 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	if c.WSPath == "" {
		c.WSPath = d.WSPath
	}
	if c.ParseURL == nil {
		c.ParseURL = d.ParseURL
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = d.CheckOrigin
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = d.HandshakeTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.Registry == nil {
		c.Registry = prometheus.NewRegistry()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// SameOriginCheck accepts requests without an Origin header and requests
// whose Origin host equals the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if r.Host == "" {
		return false
	}
	return originURL.Host == r.Host
}

// AllowOrigins returns a CheckOrigin that accepts same-origin requests and
// the listed origins ("scheme://host[:port]"). An empty list is
// SameOriginCheck.
func AllowOrigins(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return SameOriginCheck
	}
	allowed := slices.Clone(origins)
	return func(r *http.Request) bool {
		if SameOriginCheck(r) {
			return true
		}
		return slices.Contains(allowed, r.Header.Get("Origin"))
	}
}
