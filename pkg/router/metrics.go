package router

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures router metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "navrouter").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for resolve duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures router metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "navrouter",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors a router reports to. One Metrics
// value may be shared by many routers. A nil *Metrics records nothing.
//
// Series:
//   - navrouter_resolutions_total{result}: resolve passes by outcome
//     (matched, unmatched, error)
//   - navrouter_redirect_hops_total: redirect entries followed
//   - navrouter_redirect_errors_total{kind}: aborted chains (cycle, limit)
//   - navrouter_navigations_total{mode}: history changes (push, replace, pop)
//   - navrouter_resolve_duration_seconds: resolve pass duration
type Metrics struct {
	resolutions     *prometheus.CounterVec
	redirectHops    prometheus.Counter
	redirectErrors  *prometheus.CounterVec
	navigations     *prometheus.CounterVec
	resolveDuration prometheus.Histogram
}

// NewMetrics registers the router collectors.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	m := router.NewMetrics(router.WithRegistry(reg))
//	r := router.New(router.WithMetrics(m))
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "resolutions_total",
			Help:        "Total number of route resolution passes by result",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		redirectHops: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "redirect_hops_total",
			Help:        "Total number of redirect entries followed",
			ConstLabels: config.ConstLabels,
		}),

		redirectErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "redirect_errors_total",
			Help:        "Total number of redirect chains aborted by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		navigations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_total",
			Help:        "Total number of history navigations by mode",
			ConstLabels: config.ConstLabels,
		}, []string{"mode"}),

		resolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "resolve_duration_seconds",
			Help:        "Route resolution duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

func (m *Metrics) resolved(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(result).Inc()
	m.resolveDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) hop() {
	if m == nil {
		return
	}
	m.redirectHops.Inc()
}

func (m *Metrics) redirectFailed(kind string) {
	if m == nil {
		return
	}
	m.redirectErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) navigated(mode string) {
	if m == nil {
		return
	}
	m.navigations.WithLabelValues(mode).Inc()
}
