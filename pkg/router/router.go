package router

import (
	"log/slog"
	"net/url"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/navrouter/internal/errors"
	"github.com/vango-dev/navrouter/pkg/history"
	"github.com/vango-dev/navrouter/pkg/routepath"
	"github.com/vango-dev/navrouter/pkg/store"
)

// Store field names, for OnChange.
const (
	FieldURL        = "url"
	FieldActivePath = "activePath"
	FieldRoutes     = "routes"
	FieldSelection  = "selection"
)

// DefaultMaxRedirects bounds one redirect chain unless WithMaxRedirects
// says otherwise.
const DefaultMaxRedirects = 16

// DefaultStartURL is the location of the in-memory history a router gets
// when no History is supplied.
const DefaultStartURL = "http://localhost/"

const tracerName = "navrouter"

// Option configures a Router.
type Option func(*options)

type options struct {
	parse        routepath.ParseFunc
	serialize    routepath.SerializeFunc
	history      history.History
	logger       *slog.Logger
	maxRedirects int
	metrics      *Metrics
	tracer       trace.Tracer
	detached     bool
}

// WithParseURL sets how the active path is derived from the URL.
// Default: routepath.LowerPath.
func WithParseURL(fn routepath.ParseFunc) Option {
	return func(o *options) {
		o.parse = fn
	}
}

// WithSerializeURL sets the inverse of the parse function. The router does
// not use it while resolving; it is exposed through SerializeURL.
// Default: resolve against the history's base URI.
func WithSerializeURL(fn routepath.SerializeFunc) Option {
	return func(o *options) {
		o.serialize = fn
	}
}

// WithHistory sets the host history. Default: an in-memory history at
// DefaultStartURL.
func WithHistory(h history.History) Option {
	return func(o *options) {
		o.history = h
	}
}

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMaxRedirects bounds the number of redirects one resolve pass may
// follow. Values below 1 select DefaultMaxRedirects.
func WithMaxRedirects(n int) Option {
	return func(o *options) {
		o.maxRedirects = n
	}
}

// WithMetrics reports resolutions and navigations to m.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracer sets the tracer for resolve spans. Default:
// otel.Tracer("navrouter") from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithoutDefault keeps the router out of the process-wide default slot.
func WithoutDefault() Option {
	return func(o *options) {
		o.detached = true
	}
}

// Router resolves an ordered route list against the current location.
type Router struct {
	history      history.History
	parse        routepath.ParseFunc
	serialize    routepath.SerializeFunc
	logger       *slog.Logger
	maxRedirects int
	metrics      *Metrics
	tracer       trace.Tracer

	state      *store.Store
	url        *store.Field[*url.URL]
	activePath *store.Field[string]
	routes     *store.Field[[]Entry]
	selection  *store.Field[*Selection]

	unsubscribe []func()
	disposed    atomic.Bool

	// resolving is set while a resolve pass runs so the pass's own redirect
	// pushes do not start nested passes.
	resolving bool
}

// New creates a router, syncs it with the history's current location and
// starts listening for pop-state notifications.
func New(opts ...Option) *Router {
	o := options{
		parse:        routepath.LowerPath,
		maxRedirects: DefaultMaxRedirects,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.parse == nil {
		o.parse = routepath.LowerPath
	}
	if o.history == nil {
		o.history = history.MustMemory(DefaultStartURL)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.maxRedirects < 1 {
		o.maxRedirects = DefaultMaxRedirects
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracerName)
	}

	r := &Router{
		history:      o.history,
		parse:        o.parse,
		serialize:    o.serialize,
		logger:       o.logger,
		maxRedirects: o.maxRedirects,
		metrics:      o.metrics,
		tracer:       o.tracer,
		state:        store.New(),
	}

	start := r.history.Location()
	r.url = store.NewField(r.state, FieldURL, start, store.WithEquals(sameURL))
	r.activePath = store.NewField(r.state, FieldActivePath, r.parse(start))
	r.routes = store.NewField(r.state, FieldRoutes, []Entry(nil), store.NeverEqual[[]Entry]())
	r.selection = store.NewField(r.state, FieldSelection, (*Selection)(nil), store.NeverEqual[*Selection]())

	r.unsubscribe = append(r.unsubscribe,
		r.routes.OnChange(func([]Entry, []Entry) { r.refresh() }),
	)

	r.sync()
	r.unsubscribe = append(r.unsubscribe, r.history.OnPopState(r.popState))

	if !o.detached {
		setDefault(r)
	}
	return r
}

func sameURL(a, b *url.URL) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String()
}

// URL returns the current location.
func (r *Router) URL() *url.URL {
	return r.url.Get()
}

// ActivePath returns the string routes are matched against.
func (r *Router) ActivePath() string {
	return r.activePath.Get()
}

// Selection returns the result of the most recent resolution, or nil.
func (r *Router) Selection() *Selection {
	return r.selection.Get()
}

// Routes returns the registered route list.
func (r *Router) Routes() []Entry {
	return r.routes.Get()
}

// History returns the host history the router drives.
func (r *Router) History() history.History {
	return r.history
}

// SerializeURL turns a path into an absolute URL with the configured
// serialize function, or by resolving it against the history's base URI.
func (r *Router) SerializeURL(path string) *url.URL {
	if r.serialize != nil {
		return r.serialize(path)
	}
	return routepath.ResolveAgainst(r.history.BaseURI())(path)
}

// OnChange subscribes to a store field by name (FieldURL, FieldActivePath,
// FieldRoutes or FieldSelection).
func (r *Router) OnChange(field string, fn func(newV, oldV any)) (func(), error) {
	unsubscribe, err := r.state.OnChange(field, fn)
	if err != nil {
		return unsubscribe, errors.New(errors.CodeUnknownField).
			WithDetailf("field %q", field).
			Wrap(err)
	}
	return unsubscribe, nil
}

// SetRoutes registers the route list and re-resolves.
func (r *Router) SetRoutes(routes []Entry) {
	r.routes.Set(routes)
}

// Switch registers routes and returns the selected entry's payload, or nil
// when nothing matched.
func (r *Router) Switch(routes ...Entry) any {
	if r.disposed.Load() {
		return nil
	}
	r.SetRoutes(routes)
	return r.Selection().Payload()
}

// Disposed reports whether Dispose has been called.
func (r *Router) Disposed() bool {
	return r.disposed.Load()
}

// Dispose stops listening for pop-state notifications, removes every store
// subscriber and releases the default slot if this router holds it. Later
// pushes fail with ErrDisposed.
func (r *Router) Dispose() {
	if !r.disposed.CompareAndSwap(false, true) {
		return
	}
	for _, fn := range r.unsubscribe {
		fn()
	}
	r.unsubscribe = nil
	r.state.Dispose()
	clearDefault(r)
	r.logger.Debug("router disposed")
}

// refresh re-resolves the registered routes after a state change.
func (r *Router) refresh() {
	if r.resolving || r.disposed.Load() {
		return
	}
	routes := r.routes.Get()
	if routes == nil {
		return
	}
	// Failures are logged and counted by Resolve.
	_, _ = r.Resolve(routes)
}

func (r *Router) popState() {
	if r.disposed.Load() {
		return
	}
	r.metrics.navigated("pop")
	r.sync()
}

// sync writes the history's location into url and activePath, in that
// order. A changed activePath re-resolves only after every activePath
// subscriber has seen the new value, so redirect writes are never nested
// inside that fan-out.
func (r *Router) sync() {
	u := r.history.Location()
	prev := r.activePath.Get()
	next := r.parse(u)
	r.url.Set(u)
	r.activePath.Set(next)
	if next != prev {
		r.refresh()
	}
}
