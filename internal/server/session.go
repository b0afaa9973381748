package server

import (
	"context"
	"log/slog"

	"github.com/vango-dev/navrouter/pkg/history"
	"github.com/vango-dev/navrouter/pkg/routepath"
	"github.com/vango-dev/navrouter/pkg/router"
)

// View is the render frame body sent to the tab after every resolution.
type View struct {
	Matched bool              `json:"matched"`
	ID      string            `json:"id,omitempty"`
	Index   int               `json:"index"`
	Path    string            `json:"path"`
	URL     string            `json:"url"`
	Params  map[string]string `json:"params,omitempty"`
	Hops    int               `json:"hops,omitempty"`
	Body    any               `json:"body,omitempty"`
}

// Session is one connected tab: a Remote history and the router driving it.
// Everything after construction runs on the goroutine calling Serve.
type Session struct {
	remote *history.Remote
	router *router.Router
	routes []router.Entry
	logger *slog.Logger

	unsubscribe []func()
}

func newSession(remote *history.Remote, config *Config, metrics *router.Metrics, logger *slog.Logger) *Session {
	s := &Session{
		remote: remote,
		routes: config.Routes,
		logger: logger.With("session", remote.ID()),
	}
	s.router = router.New(
		router.WithHistory(remote),
		router.WithoutDefault(),
		router.WithParseURL(config.ParseURL),
		router.WithMaxRedirects(config.MaxRedirects),
		router.WithMetrics(metrics),
		router.WithLogger(s.logger),
	)

	unsubscribe, _ := s.router.OnChange(router.FieldSelection, func(newV, _ any) {
		sel, _ := newV.(*router.Selection)
		s.render(sel)
	})
	s.unsubscribe = append(s.unsubscribe, unsubscribe, remote.OnClick(s.click))
	return s
}

// ID returns the connection identifier.
func (s *Session) ID() string {
	return s.remote.ID()
}

// Router returns the session's router.
func (s *Session) Router() *router.Router {
	return s.router
}

// Serve registers the routes, which renders the first view, and then
// processes frames from the tab until it disconnects or ctx is done.
func (s *Session) Serve(ctx context.Context) error {
	defer s.dispose()

	s.router.SetRoutes(s.routes)
	return s.remote.Serve(ctx)
}

// Close disconnects the tab.
func (s *Session) Close() error {
	return s.remote.Close()
}

func (s *Session) dispose() {
	for _, fn := range s.unsubscribe {
		fn()
	}
	s.router.Dispose()
}

func (s *Session) render(sel *router.Selection) {
	if err := s.remote.Render(s.view(sel)); err != nil {
		s.logger.Warn("render failed", "error", err)
	}
}

func (s *Session) view(sel *router.Selection) View {
	v := View{
		Index: -1,
		Path:  s.router.ActivePath(),
		URL:   s.router.URL().String(),
	}
	if sel == nil {
		return v
	}
	v.Matched = true
	v.ID = sel.Entry.ID
	v.Index = sel.Index
	v.Path = sel.ActivePath
	v.Params = sel.Params
	v.Hops = sel.Hops
	v.Body = sel.Payload()
	return v
}

// click routes a link click through the link helper. When the helper leaves
// the default action alone the tab is told to navigate natively. Targets
// that are not rooted in-app paths are always followed natively.
func (s *Session) click(msg history.ClickMessage) {
	target, err := routepath.ValidateNavPath(msg.Href)
	if err != nil {
		s.logger.Debug("following non-app link natively", "href", msg.Href, "reason", err)
		s.follow(msg.Href)
		return
	}

	ev := &router.MouseEvent{
		Button:   msg.Button,
		Which:    msg.Which,
		CtrlKey:  msg.CtrlKey,
		ShiftKey: msg.ShiftKey,
		AltKey:   msg.AltKey,
		MetaKey:  msg.MetaKey,
	}
	s.router.Href(target).OnClick(ev)

	if !ev.DefaultPrevented() {
		s.follow(msg.Href)
	}
}

func (s *Session) follow(href string) {
	if err := s.remote.Follow(href); err != nil {
		s.logger.Warn("follow failed", "href", href, "error", err)
	}
}
