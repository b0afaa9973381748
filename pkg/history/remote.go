package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/navrouter/internal/errors"
)

// Frame types sent by the browser tab.
const (
	FrameHello    = "hello"
	FramePopState = "popstate"
	FrameClick    = "click"
)

// Operations sent to the browser tab.
const (
	OpFollow = "follow"
	OpRender = "render"
)

// ClientFrame is a message from the browser tab.
type ClientFrame struct {
	Type string `json:"type"`
	Href string `json:"href,omitempty"`
	Base string `json:"base,omitempty"`

	// Click fields.
	Button   int  `json:"button,omitempty"`
	Which    int  `json:"which,omitempty"`
	CtrlKey  bool `json:"ctrlKey,omitempty"`
	ShiftKey bool `json:"shiftKey,omitempty"`
	AltKey   bool `json:"altKey,omitempty"`
	MetaKey  bool `json:"metaKey,omitempty"`
}

// ServerFrame is a message to the browser tab.
type ServerFrame struct {
	Op   string `json:"op"`
	Href string `json:"href,omitempty"`
	Body any    `json:"body,omitempty"`
}

// ClickMessage is a click on a navigation element, as reported by the tab.
type ClickMessage struct {
	Href     string
	Button   int
	Which    int
	CtrlKey  bool
	ShiftKey bool
	AltKey   bool
	MetaKey  bool
}

// RemoteOption configures a Remote history.
type RemoteOption func(*remoteConfig)

type remoteConfig struct {
	handshakeTimeout time.Duration
	writeTimeout     time.Duration
	readLimit        int64
	logger           *slog.Logger
}

// WithHandshakeTimeout bounds the wait for the hello frame (default 10s).
func WithHandshakeTimeout(d time.Duration) RemoteOption {
	return func(c *remoteConfig) {
		c.handshakeTimeout = d
	}
}

// WithWriteTimeout bounds each frame write (default 5s).
func WithWriteTimeout(d time.Duration) RemoteOption {
	return func(c *remoteConfig) {
		c.writeTimeout = d
	}
}

// WithReadLimit caps the size of an incoming frame (default 64KB).
func WithReadLimit(n int64) RemoteOption {
	return func(c *remoteConfig) {
		c.readLimit = n
	}
}

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(l *slog.Logger) RemoteOption {
	return func(c *remoteConfig) {
		c.logger = l
	}
}

// Remote is a History backed by a browser tab on the other end of a
// WebSocket. Listener callbacks run on the goroutine executing Serve.
type Remote struct {
	id     string
	conn   *websocket.Conn
	config remoteConfig
	logger *slog.Logger

	// mu protects location, base and closed.
	mu       sync.Mutex
	location *url.URL
	base     *url.URL
	closed   bool

	// writeMu serializes frame writes.
	writeMu sync.Mutex

	pop    listeners[func()]
	clicks listeners[func(ClickMessage)]
}

// NewRemote waits for the tab's hello frame, which carries its absolute
// location and base URI, and returns a Remote ready to Serve.
func NewRemote(conn *websocket.Conn, opts ...RemoteOption) (*Remote, error) {
	config := remoteConfig{
		handshakeTimeout: 10 * time.Second,
		writeTimeout:     5 * time.Second,
		readLimit:        64 * 1024,
	}
	for _, opt := range opts {
		opt(&config)
	}

	logger := config.logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Remote{
		id:     uuid.NewString(),
		conn:   conn,
		config: config,
	}
	r.logger = logger.With("remote", r.id)

	conn.SetReadLimit(config.readLimit)
	_ = conn.SetReadDeadline(time.Now().Add(config.handshakeTimeout))

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, errors.New(errors.CodeHandshakeFailed).Wrap(err)
	}

	var hello ClientFrame
	if err := json.Unmarshal(msg, &hello); err != nil {
		return nil, errors.New(errors.CodeHandshakeFailed).Wrap(err)
	}
	if hello.Type != FrameHello {
		return nil, errors.New(errors.CodeHandshakeFailed).
			WithDetailf("expected %q frame, got %q", FrameHello, hello.Type)
	}

	location, err := url.Parse(hello.Href)
	if err != nil || !location.IsAbs() {
		return nil, errors.New(errors.CodeHandshakeFailed).
			WithDetailf("hello href %q is not an absolute URL", hello.Href)
	}
	r.location = location

	if hello.Base != "" {
		base, err := url.Parse(hello.Base)
		if err != nil || !base.IsAbs() {
			return nil, errors.New(errors.CodeHandshakeFailed).
				WithDetailf("hello base %q is not an absolute URL", hello.Base)
		}
		r.base = base
	}

	_ = conn.SetReadDeadline(time.Time{})
	r.logger.Debug("remote history connected", "location", location.String())
	return r, nil
}

// ID returns the connection identifier.
func (r *Remote) ID() string {
	return r.id
}

// Location implements History.
func (r *Remote) Location() *url.URL {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneURL(r.location)
}

// BaseURI implements History.
func (r *Remote) BaseURI() *url.URL {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.baseLocked()
}

func (r *Remote) baseLocked() *url.URL {
	if r.base != nil {
		return cloneURL(r.base)
	}
	return cloneURL(r.location)
}

// PushState implements History.
func (r *Remote) PushState(href string) error {
	return r.mutate(OpPush, href)
}

// ReplaceState implements History.
func (r *Remote) ReplaceState(href string) error {
	return r.mutate(OpReplace, href)
}

func (r *Remote) mutate(kind OpKind, href string) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return errors.New(errors.CodeRemoteClosed)
	}
	u, err := Resolve(r.baseLocked(), href)
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("history: %s %q: %w", kind, href, err)
	}
	r.location = u
	r.mu.Unlock()

	return r.send(ServerFrame{Op: string(kind), Href: u.String()})
}

// OnPopState implements History.
func (r *Remote) OnPopState(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	return r.pop.add(fn)
}

// OnClick registers a listener for link clicks reported by the tab.
func (r *Remote) OnClick(fn func(ClickMessage)) func() {
	if fn == nil {
		return func() {}
	}
	return r.clicks.add(fn)
}

// Follow tells the tab to perform a native navigation to href.
func (r *Remote) Follow(href string) error {
	return r.send(ServerFrame{Op: OpFollow, Href: href})
}

// Render sends view output to the tab.
func (r *Remote) Render(body any) error {
	return r.send(ServerFrame{Op: OpRender, Body: body})
}

func (r *Remote) send(frame ServerFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("history: encode %s frame: %w", frame.Op, err)
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	_ = r.conn.SetWriteDeadline(time.Now().Add(r.config.writeTimeout))
	if err := r.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.New(errors.CodeRemoteClosed).Wrap(err)
	}
	return nil
}

// Serve reads frames until the connection closes or ctx is done. Pop-state
// and click listeners run on the calling goroutine. A normal close returns
// nil.
func (r *Remote) Serve(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			_ = r.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := r.conn.ReadMessage()
		if err != nil {
			closedLocally := r.markClosed()
			if closedLocally || ctx.Err() != nil ||
				websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return errors.New(errors.CodeRemoteClosed).Wrap(err)
		}

		var frame ClientFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			r.logger.Warn("dropping malformed frame",
				"error", errors.New(errors.CodeRemoteProtocol).Wrap(err))
			continue
		}
		r.dispatch(frame)
	}
}

func (r *Remote) dispatch(frame ClientFrame) {
	switch frame.Type {
	case FramePopState:
		r.mu.Lock()
		u, err := Resolve(r.baseLocked(), frame.Href)
		if err == nil {
			r.location = u
		}
		r.mu.Unlock()

		if err != nil {
			r.logger.Warn("dropping popstate frame", "href", frame.Href, "error", err)
			return
		}
		for _, fn := range r.pop.snapshot() {
			fn()
		}

	case FrameClick:
		msg := ClickMessage{
			Href:     frame.Href,
			Button:   frame.Button,
			Which:    frame.Which,
			CtrlKey:  frame.CtrlKey,
			ShiftKey: frame.ShiftKey,
			AltKey:   frame.AltKey,
			MetaKey:  frame.MetaKey,
		}
		for _, fn := range r.clicks.snapshot() {
			fn(msg)
		}

	default:
		r.logger.Debug("ignoring frame", "type", frame.Type)
	}
}

// markClosed marks the connection closed and reports whether Close had
// already been called.
func (r *Remote) markClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	was := r.closed
	r.closed = true
	return was
}

// Close sends a close frame and closes the connection.
func (r *Remote) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.writeMu.Lock()
	_ = r.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	r.writeMu.Unlock()

	return r.conn.Close()
}
