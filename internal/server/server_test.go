package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/navrouter/pkg/history"
	"github.com/vango-dev/navrouter/pkg/match"
	"github.com/vango-dev/navrouter/pkg/router"
)

type tabFrame struct {
	Op   string `json:"op"`
	Href string `json:"href"`
	Body View   `json:"body"`
}

func testRoutes() []router.Entry {
	return []router.Entry{
		router.Static(match.Exact("/"), "Home").WithID("home"),
		router.Static(match.Exact("/about"), "About").WithID("about"),
		router.Route(match.MustTemplate("/users/:id"), func(p match.Params) any {
			return "User " + p["id"]
		}).WithID("user"),
		router.Redirect(match.Exact("/old"), "/about").WithID("old"),
	}
}

func newTestServer(t *testing.T, mutate func(*Config)) (*Server, *httptest.Server) {
	t.Helper()
	config := DefaultConfig()
	config.Routes = testRoutes()
	config.HandshakeTimeout = time.Second
	config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	if mutate != nil {
		mutate(config)
	}

	s := New(config)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func dialTab(t *testing.T, ts *httptest.Server, href string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	send(t, conn, history.ClientFrame{Type: history.FrameHello, Href: href})
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame history.ClientFrame) {
	t.Helper()
	data, err := json.Marshal(frame)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func receive(t *testing.T, conn *websocket.Conn) tabFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame tabFrame
	require.NoError(t, json.Unmarshal(msg, &frame), "frame %s", msg)
	return frame
}

func TestSessionInitialRender(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dialTab(t, ts, "http://app.test/users/42")

	frame := receive(t, conn)
	assert.Equal(t, history.OpRender, frame.Op)
	assert.True(t, frame.Body.Matched)
	assert.Equal(t, "user", frame.Body.ID)
	assert.Equal(t, 2, frame.Body.Index)
	assert.Equal(t, "User 42", frame.Body.Body)
	assert.Equal(t, map[string]string{"id": "42"}, frame.Body.Params)
	assert.Equal(t, "http://app.test/users/42", frame.Body.URL)
}

func TestSessionUnmatched(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dialTab(t, ts, "http://app.test/Nowhere")

	frame := receive(t, conn)
	assert.Equal(t, history.OpRender, frame.Op)
	assert.False(t, frame.Body.Matched)
	assert.Equal(t, -1, frame.Body.Index)
	assert.Equal(t, "/nowhere", frame.Body.Path)
}

func TestSessionRedirectReplacesTabLocation(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dialTab(t, ts, "http://app.test/old")

	frame := receive(t, conn)
	assert.Equal(t, string(history.OpReplace), frame.Op)
	assert.Equal(t, "http://app.test/about", frame.Href)

	frame = receive(t, conn)
	assert.Equal(t, history.OpRender, frame.Op)
	assert.Equal(t, "about", frame.Body.ID)
	assert.Equal(t, 1, frame.Body.Hops)
}

func TestSessionClick(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dialTab(t, ts, "http://app.test/")
	assert.Equal(t, "home", receive(t, conn).Body.ID)

	send(t, conn, history.ClientFrame{Type: history.FrameClick, Href: "/about"})

	frame := receive(t, conn)
	assert.Equal(t, string(history.OpPush), frame.Op)
	assert.Equal(t, "http://app.test/about", frame.Href)

	frame = receive(t, conn)
	assert.Equal(t, history.OpRender, frame.Op)
	assert.Equal(t, "about", frame.Body.ID)
}

func TestSessionNativeClickFollows(t *testing.T) {
	tests := []struct {
		name  string
		frame history.ClientFrame
	}{
		{name: "ctrl", frame: history.ClientFrame{CtrlKey: true}},
		{name: "meta", frame: history.ClientFrame{MetaKey: true}},
		{name: "middle button", frame: history.ClientFrame{Button: 1}},
		{name: "middle which", frame: history.ClientFrame{Which: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ts := newTestServer(t, nil)
			conn := dialTab(t, ts, "http://app.test/")
			receive(t, conn)

			click := tt.frame
			click.Type = history.FrameClick
			click.Href = "/about"
			send(t, conn, click)

			frame := receive(t, conn)
			assert.Equal(t, history.OpFollow, frame.Op)
			assert.Equal(t, "/about", frame.Href)
		})
	}
}

func TestSessionExternalLinkFollows(t *testing.T) {
	tests := []string{
		"https://elsewhere.test/page",
		"//cdn.test/file",
		"relative/path",
		"/a/../../etc",
	}

	for _, href := range tests {
		t.Run(href, func(t *testing.T) {
			_, ts := newTestServer(t, nil)
			conn := dialTab(t, ts, "http://app.test/")
			receive(t, conn)

			send(t, conn, history.ClientFrame{Type: history.FrameClick, Href: href})

			frame := receive(t, conn)
			assert.Equal(t, history.OpFollow, frame.Op)
			assert.Equal(t, href, frame.Href)
		})
	}
}

func TestSessionClickCanonicalizesTarget(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dialTab(t, ts, "http://app.test/")
	receive(t, conn)

	send(t, conn, history.ClientFrame{Type: history.FrameClick, Href: "/about/./"})

	frame := receive(t, conn)
	assert.Equal(t, string(history.OpPush), frame.Op)
	assert.Equal(t, "http://app.test/about", frame.Href)
}

func TestSessionPopState(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dialTab(t, ts, "http://app.test/about")
	assert.Equal(t, "about", receive(t, conn).Body.ID)

	send(t, conn, history.ClientFrame{Type: history.FramePopState, Href: "http://app.test/"})

	frame := receive(t, conn)
	assert.Equal(t, history.OpRender, frame.Op)
	assert.Equal(t, "home", frame.Body.ID)
}

func TestSessionTracking(t *testing.T) {
	s, ts := newTestServer(t, nil)
	conn := dialTab(t, ts, "http://app.test/")
	receive(t, conn)
	assert.Equal(t, 1, s.SessionCount())

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	assert.Eventually(t, func() bool { return s.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHandshakeFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, ts := newTestServer(t, func(c *Config) { c.Registry = reg })

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	send(t, conn, history.ClientFrame{Type: history.FrameHello, Href: "/relative"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "server should drop the connection")
	assert.Zero(t, s.SessionCount())
}

func TestHealthAndMetrics(t *testing.T) {
	_, ts := newTestServer(t, nil)
	conn := dialTab(t, ts, "http://app.test/")
	receive(t, conn)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 1, health.Sessions)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `navrouter_resolutions_total{result="matched"} 1`)
	assert.Contains(t, string(body), "navrouter_server_sessions_active 1")
}

func TestOriginCheck(t *testing.T) {
	_, ts := newTestServer(t, func(c *Config) {
		c.CheckOrigin = AllowOrigins([]string{"https://app.example.com"})
	})
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	header = http.Header{"Origin": []string{"https://app.example.com"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	conn.Close()
}

func TestSameOriginCheck(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{origin: "", want: true},
		{origin: "http://app.test", want: true},
		{origin: "http://other.test", want: false},
		{origin: "://bad", want: false},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "http://app.test/ws", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, SameOriginCheck(req), tt.origin)
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s := New(&Config{
		Routes: testRoutes(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	send(t, conn, history.ClientFrame{Type: history.FrameHello, Href: "http://app.test/"})
	receive(t, conn)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
	assert.Eventually(t, func() bool { return s.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
