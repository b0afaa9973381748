package history

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/navrouter/internal/errors"
)

type remoteHarness struct {
	server  *httptest.Server
	remotes chan *Remote
	errs    chan error
	served  chan error
}

// newRemoteHarness starts a WebSocket server that wraps each connection in a
// Remote. setup runs before Serve so listeners can be attached in time.
func newRemoteHarness(t *testing.T, setup func(*Remote)) *remoteHarness {
	t.Helper()

	h := &remoteHarness{
		remotes: make(chan *Remote, 1),
		errs:    make(chan error, 1),
		served:  make(chan error, 1),
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			h.errs <- err
			return
		}
		remote, err := NewRemote(conn, WithHandshakeTimeout(time.Second))
		if err != nil {
			conn.Close()
			h.errs <- err
			return
		}
		if setup != nil {
			setup(remote)
		}
		h.remotes <- remote
		h.served <- remote.Serve(req.Context())
	}))
	t.Cleanup(h.server.Close)
	return h
}

func (h *remoteHarness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(h.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (h *remoteHarness) remote(t *testing.T) *Remote {
	t.Helper()
	select {
	case r := <-h.remotes:
		return r
	case err := <-h.errs:
		t.Fatalf("server error = %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for remote")
	}
	return nil
}

func sendFrame(t *testing.T, conn *websocket.Conn, frame ClientFrame) {
	t.Helper()
	data, err := json.Marshal(frame)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) ServerFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var frame ServerFrame
	if err := json.Unmarshal(msg, &frame); err != nil {
		t.Fatalf("bad server frame %q: %v", msg, err)
	}
	return frame
}

func TestRemoteHandshake(t *testing.T) {
	h := newRemoteHarness(t, nil)
	conn := h.dial(t)
	sendFrame(t, conn, ClientFrame{
		Type: FrameHello,
		Href: "https://app.test/Home?tab=1",
		Base: "https://app.test/",
	})

	r := h.remote(t)
	if r.ID() == "" {
		t.Error("ID() should not be empty")
	}
	if got := r.Location().String(); got != "https://app.test/Home?tab=1" {
		t.Errorf("Location() = %q", got)
	}
	if got := r.BaseURI().String(); got != "https://app.test/" {
		t.Errorf("BaseURI() = %q", got)
	}
}

func TestRemoteHandshakeRejectsBadHello(t *testing.T) {
	tests := []struct {
		name  string
		frame ClientFrame
	}{
		{name: "wrong type", frame: ClientFrame{Type: FramePopState, Href: "https://app.test/"}},
		{name: "relative href", frame: ClientFrame{Type: FrameHello, Href: "/home"}},
		{name: "relative base", frame: ClientFrame{Type: FrameHello, Href: "https://app.test/", Base: "/app/"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRemoteHarness(t, nil)
			conn := h.dial(t)
			sendFrame(t, conn, tt.frame)

			select {
			case err := <-h.errs:
				if !stderrors.Is(err, errors.New(errors.CodeHandshakeFailed)) {
					t.Errorf("error = %v, want %s", err, errors.CodeHandshakeFailed)
				}
			case <-h.remotes:
				t.Fatal("handshake should have failed")
			case <-time.After(2 * time.Second):
				t.Fatal("timeout waiting for handshake error")
			}
		})
	}
}

func TestRemotePushReplaceFrames(t *testing.T) {
	h := newRemoteHarness(t, nil)
	conn := h.dial(t)
	sendFrame(t, conn, ClientFrame{Type: FrameHello, Href: "https://app.test/start"})
	r := h.remote(t)

	if err := r.PushState("/next"); err != nil {
		t.Fatalf("PushState() error = %v", err)
	}
	frame := readFrame(t, conn)
	if frame.Op != string(OpPush) || frame.Href != "https://app.test/next" {
		t.Errorf("push frame = %+v", frame)
	}

	if err := r.ReplaceState("final"); err != nil {
		t.Fatalf("ReplaceState() error = %v", err)
	}
	frame = readFrame(t, conn)
	if frame.Op != string(OpReplace) || frame.Href != "https://app.test/final" {
		t.Errorf("replace frame = %+v", frame)
	}
	if got := r.Location().Path; got != "/final" {
		t.Errorf("Location().Path = %q", got)
	}
}

func TestRemoteFollowAndRender(t *testing.T) {
	h := newRemoteHarness(t, nil)
	conn := h.dial(t)
	sendFrame(t, conn, ClientFrame{Type: FrameHello, Href: "https://app.test/"})
	r := h.remote(t)

	if err := r.Follow("https://elsewhere.test/"); err != nil {
		t.Fatalf("Follow() error = %v", err)
	}
	frame := readFrame(t, conn)
	if frame.Op != OpFollow || frame.Href != "https://elsewhere.test/" {
		t.Errorf("follow frame = %+v", frame)
	}

	if err := r.Render(map[string]string{"view": "home"}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	frame = readFrame(t, conn)
	body, ok := frame.Body.(map[string]any)
	if frame.Op != OpRender || !ok || body["view"] != "home" {
		t.Errorf("render frame = %+v", frame)
	}
}

func TestRemotePopStateAndClick(t *testing.T) {
	pops := make(chan string, 1)
	clicks := make(chan ClickMessage, 1)

	h := newRemoteHarness(t, func(r *Remote) {
		r.OnPopState(func() { pops <- r.Location().Path })
		r.OnClick(func(msg ClickMessage) { clicks <- msg })
	})
	conn := h.dial(t)
	sendFrame(t, conn, ClientFrame{Type: FrameHello, Href: "https://app.test/a"})
	h.remote(t)

	// Malformed frames are skipped without closing the connection.
	if err := conn.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	sendFrame(t, conn, ClientFrame{Type: FramePopState, Href: "https://app.test/b"})
	select {
	case path := <-pops:
		if path != "/b" {
			t.Errorf("pop-state location = %q, want /b", path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for pop-state")
	}

	sendFrame(t, conn, ClientFrame{Type: FrameClick, Href: "/c", Which: 2, MetaKey: true})
	select {
	case msg := <-clicks:
		if msg.Href != "/c" || msg.Which != 2 || !msg.MetaKey {
			t.Errorf("click = %+v", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for click")
	}
}

func TestRemoteServeNormalClose(t *testing.T) {
	h := newRemoteHarness(t, nil)
	conn := h.dial(t)
	sendFrame(t, conn, ClientFrame{Type: FrameHello, Href: "https://app.test/"})
	r := h.remote(t)

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	select {
	case err := <-h.served:
		if err != nil {
			t.Errorf("Serve() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for Serve to return")
	}

	if err := r.PushState("/late"); !stderrors.Is(err, errors.New(errors.CodeRemoteClosed)) {
		t.Errorf("PushState() after close error = %v, want %s", err, errors.CodeRemoteClosed)
	}
}

func TestRemoteServeContextCancel(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	served := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			served <- err
			return
		}
		remote, err := NewRemote(conn)
		if err != nil {
			served <- err
			return
		}
		served <- remote.Serve(ctx)
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	sendFrame(t, conn, ClientFrame{Type: FrameHello, Href: "https://app.test/"})

	// Give the server time to enter Serve.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-served:
		if err != nil {
			t.Errorf("Serve() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for Serve to return")
	}
}
