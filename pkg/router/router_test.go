package router

import (
	stderrors "errors"
	"io"
	"log/slog"
	"net/url"
	"testing"

	"github.com/vango-dev/navrouter/pkg/history"
	"github.com/vango-dev/navrouter/pkg/match"
	"github.com/vango-dev/navrouter/pkg/routepath"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// newTestRouter builds a router over a fresh in-memory history at start.
func newTestRouter(t *testing.T, start string, opts ...Option) (*Router, *history.Memory) {
	t.Helper()
	h := history.MustMemory(start)
	opts = append([]Option{WithHistory(h), WithLogger(quietLogger)}, opts...)
	r := New(opts...)
	t.Cleanup(r.Dispose)
	return r, h
}

func TestNewSyncsWithHistory(t *testing.T) {
	r, _ := newTestRouter(t, "https://x/Users/List?page=2")

	if got := r.URL().String(); got != "https://x/Users/List?page=2" {
		t.Errorf("URL() = %q", got)
	}
	if got := r.ActivePath(); got != "/users/list" {
		t.Errorf("ActivePath() = %q, want /users/list", got)
	}
	if r.Selection() != nil {
		t.Error("Selection() should be nil before any routes are registered")
	}
}

func TestNewDefaults(t *testing.T) {
	r := New(WithLogger(quietLogger))
	defer r.Dispose()

	if got := r.URL().String(); got != DefaultStartURL {
		t.Errorf("URL() = %q, want %q", got, DefaultStartURL)
	}
	if r.maxRedirects != DefaultMaxRedirects {
		t.Errorf("maxRedirects = %d, want %d", r.maxRedirects, DefaultMaxRedirects)
	}
}

func TestWithParseURL(t *testing.T) {
	r, _ := newTestRouter(t, "https://x/Docs/Intro", WithParseURL(routepath.ExactPath))
	if got := r.ActivePath(); got != "/Docs/Intro" {
		t.Errorf("ActivePath() = %q, want /Docs/Intro", got)
	}

	// Relative resolution removes dot segments but keeps case.
	_ = r.Push("/Docs/./Setup/")
	if got := r.ActivePath(); got != "/Docs/Setup/" {
		t.Errorf("ActivePath() = %q", got)
	}

	c, _ := newTestRouter(t, "https://x/Docs/./Setup/", WithParseURL(routepath.CanonicalLowerPath))
	if got := c.ActivePath(); got != "/docs/setup" {
		t.Errorf("canonical ActivePath() = %q, want /docs/setup", got)
	}
}

func TestPushIsSynchronous(t *testing.T) {
	r, h := newTestRouter(t, "https://x/")

	var seen []string
	var urlDuringNotify string
	if _, err := r.OnChange(FieldActivePath, func(newV, oldV any) {
		seen = append(seen, oldV.(string)+" -> "+newV.(string))
		urlDuringNotify = r.URL().Path
	}); err != nil {
		t.Fatalf("OnChange() error = %v", err)
	}

	if err := r.Push("/New"); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	if len(seen) != 1 || seen[0] != "/ -> /new" {
		t.Errorf("activePath notifications = %v", seen)
	}
	if urlDuringNotify != "/New" {
		t.Errorf("url during activePath notify = %q, want /New", urlDuringNotify)
	}

	ops := h.Ops()
	if len(ops) != 1 || ops[0].Kind != history.OpPush {
		t.Errorf("Ops() = %v, want one push", ops)
	}
}

func TestPushReplace(t *testing.T) {
	r, h := newTestRouter(t, "https://x/a")

	if err := r.Push("/b", WithReplace()); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}
	if got := r.ActivePath(); got != "/b" {
		t.Errorf("ActivePath() = %q", got)
	}
	ops := h.Ops()
	if len(ops) != 1 || ops[0].Kind != history.OpReplace {
		t.Errorf("Ops() = %v, want one replace", ops)
	}
}

func TestPushWithParams(t *testing.T) {
	r, _ := newTestRouter(t, "https://x/")

	if err := r.Push("/search", WithParams(map[string]any{"q": "go", "page": 2})); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if got := r.URL().String(); got != "https://x/search?page=2&q=go" {
		t.Errorf("URL() = %q", got)
	}
	if got := r.ActivePath(); got != "/search" {
		t.Errorf("ActivePath() = %q", got)
	}
}

func TestNavigateOptionsBuildHref(t *testing.T) {
	tests := []struct {
		name    string
		options NavigateOptions
		href    string
		want    string
		wantErr bool
	}{
		{name: "no params", href: "/users", want: "/users"},
		{
			name:    "params",
			options: NavigateOptions{Params: map[string]any{"limit": 10, "page": 2}},
			href:    "/users",
			want:    "/users?limit=10&page=2",
		},
		{
			name:    "merges existing query",
			options: NavigateOptions{Params: map[string]any{"b": "2"}},
			href:    "/s?a=1",
			want:    "/s?a=1&b=2",
		},
		{
			name:    "invalid href",
			options: NavigateOptions{Params: map[string]any{"a": 1}},
			href:    "%zz",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.options.BuildHref(tt.href)
			if (err != nil) != tt.wantErr {
				t.Fatalf("BuildHref() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("BuildHref() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestURLComparedByString(t *testing.T) {
	r, _ := newTestRouter(t, "https://x/same")

	notified := 0
	_, _ = r.OnChange(FieldURL, func(newV, oldV any) { notified++ })

	_ = r.Push("/same", WithReplace())
	if notified != 0 {
		t.Errorf("url notified %d times for an equal URL", notified)
	}

	_ = r.Push("/same?x=1", WithReplace())
	if notified != 1 {
		t.Errorf("url notified %d times, want 1", notified)
	}
}

func TestPopStateSyncsState(t *testing.T) {
	r, h := newTestRouter(t, "https://x/a")
	_ = r.Push("/b")

	if !h.Back() {
		t.Fatal("Back() = false")
	}
	if got := r.ActivePath(); got != "/a" {
		t.Errorf("ActivePath() after Back = %q, want /a", got)
	}

	if err := h.Navigate("/C"); err != nil {
		t.Fatal(err)
	}
	if got := r.ActivePath(); got != "/c" {
		t.Errorf("ActivePath() after external navigation = %q, want /c", got)
	}
}

func TestDispose(t *testing.T) {
	h := history.MustMemory("https://x/a")
	r := New(WithHistory(h), WithLogger(quietLogger))
	_ = r.Push("/b")

	notified := 0
	_, _ = r.OnChange(FieldURL, func(newV, oldV any) { notified++ })

	r.Dispose()
	r.Dispose()

	if !r.Disposed() {
		t.Error("Disposed() = false")
	}
	if h.Listeners() != 0 {
		t.Errorf("pop-state listeners after Dispose = %d, want 0", h.Listeners())
	}

	h.Back()
	if got := r.URL().Path; got != "/b" {
		t.Errorf("URL().Path after Dispose + Back = %q, want /b", got)
	}
	if notified != 0 {
		t.Errorf("subscriber notified %d times after Dispose", notified)
	}

	if err := r.Push("/c"); !stderrors.Is(err, ErrDisposed) {
		t.Errorf("Push() after Dispose error = %v, want ErrDisposed", err)
	}
	if _, err := r.Resolve(nil); !stderrors.Is(err, ErrDisposed) {
		t.Errorf("Resolve() after Dispose error = %v, want ErrDisposed", err)
	}
	if r.Switch(Static(match.Exact("/a"), "A")) != nil {
		t.Error("Switch() after Dispose should return nil")
	}
}

func TestOnChangeUnknownField(t *testing.T) {
	r, _ := newTestRouter(t, "https://x/")

	unsubscribe, err := r.OnChange("nope", func(newV, oldV any) {})
	if !stderrors.Is(err, ErrUnknownField) {
		t.Errorf("OnChange() error = %v, want ErrUnknownField", err)
	}
	unsubscribe()
}

func TestOnChangeUnsubscribe(t *testing.T) {
	r, _ := newTestRouter(t, "https://x/")

	notified := 0
	unsubscribe, _ := r.OnChange(FieldActivePath, func(newV, oldV any) { notified++ })
	_ = r.Push("/one")
	unsubscribe()
	_ = r.Push("/two")

	if notified != 1 {
		t.Errorf("notified = %d, want 1", notified)
	}
}

func TestSwitch(t *testing.T) {
	r, _ := newTestRouter(t, "https://x/users/42")

	routes := []Entry{
		Static(match.Exact("/"), "home"),
		Route(match.MustTemplate("/users/:id"), func(p match.Params) any {
			return "user " + p["id"]
		}),
	}

	if got := r.Switch(routes...); got != "user 42" {
		t.Errorf("Switch() = %v, want user 42", got)
	}

	_ = r.Push("/")
	if got := r.Selection().Payload(); got != "home" {
		t.Errorf("payload after Push = %v, want home", got)
	}

	_ = r.Push("/missing")
	if r.Selection() != nil {
		t.Errorf("Selection() = %+v, want nil", r.Selection())
	}
	if got := r.Switch(routes...); got != nil {
		t.Errorf("Switch() on no match = %v, want nil", got)
	}
}

func TestSelectionSubscribers(t *testing.T) {
	r, _ := newTestRouter(t, "https://x/")
	r.SetRoutes([]Entry{
		Static(match.Exact("/a"), "A").WithID("a"),
		Static(match.Exact("/b"), "B").WithID("b"),
	})

	var ids []string
	_, _ = r.OnChange(FieldSelection, func(newV, oldV any) {
		sel := newV.(*Selection)
		if sel == nil {
			ids = append(ids, "<nil>")
			return
		}
		ids = append(ids, sel.Entry.ID)
	})

	_ = r.Push("/a")
	_ = r.Push("/b")
	_ = r.Push("/c")

	want := []string{"a", "b", "<nil>"}
	if len(ids) != len(want) {
		t.Fatalf("selection notifications = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("selection[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestSelectionPayloadNil(t *testing.T) {
	var sel *Selection
	if sel.Payload() != nil {
		t.Error("nil Selection payload should be nil")
	}
	if (&Selection{Entry: Entry{Path: match.Exact("/")}}).Payload() != nil {
		t.Error("payload without renderer should be nil")
	}
}

func TestSerializeURL(t *testing.T) {
	r, _ := newTestRouter(t, "https://x/app/page")
	if got := r.SerializeURL("other").String(); got != "https://x/app/other" {
		t.Errorf("SerializeURL() = %q", got)
	}

	base, _ := url.Parse("https://cdn.example/")
	custom, _ := newTestRouter(t, "https://x/", WithSerializeURL(routepath.ResolveAgainst(base)))
	if got := custom.SerializeURL("/a").String(); got != "https://cdn.example/a" {
		t.Errorf("custom SerializeURL() = %q", got)
	}
}

func TestDefaultSlot(t *testing.T) {
	first := New(WithLogger(quietLogger))
	if Default() != first {
		t.Fatal("New should set the default router")
	}

	second := New(WithLogger(quietLogger))
	if Default() != second {
		t.Fatal("the most recent router should own the default slot")
	}

	first.Dispose()
	if Default() != second {
		t.Error("disposing a router that does not own the slot should not clear it")
	}

	detached := New(WithLogger(quietLogger), WithoutDefault())
	defer detached.Dispose()
	if Default() != second {
		t.Error("WithoutDefault should not take the slot")
	}

	second.Dispose()
	if Default() != nil {
		t.Error("disposing the owner should clear the slot")
	}
}

func TestFields(t *testing.T) {
	r, _ := newTestRouter(t, "https://x/")
	want := []string{FieldURL, FieldActivePath, FieldRoutes, FieldSelection}
	got := r.state.Fields()
	if len(got) != len(want) {
		t.Fatalf("Fields() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Fields()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
