package irisfast

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type recordedRequest struct {
	Method string
	Path   string
	UserID string
	Body   []byte
}

type fakeIris struct {
	mu       sync.Mutex
	requests []recordedRequest
	// statuses are returned in order; the last one repeats
	statuses []int
	body     string
}

func (f *fakeIris) handle(ctx *fasthttp.RequestCtx) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{
		Method: string(ctx.Method()),
		Path:   string(ctx.Path()),
		UserID: string(ctx.Request.Header.Peek("X-User-Id")),
		Body:   append([]byte(nil), ctx.PostBody()...),
	})
	status := fasthttp.StatusOK
	if n := len(f.statuses); n > 0 {
		idx := len(f.requests) - 1
		if idx >= n {
			idx = n - 1
		}
		status = f.statuses[idx]
	}
	ctx.SetStatusCode(status)
	ctx.SetBodyString(f.body)
}

func (f *fakeIris) calls() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func newFakeClient(t *testing.T, f *fakeIris, opts ...Option) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = fasthttp.Serve(ln, f.handle) }()
	t.Cleanup(func() { _ = ln.Close() })
	opts = append([]Option{WithDialer(func(string) (net.Conn, error) { return ln.Dial() })}, opts...)
	c := NewClient("http://iris.test/", opts...)
	c.backoff = func(int) time.Duration { return time.Millisecond }
	return c
}

func TestSendMessagePostsReply(t *testing.T) {
	f := &fakeIris{body: "{}"}
	c := newFakeClient(t, f, WithHeaderProvider(StaticHeaders("bot-1", "", "")))
	if err := c.SendMessage(context.Background(), "room1", "hello"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	calls := f.calls()
	if len(calls) != 1 {
		t.Fatalf("calls = %d", len(calls))
	}
	got := calls[0]
	if got.Method != "POST" || got.Path != "/reply" || got.UserID != "bot-1" {
		t.Fatalf("unexpected request %+v", got)
	}
	var req ReplyRequest
	if err := json.Unmarshal(got.Body, &req); err != nil {
		t.Fatalf("body: %v", err)
	}
	if req != (ReplyRequest{Type: "text", Room: "room1", Data: "hello"}) {
		t.Fatalf("unexpected body %+v", req)
	}
}

func TestGetConfigRetriesServerErrors(t *testing.T) {
	f := &fakeIris{statuses: []int{503, 502, 200}, body: `{"port":3000,"polling_speed":100,"message_rate":5,"web_server_endpoint":"http://bot"}`}
	c := newFakeClient(t, f)
	cfg, err := c.GetConfig(context.Background())
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if cfg.Port != 3000 || cfg.WebserverEndpoint != "http://bot" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if n := len(f.calls()); n != 3 {
		t.Fatalf("calls = %d, want 3", n)
	}
}

func TestClientErrorIsNotRetried(t *testing.T) {
	f := &fakeIris{statuses: []int{400}, body: "bad"}
	c := newFakeClient(t, f)
	_, err := c.GetConfig(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.Status != 400 || se.Body != "bad" {
		t.Fatalf("expected StatusError 400, got %v", err)
	}
	if n := len(f.calls()); n != 1 {
		t.Fatalf("calls = %d, want 1", n)
	}
}

func TestRepliesAreSentOnce(t *testing.T) {
	f := &fakeIris{statuses: []int{503}}
	c := newFakeClient(t, f)
	if err := c.SendImage(context.Background(), "room1", "aGk="); err == nil {
		t.Fatalf("expected error")
	}
	if n := len(f.calls()); n != 1 {
		t.Fatalf("reply retried: %d calls", n)
	}
}

func TestCancelledContextStopsBeforeRequest(t *testing.T) {
	f := &fakeIris{}
	c := newFakeClient(t, f)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.GetConfig(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n := len(f.calls()); n != 0 {
		t.Fatalf("calls = %d", n)
	}
}

func TestMessageIdentity(t *testing.T) {
	name := " Alice "
	m := &Message{Sender: &name, JSON: &MessageJSON{UserID: "12345"}}
	if m.UserID() != "12345" || m.SenderName() != "Alice" {
		t.Fatalf("got %q / %q", m.UserID(), m.SenderName())
	}
	m.JSON = nil
	if m.UserID() != "Alice" {
		t.Fatalf("fallback user id = %q", m.UserID())
	}
	var empty *Message
	if empty.UserID() != "" || empty.SenderName() != "" {
		t.Fatalf("nil message should be anonymous")
	}
}
