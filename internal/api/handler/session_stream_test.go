package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/launchbase/auth-platform/internal/core/domain"
	"github.com/launchbase/auth-platform/internal/core/ports"
)

type stubSubscriber struct {
	ch chan ports.SessionEvent
}

func (s *stubSubscriber) Subscribe(context.Context) (<-chan ports.SessionEvent, error) {
	return s.ch, nil
}

// syncRecorder is a ResponseWriter safe to inspect while the stream handler
// is still writing from its own goroutine.
type syncRecorder struct {
	mu     sync.Mutex
	header http.Header
	buf    bytes.Buffer
	status int
}

func newSyncRecorder() *syncRecorder {
	return &syncRecorder{header: make(http.Header)}
}

func (r *syncRecorder) Header() http.Header { return r.header }

func (r *syncRecorder) WriteHeader(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
}

func (r *syncRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

func (r *syncRecorder) Flush() {}

func (r *syncRecorder) Body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

func streamContext(t *testing.T, ctx context.Context) (echo.Context, *syncRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/session/stream", nil).WithContext(ctx)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess_1"})
	rec := newSyncRecorder()
	return e.NewContext(req, rec), rec
}

func TestSessionStream_AnonymousGetsNull(t *testing.T) {
	svc := &stubAuthService{
		getSessionFn: func(context.Context, string) (*domain.Session, *domain.User, error) {
			return nil, nil, domain.ErrSessionNotFound
		},
	}
	h := NewSessionStreamHandler(svc, &stubSubscriber{}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	c, rec := streamContext(t, ctx)

	done := make(chan error, 1)
	go func() { done <- h.Stream(c) }()

	// The initial null is written before the event loop; wait for it, then
	// hang up.
	waitFor(t, func() bool { return strings.Contains(rec.Body(), "data: null") })
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("stream: %v", err)
	}
	if !strings.Contains(rec.Body(), "event: session\ndata: null\n\n") {
		t.Fatalf("missing signed-out event, body: %q", rec.Body())
	}
}

func TestSessionStream_LiveSessionThenRevocation(t *testing.T) {
	svc := &stubAuthService{
		getSessionFn: func(_ context.Context, sessionID string) (*domain.Session, *domain.User, error) {
			if sessionID != "sess_1" {
				t.Errorf("sessionID = %q", sessionID)
			}
			return &domain.Session{ID: "sess_1", UserID: "user_1", ExpiresAt: time.Now().Add(time.Hour)},
				&domain.User{ID: "user_1", Email: "alice@example.com"}, nil
		},
	}
	sub := &stubSubscriber{ch: make(chan ports.SessionEvent, 1)}
	h := NewSessionStreamHandler(svc, sub, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c, rec := streamContext(t, ctx)

	done := make(chan error, 1)
	go func() { done <- h.Stream(c) }()

	waitFor(t, func() bool { return strings.Contains(rec.Body(), `"sess_1"`) })

	// A revocation for a different session is ignored.
	sub.ch <- ports.SessionEvent{SessionID: "other", Type: "revoked"}
	// The matching one ends the stream with a null event.
	sub.ch <- ports.SessionEvent{SessionID: "sess_1", Type: "revoked"}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stream: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not terminate on revocation")
	}

	body := rec.Body()
	if !strings.Contains(body, `"alice@example.com"`) {
		t.Fatalf("initial session state missing, body: %q", body)
	}
	if !strings.HasSuffix(body, "event: session\ndata: null\n\n") {
		t.Fatalf("revocation must end with a null event, body: %q", body)
	}
}

func TestSessionStream_SetsEventStreamHeaders(t *testing.T) {
	svc := &stubAuthService{
		getSessionFn: func(context.Context, string) (*domain.Session, *domain.User, error) {
			return nil, nil, domain.ErrSessionNotFound
		},
	}
	h := NewSessionStreamHandler(svc, &stubSubscriber{}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	c, rec := streamContext(t, ctx)

	done := make(chan error, 1)
	go func() { done <- h.Stream(c) }()
	waitFor(t, func() bool { return strings.Contains(rec.Body(), "data:") })
	cancel()
	<-done

	if ct := rec.Header().Get(echo.HeaderContentType); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Fatalf("cache control = %q", cc)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition never satisfied")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
