package authclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStreamSource_DispatchSession(t *testing.T) {
	c := New(Options{})
	src := NewStreamSource(c)

	data, _ := json.Marshal(sampleData("alice"))
	src.dispatch(string(data))

	if !c.Observer().IsAuthenticated() {
		t.Fatal("expected authenticated state after session event")
	}
	if c.Observer().UserID() != "user_alice" {
		t.Fatalf("observer user = %q", c.Observer().UserID())
	}
}

func TestStreamSource_DispatchNull(t *testing.T) {
	c := New(Options{})
	src := NewStreamSource(c)

	src.dispatch(string(mustJSON(t, sampleData("bob"))))
	src.dispatch("null")

	s := c.Observer().State()
	if s.IsAuthenticated || s.User != nil {
		t.Fatalf("null payload must sign the observer out, got %+v", s)
	}
}

func TestStreamSource_DispatchGarbage(t *testing.T) {
	c := New(Options{})
	src := NewStreamSource(c)

	src.dispatch("{not json")
	if c.Observer().State().Err == nil {
		t.Fatal("malformed payload should surface as AuthState.Err")
	}
}

func TestStreamSource_ConsumeParsesEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("missing Accept header")
		}
		w.Header().Set("Content-Type", "text/event-stream")

		data, _ := json.Marshal(sampleData("carol"))
		fmt.Fprintf(w, "event: session\ndata: %s\n\n", data)
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "event: session\ndata: null\n\n")
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL})
	src := NewStreamSource(c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := src.consume(ctx); err != nil {
		t.Fatalf("consume: %v", err)
	}

	// Both events were dispatched in order; after the terminal null the
	// observer has settled signed out.
	s := c.Observer().State()
	if s.IsLoading {
		t.Fatal("stream events never reached the observer")
	}
	if s.IsAuthenticated || s.User != nil {
		t.Fatalf("expected signed-out final state, got %+v", s)
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
