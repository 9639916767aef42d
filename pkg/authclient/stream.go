package authclient

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// StreamSource consumes the service's server-sent session stream and feeds
// an Observer. The stream is push-based: the service emits the current
// session state on connect and again whenever it changes; nothing here polls.
type StreamSource struct {
	client *Client
}

// NewStreamSource attaches a stream source to the client's observer.
func NewStreamSource(client *Client) *StreamSource {
	return &StreamSource{client: client}
}

// Run connects and delivers events until ctx is cancelled, reconnecting with
// exponential backoff. Connection failures surface through the observer as
// AuthState.Err; a later successful event clears them.
func (s *StreamSource) Run(ctx context.Context) {
	backoff := initialBackoff
	for {
		err := s.consume(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.client.observer.Apply(Update{Err: err})
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (s *StreamSource) consume(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.client.baseURL+"/auth/session/stream", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if token := s.client.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	// The stream stays open indefinitely; bypass the client-level timeout.
	hc := *s.client.http
	hc.Timeout = 0

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeFailure(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "":
			if event == "session" {
				s.dispatch(data)
			}
			event, data = "", ""
		}
	}
	return scanner.Err()
}

func (s *StreamSource) dispatch(data string) {
	if data == "" || data == "null" {
		s.client.observer.Apply(Update{Data: nil})
		return
	}
	var payload SessionData
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		s.client.observer.Apply(Update{Err: err})
		return
	}
	s.client.observer.Apply(Update{Data: &payload})
}
