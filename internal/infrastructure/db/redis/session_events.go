package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/launchbase/auth-platform/internal/core/ports"
)

const sessionEventsChannel = "session.events"

// SessionEvents broadcasts session revocations over a Redis pub/sub channel
// so every instance streaming session state sees sign-outs immediately.
type SessionEvents struct {
	client *redis.Client
}

func NewSessionEvents(client *redis.Client) *SessionEvents {
	return &SessionEvents{client: client}
}

func (e *SessionEvents) PublishRevoked(ctx context.Context, sessionID string) error {
	payload, err := json.Marshal(ports.SessionEvent{SessionID: sessionID, Type: "revoked"})
	if err != nil {
		return fmt.Errorf("marshal session event: %w", err)
	}
	return e.client.Publish(ctx, sessionEventsChannel, payload).Err()
}

// Subscribe delivers session events until ctx is cancelled. Malformed
// payloads are dropped.
func (e *SessionEvents) Subscribe(ctx context.Context) (<-chan ports.SessionEvent, error) {
	sub := e.client.Subscribe(ctx, sessionEventsChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe session events: %w", err)
	}

	out := make(chan ports.SessionEvent)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event ports.SessionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
