package authclient

import (
	"context"
	"errors"
	"sync"
)

// RouteState tells the application shell which route subtree to render.
type RouteState int

const (
	// RoutePending renders a loading placeholder instead of either subtree,
	// preventing a flash of incorrect content.
	RoutePending RouteState = iota
	RoutePublic
	RouteProtected
)

// ErrSkipped is returned by RunAuthenticated when the underlying read was
// not issued because the observer is still loading or unauthenticated.
var ErrSkipped = errors.New("authclient: query skipped, not authenticated")

// Observer holds the continuously-updated AuthState derived from a session
// source. It starts in the loading state and recomputes synchronously on
// every push; each new value fully replaces the prior one. Construct one per
// application (or per test) rather than sharing a package-level instance.
type Observer struct {
	mu    sync.RWMutex
	state AuthState
	subs  map[int]chan AuthState
	next  int
}

func NewObserver() *Observer {
	return &Observer{
		state: AuthState{IsLoading: true},
		subs:  make(map[int]chan AuthState),
	}
}

// Apply ingests one push from a session source and recomputes the state.
// This is the single place the AuthState invariants are established.
func (o *Observer) Apply(u Update) {
	o.mu.Lock()

	var state AuthState
	state.Err = u.Err
	if u.Data != nil {
		user := u.Data.User
		sess := u.Data.Session
		state.User = &user
		state.Session = &sess
	}
	// First push ends the loading phase for good.
	state.IsLoading = false
	state.IsAuthenticated = state.Session != nil

	o.state = state
	subs := make([]chan AuthState, 0, len(o.subs))
	for _, ch := range o.subs {
		subs = append(subs, ch)
	}
	o.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- state:
		default:
			// Slow subscriber: drop the stale value and retry with the
			// newest, so consumers converge on the latest state.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- state:
			default:
			}
		}
	}
}

// State returns the current AuthState snapshot.
func (o *Observer) State() AuthState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// IsAuthenticated reports whether a session exists and loading has finished.
func (o *Observer) IsAuthenticated() bool {
	return o.State().IsAuthenticated
}

// UserID returns the authenticated user's ID, or "" when there is none.
func (o *Observer) UserID() string {
	s := o.State()
	if s.User == nil {
		return ""
	}
	return s.User.ID
}

// Route derives the route-guard decision from the current state.
func (o *Observer) Route() RouteState {
	s := o.State()
	switch {
	case s.IsLoading:
		return RoutePending
	case s.IsAuthenticated:
		return RouteProtected
	default:
		return RoutePublic
	}
}

// Subscribe returns a channel receiving every state recomputation until ctx
// is cancelled. The current state is delivered first.
func (o *Observer) Subscribe(ctx context.Context) <-chan AuthState {
	ch := make(chan AuthState, 1)

	o.mu.Lock()
	id := o.next
	o.next++
	o.subs[id] = ch
	ch <- o.state
	o.mu.Unlock()

	go func() {
		<-ctx.Done()
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}()

	return ch
}

// RunAuthenticated executes query only when the observer has settled into an
// authenticated state. While loading or signed out it suppresses the call
// entirely and returns ErrSkipped, so authorization-dependent reads are
// never fired at a service that will reject them.
func RunAuthenticated[T any](ctx context.Context, o *Observer, query func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	s := o.State()
	if s.IsLoading || !s.IsAuthenticated {
		return zero, ErrSkipped
	}
	return query(ctx)
}
