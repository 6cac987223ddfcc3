package session

import (
	"context"
	"time"
)

// Event is an asynchronous lifecycle signal from the identity provider.
type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
	EventSignedOut      Event = "SIGNED_OUT"
)

// State is the externally visible authentication state.
type State int

const (
	StateUninitialized State = iota
	StateResolving
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	}
	return "uninitialized"
}

// Session is an opaque identity token plus expiry. It is owned by the
// machine and replaced wholesale on every lifecycle event, never partially
// mutated.
type Session struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"` // UTC
}

func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// Provider is the identity side of the remote store contract.
type Provider interface {
	// GetSession recovers an existing session, nil when signed out.
	GetSession(ctx context.Context) (*Session, error)
	// OnAuthEvent subscribes to lifecycle events; the returned func
	// unsubscribes.
	OnAuthEvent(fn func(Event, *Session)) (unsubscribe func())
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password, fullName string) (*Session, error)
	SignOut(ctx context.Context) error
}
