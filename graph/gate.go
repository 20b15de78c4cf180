package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// State tracks the credential lifecycle of the gate.
type State int

const (
	StateNoCredential State = iota
	StateAuthenticating
	StateAuthenticated
	StateExpired
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNoCredential:
		return "no-credential"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateExpired:
		return "expired"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// preflightTimeout bounds the silent token probe before falling back to the
// interactive device-code flow.
const preflightTimeout = 500 * time.Millisecond

// authTimeout bounds a full interactive device-code flow; Azure device codes
// expire within 15 minutes.
const authTimeout = 15 * time.Minute

// NewAuthenticatorFunc builds a fresh authenticator, optionally seeded with a
// cached authentication record for silent login.
type NewAuthenticatorFunc func(rec *AuthRecord) (Authenticator, error)

// NewSessionFunc wraps an established authenticator into a live session.
type NewSessionFunc func(a Authenticator) (*Session, error)

// Gate owns the credential lifecycle. Every privileged operation obtains a
// *Session through it; the session is recreated, never patched, on
// re-authentication.
type Gate struct {
	scopes     []string
	store      *RecordStore
	newAuth    NewAuthenticatorFunc
	newSession NewSessionFunc

	mu           sync.Mutex
	state        State
	session      *Session
	flight       *authFlight
	onAuthResult func(error)
}

// authFlight is a single in-flight authentication shared by all waiters.
type authFlight struct {
	done chan struct{}
	sess *Session
	err  error
}

func NewGate(scopes []string, store *RecordStore, newAuth NewAuthenticatorFunc, newSession NewSessionFunc) *Gate {
	g := &Gate{scopes: scopes, store: store, newAuth: newAuth, newSession: newSession}
	if g.newSession == nil {
		g.newSession = func(a Authenticator) (*Session, error) {
			return NewSession(a, scopes), nil
		}
	}
	return g
}

// OnAuthResult registers a callback invoked after each authentication flight
// settles, with nil on success and the flight error otherwise. Used to tear
// down pending device-login state once the flow resolves.
func (g *Gate) OnAuthResult(fn func(error)) {
	g.mu.Lock()
	g.onAuthResult = fn
	g.mu.Unlock()
}

// State returns the current lifecycle state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Invalidate demotes an authenticated session to expired; the next Session
// call will run a fresh authentication cycle.
func (g *Gate) Invalidate() {
	g.mu.Lock()
	if g.state == StateAuthenticated {
		g.state = StateExpired
		g.session = nil
	}
	g.mu.Unlock()
}

// Session returns a live session, authenticating first if needed. Concurrent
// callers share one in-flight authentication and its outcome; the flight runs
// on a detached context so a single caller's cancellation does not abort an
// authentication other callers are waiting on.
func (g *Gate) Session(ctx context.Context) (*Session, error) {
	g.mu.Lock()
	if g.state == StateAuthenticated && g.session != nil {
		sess := g.session
		g.mu.Unlock()
		return sess, nil
	}
	if g.flight == nil {
		g.state = StateAuthenticating
		flight := &authFlight{done: make(chan struct{})}
		g.flight = flight
		go g.authenticate(flight)
	}
	flight := g.flight
	g.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-flight.done:
	}
	if flight.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, flight.err)
	}
	return flight.sess, nil
}

func (g *Gate) authenticate(flight *authFlight) {
	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	sess, err := g.establish(ctx)

	g.mu.Lock()
	g.flight = nil
	if err != nil {
		// Failed is transient: the next Session call starts a fresh flight.
		g.state = StateFailed
		g.session = nil
	} else {
		g.state = StateAuthenticated
		g.session = sess
	}
	notify := g.onAuthResult
	g.mu.Unlock()

	flight.sess, flight.err = sess, err
	// Notify before releasing waiters so login-page state is torn down by
	// the time a caller observes the outcome.
	if notify != nil {
		notify(err)
	}
	close(flight.done)
}

// establish loads any cached record, tries a quick silent token preflight and
// falls back to the interactive device-code flow, persisting a fresh record
// on success.
func (g *Gate) establish(ctx context.Context) (*Session, error) {
	rec := g.store.Load(ctx)
	auth, err := g.newAuth(rec)
	if err != nil {
		return nil, err
	}
	interactive := true
	if rec != nil {
		pctx, cancel := context.WithTimeout(ctx, preflightTimeout)
		_, preErr := auth.Token(pctx, g.scopes)
		cancel()
		if preErr == nil {
			interactive = false
			debugf("silent login with cached record")
		}
	}
	if interactive {
		fresh, err := auth.Authenticate(ctx, g.scopes)
		if err != nil {
			return nil, err
		}
		if err := g.store.Save(ctx, fresh); err != nil {
			debugf("failed to persist auth record: %v", err)
		}
	}
	return g.newSession(auth)
}

// Do runs op with a live session. On an authorization failure it demotes the
// session, re-authenticates and replays the same logical operation exactly
// once; a second authorization failure escalates to ErrAuthenticationFailed.
// No other failure class is retried here.
func (g *Gate) Do(ctx context.Context, op func(context.Context, *Session) error) error {
	sess, err := g.Session(ctx)
	if err != nil {
		return err
	}
	err = op(ctx, sess)
	if err == nil || !errors.Is(err, ErrSessionExpired) {
		return err
	}
	g.Invalidate()
	sess, authErr := g.Session(ctx)
	if authErr != nil {
		return authErr
	}
	err = op(ctx, sess)
	if err != nil && errors.Is(err, ErrSessionExpired) {
		g.Invalidate()
		return fmt.Errorf("%w: authorization rejected after re-authentication: %v", ErrAuthenticationFailed, err)
	}
	return err
}

// Run is Do for operations returning a value.
func Run[T any](ctx context.Context, g *Gate, op func(context.Context, *Session) (T, error)) (T, error) {
	var out T
	err := g.Do(ctx, func(ctx context.Context, sess *Session) error {
		var opErr error
		out, opErr = op(ctx, sess)
		return opErr
	})
	return out, err
}
