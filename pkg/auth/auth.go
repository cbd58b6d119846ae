package auth

import (
	"context"
	"errors"

	"github.com/dmitrymomot/storefront/pkg/session"
)

// SessionKey holds the authenticated user's id.
const SessionKey = "auth_user_id"

// placeholder bcrypt hash compared against when the identifier is unknown,
// so a failed lookup costs about as much as a wrong password.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z3L8ESx0sNSg9o6.JvAQ5DEa"

// Scope is the request-scoped state a Guard lives in.
type Scope interface {
	Session() *session.Session
	Value(key any) any
	SetValue(key, val any)
}

// Manager authenticates users of type U against session state.
type Manager[U any] struct {
	provider UserProvider[U]
	hasher   Hasher
}

// New returns a Manager. A nil hasher means BcryptHasher.
func New[U any](provider UserProvider[U], hasher Hasher) *Manager[U] {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	return &Manager[U]{provider: provider, hasher: hasher}
}

// Hasher returns the password hasher, for registration flows.
func (m *Manager[U]) Hasher() Hasher { return m.hasher }

// For returns a Guard over sess. Prefer Guard inside a request so the user
// is loaded at most once.
func (m *Manager[U]) For(sess *session.Session) *Guard[U] {
	return &Guard[U]{m: m, sess: sess}
}

// Guard returns the request's Guard, creating it on first use.
func (m *Manager[U]) Guard(r Scope) *Guard[U] {
	if g, ok := r.Value(m).(*Guard[U]); ok {
		return g
	}
	g := m.For(r.Session())
	r.SetValue(m, g)
	return g
}

// Check reports whether the request is authenticated.
func (m *Manager[U]) Check(ctx context.Context, r Scope) (bool, error) {
	return m.Guard(r).Check(ctx)
}

// Guard is the authentication state of one request.
type Guard[U any] struct {
	m        *Manager[U]
	sess     *session.Session
	user     U
	found    bool
	resolved bool
}

// ID returns the user id stored in the session without loading the user.
func (g *Guard[U]) ID() (int64, bool) {
	return session.Int64(g.sess, SessionKey)
}

// User returns the authenticated user. The lookup runs at most once per Guard.
// A session pointing at a deleted user is treated as a guest.
func (g *Guard[U]) User(ctx context.Context) (U, bool, error) {
	if g.resolved {
		return g.user, g.found, nil
	}
	id, ok := g.ID()
	if !ok {
		g.resolved = true
		return g.user, false, nil
	}
	u, found, err := g.m.provider.RetrieveByID(ctx, id)
	if err != nil {
		var zero U
		return zero, false, errors.Join(ErrProvider, err)
	}
	g.user, g.found, g.resolved = u, found, true
	return u, found, nil
}

// Check reports whether a user is logged in.
func (g *Guard[U]) Check(ctx context.Context) (bool, error) {
	_, ok, err := g.User(ctx)
	return ok, err
}

// Login stores u in the session and rotates the session token.
func (g *Guard[U]) Login(_ context.Context, u U) error {
	if g.sess == nil {
		return ErrNoSession
	}
	id := g.m.provider.ID(u)
	if id == 0 {
		return ErrNotPersisted
	}
	if err := g.sess.Regenerate(); err != nil {
		return err
	}
	g.sess.Put(SessionKey, id)
	g.user, g.found, g.resolved = u, true, true
	return nil
}

// Attempt logs in the user identified by identifier when password matches.
// Unknown identifiers and wrong passwords both return false.
func (g *Guard[U]) Attempt(ctx context.Context, identifier, password string) (bool, error) {
	u, found, err := g.m.provider.RetrieveByIdentifier(ctx, identifier)
	if err != nil {
		return false, errors.Join(ErrProvider, err)
	}
	if !found {
		g.m.hasher.Check(dummyHash, password)
		return false, nil
	}
	if !g.m.hasher.Check(g.m.provider.Password(u), password) {
		return false, nil
	}
	return true, g.Login(ctx, u)
}

// Logout forgets the user and rotates the session token.
func (g *Guard[U]) Logout() error {
	if g.sess == nil {
		return ErrNoSession
	}
	g.sess.Delete(SessionKey)
	var zero U
	g.user, g.found, g.resolved = zero, false, true
	return g.sess.Regenerate()
}
