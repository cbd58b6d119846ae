package internal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/session"
)

// Default session configuration.
const (
	defaultSessionCookieName = "session"
	defaultSessionTTL        = 2 * time.Hour
	defaultSessionIOTimeout  = 5 * time.Second
)

// SessionManager handles session lifecycle and cookie management.
type SessionManager struct {
	store     session.Store
	logger    *slog.Logger
	newID     func() string
	cookie    string
	domain    string
	path      string
	lifetime  time.Duration // cookie Max-Age, zero for a browser session cookie
	ttl       time.Duration // store-side idle lifetime
	ioTimeout time.Duration
	sameSite  http.SameSite
	secure    bool
	httpOnly  bool
}

// SessionOption configures the SessionManager.
type SessionOption func(*SessionManager)

// NewSessionManager creates a new SessionManager with the given store and options.
func NewSessionManager(store session.Store, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		store:     store,
		logger:    logger.NewNope(),
		newID:     uuid.NewString,
		cookie:    defaultSessionCookieName,
		path:      "/",
		ttl:       defaultSessionTTL,
		ioTimeout: defaultSessionIOTimeout,
		httpOnly:  true,
		sameSite:  http.SameSiteLaxMode,
	}

	for _, opt := range opts {
		opt(sm)
	}

	return sm
}

// WithSessionCookieName sets the session cookie name.
func WithSessionCookieName(name string) SessionOption {
	return func(sm *SessionManager) {
		if name != "" {
			sm.cookie = name
		}
	}
}

// WithSessionLifetime sets the cookie Max-Age. Zero keeps a browser
// session cookie.
func WithSessionLifetime(d time.Duration) SessionOption {
	return func(sm *SessionManager) {
		if d >= 0 {
			sm.lifetime = d
		}
	}
}

// WithSessionTTL sets how long the store keeps an idle session.
func WithSessionTTL(d time.Duration) SessionOption {
	return func(sm *SessionManager) {
		if d > 0 {
			sm.ttl = d
		}
	}
}

// WithSessionDomain sets the session cookie domain.
func WithSessionDomain(domain string) SessionOption {
	return func(sm *SessionManager) {
		sm.domain = domain
	}
}

// WithSessionPath sets the session cookie path.
func WithSessionPath(path string) SessionOption {
	return func(sm *SessionManager) {
		if path != "" {
			sm.path = path
		}
	}
}

// WithSessionSecure sets the session cookie Secure flag.
func WithSessionSecure(secure bool) SessionOption {
	return func(sm *SessionManager) {
		sm.secure = secure
	}
}

// WithSessionHTTPOnly sets the session cookie HttpOnly flag.
func WithSessionHTTPOnly(httpOnly bool) SessionOption {
	return func(sm *SessionManager) {
		sm.httpOnly = httpOnly
	}
}

// WithSessionSameSite sets the session cookie SameSite attribute.
func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return func(sm *SessionManager) {
		sm.sameSite = sameSite
	}
}

// ParseSameSite maps "lax", "strict" and "none" to cookie modes.
// Anything else is lax.
func ParseSameSite(s string) http.SameSite {
	switch s {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// SetLogger sets the logger for session events. Called by App after initialization.
func (sm *SessionManager) SetLogger(l *slog.Logger) {
	if l != nil {
		sm.logger = l
	}
}

// Start loads the session named by the request cookie, or creates a new
// one when there is no cookie or the stored session is gone or expired.
func (sm *SessionManager) Start(ctx context.Context, r *http.Request) (*session.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, sm.ioTimeout)
	defer cancel()

	if c, err := r.Cookie(sm.cookie); err == nil && c.Value != "" {
		sess, err := sm.store.Get(ctx, c.Value)
		switch {
		case err == nil:
			sess.Touch(time.Now().Add(sm.ttl))
			return sess, nil
		case errors.Is(err, session.ErrNotFound),
			errors.Is(err, session.ErrExpired),
			errors.Is(err, session.ErrInvalidToken):
			sm.logger.DebugContext(ctx, "starting a fresh session", slog.Any("reason", err))
		default:
			return nil, err
		}
	}

	token, err := session.NewToken()
	if err != nil {
		return nil, err
	}
	return session.New(sm.newID(), token, time.Now().Add(sm.ttl)), nil
}

// Commit ends the request for the session: keys flashed in an earlier
// request are dropped, this request's flashes are aged, and the session is
// persisted. It returns the cookie to send, or nil when none is needed.
func (sm *SessionManager) Commit(ctx context.Context, sess *session.Session) (*http.Cookie, error) {
	if sess == nil {
		return nil, nil
	}

	sess.RemoveOldFlashData()
	sess.AgeFlashData()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sm.ioTimeout)
	defer cancel()

	var err error
	if sess.IsNew() {
		err = sm.store.Create(ctx, sess)
	} else {
		err = sm.store.Update(ctx, sess)
	}
	if err != nil {
		return nil, err
	}

	sendCookie := sess.IsNew() || sess.PreviousToken() != "" || sm.lifetime > 0
	sess.Saved()
	if !sendCookie {
		return nil, nil
	}
	return sm.cookieFor(sess.Token), nil
}

func (sm *SessionManager) cookieFor(token string) *http.Cookie {
	c := &http.Cookie{
		Name:     sm.cookie,
		Value:    token,
		Path:     sm.path,
		Domain:   sm.domain,
		Secure:   sm.secure,
		HttpOnly: sm.httpOnly,
		SameSite: sm.sameSite,
	}
	if sm.lifetime > 0 {
		c.MaxAge = int(sm.lifetime / time.Second)
		c.Expires = time.Now().Add(sm.lifetime)
	}
	return c
}
