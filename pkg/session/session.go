// Package session keeps per-visitor state keyed by a signed cookie.
//
// Sessions are created lazily: nothing is stored and no cookie is sent until a
// value is set, and unmodified sessions are never written back.
package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"net/http"
	"time"

	"portfolio-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
)

const DefaultCookieName = "portfolio.sid"

var ErrNotFound = errors.New("session: not found")

// Store persists session values. Implementations must be safe for concurrent use.
type Store interface {
	Load(ctx context.Context, id string) (map[string]string, error)
	Save(ctx context.Context, id string, values map[string]string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Session is the state attached to one request.
type Session struct {
	ID        string
	values    map[string]string
	modified  bool
	destroyed bool
}

func newSession(id string, values map[string]string) *Session {
	if values == nil {
		values = map[string]string{}
	}
	return &Session{ID: id, values: values}
}

func (s *Session) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *Session) Set(key, value string) {
	s.values[key] = value
	s.modified = true
}

func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.modified = true
	}
}

// Destroy removes the session from the store and expires the cookie on save.
func (s *Session) Destroy() {
	s.values = map[string]string{}
	s.destroyed = true
	s.modified = true
}

// Options configures the session cookie.
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager loads and saves sessions through a Store.
type Manager struct {
	store Store
	codec *securecookie.SecureCookie
	opts  Options
	now   func() time.Time
}

// NewManager signs cookies with a key derived from secret.
func NewManager(store Store, secret []byte, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.TTL <= 0 {
		opts.TTL = 14 * 24 * time.Hour
	}
	hashKey := sha256.Sum256(secret)
	codec := securecookie.New(hashKey[:], nil)
	codec.MaxAge(int(opts.TTL.Seconds()))

	return &Manager{store: store, codec: codec, opts: opts, now: time.Now}
}

// RandomSecret returns a fresh 32 byte key for processes without SESSION_SECRET.
func RandomSecret() []byte {
	return securecookie.GenerateRandomKey(32)
}

// Load returns the session referenced by the request cookie, or an empty one.
// A tampered, expired or unknown cookie yields an empty session.
func (m *Manager) Load(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.opts.CookieName)
	if err != nil {
		return newSession("", nil), nil
	}

	var id string
	if err := m.codec.Decode(m.opts.CookieName, cookie.Value, &id); err != nil {
		return newSession("", nil), nil
	}

	values, err := m.store.Load(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		return newSession("", nil), nil
	}
	if err != nil {
		return newSession("", nil), err
	}
	return newSession(id, values), nil
}

// Save writes a modified session and sets its cookie on w. Unmodified sessions are skipped.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if s == nil || !s.modified {
		return nil
	}

	if s.destroyed {
		if s.ID != "" {
			if err := m.store.Delete(ctx, s.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, m.cookie("", -1))
		s.modified = false
		return nil
	}

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if err := m.store.Save(ctx, s.ID, s.values, m.now().Add(m.opts.TTL)); err != nil {
		return err
	}

	encoded, err := m.codec.Encode(m.opts.CookieName, s.ID)
	if err != nil {
		return err
	}
	http.SetCookie(w, m.cookie(encoded, int(m.opts.TTL.Seconds())))
	s.modified = false
	return nil
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Close closes the underlying store.
func (m *Manager) Close() error {
	return m.store.Close()
}

// Sweeper is implemented by stores that can drop expired sessions in bulk.
type Sweeper interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// RunSweeper calls DeleteExpired every interval until ctx is done.
func RunSweeper(ctx context.Context, s Sweeper, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.DeleteExpired(ctx)
			if err != nil {
				logger.Log.Warn("Session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Log.Debug("Expired sessions removed", "count", n)
			}
		}
	}
}
