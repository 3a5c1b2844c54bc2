package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-quiz/internal/logger"
)

type Options struct {
	CookieName string
	Secret     string
	TTL        time.Duration
	Secure     bool
}

// Manager attaches a session to every request. The cookie carries an HS256
// token whose subject is the session id; the session itself lives in Store.
// Requests of one session are serialized from load to save.
type Manager struct {
	store  Store
	opts   Options
	hmac   []byte
	locks  *keyedMutex
	log    *logger.Logger
	issuer string
}

func NewManager(store Store, opts Options, log *logger.Logger) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "quiz_sid"
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return &Manager{
		store:  store,
		opts:   opts,
		hmac:   []byte(opts.Secret),
		locks:  newKeyedMutex(),
		log:    log.With("component", "session"),
		issuer: "quiz-session",
	}
}

func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sid := m.sessionID(r)
		if sid == "" {
			sid = uuid.NewString()
		}

		unlock := m.locks.Lock(sid)
		defer unlock()

		s, err := m.store.Load(ctx, sid)
		switch {
		case errors.Is(err, ErrNotFound):
			s = &Session{ID: sid}
		case err != nil:
			m.log.Error("session load failed", "error", err)
			http.Error(w, "session unavailable", http.StatusServiceUnavailable)
			return
		}

		tok, err := m.sign(sid)
		if err != nil {
			m.log.Error("session sign failed", "error", err)
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     m.opts.CookieName,
			Value:    tok,
			Path:     "/",
			HttpOnly: true,
			Secure:   m.opts.Secure,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(m.opts.TTL),
		})

		next.ServeHTTP(w, r.WithContext(WithSession(ctx, s)))

		if err := m.store.Save(context.WithoutCancel(ctx), s, m.opts.TTL); err != nil {
			m.log.Error("session save failed", "error", err)
		}
	})
}

func (m *Manager) sign(sid string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   sid,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.opts.TTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.hmac)
}

// sessionID returns the id from a valid cookie token, or "".
func (m *Manager) sessionID(r *http.Request) string {
	c, err := r.Cookie(m.opts.CookieName)
	if err != nil || c.Value == "" {
		return ""
	}
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(c.Value, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.hmac, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(m.issuer))
	if err != nil || !token.Valid {
		return ""
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return ""
	}
	return claims.Subject
}

// keyedMutex hands out one mutex per key and forgets it when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex { return &keyedMutex{locks: map[string]*refMutex{}} }

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refMutex{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
