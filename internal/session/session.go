package session

import (
	"context"
	"errors"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/randomplay"
)

var ErrNotFound = errors.New("session not found")

type Flash struct {
	Kind    string `json:"kind"` // success|error|info
	Message string `json:"message"`
}

type Session struct {
	ID         string            `json:"id"`
	RandomPlay *randomplay.State `json:"random_play,omitempty"`
	Flashes    []Flash           `json:"flashes,omitempty"`
}

// RandomPlayState returns the random play state, creating it on first use.
func (s *Session) RandomPlayState() *randomplay.State {
	if s.RandomPlay == nil {
		s.RandomPlay = &randomplay.State{}
	}
	return s.RandomPlay
}

func (s *Session) AddFlash(kind, msg string) {
	s.Flashes = append(s.Flashes, Flash{Kind: kind, Message: msg})
}

// PopFlashes returns pending flashes and clears them.
func (s *Session) PopFlashes() []Flash {
	f := s.Flashes
	s.Flashes = nil
	return f
}

type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

type ctxKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the request session, or nil outside the Manager middleware.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(ctxKey{}).(*Session); ok {
		return s
	}
	return nil
}
