// Package identity tracks the acting user. Logging in, switching user and
// logging out are broadcast to listeners such as the permission cache, which
// drop everything they know about the previous identity.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/kanbansync/internal/repository"
)

// Service handles the acting identity.
type Service struct {
	users     UserRepository
	listeners []Listener
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.RWMutex
	current *Session
}

// NewService creates a new identity service with no acting user.
func NewService(users UserRepository, logger *slog.Logger, listeners ...Listener) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		users:     users,
		listeners: listeners,
		logger:    logger,
		now:       time.Now,
	}
}

// Login makes userID the acting user. Logging in as a different user while
// logged in is a user switch.
func (s *Service) Login(ctx context.Context, userID int64) (*Session, error) {
	if userID <= 0 {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("loading user: %w", err)
	}

	sess := &Session{User: *user, StartedAt: s.now().UTC()}
	s.mu.Lock()
	prev := s.current
	s.current = sess
	s.mu.Unlock()

	if prev != nil && prev.User.ID != userID {
		s.logger.Info("acting user switched", "previous_user_id", prev.User.ID, "user_id", userID)
	} else {
		s.logger.Info("acting user logged in", "user_id", userID)
	}
	s.broadcast(userID)

	out := *sess
	return &out, nil
}

// Logout clears the acting user.
func (s *Service) Logout() error {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()

	if prev == nil {
		return ErrNotLoggedIn
	}
	s.logger.Info("acting user logged out", "user_id", prev.User.ID)
	s.broadcast(0)
	return nil
}

// Current returns the acting user's session.
func (s *Service) Current() (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNotLoggedIn
	}
	out := *s.current
	return &out, nil
}

// UserID returns the acting user id, or zero when logged out.
func (s *Service) UserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return 0
	}
	return s.current.User.ID
}

func (s *Service) broadcast(userID int64) {
	for _, l := range s.listeners {
		l.SetUser(userID)
	}
}
