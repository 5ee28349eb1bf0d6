package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/waitlist/internal/common"
	"github.com/dmitrijs2005/waitlist/internal/server/models"
)

// InMemoryStorage keeps users by ID and waitlist entries by email. Username
// and token lookups scan every value. Nothing survives a restart.
type InMemoryStorage struct {
	mu       sync.RWMutex
	users    map[string]*models.User
	waitlist map[string]*models.WaitlistEmail
	now      func() time.Time
}

func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		users:    make(map[string]*models.User),
		waitlist: make(map[string]*models.WaitlistEmail),
		now:      time.Now,
	}
}

func (s *InMemoryStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (s *InMemoryStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u := s.findUserByUsername(username); u != nil {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (s *InMemoryStorage) findUserByUsername(username string) *models.User {
	for _, u := range s.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func (s *InMemoryStorage) CreateUser(ctx context.Context, user models.NewUser) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findUserByUsername(user.Username) != nil {
		return nil, fmt.Errorf("username %q: %w", user.Username, common.ErrorAlreadyExists)
	}

	u := &models.User{ID: newID(), Username: user.Username, Password: user.Password}
	s.users[u.ID] = u

	c := *u
	return &c, nil
}

func (s *InMemoryStorage) AddToWaitlist(ctx context.Context, entry models.NewWaitlistEmail) (*models.WaitlistEmail, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.waitlist[entry.Email]; ok {
		return nil, fmt.Errorf("waitlist email %q: %w", entry.Email, common.ErrorAlreadyExists)
	}

	w := &models.WaitlistEmail{
		ID:                newID(),
		Email:             entry.Email,
		CreatedAt:         s.now().UTC(),
		ConfirmationToken: &token,
	}
	s.waitlist[w.Email] = w

	return w.Clone(), nil
}

func (s *InMemoryStorage) GetWaitlistEmail(ctx context.Context, email string) (*models.WaitlistEmail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.waitlist[email].Clone(), nil
}

func (s *InMemoryStorage) GetWaitlistEmailByToken(ctx context.Context, token string) (*models.WaitlistEmail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.findByToken(token).Clone(), nil
}

func (s *InMemoryStorage) findByToken(token string) *models.WaitlistEmail {
	if token == "" {
		return nil
	}
	for _, w := range s.waitlist {
		if w.ConfirmationToken != nil && *w.ConfirmationToken == token {
			return w
		}
	}
	return nil
}

func (s *InMemoryStorage) GetWaitlistCount(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.waitlist)), nil
}

// ListWaitlistEmails returns copies ordered by creation time, then ID.
func (s *InMemoryStorage) ListWaitlistEmails(ctx context.Context) ([]*models.WaitlistEmail, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.WaitlistEmail, 0, len(s.waitlist))
	for _, w := range s.waitlist {
		out = append(out, w.Clone())
	}
	sortByCreated(out)
	return out, nil
}

func (s *InMemoryStorage) ConfirmEmail(ctx context.Context, token string) (*models.WaitlistEmail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.findByToken(token)
	if w == nil || w.Confirmed {
		return nil, nil
	}

	at := s.now().UTC()
	w.Confirmed = true
	w.ConfirmedAt = &at
	w.ConfirmationToken = nil

	return w.Clone(), nil
}

func (s *InMemoryStorage) RegenerateConfirmationToken(ctx context.Context, email string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.waitlist[email]
	if !ok {
		return "", fmt.Errorf("waitlist email %q: %w", email, common.ErrorNotFound)
	}
	if w.Confirmed {
		return "", fmt.Errorf("waitlist email %q: %w", email, common.ErrAlreadyConfirmed)
	}

	w.ConfirmationToken = &token
	return token, nil
}

func (s *InMemoryStorage) Ping(ctx context.Context) error {
	return nil
}

func (s *InMemoryStorage) Close() error {
	return nil
}
