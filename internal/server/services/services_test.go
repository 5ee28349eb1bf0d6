package services

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/waitlist/internal/server/models"
	"github.com/dmitrijs2005/waitlist/internal/server/storage"
)

type sentConfirmation struct {
	email string
	token string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentConfirmation
	err  error
}

func (f *fakeNotifier) SendConfirmation(_ context.Context, email, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentConfirmation{email: email, token: token})
	return f.err
}

func (f *fakeNotifier) last() sentConfirmation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return sentConfirmation{}
	}
	return f.sent[len(f.sent)-1]
}

var errStoreDown = errors.New("db error: connection refused")

// brokenStore fails every call it overrides; the embedded Storage serves the
// rest.
type brokenStore struct {
	storage.Storage
}

func (brokenStore) GetWaitlistEmail(context.Context, string) (*models.WaitlistEmail, error) {
	return nil, errStoreDown
}

func (brokenStore) GetWaitlistCount(context.Context) (int64, error) {
	return 0, errStoreDown
}

func (brokenStore) ConfirmEmail(context.Context, string) (*models.WaitlistEmail, error) {
	return nil, errStoreDown
}

func (brokenStore) GetUserByUsername(context.Context, string) (*models.User, error) {
	return nil, errStoreDown
}

func (brokenStore) GetUser(context.Context, string) (*models.User, error) {
	return nil, errStoreDown
}

func (brokenStore) Ping(context.Context) error {
	return errStoreDown
}
