// Package services contains the server-side business logic shared by the
// HTTP API and the admin CLI. Handlers validate input shape; services decide
// what a request means for the stored state.
package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/waitlist/internal/common"
	"github.com/dmitrijs2005/waitlist/internal/logging"
	"github.com/dmitrijs2005/waitlist/internal/server/models"
	"github.com/dmitrijs2005/waitlist/internal/server/notify"
	"github.com/dmitrijs2005/waitlist/internal/server/storage"
)

// WaitlistService implements joining the waitlist and confirming emails.
type WaitlistService struct {
	store    storage.Storage
	notifier notify.Notifier
	log      logging.Logger
}

func NewWaitlistService(store storage.Storage, notifier notify.Notifier, log logging.Logger) *WaitlistService {
	return &WaitlistService{
		store:    store,
		notifier: notifier,
		log:      log.With("module", "waitlist"),
	}
}

// Join adds email to the waitlist and sends its confirmation token.
// A known email yields common.ErrorAlreadyExists.
func (s *WaitlistService) Join(ctx context.Context, email string) (*models.WaitlistEmail, error) {
	existing, err := s.store.GetWaitlistEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("waitlist email %q: %w", email, common.ErrorAlreadyExists)
	}

	// the store enforces uniqueness too, for joins racing past the check above
	entry, err := s.store.AddToWaitlist(ctx, models.NewWaitlistEmail{Email: email})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "joined waitlist", "id", entry.ID)
	s.notify(ctx, entry.Email, entry.Token())

	return entry, nil
}

func (s *WaitlistService) Count(ctx context.Context) (int64, error) {
	return s.store.GetWaitlistCount(ctx)
}

// Confirm consumes token. Unknown or already used tokens yield
// common.ErrorNotFound.
func (s *WaitlistService) Confirm(ctx context.Context, token string) (*models.WaitlistEmail, error) {
	if token == "" {
		return nil, fmt.Errorf("confirmation token is required: %w", common.ErrorValidation)
	}

	entry, err := s.store.ConfirmEmail(ctx, token)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("confirmation token: %w", common.ErrorNotFound)
	}

	s.log.Info(ctx, "email confirmed", "id", entry.ID)
	return entry, nil
}

// Resend issues a fresh token for an unconfirmed email, invalidating the
// previous one, and returns it.
func (s *WaitlistService) Resend(ctx context.Context, email string) (string, error) {
	entry, err := s.store.GetWaitlistEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if entry == nil {
		return "", fmt.Errorf("waitlist email %q: %w", email, common.ErrorNotFound)
	}
	if entry.Confirmed {
		return "", fmt.Errorf("waitlist email %q: %w", email, common.ErrAlreadyConfirmed)
	}

	token, err := s.store.RegenerateConfirmationToken(ctx, email)
	if err != nil {
		return "", err
	}

	s.notify(ctx, email, token)
	return token, nil
}

// Ping reports whether the underlying store is reachable.
func (s *WaitlistService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *WaitlistService) notify(ctx context.Context, email, token string) {
	if err := s.notifier.SendConfirmation(ctx, email, token); err != nil {
		s.log.Warn(ctx, "confirmation not sent", "error", err)
	}
}
