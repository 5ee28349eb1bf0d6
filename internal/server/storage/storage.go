// Package storage defines the waitlist storage interface and its two
// implementations: an in-memory map store for development and tests, and a
// SQL store for PostgreSQL or SQLite. The implementation is picked once at
// start-up by New.
package storage

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/waitlist/internal/common"
	"github.com/dmitrijs2005/waitlist/internal/server/config"
	"github.com/dmitrijs2005/waitlist/internal/server/models"
	"github.com/google/uuid"
)

// Storage is the only way the rest of the service reads or mutates users and
// waitlist entries.
//
// Getters return (nil, nil) when nothing matches. Creating a duplicate
// username or email returns an error wrapping common.ErrorAlreadyExists.
type Storage interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	CreateUser(ctx context.Context, user models.NewUser) (*models.User, error)

	AddToWaitlist(ctx context.Context, entry models.NewWaitlistEmail) (*models.WaitlistEmail, error)
	GetWaitlistEmail(ctx context.Context, email string) (*models.WaitlistEmail, error)
	GetWaitlistEmailByToken(ctx context.Context, token string) (*models.WaitlistEmail, error)
	GetWaitlistCount(ctx context.Context) (int64, error)
	ListWaitlistEmails(ctx context.Context) ([]*models.WaitlistEmail, error)

	// ConfirmEmail confirms the unconfirmed entry holding token and clears the
	// token. It returns (nil, nil) if no unconfirmed entry holds it, so
	// replaying a used token is a no-op.
	ConfirmEmail(ctx context.Context, token string) (*models.WaitlistEmail, error)

	// RegenerateConfirmationToken replaces the token of an unconfirmed entry
	// and returns the new one. Unknown emails yield common.ErrorNotFound and
	// confirmed ones common.ErrAlreadyConfirmed.
	RegenerateConfirmationToken(ctx context.Context, email string) (string, error)

	Ping(ctx context.Context) error
	Close() error
}

// New opens the backend selected by cfg.StorageBackend. SQL backends are
// migrated before New returns.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return NewInMemoryStorage(), nil
	case config.BackendPostgres:
		return OpenSQL(ctx, DriverPostgres, cfg.DatabaseDSN)
	case config.BackendSQLite:
		return OpenSQL(ctx, DriverSQLite, cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func newID() string {
	return uuid.NewString()
}

func newToken() (string, error) {
	token, err := common.MakeRandHexString(32)
	if err != nil {
		return "", fmt.Errorf("generate confirmation token: %w: %w", common.ErrorInternal, err)
	}
	return token, nil
}
