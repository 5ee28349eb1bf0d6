package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/waitlist/internal/common"
	"github.com/dmitrijs2005/waitlist/internal/dbx"
	"github.com/dmitrijs2005/waitlist/internal/server/models"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// database/sql driver names understood by OpenSQL.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

const waitlistColumns = `id, email, created_at, confirmed, confirmation_token, confirmed_at`

// SQLStorage implements Storage on top of the users and waitlist_emails
// tables. Queries are written with ? placeholders and rebound for the driver.
type SQLStorage struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSQLStorage(db *sqlx.DB) *SQLStorage {
	return &SQLStorage{db: db, now: time.Now}
}

// OpenSQL connects with the given driver, applies the embedded migrations and
// returns the store.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStorage, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if driver == DriverSQLite {
		// one writer at a time; also keeps :memory: databases on one connection
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := RunMigrations(ctx, db.DB, driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return NewSQLStorage(db), nil
}

// timestamp is the store's clock, trimmed to the microsecond precision
// PostgreSQL keeps.
func (s *SQLStorage) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *SQLStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, username, password FROM users WHERE id = ?`, id)
}

func (s *SQLStorage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, `SELECT id, username, password FROM users WHERE username = ?`, username)
}

func (s *SQLStorage) getUser(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := s.db.GetContext(ctx, user, s.db.Rebind(query), arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (s *SQLStorage) CreateUser(ctx context.Context, user models.NewUser) (*models.User, error) {
	query := `INSERT INTO users (id, username, password) VALUES (?, ?, ?)`

	u := &models.User{ID: newID(), Username: user.Username, Password: user.Password}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(query), u.ID, u.Username, u.Password)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("username %q: %w", user.Username, common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return u, nil
}

func (s *SQLStorage) AddToWaitlist(ctx context.Context, entry models.NewWaitlistEmail) (*models.WaitlistEmail, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO waitlist_emails (id, email, created_at, confirmed, confirmation_token)
		 VALUES (?, ?, ?, FALSE, ?)`

	w := &models.WaitlistEmail{
		ID:                newID(),
		Email:             entry.Email,
		CreatedAt:         s.timestamp(),
		ConfirmationToken: &token,
	}

	_, err = s.db.ExecContext(ctx, s.db.Rebind(query), w.ID, w.Email, w.CreatedAt, token)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("waitlist email %q: %w", entry.Email, common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return w, nil
}

func (s *SQLStorage) GetWaitlistEmail(ctx context.Context, email string) (*models.WaitlistEmail, error) {
	return getWaitlistEmail(ctx, s.db, `SELECT `+waitlistColumns+` FROM waitlist_emails WHERE email = ?`, email)
}

func (s *SQLStorage) GetWaitlistEmailByToken(ctx context.Context, token string) (*models.WaitlistEmail, error) {
	if token == "" {
		return nil, nil
	}
	return getWaitlistEmail(ctx, s.db, `SELECT `+waitlistColumns+` FROM waitlist_emails WHERE confirmation_token = ?`, token)
}

func getWaitlistEmail(ctx context.Context, q dbx.DBTX, query string, arg any) (*models.WaitlistEmail, error) {
	w := &models.WaitlistEmail{}
	err := q.GetContext(ctx, w, q.Rebind(query), arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return w, nil
}

func (s *SQLStorage) GetWaitlistCount(ctx context.Context) (int64, error) {
	return countWaitlist(ctx, s.db)
}

func countWaitlist(ctx context.Context, q dbx.DBTX) (int64, error) {
	var n int64
	if err := q.GetContext(ctx, &n, `SELECT COUNT(*) FROM waitlist_emails`); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (s *SQLStorage) ListWaitlistEmails(ctx context.Context) ([]*models.WaitlistEmail, error) {
	return listWaitlist(ctx, s.db)
}

func listWaitlist(ctx context.Context, q dbx.DBTX) ([]*models.WaitlistEmail, error) {
	entries := []*models.WaitlistEmail{}
	err := q.SelectContext(ctx, &entries, `SELECT `+waitlistColumns+` FROM waitlist_emails ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entries, nil
}

// ConfirmEmail flips the entry in a single conditional UPDATE, so of two
// concurrent calls with the same token only one matches a row. The row is
// then read back inside the same transaction.
func (s *SQLStorage) ConfirmEmail(ctx context.Context, token string) (*models.WaitlistEmail, error) {
	if token == "" {
		return nil, nil
	}

	query :=
		`UPDATE waitlist_emails
		 SET confirmed = TRUE, confirmed_at = ?, confirmation_token = NULL
		 WHERE confirmation_token = ? AND confirmed = FALSE
		 RETURNING id`

	var confirmed *models.WaitlistEmail
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var id string
		err := tx.QueryRowxContext(ctx, tx.Rebind(query), s.timestamp(), token).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("db error: %w", err)
		}

		confirmed, err = getWaitlistEmail(ctx, tx, `SELECT `+waitlistColumns+` FROM waitlist_emails WHERE id = ?`, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	return confirmed, nil
}

// RegenerateConfirmationToken swaps the token of an unconfirmed entry. When
// nothing is updated the entry is looked up to tell a missing email from a
// confirmed one.
func (s *SQLStorage) RegenerateConfirmationToken(ctx context.Context, email string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	query := `UPDATE waitlist_emails SET confirmation_token = ? WHERE email = ? AND confirmed = FALSE`

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(query), token, email)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if n > 0 {
			return nil
		}

		w, err := getWaitlistEmail(ctx, tx, `SELECT `+waitlistColumns+` FROM waitlist_emails WHERE email = ?`, email)
		if err != nil {
			return err
		}
		if w == nil {
			return fmt.Errorf("waitlist email %q: %w", email, common.ErrorNotFound)
		}
		return fmt.Errorf("waitlist email %q: %w", email, common.ErrAlreadyConfirmed)
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

// Snapshot returns the count and every entry read in one transaction, so
// both describe the same state. On PostgreSQL the transaction is read-only
// repeatable read; SQLite already serialises on its single connection.
func (s *SQLStorage) Snapshot(ctx context.Context) (int64, []*models.WaitlistEmail, error) {
	var (
		count   int64
		entries []*models.WaitlistEmail
	)

	var opts *sql.TxOptions
	if s.db.DriverName() == DriverPostgres {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}

	err := dbx.WithTx(ctx, s.db, opts, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if count, err = countWaitlist(ctx, tx); err != nil {
			return err
		}
		entries, err = listWaitlist(ctx, tx)
		return err
	})
	if err != nil {
		return 0, nil, err
	}

	return count, entries, nil
}

func (s *SQLStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStorage) Close() error {
	return s.db.Close()
}
