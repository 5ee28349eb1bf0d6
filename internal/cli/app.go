// Package cli implements the operator console: a small REPL over the same
// storage the server uses.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/waitlist/internal/common"
	"github.com/dmitrijs2005/waitlist/internal/logging"
	"github.com/dmitrijs2005/waitlist/internal/server/config"
	"github.com/dmitrijs2005/waitlist/internal/server/export"
	"github.com/dmitrijs2005/waitlist/internal/server/models"
	"github.com/dmitrijs2005/waitlist/internal/server/services"
	"github.com/dmitrijs2005/waitlist/internal/server/storage"
)

type userService interface {
	Create(ctx context.Context, username, password string) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type waitlistReader interface {
	GetWaitlistCount(ctx context.Context) (int64, error)
	GetWaitlistEmail(ctx context.Context, email string) (*models.WaitlistEmail, error)
}

type exporter interface {
	Export(ctx context.Context) (*export.Result, error)
}

type App struct {
	users    userService
	waitlist waitlistReader
	exporter exporter
	closer   io.Closer
	reader   *bufio.Reader
	out      io.Writer
}

// NewApp opens the configured storage and the export bucket client.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	s3Client, err := export.NewS3Client(ctx, cfg)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stderr, false)

	a := newApp(
		services.NewUserService(store),
		store,
		export.NewExporter(store, s3Client, cfg.S3Bucket, logger),
		os.Stdin,
		os.Stdout,
	)
	a.closer = store
	return a, nil
}

func newApp(us userService, wl waitlistReader, ex exporter, in io.Reader, out io.Writer) *App {
	return &App{
		users:    us,
		waitlist: wl,
		exporter: ex,
		reader:   bufio.NewReader(in),
		out:      out,
	}
}

// Run blocks in the REPL until the operator exits, then releases storage.
func (a *App) Run(ctx context.Context) {
	if a.closer != nil {
		defer a.closer.Close()
	}
	fmt.Fprintln(a.out, helpText)
	runREPL(ctx, a, a.reader, a.out)
}

func (a *App) Count(ctx context.Context) error {
	n, err := a.waitlist.GetWaitlistCount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d email(s) on the waitlist\n", n)
	return nil
}

func (a *App) AddUser(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return err
	}

	pw, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	u, err := a.users.Create(ctx, username, string(pw))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Created user %s (%s)\n", u.Username, u.ID)
	return nil
}

func (a *App) User(ctx context.Context, username string) error {
	u, err := a.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			fmt.Fprintf(a.out, "No user %q\n", username)
			return nil
		}
		return err
	}
	fmt.Fprintf(a.out, "%s\t%s\n", u.ID, u.Username)
	return nil
}

func (a *App) UserByID(ctx context.Context, id string) error {
	u, err := a.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			fmt.Fprintf(a.out, "No user with id %q\n", id)
			return nil
		}
		return err
	}
	fmt.Fprintf(a.out, "%s\t%s\n", u.ID, u.Username)
	return nil
}

func (a *App) Lookup(ctx context.Context, email string) error {
	w, err := a.waitlist.GetWaitlistEmail(ctx, email)
	if err != nil {
		return err
	}
	if w == nil {
		fmt.Fprintf(a.out, "%s is not on the waitlist\n", email)
		return nil
	}

	status := "pending"
	if w.Confirmed && w.ConfirmedAt != nil {
		status = "confirmed " + w.ConfirmedAt.Format(time.RFC3339)
	}
	fmt.Fprintf(a.out, "%s\t%s\tjoined %s\t%s\n", w.ID, w.Email, w.CreatedAt.Format(time.RFC3339), status)
	return nil
}

func (a *App) Export(ctx context.Context) error {
	res, err := a.exporter.Export(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported %d row(s) to %s\n", res.Rows, res.Key)
	return nil
}
