package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/waitlist/internal/server/export"
	"github.com/dmitrijs2005/waitlist/internal/server/models"
	"github.com/dmitrijs2005/waitlist/internal/server/services"
	"github.com/dmitrijs2005/waitlist/internal/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExporter struct {
	res *export.Result
	err error
}

func (f fakeExporter) Export(context.Context) (*export.Result, error) { return f.res, f.err }

func newTestApp(t *testing.T, input string, ex exporter) (*App, *storage.InMemoryStorage, *bytes.Buffer) {
	t.Helper()
	store := storage.NewInMemoryStorage()
	var out bytes.Buffer
	return newApp(services.NewUserService(store), store, ex, strings.NewReader(input), &out), store, &out
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	readPassword = func(int) ([]byte, error) { return []byte(pw), nil }
}

func TestApp_Session(t *testing.T) {
	stubPassword(t, "hunter2")

	app, store, out := newTestApp(t, strings.Join([]string{
		"adduser",
		"alice",
		"user alice",
		"user bob",
		"count",
		"lookup user@example.com",
		"lookup ghost@example.com",
		"export",
		"exit",
	}, "\n"), fakeExporter{res: &export.Result{Key: "waitlist/2026/10/16/x.csv", Rows: 1}})

	_, err := store.AddToWaitlist(context.Background(), models.NewWaitlistEmail{Email: "user@example.com"})
	require.NoError(t, err)

	app.Run(context.Background())

	u, err := store.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "hunter2", u.Password)

	s := out.String()
	assert.Contains(t, s, "Created user alice")
	assert.Contains(t, s, u.ID+"\talice")
	assert.Contains(t, s, `No user "bob"`)
	assert.Contains(t, s, "1 email(s) on the waitlist")
	assert.Contains(t, s, "user@example.com\tjoined")
	assert.Contains(t, s, "pending")
	assert.Contains(t, s, "ghost@example.com is not on the waitlist")
	assert.Contains(t, s, "Exported 1 row(s) to waitlist/2026/10/16/x.csv")
}

func TestApp_UserByID(t *testing.T) {
	ctx := context.Background()
	app, store, out := newTestApp(t, "", fakeExporter{})

	u, err := store.CreateUser(ctx, models.NewUser{Username: "carol", Password: "pw"})
	require.NoError(t, err)

	require.NoError(t, app.UserByID(ctx, u.ID))
	assert.Contains(t, out.String(), u.ID+"\tcarol")

	require.NoError(t, app.UserByID(ctx, "missing"))
	assert.Contains(t, out.String(), `No user with id "missing"`)
}

func TestApp_AddUserDuplicate(t *testing.T) {
	stubPassword(t, "pw")

	app, _, out := newTestApp(t, "adduser\nalice\nadduser\nalice\n", fakeExporter{})
	app.Run(context.Background())

	assert.Contains(t, out.String(), "Created user alice")
	assert.Contains(t, out.String(), "Error: username \"alice\": already exists")
}

func TestApp_LookupConfirmed(t *testing.T) {
	app, store, out := newTestApp(t, "", fakeExporter{})
	ctx := context.Background()

	w, err := store.AddToWaitlist(ctx, models.NewWaitlistEmail{Email: "c@example.com"})
	require.NoError(t, err)
	_, err = store.ConfirmEmail(ctx, w.Token())
	require.NoError(t, err)

	require.NoError(t, app.Lookup(ctx, "c@example.com"))
	assert.Contains(t, out.String(), "confirmed ")
}

func TestApp_ExportError(t *testing.T) {
	app, _, _ := newTestApp(t, "", fakeExporter{err: errors.New("bucket missing")})
	assert.EqualError(t, app.Export(context.Background()), "bucket missing")
}
