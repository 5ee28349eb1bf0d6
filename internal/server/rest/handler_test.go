package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmitrijs2005/waitlist/internal/logging"
	"github.com/dmitrijs2005/waitlist/internal/server/models"
	"github.com/dmitrijs2005/waitlist/internal/server/notify"
	"github.com/dmitrijs2005/waitlist/internal/server/services"
	"github.com/dmitrijs2005/waitlist/internal/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	router http.Handler
	store  *storage.InMemoryStorage
}

func newTestAPI(t *testing.T, development bool) *testAPI {
	t.Helper()
	store := storage.NewInMemoryStorage()
	ws := services.NewWaitlistService(store, notify.NewLogNotifier(logging.Nop{}, "http://localhost", development), logging.Nop{})
	h := NewHandler(ws, logging.Nop{}, development)
	return &testAPI{
		router: NewRouter(h, logging.Nop{}, RouterOptions{AllowedOrigins: []string{"*"}}),
		store:  store,
	}
}

func (a *testAPI) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func (a *testAPI) token(t *testing.T, email string) string {
	t.Helper()
	w, err := a.store.GetWaitlistEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, w)
	return w.Token()
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"valid", `{"email":"user@example.com"}`, http.StatusCreated, "successfully joined the waitlist"},
		{"bad format", `{"email":"bad-email"}`, http.StatusBadRequest, "invalid email format"},
		{"missing", `{}`, http.StatusBadRequest, "email is required"},
		{"empty", `{"email":""}`, http.StatusBadRequest, "email is required"},
		{"not json", `email=user@example.com`, http.StatusBadRequest, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t, false)
			status, body := api.do(t, http.MethodPost, "/api/waitlist", tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, body["message"])
		})
	}
}

func TestJoin_EchoesEmail(t *testing.T) {
	api := newTestAPI(t, false)
	_, body := api.do(t, http.MethodPost, "/api/waitlist", `{"email":"user@example.com"}`)
	assert.Equal(t, "user@example.com", body["email"])
	assert.NotContains(t, body, "token")
}

func TestJoin_Duplicate(t *testing.T) {
	api := newTestAPI(t, false)

	status, _ := api.do(t, http.MethodPost, "/api/waitlist", `{"email":"a@b.com"}`)
	require.Equal(t, http.StatusCreated, status)

	status, body := api.do(t, http.MethodPost, "/api/waitlist", `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, msgAlreadyJoined, body["message"])

	status, body = api.do(t, http.MethodGet, "/api/waitlist/count", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])
}

func TestJoin_InvalidLeavesCountZero(t *testing.T) {
	api := newTestAPI(t, false)

	status, _ := api.do(t, http.MethodPost, "/api/waitlist", `{"email":"bad-email"}`)
	require.Equal(t, http.StatusBadRequest, status)

	_, body := api.do(t, http.MethodGet, "/api/waitlist/count", "")
	assert.Equal(t, float64(0), body["count"])
}

func TestConfirm(t *testing.T) {
	api := newTestAPI(t, false)

	status, _ := api.do(t, http.MethodPost, "/api/waitlist", `{"email":"user@example.com"}`)
	require.Equal(t, http.StatusCreated, status)
	token := api.token(t, "user@example.com")

	status, body := api.do(t, http.MethodPost, "/api/waitlist/confirm/"+token, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["confirmed"])
	assert.Equal(t, "email confirmed", body["message"])

	_, body = api.do(t, http.MethodGet, "/api/waitlist/count", "")
	assert.Equal(t, float64(1), body["count"])

	status, body = api.do(t, http.MethodPost, "/api/waitlist/confirm/"+token, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, msgInvalidToken, body["message"])
}

func TestConfirm_MissingOrUnknownToken(t *testing.T) {
	api := newTestAPI(t, false)

	for _, path := range []string{"/api/waitlist/confirm", "/api/waitlist/confirm/"} {
		status, body := api.do(t, http.MethodPost, path, "")
		assert.Equal(t, http.StatusBadRequest, status, path)
		assert.Equal(t, msgTokenRequired, body["message"], path)
	}

	status, _ := api.do(t, http.MethodPost, "/api/waitlist/confirm/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestResend(t *testing.T) {
	api := newTestAPI(t, false)

	status, body := api.do(t, http.MethodPost, "/api/waitlist/resend-confirmation", `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, msgEmailNotFound, body["message"])

	status, body = api.do(t, http.MethodPost, "/api/waitlist/resend-confirmation", `{"email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid email format", body["message"])

	api.do(t, http.MethodPost, "/api/waitlist", `{"email":"user@example.com"}`)
	oldToken := api.token(t, "user@example.com")

	status, body = api.do(t, http.MethodPost, "/api/waitlist/resend-confirmation", `{"email":"user@example.com"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "confirmation email sent", body["message"])
	assert.NotContains(t, body, "token")

	newToken := api.token(t, "user@example.com")
	assert.NotEqual(t, oldToken, newToken)

	status, _ = api.do(t, http.MethodPost, "/api/waitlist/confirm/"+oldToken, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = api.do(t, http.MethodPost, "/api/waitlist/confirm/"+newToken, "")
	assert.Equal(t, http.StatusOK, status)

	status, body = api.do(t, http.MethodPost, "/api/waitlist/resend-confirmation", `{"email":"user@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, msgAlreadyConfirmed, body["message"])
}

func TestResend_DevelopmentReturnsToken(t *testing.T) {
	api := newTestAPI(t, true)

	api.do(t, http.MethodPost, "/api/waitlist", `{"email":"dev@example.com"}`)

	status, body := api.do(t, http.MethodPost, "/api/waitlist/resend-confirmation", `{"email":"dev@example.com"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, api.token(t, "dev@example.com"), body["token"])
}

type failingService struct{}

var errDB = errors.New("db error: connection reset")

func (failingService) Join(context.Context, string) (*models.WaitlistEmail, error) { return nil, errDB }
func (failingService) Count(context.Context) (int64, error)                        { return 0, errDB }
func (failingService) Confirm(context.Context, string) (*models.WaitlistEmail, error) {
	return nil, errDB
}
func (failingService) Resend(context.Context, string) (string, error) { return "", errDB }
func (failingService) Ping(context.Context) error                     { return errDB }

func TestStorageFailuresAreInternal(t *testing.T) {
	router := NewRouter(NewHandler(failingService{}, logging.Nop{}, true), logging.Nop{}, RouterOptions{})
	api := &testAPI{router: router}

	cases := []struct{ method, path, body string }{
		{http.MethodPost, "/api/waitlist", `{"email":"user@example.com"}`},
		{http.MethodGet, "/api/waitlist/count", ""},
		{http.MethodPost, "/api/waitlist/confirm/tok", ""},
		{http.MethodPost, "/api/waitlist/resend-confirmation", `{"email":"user@example.com"}`},
	}
	for _, c := range cases {
		status, body := api.do(t, c.method, c.path, c.body)
		assert.Equal(t, http.StatusInternalServerError, status, c.path)
		assert.Equal(t, msgInternal, body["message"], c.path)
		assert.NotContains(t, body["message"], "connection reset")
	}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, false)
	status, body := api.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	down := &testAPI{router: NewRouter(NewHandler(failingService{}, logging.Nop{}, false), logging.Nop{}, RouterOptions{})}
	status, _ = down.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t, false)

	req := httptest.NewRequest(http.MethodOptions, "/api/waitlist", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
