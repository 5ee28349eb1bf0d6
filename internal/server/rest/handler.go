package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/waitlist/internal/common"
	"github.com/dmitrijs2005/waitlist/internal/logging"
	"github.com/dmitrijs2005/waitlist/internal/server/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// WaitlistService is what the handlers need from the business layer.
type WaitlistService interface {
	Join(ctx context.Context, email string) (*models.WaitlistEmail, error)
	Count(ctx context.Context) (int64, error)
	Confirm(ctx context.Context, token string) (*models.WaitlistEmail, error)
	Resend(ctx context.Context, email string) (string, error)
	Ping(ctx context.Context) error
}

type Handler struct {
	waitlist    WaitlistService
	logger      logging.Logger
	validate    *validator.Validate
	development bool
}

// NewHandler builds the waitlist handlers. With development set the resend
// endpoint echoes the new token back to the caller.
func NewHandler(ws WaitlistService, l logging.Logger, development bool) *Handler {
	return &Handler{
		waitlist:    ws,
		logger:      l.With("module", "rest"),
		validate:    newValidator(),
		development: development,
	}
}

// RegisterRoutes mounts the waitlist endpoints on r, which is expected to be
// rooted at /api/waitlist.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.join)
	r.Get("/count", h.count)
	r.Post("/confirm", h.missingToken)
	r.Post("/confirm/", h.missingToken)
	r.Post("/confirm/{token}", h.confirm)
	r.Post("/resend-confirmation", h.resend)
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeEmail(w, r)
	if !ok {
		return
	}

	entry, err := h.waitlist.Join(r.Context(), req.Email)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, joinResponse{
			Message: "successfully joined the waitlist",
			Email:   entry.Email,
		})
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusConflict, msgAlreadyJoined)
	default:
		h.internalError(w, r, err)
	}
}

func (h *Handler) count(w http.ResponseWriter, r *http.Request) {
	n, err := h.waitlist.Count(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}

func (h *Handler) missingToken(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusBadRequest, msgTokenRequired)
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	_, err := h.waitlist.Confirm(r.Context(), token)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, confirmResponse{Message: "email confirmed", Confirmed: true})
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, msgTokenRequired)
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, msgInvalidToken)
	default:
		h.internalError(w, r, err)
	}
}

func (h *Handler) resend(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeEmail(w, r)
	if !ok {
		return
	}

	token, err := h.waitlist.Resend(r.Context(), req.Email)
	switch {
	case err == nil:
		resp := resendResponse{Message: "confirmation email sent"}
		if h.development {
			resp.Token = token
		}
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, msgEmailNotFound)
	case errors.Is(err, common.ErrAlreadyConfirmed):
		writeError(w, http.StatusBadRequest, msgAlreadyConfirmed)
	default:
		h.internalError(w, r, err)
	}
}

// Health answers 200 while the store is reachable and 503 otherwise.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.waitlist.Ping(r.Context()); err != nil {
		h.logger.Warn(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (h *Handler) decodeEmail(w http.ResponseWriter, r *http.Request) (emailRequest, bool) {
	var req emailRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return req, false
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return req, false
	}

	return req, true
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, msgInternal)
}
