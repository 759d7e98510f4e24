// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ysa-registration/internal/locations"
	"ysa-registration/internal/model"
	"ysa-registration/internal/repository"
	"ysa-registration/internal/service"
	"ysa-registration/internal/validate"
)

// Handler holds all HTTP handlers for the registration API.
type Handler struct {
	regs   *service.Registration
	auth   *service.Auth
	logger *zap.Logger
}

// New constructs a Handler.
func New(regs *service.Registration, auth *service.Auth, logger *zap.Logger) *Handler {
	return &Handler{regs: regs, auth: auth, logger: logger}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// fieldError carries a validation rejection together with the form field it
// applies to, so the client can highlight it.
type fieldError struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// ─── Public handlers ──────────────────────────────────────────────────────────

// Status handles GET /api/registrations/status
// Reports whether registration is still open for the form's page load.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.regs.Status(r.Context()))
}

// Locations handles GET /api/locations
// Returns the stake and ward table the form's dropdowns are built from.
func (h *Handler) Locations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"stakes": locations.Stakes(),
		"wards":  locations.Table(),
	})
}

// Submit handles POST /api/registrations
// Runs the submission through the capacity gate, validation, and duplicate
// checks, then persists it.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.regs.Submit(r.Context(), req)
	if err != nil {
		var verr *validate.Error
		var derr *service.DuplicateError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, fieldError{Error: verr.Message, Field: verr.Field})
		case errors.As(err, &derr):
			writeError(w, http.StatusConflict, derr.Error())
		case errors.Is(err, service.ErrCapacityReached):
			writeError(w, http.StatusConflict, service.MsgCapacityClosed)
		case errors.Is(err, repository.ErrRemoteUnavailable):
			writeError(w, http.StatusServiceUnavailable, service.MsgRetryLater)
		default:
			writeError(w, http.StatusInternalServerError, service.MsgRetryLater)
		}
		return
	}

	writeJSON(w, http.StatusCreated, reg)
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	session, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, service.MsgInvalidLogin)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Logout handles POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(bearerToken(r))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
