package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ysa-registration/internal/model"
	"ysa-registration/internal/repository"
	"ysa-registration/internal/service"
	"ysa-registration/internal/validate"
)

// listResponse is one dashboard page plus the paging facts needed to render
// the pager.
type listResponse struct {
	Items      []model.Registration `json:"items"`
	Page       int                  `json:"page"`
	TotalPages int                  `json:"totalPages"`
	Total      int                  `json:"total"`
}

func filterFromQuery(r *http.Request) service.Filter {
	q := r.URL.Query()
	return service.Filter{
		Search:     q.Get("search"),
		Gender:     q.Get("gender"),
		TShirtSize: q.Get("tShirtSize"),
		Stake:      q.Get("stake"),
		Ward:       q.Get("ward"),
	}
}

// ListRegistrations handles GET /api/admin/registrations
// Returns one page of the filtered list, newest first.
func (h *Handler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.regs.List(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, service.MsgRetryLater)
		return
	}

	filtered := filterFromQuery(r).Apply(regs)
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	items, totalPages := service.Paginate(filtered, page)

	writeJSON(w, http.StatusOK, listResponse{
		Items:      items,
		Page:       page,
		TotalPages: totalPages,
		Total:      len(filtered),
	})
}

// UpdateRegistration handles PUT /api/admin/registrations/{id}
// Replaces the record wholesale; ID, timestamp, and paid state are kept.
func (h *Handler) UpdateRegistration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req model.SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.regs.Edit(r.Context(), id, req)
	if err != nil {
		var verr *validate.Error
		var derr *service.DuplicateError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, fieldError{Error: verr.Message, Field: verr.Field})
		case errors.As(err, &derr):
			writeError(w, http.StatusConflict, derr.Error())
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "registration not found")
		default:
			writeError(w, http.StatusServiceUnavailable, service.MsgRetryLater)
		}
		return
	}

	writeJSON(w, http.StatusOK, reg)
}

// DeleteRegistration handles DELETE /api/admin/registrations/{id}
func (h *Handler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.regs.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "registration not found")
			return
		}
		writeError(w, http.StatusServiceUnavailable, service.MsgRetryLater)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// TogglePaid handles POST /api/admin/registrations/{id}/paid
// Flips only the isPaid flag.
func (h *Handler) TogglePaid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	reg, err := h.regs.TogglePaid(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "registration not found")
			return
		}
		writeError(w, http.StatusServiceUnavailable, service.MsgRetryLater)
		return
	}

	writeJSON(w, http.StatusOK, reg)
}

// ─── Export ───────────────────────────────────────────────────────────────────

// exportList applies the request's filters without paging: an export always
// covers every matching row.
func (h *Handler) exportList(r *http.Request) ([]model.Registration, error) {
	regs, err := h.regs.List(r.Context())
	if err != nil {
		return nil, err
	}
	return filterFromQuery(r).Apply(regs), nil
}

// ExportCSV handles GET /api/admin/registrations/export.csv
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	regs, err := h.exportList(r)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, service.MsgRetryLater)
		return
	}

	data, err := service.ExportCSV(regs)
	if err != nil {
		h.logger.Error("csv export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", exportFilename("csv"))
	_, _ = w.Write(data)
}

// ExportXLSX handles GET /api/admin/registrations/export.xlsx
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	regs, err := h.exportList(r)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, service.MsgRetryLater)
		return
	}

	data, err := service.ExportXLSX(regs)
	if err != nil {
		h.logger.Error("xlsx export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", exportFilename("xlsx"))
	_, _ = w.Write(data)
}

func exportFilename(ext string) string {
	return fmt.Sprintf(`attachment; filename="ysa_registrations_%s.%s"`,
		time.Now().Format("2006-01-02"), ext)
}

// ─── Users ────────────────────────────────────────────────────────────────────

// ListUsers handles GET /api/admin/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, service.MsgRetryLater)
		return
	}
	if users == nil {
		users = []model.SystemUser{}
	}
	writeJSON(w, http.StatusOK, users)
}

// CreateUser handles POST /api/admin/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	user, err := h.auth.CreateUser(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameTaken), errors.Is(err, service.ErrReservedUsername):
			writeError(w, http.StatusConflict, "username already exists")
		case errors.Is(err, repository.ErrRemoteUnavailable):
			writeError(w, http.StatusServiceUnavailable, service.MsgRetryLater)
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// DeleteUser handles DELETE /api/admin/users/{id}
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.auth.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusServiceUnavailable, service.MsgRetryLater)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ─── Live feed ────────────────────────────────────────────────────────────────

// Watch handles GET /api/admin/registrations/watch
// Streams full list snapshots as server-sent events until the client
// disconnects. Each event carries the complete current list, so a dropped
// event is harmless.
func (h *Handler) Watch(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.regs.Subscribe(r.Context())
	h.regs.Refresh(r.Context())

	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, open := <-ch:
			if !open {
				return
			}
			if snapshot == nil {
				snapshot = []model.Registration{}
			}
			if err := writeEvent(w, snapshot); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, snapshot []model.Registration) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: registrations\ndata: %s\n\n", payload)
	return err
}
