package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/neexbeast/weatherdash/internal/provider"
	"github.com/neexbeast/weatherdash/internal/session"
)

const maxBodyBytes = 1 << 16

// SessionHandlers serves the per-session dashboard endpoints.
type SessionHandlers struct {
	svc SessionService
	log *slog.Logger
}

// NewSessionHandlers constructs SessionHandlers.
func NewSessionHandlers(svc SessionService, log *slog.Logger) *SessionHandlers {
	return &SessionHandlers{svc: svc, log: log}
}

// writeSessionError maps session and upstream errors to response statuses.
func (h *SessionHandlers) writeSessionError(w http.ResponseWriter, r *http.Request, err error) {
	id := chi.URLParam(r, "sessionID")
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, session.ErrAlreadyFavorite):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrSuperseded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrNoCurrentLocation),
		errors.Is(err, session.ErrInvalidUnit),
		errors.Is(err, session.ErrInvalidTheme):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, provider.ErrInvalidQuery),
		errors.Is(err, provider.ErrNotFound),
		errors.Is(err, provider.ErrCircuitOpen):
		writeUpstreamError(w, err)
	default:
		h.log.Error("session operation failed", "session_id", id, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusBadGateway, "failed to complete request")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// Create handles POST /api/v1/sessions.
func (h *SessionHandlers) Create(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Create(r.Context())
	if err != nil {
		h.log.Error("session create failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// Get handles GET /api/v1/sessions/{sessionID}.
func (h *SessionHandlers) Get(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SetPreferences handles PUT /api/v1/sessions/{sessionID}/preferences.
func (h *SessionHandlers) SetPreferences(w http.ResponseWriter, r *http.Request) {
	var p session.Preferences
	if !decodeBody(w, r, &p) {
		return
	}
	res, err := h.svc.SetPreferences(r.Context(), chi.URLParam(r, "sessionID"), p)
	if err != nil {
		h.writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Search handles POST /api/v1/sessions/{sessionID}/search with a body of
// {"city": "Paris"} or {"coord": {"lat": 48.85, "lon": 2.35}}.
func (h *SessionHandlers) Search(w http.ResponseWriter, r *http.Request) {
	var q provider.Query
	if !decodeBody(w, r, &q) {
		return
	}
	if err := q.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Search(r.Context(), chi.URLParam(r, "sessionID"), q)
	if err != nil {
		h.writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Refresh handles POST /api/v1/sessions/{sessionID}/refresh.
func (h *SessionHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Refresh(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// AddFavorite handles POST /api/v1/sessions/{sessionID}/favorites.
func (h *SessionHandlers) AddFavorite(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.AddFavorite(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// RemoveFavorite handles DELETE /api/v1/sessions/{sessionID}/favorites/{locationID}.
func (h *SessionHandlers) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	locationID, err := strconv.Atoi(chi.URLParam(r, "locationID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid location id")
		return
	}
	res, err := h.svc.RemoveFavorite(r.Context(), chi.URLParam(r, "sessionID"), locationID)
	if err != nil {
		h.writeSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
