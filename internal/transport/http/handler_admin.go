package httptransport

import (
	"context"
	"net/http"

	appadmin "split-or-steal/internal/app/admin"

	"github.com/go-chi/chi/v5"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type AdminHandlers struct {
	svc *appadmin.Service
	db  Pinger
}

// NewAdminHandlers builds the admin handlers. db may be nil when rooms live in
// memory.
func NewAdminHandlers(svc *appadmin.Service, db Pinger) *AdminHandlers {
	return &AdminHandlers{svc: svc, db: db}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.db == nil {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "memory"})
			return
		}
		if err := h.db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "db": "down"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "db": "up"})
	}
}

func (h *AdminHandlers) Issue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appadmin.IssueRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		st, err := h.svc.Issue(r.Context(), req)
		if err != nil {
			WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, st)
	}
}

func (h *AdminHandlers) Status() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := h.svc.Status(r.Context(), chi.URLParam(r, "nullifier"))
		if err != nil {
			WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func (h *AdminHandlers) Ban() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := h.svc.Ban(r.Context(), chi.URLParam(r, "nullifier"))
		if err != nil {
			WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func (h *AdminHandlers) Unban() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := h.svc.Unban(r.Context(), chi.URLParam(r, "nullifier"))
		if err != nil {
			WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
