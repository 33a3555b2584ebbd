package httptransport

import (
	"net/http"
	"strconv"

	approoms "split-or-steal/internal/app/rooms"

	"github.com/go-chi/chi/v5"
)

type RoomHandlers struct {
	svc *approoms.Service
}

func NewRoomHandlers(svc *approoms.Service) *RoomHandlers {
	return &RoomHandlers{svc: svc}
}

func roomIDParam(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := approoms.ParseRoomID(chi.URLParam(r, "room_id"))
	if err != nil {
		WriteServiceError(w, r, err)
		return 0, false
	}
	return id, true
}

func (h *RoomHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req approoms.CreateRoomRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		view, err := h.svc.CreateRoom(r.Context(), PlayerAddress(r), req)
		metricRoomOpsTotal.Add("create", 1)
		if err != nil {
			metricRoomOpsErrors.Add("create", 1)
			WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

func (h *RoomHandlers) Join() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := roomIDParam(w, r)
		if !ok {
			return
		}
		var req approoms.JoinRoomRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		view, err := h.svc.JoinRoom(r.Context(), PlayerAddress(r), id, req)
		metricRoomOpsTotal.Add("join", 1)
		if err != nil {
			metricRoomOpsErrors.Add("join", 1)
			WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (h *RoomHandlers) Commit() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := roomIDParam(w, r)
		if !ok {
			return
		}
		var req approoms.CommitRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		view, err := h.svc.Commit(r.Context(), PlayerAddress(r), id, req)
		metricRoomOpsTotal.Add("commit", 1)
		if err != nil {
			metricRoomOpsErrors.Add("commit", 1)
			WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (h *RoomHandlers) Reveal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := roomIDParam(w, r)
		if !ok {
			return
		}
		var req approoms.RevealRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		view, err := h.svc.Reveal(r.Context(), PlayerAddress(r), id, req)
		metricRoomOpsTotal.Add("reveal", 1)
		if err != nil {
			metricRoomOpsErrors.Add("reveal", 1)
			WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (h *RoomHandlers) Settle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := roomIDParam(w, r)
		if !ok {
			return
		}
		resp, err := h.svc.Settle(r.Context(), id)
		metricRoomOpsTotal.Add("settle", 1)
		if err != nil {
			metricRoomOpsErrors.Add("settle", 1)
			WriteServiceError(w, r, err)
			return
		}
		metricSettlementsTotal.Add(string(resp.Payout.Resolution), 1)
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *RoomHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := roomIDParam(w, r)
		if !ok {
			return
		}
		view, err := h.svc.GetRoom(r.Context(), id)
		if err != nil {
			WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func (h *RoomHandlers) Joinable() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var start uint64
		if v := r.URL.Query().Get("start"); v != "" {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_start")
				return
			}
			start = n
		}
		var max int
		if v := r.URL.Query().Get("max"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_max")
				return
			}
			max = n
		}
		resp, err := h.svc.ListJoinable(r.Context(), start, max)
		if err != nil {
			WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *RoomHandlers) Withdraw() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wd, err := h.svc.Withdraw(r.Context(), PlayerAddress(r))
		metricWithdrawalsTotal.Add(1)
		if err != nil {
			metricWithdrawalsErrors.Add(1)
			WriteServiceError(w, r, err)
			return
		}
		metricWithdrawnAmount.Add(wd.Amount)
		writeJSON(w, http.StatusOK, wd)
	}
}

func (h *RoomHandlers) Balance() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := h.svc.Balance(r.Context(), chi.URLParam(r, "address"))
		if err != nil {
			WriteServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
