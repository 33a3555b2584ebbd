package httptransport

import (
	"net/http"
	"strconv"
	"time"

	"split-or-steal/internal/events"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

var ssePingInterval = 15 * time.Second

// EventsSSEHandler streams the event log. An optional room_id query narrows
// the stream to one room; Last-Event-ID resumes after a dropped connection.
func EventsSSEHandler(buf *events.Buffer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var roomID uint64
		if v := r.URL.Query().Get("room_id"); v != "" {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil || n == 0 {
				WriteHTTPError(w, http.StatusBadRequest, "invalid_room_id")
				return
			}
			roomID = n
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			WriteHTTPError(w, http.StatusInternalServerError, "stream_not_supported")
			return
		}

		metricSSEConnectionsTotal.Add(1)
		metricSSEConnectionsActive.Add(1)
		defer metricSSEConnectionsActive.Add(-1)

		events.SetSSEHeaders(w)
		w.WriteHeader(http.StatusOK)
		log.Info().
			Str("request_id", chimw.GetReqID(r.Context())).
			Uint64("room_id", roomID).
			Msg("sse stream opened")

		// Subscribe before replaying so nothing published in between is lost.
		ch := buf.Subscribe()
		defer buf.Unsubscribe(ch)

		var lastSent int64
		if v, err := strconv.ParseInt(r.Header.Get("Last-Event-ID"), 10, 64); err == nil {
			lastSent = v
		}
		for _, ev := range buf.ReplayAfter(r.Header.Get("Last-Event-ID")) {
			if !wanted(ev, roomID) {
				continue
			}
			if err := events.WriteSSE(w, ev); err != nil {
				return
			}
			lastSent = eventSeq(ev)
			logSSEEvent(r, "replay", ev)
		}
		flusher.Flush()

		ticker := time.NewTicker(ssePingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				log.Info().
					Str("request_id", chimw.GetReqID(r.Context())).
					Err(r.Context().Err()).
					Msg("sse stream closed")
				return
			case ev, ok := <-ch:
				if !ok {
					log.Info().
						Str("request_id", chimw.GetReqID(r.Context())).
						Msg("sse stream channel closed")
					return
				}
				if eventSeq(ev) <= lastSent || !wanted(ev, roomID) {
					continue
				}
				if err := events.WriteSSE(w, ev); err != nil {
					return
				}
				lastSent = eventSeq(ev)
				logSSEEvent(r, "live", ev)
				flusher.Flush()
			case <-ticker.C:
				now := time.Now().UnixMilli()
				ping := events.Event{Event: "ping", ServerTS: now, Data: map[string]any{"ts": now}}
				if err := events.WriteSSE(w, ping); err != nil {
					return
				}
				logSSEEvent(r, "ping", ping)
				flusher.Flush()
			}
		}
	}
}

func wanted(ev events.Event, roomID uint64) bool {
	return roomID == 0 || ev.RoomID == roomID
}

func eventSeq(ev events.Event) int64 {
	n, _ := strconv.ParseInt(ev.EventID, 10, 64)
	return n
}

func logSSEEvent(r *http.Request, source string, ev events.Event) {
	evt := log.Info()
	if ev.Event == "ping" {
		evt = log.Debug()
	}
	evt.
		Str("request_id", chimw.GetReqID(r.Context())).
		Str("event", ev.Event).
		Str("event_id", ev.EventID).
		Uint64("room_id", ev.RoomID).
		Str("source", source).
		Int64("server_ts", ev.ServerTS).
		Msg("sse event sent")
}
