package httptransport

import (
	"expvar"
	"fmt"
	"net/http"
	"sort"
	"strings"

	appadmin "split-or-steal/internal/app/admin"
	approoms "split-or-steal/internal/app/rooms"
	"split-or-steal/internal/config"
	"split-or-steal/internal/events"
	"split-or-steal/internal/mcpserver"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type Deps struct {
	Rooms  *approoms.Service
	Admin  *appadmin.Service
	Events *events.Buffer
	// DB backs /healthz. Nil means the in-memory store.
	DB Pinger
}

func NewRouter(deps Deps, cfg config.ServerConfig) *chi.Mux {
	roomHandlers := NewRoomHandlers(deps.Rooms)
	adminHandlers := NewAdminHandlers(deps.Admin, deps.DB)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", adminHandlers.Health())
	if cfg.MCPEnabled {
		mcpSrv := mcpserver.New(deps.Rooms)
		r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
			w.WriteHeader(http.StatusNoContent)
		})
		r.With(APILogMiddleware()).Method(http.MethodPost, "/mcp", mcpSrv.Handler())
		r.With(APILogMiddleware()).Method(http.MethodGet, "/mcp", mcpSrv.Handler())
		r.With(APILogMiddleware()).Method(http.MethodDelete, "/mcp", mcpSrv.Handler())
	} else {
		log.Info().Msg("mcp endpoint disabled")
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Post("/rooms", roomHandlers.Create())
		r.Get("/rooms/joinable", roomHandlers.Joinable())
		r.Get("/rooms/{room_id}", roomHandlers.Get())
		r.Post("/rooms/{room_id}/join", roomHandlers.Join())
		r.Post("/rooms/{room_id}/commit", roomHandlers.Commit())
		r.Post("/rooms/{room_id}/reveal", roomHandlers.Reveal())
		r.Post("/rooms/{room_id}/settle", roomHandlers.Settle())
		r.Post("/withdraw", roomHandlers.Withdraw())
		r.Get("/balances/{address}", roomHandlers.Balance())
		r.Get("/events", EventsSSEHandler(deps.Events))

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.AdminAPIKey))
			r.Post("/admin/identities", adminHandlers.Issue())
			r.Get("/admin/identities/{nullifier}", adminHandlers.Status())
			r.Post("/admin/identities/{nullifier}/ban", adminHandlers.Ban())
			r.Delete("/admin/identities/{nullifier}/ban", adminHandlers.Unban())

			r.Route("/debug", func(r chi.Router) {
				r.Use(BodyCaptureMiddleware(4096))
				r.Get("/vars", expvar.Handler().ServeHTTP)
			})
		})
	})
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 64)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
