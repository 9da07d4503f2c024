/*
Package handler provides the HTTP handlers and routing setup for the chat server.

This file defines the main Router, applying necessary middleware like logging, CORS,
and IP-based rate limiting before delegating requests to specific handlers (API and WebSocket).
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"chatcore/internal/pkg/auth/jwt"
	"chatcore/internal/pkg/limiter"
	"chatcore/internal/pkg/logx"
	"chatcore/internal/pkg/resp"
)

const (
	CreateRate  = 0.05
	CreateBurst = 5
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// It initializes IP-based rate limiters, configures CORS, and applies global and per-route middleware.
func Router(deps *AppDeps) http.Handler {
	createLimiter := limiter.NewIPRateLimiter(rate.Limit(CreateRate), CreateBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(deps.Config.ConnectRate), deps.Config.ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", HandleHealth(deps))

	r.Route("/api", func(api chi.Router) {
		api.Use(jwt.IdentityExtractorMiddleware(deps.Config.JWTSecret))
		api.Use(jwt.RequireIdentity)

		api.Route("/rooms", func(rooms chi.Router) {
			rooms.With(createLimiter.Middleware).Post("/", HandleCreateRoom(deps))
			rooms.With(createLimiter.Middleware).Post("/private", HandleOpenPrivateRoom(deps))

			rooms.Route("/{id}", func(room chi.Router) {
				room.Use(RequireRoomID)

				room.Get("/", HandleGetRoom(deps))
				room.Put("/", HandleUpdateRoom(deps))
				room.Put("/privacy", HandleSetPrivacy(deps))

				room.Get("/members", HandleGetMembers(deps))
				room.Post("/members", HandleAddMembers(deps))
				room.Delete("/members/{memberId}", HandleRemoveMember(deps))
				room.Post("/admins", HandleAddAdmin(deps))

				room.Post("/mutes/{userId}", HandleModerate(deps.Rooms.Mute))
				room.Delete("/mutes/{userId}", HandleModerate(deps.Rooms.Unmute))
				room.Post("/bans/{userId}", HandleModerate(deps.Rooms.Ban))
				room.Delete("/bans/{userId}", HandleModerate(deps.Rooms.Unban))

				room.Get("/messages", HandleListMessages(deps))
			})
		})
	})

	r.Get("/ws", HandleWebSocket(deps, wsUpgrader, connectLimiter))

	return r
}

// HandleHealth reports liveness together with live-state counters.
func HandleHealth(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status":  "ok",
			"service": "chatcore",
			"live":    deps.Hub.Stats(),
		}
		if deps.DisplayCache != nil {
			data["displayCache"] = deps.DisplayCache.Stats()
		}
		resp.RespondSuccess(w, r, data)
	}
}
