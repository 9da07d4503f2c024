/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting, verifying an
optional upgrade-time identity token, upgrading the HTTP connection to WebSocket, and starting the client.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"chatcore/internal/app/chat"
	"chatcore/internal/app/user"
	"chatcore/internal/pkg/auth/jwt"
	"chatcore/internal/pkg/errs"
	"chatcore/internal/pkg/limiter"
	"chatcore/internal/pkg/logx"
	"chatcore/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
// A token in the Authorization header or the token query parameter authenticates the
// session right away; otherwise the client must send an authenticate event.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rateLimiter.Allow(r) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", limiter.ClientIP(r))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		var principal *user.Principal
		if token := jwt.TokenFromRequest(r); token != "" {
			p, customErr := deps.Hub.VerifyToken(token)
			if customErr != nil {
				logx.Warn("WebSocket connection rejected: Invalid token.", "error", customErr.Cause)
				resp.RespondError(w, r, customErr)
				return
			}
			principal = &p
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		session, err := deps.Hub.Connect()
		if err != nil {
			logx.Error(err, "Failed to allocate session")
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "session unavailable"))
			conn.Close()
			return
		}

		client := chat.NewClient(deps.Hub, session, conn)

		if principal != nil {
			if customErr := deps.Hub.Bind(session, *principal); customErr != nil {
				logx.Warn("Failed to bind upgrade-time identity", "session_id", session.SessionID(), "code", customErr.Code)
			}
		}

		logx.Info("WebSocket connection established", "session_id", session.SessionID(), "authenticated", principal != nil)

		client.Start()
	}
}
