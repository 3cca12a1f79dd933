/*
This file contains the websocket entry point: rate limiting, session checks,
the upgrade, and the client lifecycle spanning registration to teardown.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"duochat/internal/app/chat"
	"duochat/internal/pkg/auth/jwt"
	"duochat/internal/pkg/errs"
	"duochat/internal/pkg/limiter"
	"duochat/internal/pkg/logx"
	"duochat/internal/pkg/resp"
)

// HandleWebSocket upgrades an authenticated request to the live message
// channel. The session token arrives as ?token= because browser websocket
// clients cannot set an Authorization header.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		payload := jwt.GetPayloadFromContext(r)
		if payload == nil {
			logx.Warn("WebSocket connection rejected: Missing or invalid session token")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote an HTTP error to the client.
			logx.Error(err, "WebSocket upgrade failed", "user_id", payload.ID)
			return
		}

		client := chat.NewClient(conn, payload.ID)

		// Register replaces and kicks any previous channel for this user.
		deps.Registry.Register(payload.ID, client)
		deps.Router.AnnouncePresence()

		logx.Info("WebSocket connected", "user_id", payload.ID)

		go client.WritePump()
		client.ReadPump()

		// ReadPump returned, the connection is gone. The identity guard keeps a
		// replacement channel registered in the meantime from being evicted.
		deps.Registry.Unregister(payload.ID, client)
		deps.Router.AnnouncePresence()

		logx.Info("WebSocket disconnected", "user_id", payload.ID)
	}
}
