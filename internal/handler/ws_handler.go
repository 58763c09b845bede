/*
Package handler provides the HTTP handler function for WebSocket connection upgrading.

This file contains the HandleWebSocket function, which upgrades the HTTP connection to WebSocket
and hands it to the chat server, where it behaves exactly like a TCP session.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"linechat/internal/pkg/logx"
)

// HandleWebSocket creates an HTTP HandlerFunc that serves the chat protocol over WebSocket,
// one protocol line per text frame. Admission control is applied by the chat server and keyed
// on r.RemoteAddr, which middleware.RealIP has already resolved from proxy headers.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		sess, err := deps.Server.AttachWebSocket(conn, r.RemoteAddr)
		if err != nil {
			logx.Info("WebSocket session not attached.", "error", err.Error())
			return
		}

		logx.Info("WebSocket session established.", "session_id", sess.ID, "remote_ip", logx.AnonymizeIP(r.RemoteAddr))
	}
}
