/*
Package handler provides HTTP handler functions for inspecting and moderating the chat server.
*/
package handler

import (
	"net/http"
	"strings"

	"linechat/internal/pkg/auth/jwt"
	"linechat/internal/pkg/errs"
	"linechat/internal/pkg/logx"
	"linechat/internal/pkg/req"
	"linechat/internal/pkg/resp"
)

// HandleListUsers returns the nicknames of all logged-in users.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users := deps.Server.Online()

		data := map[string]any{
			"users": users,
			"count": len(users),
		}
		resp.RespondSuccess(w, r, data)
	}
}

// HandleStats returns session counts and uptime.
func HandleStats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := deps.Server.Stats()

		data := map[string]any{
			"sessions":      stats.Sessions,
			"online":        stats.Online,
			"uptimeSeconds": int64(stats.Uptime.Seconds()),
		}
		resp.RespondSuccess(w, r, data)
	}
}

type KickInput struct {
	Nickname string `json:"nickname"`
}

// HandleKick disconnects the session holding the given nickname. It must run behind jwt.RequireAdmin.
func HandleKick(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input KickInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		nickname := input.Nickname
		if strings.TrimSpace(nickname) == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		operator := ""
		if payload := jwt.GetPayloadFromContext(r); payload != nil {
			operator = payload.Operator
		}

		if !deps.Server.Kick(nickname) {
			logx.Info("Kick requested for offline user.", "nickname", nickname, "operator", operator)
			resp.RespondError(w, r, errs.NewError(errs.ErrUserNotOnline))
			return
		}

		logx.Info("User kicked.", "nickname", nickname, "operator", operator)

		resp.RespondSuccess(w, r, map[string]string{"nickname": nickname})
	}
}
