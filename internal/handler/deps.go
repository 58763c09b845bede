package handler

import (
	"linechat/internal/app/chat"
	"linechat/internal/configs"
)

// AppDeps carries what the admin HTTP surface needs from the running application.
type AppDeps struct {
	Server *chat.Server
	Config *configs.AppConfig
}
