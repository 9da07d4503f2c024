package handler

import (
	"chatcore/internal/app/chat"
	"chatcore/internal/app/message"
	"chatcore/internal/app/room"
	"chatcore/internal/app/user"
	"chatcore/internal/configs"
)

// AppDeps carries the long-lived components shared by every handler.
type AppDeps struct {
	Hub      *chat.Hub
	Rooms    *room.Service
	Messages message.Store
	Config   *configs.AppConfig

	// DisplayCache is set when the Redis display cache is enabled.
	DisplayCache *user.CachedLookup
}
