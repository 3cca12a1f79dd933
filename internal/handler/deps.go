package handler

import (
	"duochat/internal/app/chat"
	"duochat/internal/app/services"
	"duochat/internal/app/storage"
	"duochat/internal/app/store"
	"duochat/internal/configs"
)

type AppDeps struct {
	Config    *configs.AppConfig
	Store     store.Store
	Service   *services.ChatService
	Registry  *chat.Registry
	Router    *chat.Router
	BlobStore storage.BlobStore
}
