package router

import (
	"github.com/gin-gonic/gin"

	"roomlog.app/chatd/internal/http/handler"
)

func ChatRouter(router *gin.RouterGroup, handler *handler.ChatHandler) {
	router.POST("/chat", handler.Chat)
}
