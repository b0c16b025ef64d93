package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"roomlog.app/chatd/internal/http/handler"
	"roomlog.app/chatd/internal/http/ui"
	"roomlog.app/chatd/internal/service"
)

func SetupRoutes(router *gin.Engine, services *service.Services) {
	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", ui.Index)
	})

	api := router.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})

		chatHandler := handler.NewChatHandler(services.Chat())
		ChatRouter(api, chatHandler)
	}
}
