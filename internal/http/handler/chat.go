package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"roomlog.app/chatd/internal/http/dto"
	"roomlog.app/chatd/internal/service"
)

type ChatHandler struct {
	service service.ChatService
}

func NewChatHandler(service service.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	// Binding is lenient: a missing or malformed body is an empty
	// message, rejected below before any actor is touched.
	var req dto.ChatRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.service.Send(ctx, service.SendParams{
		RoomID:  req.RoomID,
		User:    req.User,
		Message: req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyMessage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		case errors.Is(err, service.ErrInferenceFailed):
			slog.ErrorContext(ctx, "chat turn aborted by inference failure", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "inference service unavailable"})
		default:
			slog.ErrorContext(ctx, "chat turn failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process chat turn"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ChatResponse{
		Reply:    result.Reply,
		Messages: result.Messages,
	})
}
