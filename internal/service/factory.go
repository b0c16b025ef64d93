package service

import (
	"log/slog"

	"roomlog.app/chatd/core/config"
	"roomlog.app/chatd/internal/llm"
	"roomlog.app/chatd/internal/queue"
	"roomlog.app/chatd/internal/room"
)

type Services struct {
	rooms     *room.Registry
	inference llm.Client
	producer  queue.Producer
	chatCfg   config.ChatConfig
	logger    *slog.Logger
}

type ServicesConfig struct {
	Rooms     *room.Registry
	Inference llm.Client
	Producer  queue.Producer
	Chat      config.ChatConfig
	Logger    *slog.Logger
}

func NewServices(cfg ServicesConfig) *Services {
	return &Services{
		rooms:     cfg.Rooms,
		inference: cfg.Inference,
		producer:  cfg.Producer,
		chatCfg:   cfg.Chat,
		logger:    cfg.Logger,
	}
}

func (s *Services) Chat() ChatService {
	return NewChatService(s.rooms, s.inference, s.producer, s.chatCfg, s.logger)
}
