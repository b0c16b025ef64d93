package dto

import "roomlog.app/chatd/internal/model"

type ChatRequest struct {
	RoomID  string `json:"roomId"`
	User    string `json:"user"`
	Message string `json:"message"`
}

type ChatResponse struct {
	Reply    string                  `json:"reply"`
	Messages []model.TranscriptEntry `json:"messages"`
}
