package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"roomlog.app/chatd/common/id"
	"roomlog.app/chatd/common/logger"
	"roomlog.app/chatd/core/config"
	"roomlog.app/chatd/internal/llm"
	"roomlog.app/chatd/internal/model"
	"roomlog.app/chatd/internal/queue"
	"roomlog.app/chatd/internal/room"
)

// ErrEmptyMessage is returned when a chat request carries no message text
// after trimming. Nothing is appended in that case.
var ErrEmptyMessage = errors.New("message is required")

// ErrInferenceFailed is returned when the inference call itself fails.
// The user entry is already durable; the turn is aborted without an
// assistant entry. A response that arrives with an unrecognizable shape
// is not a failure: it completes the turn with the fallback reply.
var ErrInferenceFailed = errors.New("inference request failed")

// defaultSystemPrompt is the persona prepended to every prompt. It is
// never persisted as a transcript entry.
const defaultSystemPrompt = "You are a concise, friendly assistant in a shared chat room. " +
	"Answer plainly, keep context from earlier turns, and say so when you do not know something."

type SendParams struct {
	RoomID  string
	User    string
	Message string
}

type TurnResult struct {
	Reply    string
	Messages []model.TranscriptEntry
}

// ChatService drives one chat turn: append the user entry, read the
// transcript, call inference, append the assistant entry, read again.
type ChatService interface {
	Send(ctx context.Context, params SendParams) (*TurnResult, error)
}

type chatService struct {
	rooms     *room.Registry
	inference llm.Client
	producer  queue.Producer
	cfg       config.ChatConfig
	logger    *slog.Logger
}

func NewChatService(rooms *room.Registry, inference llm.Client, producer queue.Producer, cfg config.ChatConfig, log *slog.Logger) ChatService {
	if log == nil {
		log = slog.Default()
	}
	if cfg.DefaultRoomID == "" {
		cfg.DefaultRoomID = "default"
	}
	return &chatService{
		rooms:     rooms,
		inference: inference,
		producer:  producer,
		cfg:       cfg,
		logger:    log,
	}
}

func (s *chatService) Send(ctx context.Context, params SendParams) (*TurnResult, error) {
	message := strings.TrimSpace(params.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	roomID := params.RoomID
	if roomID == "" {
		roomID = s.cfg.DefaultRoomID
	}

	turnID := id.New()
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		RoomID:    logger.Ptr(roomID),
		TurnID:    logger.Ptr(turnID),
		Component: "chatd.service.chat",
	})

	sc := logger.StartSpan(ctx, "chatd.chat_turn")
	defer sc.End()
	ctx = sc.Context()

	actor := s.rooms.Resolve(roomID)

	if _, err := actor.Append(ctx, model.RoleUser, message); err != nil {
		return nil, fmt.Errorf("appending user entry: %w", err)
	}

	history, err := actor.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}

	completion, err := s.inference.Complete(ctx, s.buildPrompt(history))
	if err != nil {
		// The user entry stays durable; there is no compensating
		// rollback for an aborted turn.
		sc.RecordError(err)
		s.logger.ErrorContext(ctx, "inference call failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInferenceFailed, err)
	}

	reply, recognized := llm.ExtractReply(completion)
	if !recognized {
		if s.cfg.FallbackReply != "" {
			reply = s.cfg.FallbackReply
		}
		s.logger.WarnContext(ctx, "inference response had no recognizable reply, using fallback",
			"model", s.inference.Model())
	}

	if _, err := actor.Append(ctx, model.RoleAssistant, reply); err != nil {
		return nil, fmt.Errorf("appending assistant entry: %w", err)
	}

	messages, err := actor.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading final transcript: %w", err)
	}

	// Best-effort: the transcript is already durable.
	if err := s.producer.PublishTurn(ctx, model.Turn{
		ID:      turnID,
		RoomID:  roomID,
		Reply:   reply,
		Entries: len(messages),
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to publish turn event", "error", err)
	}

	s.logger.InfoContext(ctx, "chat turn completed",
		"user", params.User,
		"entries", len(messages),
		"reply_chars", len(reply))
	s.logger.DebugContext(ctx, "assistant reply", "reply", logger.Truncate(reply, 120))

	return &TurnResult{
		Reply:    reply,
		Messages: messages,
	}, nil
}

// buildPrompt maps transcript entries 1:1 to prompt turns in order, with
// the system persona prepended.
func (s *chatService) buildPrompt(history []model.TranscriptEntry) []llm.Message {
	system := s.cfg.SystemPrompt
	if system == "" {
		system = defaultSystemPrompt
	}

	messages := make([]llm.Message, 0, len(history)+1)
	messages = append(messages, llm.Message{Role: "system", Content: system})
	for _, entry := range history {
		messages = append(messages, llm.Message{
			Role:    string(entry.Role),
			Content: entry.Content,
		})
	}
	return messages
}
