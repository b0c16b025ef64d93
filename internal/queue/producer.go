package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"roomlog.app/chatd/internal/model"
)

// Producer publishes completed chat turns for downstream consumers
// (analytics, moderation). Publication is best-effort: the transcript is
// already durable by the time a turn is published.
type Producer interface {
	PublishTurn(ctx context.Context, turn model.Turn) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) PublishTurn(ctx context.Context, turn model.Turn) error {
	fields := map[string]any{
		"turn_id":     turn.ID,
		"room_id":     turn.RoomID,
		"reply_chars": len(turn.Reply),
		"entries":     turn.Entries,
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("publish turn: %w", err)
	}

	p.logger.DebugContext(ctx, "published turn", "turn_id", turn.ID, "room_id", turn.RoomID, "entries", turn.Entries)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}

type noopProducer struct{}

// NewNoopProducer returns a Producer that drops turns. Used when no event
// stream is configured.
func NewNoopProducer() Producer {
	return noopProducer{}
}

func (noopProducer) PublishTurn(context.Context, model.Turn) error { return nil }
func (noopProducer) Close() error                                  { return nil }
