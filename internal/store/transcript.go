package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"roomlog.app/chatd/core/db"
	"roomlog.app/chatd/internal/model"
)

// SchemaVersion is written on every transcript upsert so future layout
// changes can migrate records in place.
const SchemaVersion = 1

type transcriptStore struct {
	pool *pgxpool.Pool
}

// NewTranscriptStore creates a Postgres-backed TranscriptStore.
func NewTranscriptStore(pool *pgxpool.Pool) TranscriptStore {
	return &transcriptStore{pool: pool}
}

// Migrate creates the transcript table if it does not exist. Runs inside
// a transaction so a partially applied migration never commits.
func Migrate(ctx context.Context, database *db.DB) error {
	return database.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS room_transcripts (
				room_id        TEXT PRIMARY KEY,
				schema_version INT NOT NULL,
				entries        JSONB NOT NULL DEFAULT '[]'::jsonb,
				created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
			)`)
		if err != nil {
			return fmt.Errorf("creating room_transcripts table: %w", err)
		}
		return nil
	})
}

func (s *transcriptStore) Load(ctx context.Context, roomID string) ([]model.TranscriptEntry, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT entries FROM room_transcripts WHERE room_id = $1`, roomID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading transcript: %w", err)
	}

	var entries []model.TranscriptEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decoding transcript: %w", err)
	}
	return entries, nil
}

func (s *transcriptStore) Append(ctx context.Context, roomID string, entries ...model.TranscriptEntry) error {
	if len(entries) == 0 {
		return nil
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encoding entries: %w", err)
	}

	// Single-statement upsert: the append either lands in full or not
	// at all, there is no partially applied entry.
	_, err = s.pool.Exec(ctx, `
		INSERT INTO room_transcripts (room_id, schema_version, entries, updated_at)
		VALUES ($1, $2, $3::jsonb, now())
		ON CONFLICT (room_id) DO UPDATE
		SET entries        = room_transcripts.entries || EXCLUDED.entries,
		    schema_version = EXCLUDED.schema_version,
		    updated_at     = now()`,
		roomID, SchemaVersion, payload)
	if err != nil {
		return fmt.Errorf("appending transcript entries: %w", err)
	}
	return nil
}
