// Package history persists completed diagnoses in Postgres. The store is
// optional: the bot serves fine without it.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bodycheckai/bodycheck/internal/diagnosis"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS diagnoses (
    id         BIGSERIAL PRIMARY KEY,
    user_id    TEXT NOT NULL DEFAULT '',
    message_id TEXT NOT NULL,
    posture    DOUBLE PRECISION NOT NULL,
    balance    DOUBLE PRECISION NOT NULL,
    muscle_fat DOUBLE PRECISION NOT NULL,
    fashion    DOUBLE PRECISION NOT NULL,
    overall    DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS diagnoses_user_created_idx ON diagnoses (user_id, created_at DESC);
`

// Entry is one stored diagnosis row.
type Entry struct {
	UserID    string
	MessageID string
	Posture   float64
	Balance   float64
	MuscleFat float64
	Fashion   float64
	Overall   float64
	CreatedAt time.Time
}

// Store records diagnoses in a pgx pool.
type Store struct {
	logger *slog.Logger
	pool   *pgxpool.Pool
}

// NewStore creates a Store over the given pool.
func NewStore(log *slog.Logger, pool *pgxpool.Pool) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		logger: log.With(slog.String("component", "history")),
		pool:   pool,
	}
}

// Init bootstraps the schema.
func (s *Store) Init(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("history schema: %w", err)
	}
	return nil
}

// Record inserts one completed diagnosis. Implements diagnosis.Recorder.
func (s *Store) Record(ctx context.Context, rec diagnosis.Record) error {
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
        INSERT INTO diagnoses (user_id, message_id, posture, balance, muscle_fat, fashion, overall, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `,
		rec.UserID,
		rec.MessageID,
		scoreValue(rec.Result.Posture.Float64()),
		scoreValue(rec.Result.Balance.Float64()),
		scoreValue(rec.Result.MuscleFat.Float64()),
		scoreValue(rec.Result.Fashion.Float64()),
		scoreValue(rec.Result.Overall.Float64()),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert diagnosis: %w", err)
	}
	return nil
}

// Recent lists the newest diagnoses for a user, newest first.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()
	rows, err := s.pool.Query(ctx, `
        SELECT user_id, message_id, posture, balance, muscle_fat, fashion, overall, created_at
        FROM diagnoses
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query diagnoses: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.UserID, &e.MessageID, &e.Posture, &e.Balance, &e.MuscleFat, &e.Fashion, &e.Overall, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan diagnosis: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read diagnoses: %w", err)
	}
	return entries, nil
}

// scoreValue drops the parse error: results reaching the store already
// passed analyzer.Result.Validate.
func scoreValue(v float64, _ error) float64 {
	return v
}
