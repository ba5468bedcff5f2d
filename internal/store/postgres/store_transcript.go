package postgres

import (
	"context"
	"errors"
	"fmt"

	"assistantpro-backend/internal/models"
	"assistantpro-backend/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const appendTurn = `-- name: AppendTurn :one
INSERT INTO chat_history (
    session_id, user_message, bot_reply, user_name, personality
) VALUES (
    $1, $2, $3, NULLIF($4, ''), NULLIF($5, '')
)
RETURNING id, session_id, user_message, bot_reply, COALESCE(user_name, ''), COALESCE(personality, ''), timestamp;
`

func (s *PostgresStore) AppendTurn(ctx context.Context, arg store.CreateTurnParams) (*models.Turn, error) {
	row := s.db.QueryRow(ctx, appendTurn,
		arg.SessionID,
		arg.UserMessage,
		arg.BotReply,
		arg.UserName,
		arg.Personality,
	)

	turn, err := scanTurn(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			s.logger.Error("postgres error inserting turn",
				zap.String("session_id", arg.SessionID),
				zap.String("code", pgErr.Code),
				zap.String("message", pgErr.Message),
			)
		}
		return nil, fmt.Errorf("error inserting turn: %w", err)
	}
	return turn, nil
}

// The inner query picks the most recent rows; the outer one restores chronological order.
const listTurns = `-- name: ListTurns :many
SELECT id, session_id, user_message, bot_reply, user_name, personality, timestamp
FROM (
    SELECT id, session_id, user_message, bot_reply,
           COALESCE(user_name, '') AS user_name,
           COALESCE(personality, '') AS personality,
           timestamp
    FROM chat_history
    WHERE session_id = $1
    ORDER BY timestamp DESC, id DESC
    LIMIT $2
) recent
ORDER BY timestamp ASC, id ASC;
`

func (s *PostgresStore) ListTurns(ctx context.Context, sessionID string, limit int) ([]models.Turn, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx, listTurns, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying turns: %w", err)
	}
	defer rows.Close()

	var items []models.Turn
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning turn row: %w", err)
		}
		items = append(items, *turn)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating turn rows: %w", err)
	}

	return items, nil
}

const deleteSession = `-- name: DeleteSession :exec
DELETE FROM chat_history
WHERE session_id = $1;
`

func (s *PostgresStore) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	tag, err := s.db.Exec(ctx, deleteSession, sessionID)
	if err != nil {
		return 0, fmt.Errorf("error deleting session turns: %w", err)
	}
	s.logger.Info("session cleared", zap.String("session_id", sessionID), zap.Int64("deleted", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}

const transcriptStats = `-- name: TranscriptStats :one
SELECT COUNT(*), COUNT(DISTINCT session_id)
FROM chat_history;
`

func (s *PostgresStore) Stats(ctx context.Context) (*models.TranscriptStats, error) {
	var stats models.TranscriptStats
	if err := s.db.QueryRow(ctx, transcriptStats).Scan(&stats.TotalMessages, &stats.UniqueSessions); err != nil {
		return nil, fmt.Errorf("error querying transcript stats: %w", err)
	}
	return &stats, nil
}

func scanTurn(row pgx.Row) (*models.Turn, error) {
	var t models.Turn
	err := row.Scan(
		&t.ID,
		&t.SessionID,
		&t.UserMessage,
		&t.BotReply,
		&t.UserName,
		&t.Personality,
		&t.Timestamp,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}
