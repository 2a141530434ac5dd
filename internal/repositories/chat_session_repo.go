package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/adchat-ai/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSessionNotFound = errors.New("chat session not found")

// ChatSessionRepo persists immutable conversation snapshots. There is no
// update path: sessions are inserted once and only ever read back.
type ChatSessionRepo struct {
	pool *pgxpool.Pool
}

func NewChatSessionRepo(pool *pgxpool.Pool) *ChatSessionRepo {
	return &ChatSessionRepo{pool: pool}
}

func (r *ChatSessionRepo) Save(ctx context.Context, s *models.ChatSession) error {
	history, err := json.Marshal(s.History)
	if err != nil {
		return err
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO chat_sessions (mode, history, version, helpful)
		VALUES ($1, $2::jsonb, $3, $4)
		RETURNING id, created_at
	`, s.Mode, string(history), s.Version, s.Helpful).Scan(&s.ID, &s.CreatedAt)
}

func (r *ChatSessionRepo) GetByID(ctx context.Context, id int) (*models.ChatSession, error) {
	var s models.ChatSession
	var history []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, created_at, mode, history, version, helpful
		FROM chat_sessions WHERE id = $1
	`, id).Scan(&s.ID, &s.CreatedAt, &s.Mode, &history, &s.Version, &s.Helpful)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(history, &s.History); err != nil {
		return nil, err
	}
	return &s, nil
}

type ChatSessionFilter struct {
	Mode    *string
	Version *float64
	Limit   int
	Offset  int
}

func (r *ChatSessionRepo) List(ctx context.Context, f ChatSessionFilter) ([]models.ChatSession, error) {
	query := `
		SELECT id, created_at, mode, history, version, helpful
		FROM chat_sessions
	`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.Mode != nil {
		where = append(where, fmt.Sprintf("mode = $%d", argIdx))
		args = append(args, *f.Mode)
		argIdx++
	}
	if f.Version != nil {
		where = append(where, fmt.Sprintf("version = $%d", argIdx))
		args = append(args, *f.Version)
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE "
		for i, w := range where {
			if i > 0 {
				query += " AND "
			}
			query += w
		}
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.ChatSession
	for rows.Next() {
		var s models.ChatSession
		var history []byte
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.Mode, &history, &s.Version, &s.Helpful); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(history, &s.History); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}
