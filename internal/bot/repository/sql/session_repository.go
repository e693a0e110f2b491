package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/central-university-dev/go-join-request-bot/internal/database"
	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
	"github.com/central-university-dev/go-join-request-bot/pkg/txs"
	"github.com/jackc/pgx/v5"
)

type SessionRepository struct {
	db *database.PostgresDB
}

func NewSessionRepository(db *database.PostgresDB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Get возвращает сессию владельца. Если записи нет, возвращается
// сессия в состоянии StateIdle.
func (r *SessionRepository) Get(ctx context.Context, userID int64) (*models.Session, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	session := &models.Session{UserID: userID}

	var state int

	err := querier.QueryRow(ctx,
		"SELECT state, chat_id, updated_at FROM sessions WHERE user_id = $1", userID).
		Scan(&state, &session.ChatID, &session.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.Session{UserID: userID, State: models.StateIdle}, nil
		}

		return nil, fmt.Errorf("ошибка при получении сессии: %w", err)
	}

	session.State = models.SessionState(state)

	return session, nil
}

func (r *SessionRepository) Set(ctx context.Context, session *models.Session) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	session.UpdatedAt = time.Now()

	_, err := querier.Exec(ctx,
		`INSERT INTO sessions (user_id, state, chat_id, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id)
		 DO UPDATE SET state = EXCLUDED.state, chat_id = EXCLUDED.chat_id, updated_at = EXCLUDED.updated_at`,
		session.UserID, int(session.State), session.ChatID, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении сессии: %w", err)
	}

	return nil
}
