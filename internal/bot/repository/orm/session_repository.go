package orm

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/central-university-dev/go-join-request-bot/internal/database"
	customerrors "github.com/central-university-dev/go-join-request-bot/internal/domain/errors"
	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
	"github.com/central-university-dev/go-join-request-bot/pkg/txs"
	"github.com/jackc/pgx/v5"
)

type SessionRepository struct {
	db *database.PostgresDB
	sq sq.StatementBuilderType
}

func NewSessionRepository(db *database.PostgresDB) *SessionRepository {
	return &SessionRepository{
		db: db,
		sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *SessionRepository) Get(ctx context.Context, userID int64) (*models.Session, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	selectQuery := r.sq.Select("state", "chat_id", "updated_at").
		From("sessions").
		Where(sq.Eq{"user_id": userID})

	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "получение сессии", Cause: err}
	}

	session := &models.Session{UserID: userID}

	var state int

	err = querier.QueryRow(ctx, query, args...).Scan(&state, &session.ChatID, &session.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.Session{UserID: userID, State: models.StateIdle}, nil
		}

		return nil, &customerrors.ErrSQLExecution{Operation: "получение сессии", Cause: err}
	}

	session.State = models.SessionState(state)

	return session, nil
}

func (r *SessionRepository) Set(ctx context.Context, session *models.Session) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	session.UpdatedAt = time.Now()

	insertQuery := r.sq.Insert("sessions").
		Columns("user_id", "state", "chat_id", "updated_at").
		Values(session.UserID, int(session.State), session.ChatID, session.UpdatedAt).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET state = EXCLUDED.state, chat_id = EXCLUDED.chat_id, updated_at = EXCLUDED.updated_at")

	query, args, err := insertQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "сохранение сессии", Cause: err}
	}

	if _, err := querier.Exec(ctx, query, args...); err != nil {
		return &customerrors.ErrSQLExecution{Operation: "сохранение сессии", Cause: err}
	}

	return nil
}
