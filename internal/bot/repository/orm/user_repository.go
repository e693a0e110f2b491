package orm

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/central-university-dev/go-join-request-bot/internal/database"
	customerrors "github.com/central-university-dev/go-join-request-bot/internal/domain/errors"
	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
	"github.com/central-university-dev/go-join-request-bot/pkg/txs"
)

type UserRepository struct {
	db *database.PostgresDB
	sq sq.StatementBuilderType
}

func NewUserRepository(db *database.PostgresDB) *UserRepository {
	return &UserRepository{
		db: db,
		sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	insertQuery := r.sq.Insert("users").
		Columns("id", "username", "first_name", "created_at").
		Values(user.ID, user.Username, user.FirstName, user.CreatedAt).
		Suffix("ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username, first_name = EXCLUDED.first_name")

	query, args, err := insertQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "сохранение пользователя", Cause: err}
	}

	if _, err := querier.Exec(ctx, query, args...); err != nil {
		return &customerrors.ErrSQLExecution{Operation: "сохранение пользователя", Cause: err}
	}

	return nil
}
