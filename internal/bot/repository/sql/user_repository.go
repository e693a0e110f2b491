package sql

import (
	"context"
	"fmt"
	"time"

	"github.com/central-university-dev/go-join-request-bot/internal/database"
	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
	"github.com/central-university-dev/go-join-request-bot/pkg/txs"
)

type UserRepository struct {
	db *database.PostgresDB
}

func NewUserRepository(db *database.PostgresDB) *UserRepository {
	return &UserRepository{db: db}
}

// Save выполняет upsert пользователя по его идентификатору.
func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	_, err := querier.Exec(ctx,
		`INSERT INTO users (id, username, first_name, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id)
		 DO UPDATE SET username = EXCLUDED.username, first_name = EXCLUDED.first_name`,
		user.ID, user.Username, user.FirstName, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении пользователя: %w", err)
	}

	return nil
}
