package sql

import (
	"context"
	"fmt"
	"time"

	"github.com/central-university-dev/go-join-request-bot/internal/database"
	customerrors "github.com/central-university-dev/go-join-request-bot/internal/domain/errors"
	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
	"github.com/central-university-dev/go-join-request-bot/pkg/txs"
)

type PendingRequestRepository struct {
	db *database.PostgresDB
}

func NewPendingRequestRepository(db *database.PostgresDB) *PendingRequestRepository {
	return &PendingRequestRepository{db: db}
}

// Save выполняет upsert по ключу (chat_id, user_id). При конфликте
// обновляются только имя и username: created_at не трогается, чтобы
// повторная заявка не теряла место в очереди.
func (r *PendingRequestRepository) Save(ctx context.Context, req *models.PendingRequest) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}

	_, err := querier.Exec(ctx,
		`INSERT INTO pending_requests (chat_id, user_id, first_name, username, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (chat_id, user_id)
		 DO UPDATE SET first_name = EXCLUDED.first_name, username = EXCLUDED.username`,
		req.ChatID, req.UserID, req.FirstName, req.Username, req.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении заявки: %w", err)
	}

	return nil
}

// FindByChat возвращает заявки чата в порядке поступления.
// limit <= 0 означает без ограничения.
func (r *PendingRequestRepository) FindByChat(ctx context.Context, chatID int64, limit int) ([]*models.PendingRequest, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	query := `SELECT chat_id, user_id, first_name, username, created_at
		 FROM pending_requests WHERE chat_id = $1 ORDER BY created_at, id`

	args := []any{chatID}

	if limit > 0 {
		query += " LIMIT $2"

		args = append(args, limit)
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе заявок: %w", err)
	}
	defer rows.Close()

	var requests []*models.PendingRequest

	for rows.Next() {
		var req models.PendingRequest

		err := rows.Scan(&req.ChatID, &req.UserID, &req.FirstName, &req.Username, &req.CreatedAt)
		if err != nil {
			return nil, &customerrors.ErrSQLScan{Entity: "заявка", Cause: err}
		}

		requests = append(requests, &req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов запроса заявок: %w", err)
	}

	return requests, nil
}

// Delete идемпотентен: отсутствие заявки не считается ошибкой.
func (r *PendingRequestRepository) Delete(ctx context.Context, chatID, userID int64) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	_, err := querier.Exec(ctx,
		"DELETE FROM pending_requests WHERE chat_id = $1 AND user_id = $2", chatID, userID)
	if err != nil {
		return fmt.Errorf("ошибка при удалении заявки: %w", err)
	}

	return nil
}

func (r *PendingRequestRepository) Count(ctx context.Context, chatID int64) (int, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	var count int

	err := querier.QueryRow(ctx,
		"SELECT COUNT(*) FROM pending_requests WHERE chat_id = $1", chatID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка при подсчёте заявок: %w", err)
	}

	return count, nil
}
