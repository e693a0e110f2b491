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

type PendingRequestRepository struct {
	db *database.PostgresDB
	sq sq.StatementBuilderType
}

func NewPendingRequestRepository(db *database.PostgresDB) *PendingRequestRepository {
	return &PendingRequestRepository{
		db: db,
		sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Save выполняет upsert по ключу (chat_id, user_id); created_at при
// конфликте не обновляется, заявка сохраняет место в очереди.
func (r *PendingRequestRepository) Save(ctx context.Context, req *models.PendingRequest) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}

	insertQuery := r.sq.Insert("pending_requests").
		Columns("chat_id", "user_id", "first_name", "username", "created_at").
		Values(req.ChatID, req.UserID, req.FirstName, req.Username, req.CreatedAt).
		Suffix("ON CONFLICT (chat_id, user_id) DO UPDATE SET first_name = EXCLUDED.first_name, username = EXCLUDED.username")

	query, args, err := insertQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "сохранение заявки", Cause: err}
	}

	if _, err := querier.Exec(ctx, query, args...); err != nil {
		return &customerrors.ErrSQLExecution{Operation: "сохранение заявки", Cause: err}
	}

	return nil
}

func (r *PendingRequestRepository) FindByChat(ctx context.Context, chatID int64, limit int) ([]*models.PendingRequest, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	selectQuery := r.sq.Select("chat_id", "user_id", "first_name", "username", "created_at").
		From("pending_requests").
		Where(sq.Eq{"chat_id": chatID}).
		OrderBy("created_at", "id")

	if limit > 0 {
		selectQuery = selectQuery.Limit(uint64(limit))
	}

	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "выборка заявок", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "выборка заявок", Cause: err}
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
		return nil, &customerrors.ErrSQLExecution{Operation: "обработка результатов", Cause: err}
	}

	return requests, nil
}

func (r *PendingRequestRepository) Delete(ctx context.Context, chatID, userID int64) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	deleteQuery := r.sq.Delete("pending_requests").
		Where(sq.Eq{"chat_id": chatID, "user_id": userID})

	query, args, err := deleteQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "удаление заявки", Cause: err}
	}

	if _, err := querier.Exec(ctx, query, args...); err != nil {
		return &customerrors.ErrSQLExecution{Operation: "удаление заявки", Cause: err}
	}

	return nil
}

func (r *PendingRequestRepository) Count(ctx context.Context, chatID int64) (int, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	countQuery := r.sq.Select("COUNT(*)").
		From("pending_requests").
		Where(sq.Eq{"chat_id": chatID})

	query, args, err := countQuery.ToSql()
	if err != nil {
		return 0, &customerrors.ErrBuildSQLQuery{Operation: "подсчёт заявок", Cause: err}
	}

	var count int

	if err := querier.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, &customerrors.ErrSQLExecution{Operation: "подсчёт заявок", Cause: err}
	}

	return count, nil
}
