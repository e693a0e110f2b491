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

type ChatRepository struct {
	db *database.PostgresDB
	sq sq.StatementBuilderType
}

func NewChatRepository(db *database.PostgresDB) *ChatRepository {
	return &ChatRepository{
		db: db,
		sq: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ChatRepository) Save(ctx context.Context, chat *models.Chat) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now()
	}

	insertQuery := r.sq.Insert("chats").
		Columns("user_id", "chat_id", "title", "chat_type", "auto_accept", "created_at").
		Values(chat.OwnerID, chat.ChatID, chat.Title, string(chat.Kind), chat.AutoAccept, chat.CreatedAt).
		Suffix("ON CONFLICT (user_id, chat_id) DO NOTHING")

	query, args, err := insertQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "сохранение чата", Cause: err}
	}

	result, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return &customerrors.ErrSQLExecution{Operation: "сохранение чата", Cause: err}
	}

	if result.RowsAffected() == 0 {
		return &customerrors.ErrChatAlreadyRegistered{OwnerID: chat.OwnerID, ChatID: chat.ChatID}
	}

	return nil
}

func (r *ChatRepository) FindByOwner(ctx context.Context, ownerID int64) ([]*models.Chat, error) {
	return r.selectChats(ctx, sq.Eq{"user_id": ownerID})
}

func (r *ChatRepository) Find(ctx context.Context, ownerID, chatID int64) (*models.Chat, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	selectQuery := r.sq.Select("id", "user_id", "chat_id", "title", "chat_type", "auto_accept", "created_at").
		From("chats").
		Where(sq.Eq{"user_id": ownerID, "chat_id": chatID})

	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "поиск чата", Cause: err}
	}

	chat, err := scanChat(querier.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrChatNotFound{ChatID: chatID}
		}

		return nil, &customerrors.ErrSQLExecution{Operation: "поиск чата", Cause: err}
	}

	return chat, nil
}

func (r *ChatRepository) Delete(ctx context.Context, ownerID, chatID int64) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	deleteQuery := r.sq.Delete("chats").Where(sq.Eq{"user_id": ownerID, "chat_id": chatID})

	query, args, err := deleteQuery.ToSql()
	if err != nil {
		return &customerrors.ErrBuildSQLQuery{Operation: "удаление чата", Cause: err}
	}

	if _, err := querier.Exec(ctx, query, args...); err != nil {
		return &customerrors.ErrSQLExecution{Operation: "удаление чата", Cause: err}
	}

	return nil
}

func (r *ChatRepository) ToggleAutoAccept(ctx context.Context, ownerID, chatID int64) (bool, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	updateQuery := r.sq.Update("chats").
		Set("auto_accept", sq.Expr("NOT auto_accept")).
		Where(sq.Eq{"user_id": ownerID, "chat_id": chatID}).
		Suffix("RETURNING auto_accept")

	query, args, err := updateQuery.ToSql()
	if err != nil {
		return false, &customerrors.ErrBuildSQLQuery{Operation: "переключение автоприёма", Cause: err}
	}

	var autoAccept bool

	err = querier.QueryRow(ctx, query, args...).Scan(&autoAccept)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}

		return false, &customerrors.ErrSQLExecution{Operation: "переключение автоприёма", Cause: err}
	}

	return autoAccept, nil
}

func (r *ChatRepository) FindAutoAccept(ctx context.Context) ([]*models.Chat, error) {
	return r.selectChats(ctx, sq.Eq{"auto_accept": true})
}

func (r *ChatRepository) GetAll(ctx context.Context) ([]*models.Chat, error) {
	return r.selectChats(ctx, nil)
}

func (r *ChatRepository) selectChats(ctx context.Context, where any) ([]*models.Chat, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	selectQuery := r.sq.Select("id", "user_id", "chat_id", "title", "chat_type", "auto_accept", "created_at").
		From("chats").
		OrderBy("id")

	if where != nil {
		selectQuery = selectQuery.Where(where)
	}

	query, args, err := selectQuery.ToSql()
	if err != nil {
		return nil, &customerrors.ErrBuildSQLQuery{Operation: "выборка чатов", Cause: err}
	}

	rows, err := querier.Query(ctx, query, args...)
	if err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "выборка чатов", Cause: err}
	}
	defer rows.Close()

	var chats []*models.Chat

	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, &customerrors.ErrSQLScan{Entity: "чат", Cause: err}
		}

		chats = append(chats, chat)
	}

	if err := rows.Err(); err != nil {
		return nil, &customerrors.ErrSQLExecution{Operation: "обработка результатов", Cause: err}
	}

	return chats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChat(row rowScanner) (*models.Chat, error) {
	var chat models.Chat

	var kind string

	err := row.Scan(&chat.ID, &chat.OwnerID, &chat.ChatID, &chat.Title, &kind, &chat.AutoAccept, &chat.CreatedAt)
	if err != nil {
		return nil, err
	}

	chat.Kind = models.ChatKind(kind)

	return &chat, nil
}
