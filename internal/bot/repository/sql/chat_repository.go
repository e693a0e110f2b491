package sql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/central-university-dev/go-join-request-bot/internal/database"
	customerrors "github.com/central-university-dev/go-join-request-bot/internal/domain/errors"
	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
	"github.com/central-university-dev/go-join-request-bot/pkg/txs"
	"github.com/jackc/pgx/v5"
)

type ChatRepository struct {
	db *database.PostgresDB
}

func NewChatRepository(db *database.PostgresDB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Save(ctx context.Context, chat *models.Chat) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now()
	}

	result, err := querier.Exec(ctx,
		`INSERT INTO chats (user_id, chat_id, title, chat_type, auto_accept, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, chat_id) DO NOTHING`,
		chat.OwnerID, chat.ChatID, chat.Title, chat.Kind, chat.AutoAccept, chat.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении чата: %w", err)
	}

	if result.RowsAffected() == 0 {
		return &customerrors.ErrChatAlreadyRegistered{OwnerID: chat.OwnerID, ChatID: chat.ChatID}
	}

	return nil
}

func (r *ChatRepository) FindByOwner(ctx context.Context, ownerID int64) ([]*models.Chat, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx,
		`SELECT id, user_id, chat_id, title, chat_type, auto_accept, created_at
		 FROM chats WHERE user_id = $1 ORDER BY id`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе чатов пользователя: %w", err)
	}
	defer rows.Close()

	return scanChats(rows)
}

func (r *ChatRepository) Find(ctx context.Context, ownerID, chatID int64) (*models.Chat, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	row := querier.QueryRow(ctx,
		`SELECT id, user_id, chat_id, title, chat_type, auto_accept, created_at
		 FROM chats WHERE user_id = $1 AND chat_id = $2`,
		ownerID, chatID)

	chat, err := scanChat(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &customerrors.ErrChatNotFound{ChatID: chatID}
		}

		return nil, fmt.Errorf("ошибка при поиске чата: %w", err)
	}

	return chat, nil
}

// Delete идемпотентен: отсутствие записи не считается ошибкой.
func (r *ChatRepository) Delete(ctx context.Context, ownerID, chatID int64) error {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	_, err := querier.Exec(ctx, "DELETE FROM chats WHERE user_id = $1 AND chat_id = $2", ownerID, chatID)
	if err != nil {
		return fmt.Errorf("ошибка при удалении чата: %w", err)
	}

	return nil
}

// ToggleAutoAccept переключает флаг и возвращает новое значение.
// Для незнакомого чата возвращает false без ошибки.
func (r *ChatRepository) ToggleAutoAccept(ctx context.Context, ownerID, chatID int64) (bool, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	var autoAccept bool

	err := querier.QueryRow(ctx,
		`UPDATE chats SET auto_accept = NOT auto_accept
		 WHERE user_id = $1 AND chat_id = $2
		 RETURNING auto_accept`,
		ownerID, chatID).Scan(&autoAccept)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}

		return false, fmt.Errorf("ошибка при переключении автоприёма: %w", err)
	}

	return autoAccept, nil
}

// FindAutoAccept возвращает чаты с включённым автоприёмом по всем владельцам.
func (r *ChatRepository) FindAutoAccept(ctx context.Context) ([]*models.Chat, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx,
		`SELECT id, user_id, chat_id, title, chat_type, auto_accept, created_at
		 FROM chats WHERE auto_accept ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе чатов с автоприёмом: %w", err)
	}
	defer rows.Close()

	return scanChats(rows)
}

func (r *ChatRepository) GetAll(ctx context.Context) ([]*models.Chat, error) {
	querier := txs.GetQuerier(ctx, r.db.Pool)

	rows, err := querier.Query(ctx,
		`SELECT id, user_id, chat_id, title, chat_type, auto_accept, created_at
		 FROM chats ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка при запросе всех чатов: %w", err)
	}
	defer rows.Close()

	return scanChats(rows)
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

func scanChats(rows pgx.Rows) ([]*models.Chat, error) {
	var chats []*models.Chat

	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, &customerrors.ErrSQLScan{Entity: "чат", Cause: err}
		}

		chats = append(chats, chat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при обработке результатов запроса чатов: %w", err)
	}

	return chats, nil
}
