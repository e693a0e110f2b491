package service

import (
	"context"
	"log/slog"

	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
)

type ChatCacheAPI interface {
	GetChats(ctx context.Context, ownerID int64) ([]*models.Chat, error)

	SetChats(ctx context.Context, ownerID int64, chats []*models.Chat) error

	DeleteChats(ctx context.Context, ownerID int64) error
}

// CachedChatRepository - декоратор над ChatRepository, кэширующий списки
// чатов владельцев. Любая запись инвалидирует кэш владельца; ошибки кэша
// логируются и не прерывают операцию.
type CachedChatRepository struct {
	repo   ChatRepository
	cache  ChatCacheAPI
	logger *slog.Logger
}

func NewCachedChatRepository(repo ChatRepository, cache ChatCacheAPI, logger *slog.Logger) *CachedChatRepository {
	return &CachedChatRepository{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

func (r *CachedChatRepository) Save(ctx context.Context, chat *models.Chat) error {
	if err := r.repo.Save(ctx, chat); err != nil {
		return err
	}

	r.invalidate(ctx, chat.OwnerID)

	return nil
}

func (r *CachedChatRepository) FindByOwner(ctx context.Context, ownerID int64) ([]*models.Chat, error) {
	cached, err := r.cache.GetChats(ctx, ownerID)
	if err != nil {
		r.logger.Warn("Ошибка чтения списка чатов из кэша",
			"owner_id", ownerID,
			"error", err,
		)
	} else if cached != nil {
		return cached, nil
	}

	chats, err := r.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if err := r.cache.SetChats(ctx, ownerID, chats); err != nil {
		r.logger.Warn("Ошибка записи списка чатов в кэш",
			"owner_id", ownerID,
			"error", err,
		)
	}

	return chats, nil
}

func (r *CachedChatRepository) Find(ctx context.Context, ownerID, chatID int64) (*models.Chat, error) {
	return r.repo.Find(ctx, ownerID, chatID)
}

func (r *CachedChatRepository) Delete(ctx context.Context, ownerID, chatID int64) error {
	if err := r.repo.Delete(ctx, ownerID, chatID); err != nil {
		return err
	}

	r.invalidate(ctx, ownerID)

	return nil
}

func (r *CachedChatRepository) ToggleAutoAccept(ctx context.Context, ownerID, chatID int64) (bool, error) {
	newValue, err := r.repo.ToggleAutoAccept(ctx, ownerID, chatID)
	if err != nil {
		return false, err
	}

	r.invalidate(ctx, ownerID)

	return newValue, nil
}

func (r *CachedChatRepository) FindAutoAccept(ctx context.Context) ([]*models.Chat, error) {
	return r.repo.FindAutoAccept(ctx)
}

func (r *CachedChatRepository) GetAll(ctx context.Context) ([]*models.Chat, error) {
	return r.repo.GetAll(ctx)
}

func (r *CachedChatRepository) invalidate(ctx context.Context, ownerID int64) {
	if err := r.cache.DeleteChats(ctx, ownerID); err != nil {
		r.logger.Warn("Ошибка инвалидации кэша чатов",
			"owner_id", ownerID,
			"error", err,
		)
	}
}
