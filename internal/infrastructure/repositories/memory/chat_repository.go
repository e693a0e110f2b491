package memory

import (
	"context"
	"sync"
	"time"

	"github.com/central-university-dev/go-join-request-bot/internal/domain/errors"
	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
)

// ChatRepository - потокобезопасная реализация реестра чатов в памяти.
// Порядок вставки сохраняется.
type ChatRepository struct {
	chats  []*models.Chat
	nextID int64
	mu     sync.RWMutex
}

func NewChatRepository() *ChatRepository {
	return &ChatRepository{}
}

func (r *ChatRepository) Save(_ context.Context, chat *models.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.chats {
		if existing.OwnerID == chat.OwnerID && existing.ChatID == chat.ChatID {
			return &errors.ErrChatAlreadyRegistered{OwnerID: chat.OwnerID, ChatID: chat.ChatID}
		}
	}

	r.nextID++
	chat.ID = r.nextID

	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now()
	}

	copied := *chat
	r.chats = append(r.chats, &copied)

	return nil
}

func (r *ChatRepository) FindByOwner(_ context.Context, ownerID int64) ([]*models.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var chats []*models.Chat

	for _, chat := range r.chats {
		if chat.OwnerID == ownerID {
			copied := *chat
			chats = append(chats, &copied)
		}
	}

	return chats, nil
}

func (r *ChatRepository) Find(_ context.Context, ownerID, chatID int64) (*models.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, chat := range r.chats {
		if chat.OwnerID == ownerID && chat.ChatID == chatID {
			copied := *chat
			return &copied, nil
		}
	}

	return nil, &errors.ErrChatNotFound{ChatID: chatID}
}

func (r *ChatRepository) Delete(_ context.Context, ownerID, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, chat := range r.chats {
		if chat.OwnerID == ownerID && chat.ChatID == chatID {
			r.chats = append(r.chats[:i], r.chats[i+1:]...)
			return nil
		}
	}

	return nil
}

func (r *ChatRepository) ToggleAutoAccept(_ context.Context, ownerID, chatID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, chat := range r.chats {
		if chat.OwnerID == ownerID && chat.ChatID == chatID {
			chat.AutoAccept = !chat.AutoAccept
			return chat.AutoAccept, nil
		}
	}

	return false, nil
}

func (r *ChatRepository) FindAutoAccept(_ context.Context) ([]*models.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var chats []*models.Chat

	for _, chat := range r.chats {
		if chat.AutoAccept {
			copied := *chat
			chats = append(chats, &copied)
		}
	}

	return chats, nil
}

func (r *ChatRepository) GetAll(_ context.Context) ([]*models.Chat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chats := make([]*models.Chat, 0, len(r.chats))

	for _, chat := range r.chats {
		copied := *chat
		chats = append(chats, &copied)
	}

	return chats, nil
}
