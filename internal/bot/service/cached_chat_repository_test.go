package service_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-join-request-bot/internal/bot/service"
	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
	"github.com/central-university-dev/go-join-request-bot/internal/infrastructure/repositories/memory"
	"github.com/central-university-dev/go-join-request-bot/pkg"
)

type fakeChatCache struct {
	mu    sync.Mutex
	data  map[int64][]*models.Chat
	hits  int
	sets  int
	drops int
}

func newFakeChatCache() *fakeChatCache {
	return &fakeChatCache{data: make(map[int64][]*models.Chat)}
}

func (c *fakeChatCache) GetChats(_ context.Context, ownerID int64) ([]*models.Chat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	chats, ok := c.data[ownerID]
	if !ok {
		return nil, nil
	}

	c.hits++

	return chats, nil
}

func (c *fakeChatCache) SetChats(_ context.Context, ownerID int64, chats []*models.Chat) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sets++
	c.data[ownerID] = chats

	return nil
}

func (c *fakeChatCache) DeleteChats(_ context.Context, ownerID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.drops++
	delete(c.data, ownerID)

	return nil
}

func TestCachedChatRepository_FindByOwnerCaches(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewChatRepository()
	cache := newFakeChatCache()
	repo := service.NewCachedChatRepository(inner, cache, pkg.NewLogger(io.Discard))

	require.NoError(t, repo.Save(ctx, &models.Chat{OwnerID: 1, ChatID: -1001, Title: "Группа", Kind: models.ChatKindGroup}))

	chats, err := repo.FindByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 0, cache.hits)

	chats, err = repo.FindByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, 1, cache.hits)
}

func TestCachedChatRepository_WritesInvalidate(t *testing.T) {
	ctx := context.Background()
	inner := memory.NewChatRepository()
	cache := newFakeChatCache()
	repo := service.NewCachedChatRepository(inner, cache, pkg.NewLogger(io.Discard))

	require.NoError(t, repo.Save(ctx, &models.Chat{OwnerID: 1, ChatID: -1001, Title: "Группа", Kind: models.ChatKindGroup}))

	_, err := repo.FindByOwner(ctx, 1)
	require.NoError(t, err)

	// Переключение и удаление сбрасывают кэш владельца.
	_, err = repo.ToggleAutoAccept(ctx, 1, -1001)
	require.NoError(t, err)

	chats, err := repo.FindByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.True(t, chats[0].AutoAccept)

	require.NoError(t, repo.Delete(ctx, 1, -1001))

	chats, err = repo.FindByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, chats)
}
