package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customerrors "github.com/central-university-dev/go-join-request-bot/internal/domain/errors"
	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
	"github.com/central-university-dev/go-join-request-bot/internal/infrastructure/repositories/memory"
)

func TestChatRepository_SaveAndFind(t *testing.T) {
	repo := memory.NewChatRepository()
	ctx := context.Background()

	chat := &models.Chat{
		OwnerID: 1,
		ChatID:  -1001,
		Title:   "Новости",
		Kind:    models.ChatKindChannel,
	}

	require.NoError(t, repo.Save(ctx, chat))

	found, err := repo.Find(ctx, 1, -1001)
	require.NoError(t, err)
	assert.Equal(t, "Новости", found.Title)
	assert.Equal(t, models.ChatKindChannel, found.Kind)
	assert.False(t, found.AutoAccept)
	assert.False(t, found.CreatedAt.IsZero())
}

func TestChatRepository_SaveDuplicate(t *testing.T) {
	repo := memory.NewChatRepository()
	ctx := context.Background()

	chat := &models.Chat{OwnerID: 1, ChatID: -1001, Title: "Новости", Kind: models.ChatKindChannel}
	require.NoError(t, repo.Save(ctx, chat))

	err := repo.Save(ctx, &models.Chat{OwnerID: 1, ChatID: -1001, Title: "Новости", Kind: models.ChatKindChannel})
	assert.ErrorIs(t, err, &customerrors.ErrChatAlreadyRegistered{})

	// Тот же чат у другого владельца - отдельная привязка.
	err = repo.Save(ctx, &models.Chat{OwnerID: 2, ChatID: -1001, Title: "Новости", Kind: models.ChatKindChannel})
	assert.NoError(t, err)
}

func TestChatRepository_FindByOwner(t *testing.T) {
	repo := memory.NewChatRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Chat{OwnerID: 1, ChatID: -1001, Title: "Первый", Kind: models.ChatKindChannel}))
	require.NoError(t, repo.Save(ctx, &models.Chat{OwnerID: 2, ChatID: -1002, Title: "Чужой", Kind: models.ChatKindGroup}))
	require.NoError(t, repo.Save(ctx, &models.Chat{OwnerID: 1, ChatID: -1003, Title: "Второй", Kind: models.ChatKindGroup}))

	chats, err := repo.FindByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, "Первый", chats[0].Title)
	assert.Equal(t, "Второй", chats[1].Title)

	chats, err = repo.FindByOwner(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestChatRepository_FindNotFound(t *testing.T) {
	repo := memory.NewChatRepository()

	_, err := repo.Find(context.Background(), 1, -1001)
	assert.ErrorIs(t, err, &customerrors.ErrChatNotFound{})
}

func TestChatRepository_ToggleAutoAccept(t *testing.T) {
	repo := memory.NewChatRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Chat{OwnerID: 1, ChatID: -1001, Title: "Новости", Kind: models.ChatKindChannel}))

	enabled, err := repo.ToggleAutoAccept(ctx, 1, -1001)
	require.NoError(t, err)
	assert.True(t, enabled)

	found, err := repo.Find(ctx, 1, -1001)
	require.NoError(t, err)
	assert.True(t, found.AutoAccept)

	enabled, err = repo.ToggleAutoAccept(ctx, 1, -1001)
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestChatRepository_FindAutoAccept(t *testing.T) {
	repo := memory.NewChatRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Chat{OwnerID: 1, ChatID: -1001, Title: "Ручной", Kind: models.ChatKindChannel}))
	require.NoError(t, repo.Save(ctx, &models.Chat{OwnerID: 1, ChatID: -1002, Title: "Авто", Kind: models.ChatKindGroup, AutoAccept: true}))

	chats, err := repo.FindAutoAccept(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 1)
	assert.Equal(t, int64(-1002), chats[0].ChatID)
}

func TestChatRepository_Delete(t *testing.T) {
	repo := memory.NewChatRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, &models.Chat{OwnerID: 1, ChatID: -1001, Title: "Новости", Kind: models.ChatKindChannel}))

	require.NoError(t, repo.Delete(ctx, 1, -1001))

	_, err := repo.Find(ctx, 1, -1001)
	assert.ErrorIs(t, err, &customerrors.ErrChatNotFound{})

	// Повторное удаление не является ошибкой.
	assert.NoError(t, repo.Delete(ctx, 1, -1001))
}
