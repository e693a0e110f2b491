// Package cache кэширует списки чатов владельцев в Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
)

type ChatCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewChatCache(ctx context.Context, url, password string, db int, ttl time.Duration, logger *slog.Logger) (*ChatCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     url,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
	}

	return &ChatCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func chatsKey(ownerID int64) string {
	return fmt.Sprintf("chats:%d", ownerID)
}

// GetChats возвращает закэшированный список чатов владельца.
// Промах кэша не является ошибкой: возвращается (nil, nil).
func (c *ChatCache) GetChats(ctx context.Context, ownerID int64) ([]*models.Chat, error) {
	data, err := c.client.Get(ctx, chatsKey(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("ошибка чтения из кэша: %w", err)
	}

	var chats []*models.Chat
	if err := json.Unmarshal(data, &chats); err != nil {
		return nil, fmt.Errorf("ошибка десериализации чатов из кэша: %w", err)
	}

	return chats, nil
}

func (c *ChatCache) SetChats(ctx context.Context, ownerID int64, chats []*models.Chat) error {
	data, err := json.Marshal(chats)
	if err != nil {
		return fmt.Errorf("ошибка сериализации чатов: %w", err)
	}

	if err := c.client.Set(ctx, chatsKey(ownerID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка записи в кэш: %w", err)
	}

	return nil
}

func (c *ChatCache) DeleteChats(ctx context.Context, ownerID int64) error {
	if err := c.client.Del(ctx, chatsKey(ownerID)).Err(); err != nil {
		return fmt.Errorf("ошибка удаления из кэша: %w", err)
	}

	return nil
}

func (c *ChatCache) Close() error {
	return c.client.Close()
}
