package models

import (
	"time"
)

type ChatKind string

const (
	ChatKindChannel ChatKind = "channel"
	ChatKindGroup   ChatKind = "group"
)

// Chat - канал или группа, активированные владельцем для управления заявками.
type Chat struct {
	ID         int64
	OwnerID    int64
	ChatID     int64
	Title      string
	Kind       ChatKind
	AutoAccept bool
	CreatedAt  time.Time
}

// PendingRequest - заявка на вступление, ожидающая ручного одобрения.
// Ключ (ChatID, UserID) уникален; очередь читается по возрастанию CreatedAt.
type PendingRequest struct {
	ChatID    int64
	UserID    int64
	FirstName string
	Username  string
	CreatedAt time.Time
}

// JoinRequest - входящее событие заявки на вступление из Telegram.
type JoinRequest struct {
	ChatID    int64
	UserID    int64
	FirstName string
	Username  string
}

type User struct {
	ID        int64
	Username  string
	FirstName string
	CreatedAt time.Time
}
