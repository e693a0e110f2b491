package models

import (
	"time"
)

// SessionState - состояние диалога владельца в личном чате с ботом.
type SessionState int

const (
	StateIdle SessionState = iota
	StateChoosingChat
	StateManagingChat
	StateChoosingAcceptCount
)

type Session struct {
	UserID    int64
	State     SessionState
	ChatID    int64
	UpdatedAt time.Time
}
