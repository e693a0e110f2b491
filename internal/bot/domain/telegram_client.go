package domain

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type User struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

type Chat struct {
	ID    int64
	Title string
	Type  string
}

type Message struct {
	MessageID int64
	Text      string
	Chat      Chat
	From      User
}

type CallbackQuery struct {
	ID      string
	Data    string
	From    User
	Message *Message
}

// JoinRequest - событие chat_join_request из Telegram.
type JoinRequest struct {
	Chat Chat
	From User
}

type Update struct {
	UpdateID    int64
	Message     *Message
	ChannelPost *Message
	Callback    *CallbackQuery
	JoinRequest *JoinRequest
}

type Button struct {
	Text     string
	Callback string
}

// Keyboard - инлайн-клавиатура: строки кнопок.
type Keyboard [][]Button

// Reply - ответ сервиса: текст и опциональная клавиатура.
type Reply struct {
	Text     string
	Keyboard Keyboard
}

type BotCommand struct {
	Command     string
	Description string
}

type TelegramClientAPI interface {
	SendMessage(ctx context.Context, chatID int64, text string) error

	SendReply(ctx context.Context, chatID int64, reply *Reply) error

	EditMessage(ctx context.Context, chatID, messageID int64, reply *Reply) error

	AnswerCallback(ctx context.Context, callbackID, text string, showAlert bool) error

	// ApproveJoinRequest одобряет заявку на вступление. Возвращает
	// ErrApprovalRejected при отказе платформы и ErrTransportUnavailable,
	// если Telegram API недоступен.
	ApproveJoinRequest(ctx context.Context, chatID, userID int64) error

	IsChatAdmin(ctx context.Context, chatID, userID int64) (bool, error)

	GetChat(ctx context.Context, chatID int64) (*Chat, error)

	SetMyCommands(ctx context.Context, commands []BotCommand) error

	GetBot() *tgbotapi.BotAPI
}
