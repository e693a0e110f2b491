package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sony/gobreaker"

	"github.com/central-university-dev/go-join-request-bot/internal/bot/domain"
	"github.com/central-university-dev/go-join-request-bot/internal/config"
	customerrors "github.com/central-university-dev/go-join-request-bot/internal/domain/errors"
)

type TelegramClient struct {
	bot     *tgbotapi.BotAPI
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func NewTelegramClient(cfg *config.Config, logger *slog.Logger) domain.TelegramClientAPI {
	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Error("Ошибка при создании Telegram клиента", "error", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "telegram-approve",
		Timeout: cfg.CBWaitDurationInOpenState,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < uint32(cfg.CBMinimumRequiredCalls) {
				return false
			}

			failureRate := float64(counts.TotalFailures) / float64(counts.Requests) * 100

			return failureRate >= float64(cfg.CBFailureRateThreshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Смена состояния circuit breaker",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &TelegramClient{
		bot:     bot,
		breaker: breaker,
		logger:  logger,
	}
}

// SetBaseURL устанавливает базовый URL для API Telegram (используется в тестах).
func (c *TelegramClient) SetBaseURL(url string) {
	if c.bot != nil {
		c.bot.SetAPIEndpoint(url)
	}
}

func (c *TelegramClient) SendMessage(_ context.Context, chatID int64, text string) error {
	if c.bot == nil {
		return fmt.Errorf("telegram клиент не инициализирован")
	}

	msg := tgbotapi.NewMessage(chatID, text)

	_, err := c.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("ошибка при отправке сообщения: %w", err)
	}

	return nil
}

func (c *TelegramClient) SendReply(_ context.Context, chatID int64, reply *domain.Reply) error {
	if c.bot == nil {
		return fmt.Errorf("telegram клиент не инициализирован")
	}

	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if reply.Keyboard != nil {
		msg.ReplyMarkup = toMarkup(reply.Keyboard)
	}

	_, err := c.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("ошибка при отправке сообщения с клавиатурой: %w", err)
	}

	return nil
}

func (c *TelegramClient) EditMessage(_ context.Context, chatID, messageID int64, reply *domain.Reply) error {
	if c.bot == nil {
		return fmt.Errorf("telegram клиент не инициализирован")
	}

	edit := tgbotapi.NewEditMessageText(chatID, int(messageID), reply.Text)
	if reply.Keyboard != nil {
		markup := toMarkup(reply.Keyboard)
		edit.ReplyMarkup = &markup
	}

	_, err := c.bot.Send(edit)
	if err != nil {
		return fmt.Errorf("ошибка при редактировании сообщения: %w", err)
	}

	return nil
}

func (c *TelegramClient) AnswerCallback(_ context.Context, callbackID, text string, showAlert bool) error {
	if c.bot == nil {
		return fmt.Errorf("telegram клиент не инициализирован")
	}

	callback := tgbotapi.NewCallback(callbackID, text)
	callback.ShowAlert = showAlert

	_, err := c.bot.Request(callback)
	if err != nil {
		return fmt.Errorf("ошибка при ответе на callback: %w", err)
	}

	return nil
}

// ApproveJoinRequest одобряет заявку через approveChatJoinRequest.
// Отказ платформы (HTTP-ответ с ok=false) не считается сбоем транспорта
// и не роняет circuit breaker; сетевые ошибки считаются.
func (c *TelegramClient) ApproveJoinRequest(_ context.Context, chatID, userID int64) error {
	if c.bot == nil {
		return &customerrors.ErrTransportUnavailable{Cause: fmt.Errorf("telegram клиент не инициализирован")}
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		params := tgbotapi.Params{}
		params.AddNonZero64("chat_id", chatID)
		params.AddNonZero64("user_id", userID)

		_, err := c.bot.MakeRequest("approveChatJoinRequest", params)
		if err != nil {
			var apiErr *tgbotapi.Error
			if errors.As(err, &apiErr) {
				return apiErr, nil
			}

			return nil, err
		}

		return nil, nil
	})
	if err != nil {
		return &customerrors.ErrTransportUnavailable{Cause: err}
	}

	if apiErr, ok := result.(*tgbotapi.Error); ok && apiErr != nil {
		return &customerrors.ErrApprovalRejected{ChatID: chatID, UserID: userID, Cause: apiErr}
	}

	return nil
}

// IsChatAdmin проверяет, что пользователь - создатель или администратор чата.
func (c *TelegramClient) IsChatAdmin(_ context.Context, chatID, userID int64) (bool, error) {
	if c.bot == nil {
		return false, fmt.Errorf("telegram клиент не инициализирован")
	}

	member, err := c.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		return false, fmt.Errorf("ошибка при получении участника чата: %w", err)
	}

	return member.IsCreator() || member.IsAdministrator(), nil
}

func (c *TelegramClient) GetChat(_ context.Context, chatID int64) (*domain.Chat, error) {
	if c.bot == nil {
		return nil, fmt.Errorf("telegram клиент не инициализирован")
	}

	chat, err := c.bot.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении чата: %w", err)
	}

	return &domain.Chat{
		ID:    chat.ID,
		Title: chat.Title,
		Type:  chat.Type,
	}, nil
}

func (c *TelegramClient) SetMyCommands(_ context.Context, commands []domain.BotCommand) error {
	if c.bot == nil {
		return fmt.Errorf("telegram клиент не инициализирован")
	}

	botAPICommands := make([]tgbotapi.BotCommand, 0, len(commands))
	for _, cmd := range commands {
		botAPICommands = append(botAPICommands, tgbotapi.BotCommand{
			Command:     cmd.Command,
			Description: cmd.Description,
		})
	}

	setCommandsConfig := tgbotapi.NewSetMyCommands(botAPICommands...)

	_, err := c.bot.Request(setCommandsConfig)
	if err != nil {
		return fmt.Errorf("ошибка при установке команд бота: %w", err)
	}

	return nil
}

func (c *TelegramClient) GetBot() *tgbotapi.BotAPI {
	return c.bot
}

func toMarkup(keyboard domain.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard))

	for _, row := range keyboard {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Callback))
		}

		rows = append(rows, buttons)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
