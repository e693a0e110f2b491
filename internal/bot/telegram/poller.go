// Package telegram принимает обновления Telegram и маршрутизирует их в сервисы.
package telegram

import (
	"context"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/central-university-dev/go-join-request-bot/internal/bot/domain"
	"github.com/central-university-dev/go-join-request-bot/internal/bot/service"
	"github.com/central-university-dev/go-join-request-bot/internal/common/metrics"
	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
)

const updateTimeoutSeconds = 10

// Poller читает long polling обновления и раздаёт их обработчикам.
type Poller struct {
	client     domain.TelegramClientAPI
	botService *service.BotService
	admission  *service.AdmissionService
	logger     *slog.Logger
}

func NewPoller(
	client domain.TelegramClientAPI,
	botService *service.BotService,
	admission *service.AdmissionService,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		client:     client,
		botService: botService,
		admission:  admission,
		logger:     logger,
	}
}

// Run блокируется до отмены контекста.
func (p *Poller) Run(ctx context.Context) {
	bot := p.client.GetBot()
	if bot == nil {
		p.logger.Error("Telegram клиент не инициализирован, обновления не принимаются")
		return
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeoutSeconds
	u.AllowedUpdates = []string{"message", "channel_post", "callback_query", "chat_join_request"}

	updates := bot.GetUpdatesChan(u)

	p.logger.Info("Приём обновлений Telegram запущен", "bot", bot.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			p.logger.Info("Приём обновлений Telegram остановлен")

			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			p.handleUpdate(ctx, &update)
		}
	}
}

func (p *Poller) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	switch {
	case update.ChatJoinRequest != nil:
		p.handleJoinRequest(ctx, update.ChatJoinRequest)
	case update.CallbackQuery != nil:
		p.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		p.handleMessage(ctx, update.Message)
	case update.ChannelPost != nil:
		p.handleChannelPost(ctx, update.ChannelPost)
	}
}

func (p *Poller) handleJoinRequest(ctx context.Context, req *tgbotapi.ChatJoinRequest) {
	err := p.admission.HandleJoinRequest(ctx, &models.JoinRequest{
		ChatID:    req.Chat.ID,
		UserID:    req.From.ID,
		FirstName: req.From.FirstName,
		Username:  req.From.UserName,
	})
	if err != nil {
		p.logger.Error("Ошибка при обработке заявки на вступление",
			"chat_id", req.Chat.ID,
			"user_id", req.From.ID,
			"error", err,
		)
	}
}

func (p *Poller) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat.IsPrivate() {
		p.handlePrivateMessage(ctx, msg)
		return
	}

	if p.isActivation(msg.Text) {
		p.handleActivation(ctx, msg.Chat, msg.From)
	}
}

func (p *Poller) handlePrivateMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	command := &models.Command{
		Type:      commandType(msg),
		ChatID:    msg.Chat.ID,
		UserID:    msg.From.ID,
		Text:      msg.Text,
		Username:  msg.From.UserName,
		FirstName: msg.From.FirstName,
	}

	if msg.IsCommand() {
		metrics.RecordUserMessage("command")
	} else {
		metrics.RecordUserMessage("text")
	}

	reply, err := p.botService.ProcessCommand(ctx, command)
	if err != nil {
		p.logger.Warn("Ошибка при обработке команды",
			"user_id", msg.From.ID,
			"command", command.Type,
			"error", err,
		)
	}

	if reply == nil {
		return
	}

	if err := p.client.SendReply(ctx, msg.Chat.ID, reply); err != nil {
		p.logger.Error("Ошибка при отправке ответа",
			"chat_id", msg.Chat.ID,
			"error", err,
		)
	}
}

func (p *Poller) handleChannelPost(ctx context.Context, msg *tgbotapi.Message) {
	if !p.isActivation(msg.Text) {
		return
	}

	// У поста в канале нет отправителя: авторство подтверждается кнопкой.
	p.handleActivation(ctx, msg.Chat, nil)
}

func (p *Poller) handleActivation(ctx context.Context, chat *tgbotapi.Chat, from *tgbotapi.User) {
	metrics.RecordUserMessage("activation")

	actor := &domain.User{}
	if from != nil {
		actor = &domain.User{
			ID:        from.ID,
			Username:  from.UserName,
			FirstName: from.FirstName,
		}
	}

	botID := p.client.GetBot().Self.ID

	reply, err := p.botService.ProcessActivation(ctx, &domain.Chat{
		ID:    chat.ID,
		Title: chat.Title,
		Type:  chat.Type,
	}, actor, botID)
	if err != nil {
		p.logger.Error("Ошибка при активации чата",
			"chat_id", chat.ID,
			"error", err,
		)

		return
	}

	if reply == nil {
		return
	}

	if err := p.client.SendReply(ctx, chat.ID, reply); err != nil {
		p.logger.Error("Ошибка при отправке ответа активации",
			"chat_id", chat.ID,
			"error", err,
		)
	}
}

func (p *Poller) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	metrics.RecordUserMessage("callback")

	domainQuery := &domain.CallbackQuery{
		ID:   query.ID,
		Data: query.Data,
		From: domain.User{
			ID:        query.From.ID,
			Username:  query.From.UserName,
			FirstName: query.From.FirstName,
		},
	}

	result, err := p.botService.ProcessAction(ctx, domainQuery)
	if err != nil {
		p.logger.Warn("Ошибка при обработке callback-действия",
			"user_id", query.From.ID,
			"data", query.Data,
			"error", err,
		)

		p.answerCallback(ctx, query.ID, "❌ Произошла ошибка, попробуйте ещё раз", true)

		return
	}

	p.answerCallback(ctx, query.ID, result.Notice, result.ShowAlert)

	if result.Reply == nil || query.Message == nil {
		return
	}

	err = p.client.EditMessage(ctx, query.Message.Chat.ID, int64(query.Message.MessageID), result.Reply)
	if err != nil {
		p.logger.Error("Ошибка при редактировании сообщения",
			"chat_id", query.Message.Chat.ID,
			"error", err,
		)
	}
}

func (p *Poller) answerCallback(ctx context.Context, callbackID, text string, showAlert bool) {
	if err := p.client.AnswerCallback(ctx, callbackID, text, showAlert); err != nil {
		p.logger.Error("Ошибка при ответе на callback", "error", err)
	}
}

func (p *Poller) isActivation(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), p.botService.ActivationKeyword())
}

func commandType(msg *tgbotapi.Message) models.CommandType {
	if !msg.IsCommand() {
		return models.CommandUnknown
	}

	switch msg.Command() {
	case "start":
		return models.CommandStart
	case "help":
		return models.CommandHelp
	default:
		return models.CommandUnknown
	}
}
