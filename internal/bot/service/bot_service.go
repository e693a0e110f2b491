package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/central-university-dev/go-join-request-bot/internal/bot/domain"
	"github.com/central-university-dev/go-join-request-bot/internal/bot/keyboard"
	customerrors "github.com/central-university-dev/go-join-request-bot/internal/domain/errors"
	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
)

type UserRepository interface {
	Save(ctx context.Context, user *models.User) error
}

type SessionRepository interface {
	Get(ctx context.Context, userID int64) (*models.Session, error)

	Set(ctx context.Context, session *models.Session) error
}

type Transactor interface {
	WithTransaction(ctx context.Context, txFunc func(ctx context.Context) error) error
}

// ActionResult - результат обработки callback-действия: новое содержимое
// сообщения и/или всплывающее уведомление.
type ActionResult struct {
	Reply     *domain.Reply
	Notice    string
	ShowAlert bool
}

// BotService обрабатывает команды, активацию чатов и действия клавиатур.
type BotService struct {
	chatRepo          ChatRepository
	pendingRepo       PendingRequestRepository
	userRepo          UserRepository
	sessionRepo       SessionRepository
	admission         *AdmissionService
	client            domain.TelegramClientAPI
	txManager         Transactor
	activationKeyword string
}

func NewBotService(
	chatRepo ChatRepository,
	pendingRepo PendingRequestRepository,
	userRepo UserRepository,
	sessionRepo SessionRepository,
	admission *AdmissionService,
	client domain.TelegramClientAPI,
	txManager Transactor,
	activationKeyword string,
) *BotService {
	return &BotService{
		chatRepo:          chatRepo,
		pendingRepo:       pendingRepo,
		userRepo:          userRepo,
		sessionRepo:       sessionRepo,
		admission:         admission,
		client:            client,
		txManager:         txManager,
		activationKeyword: activationKeyword,
	}
}

func (s *BotService) ActivationKeyword() string {
	return s.activationKeyword
}

func (s *BotService) ProcessCommand(ctx context.Context, command *models.Command) (*domain.Reply, error) {
	switch command.Type {
	case models.CommandStart:
		return s.handleStartCommand(ctx, command)
	case models.CommandHelp:
		return s.handleHelpCommand(ctx, command)
	default:
		return s.handleText(ctx, command)
	}
}

// handleText обрабатывает произвольный текст в личном чате. В состоянии
// выбора количества заявок число принимается как произвольный вариант,
// дополняющий пресеты клавиатуры.
func (s *BotService) handleText(ctx context.Context, command *models.Command) (*domain.Reply, error) {
	session, err := s.sessionRepo.Get(ctx, command.UserID)
	if err != nil {
		return nil, err
	}

	if session.State == models.StateChoosingAcceptCount && session.ChatID != 0 {
		count, convErr := strconv.Atoi(strings.TrimSpace(command.Text))
		if convErr != nil || count <= 0 {
			return &domain.Reply{
				Text: "Введите положительное число заявок или выберите вариант на клавиатуре.",
			}, nil
		}

		return s.acceptReply(ctx, command.UserID, &models.Action{
			Type:   models.ActionAccept,
			ChatID: session.ChatID,
			Count:  count,
		})
	}

	return &domain.Reply{Text: "Неизвестная команда. Введите /help для просмотра доступных команд."},
		&customerrors.ErrUnknownCommand{Command: command.Text}
}

func (s *BotService) handleStartCommand(ctx context.Context, command *models.Command) (*domain.Reply, error) {
	user := &models.User{
		ID:        command.UserID,
		Username:  command.Username,
		FirstName: command.FirstName,
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	if err := s.resetSession(ctx, command.UserID); err != nil {
		return nil, err
	}

	return &domain.Reply{
		Text:     s.greeting(command.FirstName),
		Keyboard: keyboard.MainMenu(),
	}, nil
}

func (s *BotService) handleHelpCommand(ctx context.Context, command *models.Command) (*domain.Reply, error) {
	if err := s.resetSession(ctx, command.UserID); err != nil {
		return nil, err
	}

	return &domain.Reply{
		Text: fmt.Sprintf(`Бот принимает заявки на вступление в каналы и группы.

Чтобы подключить чат:
1. Добавьте бота администратором в канал или группу
2. Отправьте там сообщение %s
3. Чат появится в списке «Мои каналы и группы»

Заявки можно принимать автоматически или копить и принимать пакетами.`, s.activationKeyword),
		Keyboard: keyboard.MainMenu(),
	}, nil
}

// ProcessActivation обрабатывает ключевое слово активации в группе или канале.
// Права бота проверяются всегда; в группе дополнительно проверяются права
// отправителя, в канале вместо этого публикуется кнопка подтверждения владения.
func (s *BotService) ProcessActivation(ctx context.Context, chat *domain.Chat, actor *domain.User, botID int64) (*domain.Reply, error) {
	botIsAdmin, err := s.client.IsChatAdmin(ctx, chat.ID, botID)
	if err != nil {
		return nil, err
	}

	if !botIsAdmin {
		return &domain.Reply{Text: "❌ Боту нужны права администратора с правом приглашать пользователей."}, nil
	}

	if chat.Type == "channel" {
		return &domain.Reply{
			Text:     "🔒 Чтобы привязать канал к своему аккаунту, нажмите кнопку ниже:",
			Keyboard: keyboard.Claim(chat.ID),
		}, nil
	}

	actorIsAdmin, err := s.client.IsChatAdmin(ctx, chat.ID, actor.ID)
	if err != nil {
		return nil, err
	}

	if !actorIsAdmin {
		return &domain.Reply{Text: "❌ Эта команда доступна только администраторам."}, nil
	}

	already, err := s.registerChat(ctx, actor, &models.Chat{
		OwnerID: actor.ID,
		ChatID:  chat.ID,
		Title:   chat.Title,
		Kind:    models.ChatKindGroup,
	})
	if err != nil {
		return nil, err
	}

	if already {
		return &domain.Reply{Text: "✅ Группа уже активирована."}, nil
	}

	return &domain.Reply{Text: "✅ Группа активирована и привязана к вашему аккаунту!\nТеперь ей можно управлять из бота."}, nil
}

// ProcessAction разбирает callback-данные и выполняет действие.
func (s *BotService) ProcessAction(ctx context.Context, query *domain.CallbackQuery) (*ActionResult, error) {
	action, err := models.ParseAction(query.Data)
	if err != nil {
		return nil, err
	}

	ownerID := query.From.ID

	switch action.Type {
	case models.ActionAddChat:
		return s.handleAddChat(ctx, ownerID)
	case models.ActionMyChats:
		return s.handleMyChats(ctx, ownerID)
	case models.ActionAcceptMenu:
		return s.handleAcceptMenu(ctx, ownerID)
	case models.ActionChooseChat, models.ActionChatAccept:
		return s.handleChooseChat(ctx, ownerID, action.ChatID)
	case models.ActionManageChat:
		return s.handleManageChat(ctx, ownerID, action.ChatID)
	case models.ActionToggleAuto:
		return s.handleToggleAuto(ctx, ownerID, action.ChatID)
	case models.ActionDeleteChat:
		return s.handleDeleteChat(ctx, ownerID, action.ChatID)
	case models.ActionAccept:
		return s.handleAccept(ctx, ownerID, action)
	case models.ActionClaim:
		return s.handleClaim(ctx, &query.From, action.ChatID)
	case models.ActionBackMain:
		return s.handleBackMain(ctx, &query.From)
	default:
		return nil, &customerrors.ErrUnknownAction{Data: query.Data}
	}
}

func (s *BotService) handleAddChat(ctx context.Context, ownerID int64) (*ActionResult, error) {
	if err := s.resetSession(ctx, ownerID); err != nil {
		return nil, err
	}

	return &ActionResult{
		Reply: &domain.Reply{
			Text: fmt.Sprintf(`📢 Чтобы добавить канал или группу:

1. Добавьте бота администратором в канал или группу
2. Отправьте там сообщение %s

Чат привяжется к вашему аккаунту автоматически.`, s.activationKeyword),
			Keyboard: keyboard.Back(),
		},
	}, nil
}

func (s *BotService) handleMyChats(ctx context.Context, ownerID int64) (*ActionResult, error) {
	chats, err := s.chatRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if len(chats) == 0 {
		return &ActionResult{
			Reply: &domain.Reply{
				Text:     "❌ Нет добавленных каналов или групп.\n\nДобавьте бота в чат и отправьте там " + s.activationKeyword,
				Keyboard: keyboard.MainMenu(),
			},
		}, nil
	}

	if err := s.setSession(ctx, ownerID, models.StateChoosingChat, 0); err != nil {
		return nil, err
	}

	var sb strings.Builder

	sb.WriteString("📋 Мои каналы и группы:\n\n")

	for _, chat := range chats {
		icon := "👥"
		if chat.Kind == models.ChatKindChannel {
			icon = "📢"
		}

		auto := ""
		if chat.AutoAccept {
			auto = " ✅ автоприём"
		}

		sb.WriteString(fmt.Sprintf("%s %s%s\n", icon, chat.Title, auto))
	}

	return &ActionResult{
		Reply: &domain.Reply{
			Text:     sb.String(),
			Keyboard: keyboard.ChatList(chats, models.ActionManageChat),
		},
	}, nil
}

func (s *BotService) handleAcceptMenu(ctx context.Context, ownerID int64) (*ActionResult, error) {
	chats, err := s.chatRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if len(chats) == 0 {
		return &ActionResult{
			Reply: &domain.Reply{
				Text:     "❌ Нет каналов или групп.\n\nСначала добавьте чат.",
				Keyboard: keyboard.MainMenu(),
			},
		}, nil
	}

	if err := s.setSession(ctx, ownerID, models.StateChoosingChat, 0); err != nil {
		return nil, err
	}

	return &ActionResult{
		Reply: &domain.Reply{
			Text:     "✅ Выберите канал или группу для приёма заявок:",
			Keyboard: keyboard.ChatList(chats, models.ActionChooseChat),
		},
	}, nil
}

func (s *BotService) handleChooseChat(ctx context.Context, ownerID, chatID int64) (*ActionResult, error) {
	chat, err := s.chatRepo.Find(ctx, ownerID, chatID)
	if err != nil {
		if errors.Is(err, &customerrors.ErrChatNotFound{}) {
			return &ActionResult{Notice: "❌ Чат не найден", ShowAlert: true}, nil
		}

		return nil, err
	}

	count, err := s.pendingRepo.Count(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if err := s.setSession(ctx, ownerID, models.StateChoosingAcceptCount, chatID); err != nil {
		return nil, err
	}

	return &ActionResult{
		Reply: &domain.Reply{
			Text: fmt.Sprintf(`📊 %s

Заявок в очереди: %d

Сколько заявок принять? Выберите количество или примите все.`, chat.Title, count),
			Keyboard: keyboard.AcceptCount(chatID),
		},
	}, nil
}

func (s *BotService) handleManageChat(ctx context.Context, ownerID, chatID int64) (*ActionResult, error) {
	chat, err := s.chatRepo.Find(ctx, ownerID, chatID)
	if err != nil {
		if errors.Is(err, &customerrors.ErrChatNotFound{}) {
			return &ActionResult{Notice: "❌ Чат не найден", ShowAlert: true}, nil
		}

		return nil, err
	}

	if err := s.setSession(ctx, ownerID, models.StateManagingChat, chatID); err != nil {
		return nil, err
	}

	return &ActionResult{
		Reply: &domain.Reply{
			Text:     chatInfo(chat),
			Keyboard: keyboard.ChatActions(chat),
		},
	}, nil
}

func (s *BotService) handleToggleAuto(ctx context.Context, ownerID, chatID int64) (*ActionResult, error) {
	newValue, err := s.chatRepo.ToggleAutoAccept(ctx, ownerID, chatID)
	if err != nil {
		return nil, err
	}

	status := "выключен ❌"
	if newValue {
		status = "включён ✅"
	}

	chat, err := s.chatRepo.Find(ctx, ownerID, chatID)
	if err != nil {
		if errors.Is(err, &customerrors.ErrChatNotFound{}) {
			return &ActionResult{Notice: "❌ Чат не найден", ShowAlert: true}, nil
		}

		return nil, err
	}

	return &ActionResult{
		Reply: &domain.Reply{
			Text:     chatInfo(chat),
			Keyboard: keyboard.ChatActions(chat),
		},
		Notice:    "Автоприём: " + status,
		ShowAlert: true,
	}, nil
}

func (s *BotService) handleDeleteChat(ctx context.Context, ownerID, chatID int64) (*ActionResult, error) {
	if err := s.chatRepo.Delete(ctx, ownerID, chatID); err != nil {
		return nil, err
	}

	result, err := s.handleMyChats(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	result.Notice = "✅ Чат удалён"
	result.ShowAlert = true

	return result, nil
}

func (s *BotService) handleAccept(ctx context.Context, ownerID int64, action *models.Action) (*ActionResult, error) {
	reply, err := s.acceptReply(ctx, ownerID, action)
	if err != nil {
		return nil, err
	}

	return &ActionResult{Reply: reply}, nil
}

func (s *BotService) acceptReply(ctx context.Context, ownerID int64, action *models.Action) (*domain.Reply, error) {
	limit := action.Count
	if action.AcceptAll {
		limit = 0
	}

	if err := s.resetSession(ctx, ownerID); err != nil {
		return nil, err
	}

	accepted, err := s.admission.AcceptPending(ctx, action.ChatID, limit)
	if err != nil {
		if errors.Is(err, &customerrors.ErrTransportUnavailable{}) {
			return &domain.Reply{
				Text: fmt.Sprintf(
					"⚠️ Принято заявок: %d. Telegram временно недоступен, остальные заявки остались в очереди - повторите позже.",
					accepted),
				Keyboard: keyboard.MainMenu(),
			}, nil
		}

		return nil, err
	}

	return &domain.Reply{
		Text:     fmt.Sprintf("✅ Принято заявок: %d", accepted),
		Keyboard: keyboard.MainMenu(),
	}, nil
}

func (s *BotService) handleClaim(ctx context.Context, actor *domain.User, chatID int64) (*ActionResult, error) {
	isAdmin, err := s.client.IsChatAdmin(ctx, chatID, actor.ID)
	if err != nil {
		return &ActionResult{Notice: "❌ Ошибка, проверьте что бот всё ещё администратор", ShowAlert: true}, nil
	}

	if !isAdmin {
		return &ActionResult{Notice: "❌ Вы не администратор этого канала!", ShowAlert: true}, nil
	}

	chat, err := s.client.GetChat(ctx, chatID)
	if err != nil {
		return &ActionResult{Notice: "❌ Ошибка, проверьте что бот всё ещё администратор", ShowAlert: true}, nil
	}

	already, err := s.registerChat(ctx, actor, &models.Chat{
		OwnerID: actor.ID,
		ChatID:  chatID,
		Title:   chat.Title,
		Kind:    models.ChatKindChannel,
	})
	if err != nil {
		return nil, err
	}

	if already {
		return &ActionResult{
			Reply:     &domain.Reply{Text: "✅ Канал уже активирован."},
			Notice:    "⚠️ Канал активирован ранее",
			ShowAlert: true,
		}, nil
	}

	return &ActionResult{
		Reply:  &domain.Reply{Text: fmt.Sprintf("✅ Канал активирован пользователем %s!", actor.FirstName)},
		Notice: "✅ Канал активирован!",
	}, nil
}

func (s *BotService) handleBackMain(ctx context.Context, actor *domain.User) (*ActionResult, error) {
	if err := s.resetSession(ctx, actor.ID); err != nil {
		return nil, err
	}

	return &ActionResult{
		Reply: &domain.Reply{
			Text:     s.greeting(actor.FirstName),
			Keyboard: keyboard.MainMenu(),
		},
	}, nil
}

// registerChat сохраняет владельца и чат в одной транзакции.
// Возвращает already = true, если пара (владелец, чат) уже была привязана.
func (s *BotService) registerChat(ctx context.Context, actor *domain.User, chat *models.Chat) (bool, error) {
	already := false

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Save(ctx, &models.User{
			ID:        actor.ID,
			Username:  actor.Username,
			FirstName: actor.FirstName,
		}); err != nil {
			return err
		}

		if err := s.chatRepo.Save(ctx, chat); err != nil {
			if errors.Is(err, &customerrors.ErrChatAlreadyRegistered{}) {
				already = true
				return nil
			}

			return err
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	return already, nil
}

func (s *BotService) setSession(ctx context.Context, ownerID int64, state models.SessionState, chatID int64) error {
	return s.sessionRepo.Set(ctx, &models.Session{
		UserID: ownerID,
		State:  state,
		ChatID: chatID,
	})
}

func (s *BotService) resetSession(ctx context.Context, ownerID int64) error {
	return s.setSession(ctx, ownerID, models.StateIdle, 0)
}

func (s *BotService) greeting(firstName string) string {
	return fmt.Sprintf(`👋 Привет, %s!
Бот принимает заявки на вступление в каналы и группы.

Чтобы подключить чат:
1. Добавьте бота администратором в канал или группу
2. Отправьте там сообщение %s
3. Чат появится в списке «Мои каналы и группы»

Заявки можно принимать сразу автоматически или копить и принимать пакетами в один клик 🤖`,
		firstName, s.activationKeyword)
}

func chatInfo(chat *models.Chat) string {
	kind := "группа"
	if chat.Kind == models.ChatKindChannel {
		kind = "канал"
	}

	status := "выключен ❌"
	if chat.AutoAccept {
		status = "включён ✅"
	}

	return fmt.Sprintf("📋 %s\nТип: %s\nАвтоприём: %s", chat.Title, kind, status)
}
