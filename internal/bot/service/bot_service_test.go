package service_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-join-request-bot/internal/bot/domain"
	"github.com/central-university-dev/go-join-request-bot/internal/bot/service"
	customerrors "github.com/central-university-dev/go-join-request-bot/internal/domain/errors"
	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
	"github.com/central-university-dev/go-join-request-bot/internal/infrastructure/repositories/memory"
	"github.com/central-university-dev/go-join-request-bot/pkg"
)

const (
	testKeyword = "!активировать"
	testBotID   = int64(999)
	testOwnerID = int64(1)
)

type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(ctx context.Context, txFunc func(ctx context.Context) error) error {
	return txFunc(ctx)
}

type botFixture struct {
	chatRepo    *memory.ChatRepository
	pendingRepo *memory.PendingRequestRepository
	sessionRepo *memory.SessionRepository
	client      *fakeTelegramClient
	service     *service.BotService
}

func newBotFixture(t *testing.T) *botFixture {
	t.Helper()

	logger := pkg.NewLogger(io.Discard)

	chatRepo := memory.NewChatRepository()
	pendingRepo := memory.NewPendingRequestRepository()
	sessionRepo := memory.NewSessionRepository()
	client := newFakeTelegramClient()

	admission := service.NewAdmissionService(chatRepo, pendingRepo, client, nil, 0, logger)

	return &botFixture{
		chatRepo:    chatRepo,
		pendingRepo: pendingRepo,
		sessionRepo: sessionRepo,
		client:      client,
		service: service.NewBotService(
			chatRepo,
			pendingRepo,
			memory.NewUserRepository(),
			sessionRepo,
			admission,
			client,
			fakeTxManager{},
			testKeyword,
		),
	}
}

func (f *botFixture) registerGroup(t *testing.T, chatID int64, title string) {
	t.Helper()

	require.NoError(t, f.chatRepo.Save(context.Background(), &models.Chat{
		OwnerID: testOwnerID,
		ChatID:  chatID,
		Title:   title,
		Kind:    models.ChatKindGroup,
	}))
}

func callbackFrom(userID int64, data string) *domain.CallbackQuery {
	return &domain.CallbackQuery{
		ID:   "cb-1",
		Data: data,
		From: domain.User{ID: userID, FirstName: "Аня", Username: "anya"},
	}
}

func TestProcessCommand_Start(t *testing.T) {
	f := newBotFixture(t)

	reply, err := f.service.ProcessCommand(context.Background(), &models.Command{
		Type:      models.CommandStart,
		ChatID:    testOwnerID,
		UserID:    testOwnerID,
		FirstName: "Аня",
	})

	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Contains(t, reply.Text, "Аня")
	assert.Contains(t, reply.Text, testKeyword)
	assert.NotEmpty(t, reply.Keyboard)
}

func TestProcessCommand_Unknown(t *testing.T) {
	f := newBotFixture(t)

	reply, err := f.service.ProcessCommand(context.Background(), &models.Command{
		Type:   models.CommandUnknown,
		ChatID: testOwnerID,
		UserID: testOwnerID,
		Text:   "привет",
	})

	var unknownErr *customerrors.ErrUnknownCommand

	assert.ErrorAs(t, err, &unknownErr)
	require.NotNil(t, reply)
	assert.Contains(t, reply.Text, "/help")
}

func TestProcessCommand_CustomAcceptCount(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.registerGroup(t, -1001, "Группа")

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, f.pendingRepo.Save(ctx, &models.PendingRequest{ChatID: -1001, UserID: i}))
	}

	// Владелец открывает меню выбора количества, затем пишет число текстом.
	_, err := f.service.ProcessAction(ctx, callbackFrom(testOwnerID, "choose_-1001"))
	require.NoError(t, err)

	reply, err := f.service.ProcessCommand(ctx, &models.Command{
		Type:   models.CommandUnknown,
		ChatID: testOwnerID,
		UserID: testOwnerID,
		Text:   "3",
	})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "Принято заявок: 3")

	count, err := f.pendingRepo.Count(ctx, -1001)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestProcessCommand_CustomAcceptCountInvalid(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.registerGroup(t, -1001, "Группа")

	_, err := f.service.ProcessAction(ctx, callbackFrom(testOwnerID, "choose_-1001"))
	require.NoError(t, err)

	reply, err := f.service.ProcessCommand(ctx, &models.Command{
		Type:   models.CommandUnknown,
		ChatID: testOwnerID,
		UserID: testOwnerID,
		Text:   "много",
	})
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "положительное число")
}

func TestProcessActivation_GroupRegisters(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.client.admins[testBotID] = true
	f.client.admins[testOwnerID] = true

	chat := &domain.Chat{ID: -1001, Title: "Группа", Type: "supergroup"}
	actor := &domain.User{ID: testOwnerID, FirstName: "Аня"}

	reply, err := f.service.ProcessActivation(ctx, chat, actor, testBotID)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Contains(t, reply.Text, "активирована")

	saved, err := f.chatRepo.Find(ctx, testOwnerID, -1001)
	require.NoError(t, err)
	assert.Equal(t, models.ChatKindGroup, saved.Kind)
	assert.Equal(t, "Группа", saved.Title)

	// Повторная активация сообщает, что чат уже привязан.
	reply, err = f.service.ProcessActivation(ctx, chat, actor, testBotID)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "уже активирована")
}

func TestProcessActivation_BotNotAdmin(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.client.admins[testOwnerID] = true

	reply, err := f.service.ProcessActivation(ctx,
		&domain.Chat{ID: -1001, Title: "Группа", Type: "supergroup"},
		&domain.User{ID: testOwnerID},
		testBotID,
	)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "права администратора")

	_, err = f.chatRepo.Find(ctx, testOwnerID, -1001)
	assert.ErrorIs(t, err, &customerrors.ErrChatNotFound{})
}

func TestProcessActivation_ActorNotAdmin(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.client.admins[testBotID] = true

	reply, err := f.service.ProcessActivation(ctx,
		&domain.Chat{ID: -1001, Title: "Группа", Type: "supergroup"},
		&domain.User{ID: testOwnerID},
		testBotID,
	)
	require.NoError(t, err)
	assert.Contains(t, reply.Text, "только администраторам")
}

func TestProcessActivation_ChannelOffersClaim(t *testing.T) {
	f := newBotFixture(t)

	f.client.admins[testBotID] = true

	reply, err := f.service.ProcessActivation(context.Background(),
		&domain.Chat{ID: -1001, Title: "Канал", Type: "channel"},
		&domain.User{},
		testBotID,
	)
	require.NoError(t, err)
	require.NotEmpty(t, reply.Keyboard)
	assert.Equal(t, "claim_-1001", reply.Keyboard[0][0].Callback)

	// Канал не привязывается, пока владелец не подтвердит себя кнопкой.
	chats, err := f.chatRepo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, chats)
}

func TestProcessAction_ClaimRegistersChannel(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.client.admins[testOwnerID] = true
	f.client.chats[-1001] = &domain.Chat{ID: -1001, Title: "Новости", Type: "channel"}

	result, err := f.service.ProcessAction(ctx, callbackFrom(testOwnerID, "claim_-1001"))
	require.NoError(t, err)
	assert.Equal(t, "✅ Канал активирован!", result.Notice)

	saved, err := f.chatRepo.Find(ctx, testOwnerID, -1001)
	require.NoError(t, err)
	assert.Equal(t, models.ChatKindChannel, saved.Kind)
	assert.Equal(t, "Новости", saved.Title)

	result, err = f.service.ProcessAction(ctx, callbackFrom(testOwnerID, "claim_-1001"))
	require.NoError(t, err)
	assert.Contains(t, result.Notice, "активирован ранее")
}

func TestProcessAction_ClaimRequiresAdmin(t *testing.T) {
	f := newBotFixture(t)

	result, err := f.service.ProcessAction(context.Background(), callbackFrom(testOwnerID, "claim_-1001"))
	require.NoError(t, err)
	assert.Contains(t, result.Notice, "не администратор")
	assert.True(t, result.ShowAlert)
}

func TestProcessAction_MyChats(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	result, err := f.service.ProcessAction(ctx, callbackFrom(testOwnerID, "my_channels"))
	require.NoError(t, err)
	assert.Contains(t, result.Reply.Text, "Нет добавленных")

	f.registerGroup(t, -1001, "Группа")

	result, err = f.service.ProcessAction(ctx, callbackFrom(testOwnerID, "my_channels"))
	require.NoError(t, err)
	assert.Contains(t, result.Reply.Text, "Группа")
	assert.NotEmpty(t, result.Reply.Keyboard)
}

func TestProcessAction_ChooseChatSetsSession(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.registerGroup(t, -1001, "Группа")

	result, err := f.service.ProcessAction(ctx, callbackFrom(testOwnerID, "choose_-1001"))
	require.NoError(t, err)
	assert.Contains(t, result.Reply.Text, "Заявок в очереди: 0")

	session, err := f.sessionRepo.Get(ctx, testOwnerID)
	require.NoError(t, err)
	assert.Equal(t, models.StateChoosingAcceptCount, session.State)
	assert.Equal(t, int64(-1001), session.ChatID)
}

func TestProcessAction_ChooseChatNotFound(t *testing.T) {
	f := newBotFixture(t)

	result, err := f.service.ProcessAction(context.Background(), callbackFrom(testOwnerID, "choose_-1001"))
	require.NoError(t, err)
	assert.Nil(t, result.Reply)
	assert.Contains(t, result.Notice, "не найден")
}

func TestProcessAction_ToggleAuto(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.registerGroup(t, -1001, "Группа")

	result, err := f.service.ProcessAction(ctx, callbackFrom(testOwnerID, "auto_accept_-1001"))
	require.NoError(t, err)
	assert.Contains(t, result.Notice, "Автоприём")
	assert.Contains(t, result.Notice, "включён")

	saved, err := f.chatRepo.Find(ctx, testOwnerID, -1001)
	require.NoError(t, err)
	assert.True(t, saved.AutoAccept)
}

func TestProcessAction_DeleteChat(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.registerGroup(t, -1001, "Группа")

	result, err := f.service.ProcessAction(ctx, callbackFrom(testOwnerID, "delete_channel_-1001"))
	require.NoError(t, err)
	assert.Contains(t, result.Notice, "удалён")

	_, err = f.chatRepo.Find(ctx, testOwnerID, -1001)
	assert.ErrorIs(t, err, &customerrors.ErrChatNotFound{})
}

func TestProcessAction_AcceptCount(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.registerGroup(t, -1001, "Группа")

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, f.pendingRepo.Save(ctx, &models.PendingRequest{ChatID: -1001, UserID: i}))
	}

	result, err := f.service.ProcessAction(ctx, callbackFrom(testOwnerID, "accept_2_-1001"))
	require.NoError(t, err)
	assert.Contains(t, result.Reply.Text, "Принято заявок: 2")

	count, err := f.pendingRepo.Count(ctx, -1001)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProcessAction_AcceptAll(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.registerGroup(t, -1001, "Группа")

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, f.pendingRepo.Save(ctx, &models.PendingRequest{ChatID: -1001, UserID: i}))
	}

	result, err := f.service.ProcessAction(ctx, callbackFrom(testOwnerID, "accept_all_-1001"))
	require.NoError(t, err)
	assert.Contains(t, result.Reply.Text, "Принято заявок: 3")

	count, err := f.pendingRepo.Count(ctx, -1001)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestProcessAction_AcceptTransportFailure(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.registerGroup(t, -1001, "Группа")

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, f.pendingRepo.Save(ctx, &models.PendingRequest{ChatID: -1001, UserID: i}))
	}

	calls := 0
	f.client.approveErr = func(_, _ int64) error {
		calls++
		if calls > 1 {
			return &customerrors.ErrTransportUnavailable{Cause: errors.New("connection refused")}
		}

		return nil
	}

	result, err := f.service.ProcessAction(ctx, callbackFrom(testOwnerID, "accept_all_-1001"))

	// Сбой транспорта доносится до пользователя сообщением, а не ошибкой.
	require.NoError(t, err)
	assert.Contains(t, result.Reply.Text, "Принято заявок: 1")
	assert.Contains(t, result.Reply.Text, "недоступен")

	count, err := f.pendingRepo.Count(ctx, -1001)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestProcessAction_UnknownData(t *testing.T) {
	f := newBotFixture(t)

	result, err := f.service.ProcessAction(context.Background(), callbackFrom(testOwnerID, "bogus_data"))

	assert.Nil(t, result)
	assert.ErrorIs(t, err, &customerrors.ErrUnknownAction{})
}

func TestProcessAction_BackMainResetsSession(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.registerGroup(t, -1001, "Группа")

	_, err := f.service.ProcessAction(ctx, callbackFrom(testOwnerID, "choose_-1001"))
	require.NoError(t, err)

	result, err := f.service.ProcessAction(ctx, callbackFrom(testOwnerID, "back_main"))
	require.NoError(t, err)
	require.NotNil(t, result.Reply)
	assert.NotEmpty(t, result.Reply.Keyboard)

	session, err := f.sessionRepo.Get(ctx, testOwnerID)
	require.NoError(t, err)
	assert.Equal(t, models.StateIdle, session.State)
}

func TestProcessAction_AcceptMenuListsChats(t *testing.T) {
	f := newBotFixture(t)
	ctx := context.Background()

	f.registerGroup(t, -1001, "Первая")
	f.registerGroup(t, -1002, "Вторая")

	result, err := f.service.ProcessAction(ctx, callbackFrom(testOwnerID, "accept_requests"))
	require.NoError(t, err)
	require.NotNil(t, result.Reply)

	// Кнопки выбора чата плюс кнопка возврата.
	require.Len(t, result.Reply.Keyboard, 3)
	assert.Equal(t, fmt.Sprintf("choose_%d", int64(-1001)), result.Reply.Keyboard[0][0].Callback)
}
