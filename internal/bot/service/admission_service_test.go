package service_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-join-request-bot/internal/bot/domain"
	"github.com/central-university-dev/go-join-request-bot/internal/bot/service"
	customerrors "github.com/central-university-dev/go-join-request-bot/internal/domain/errors"
	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
	"github.com/central-university-dev/go-join-request-bot/internal/infrastructure/repositories/memory"
	"github.com/central-university-dev/go-join-request-bot/pkg"
)

type approveCall struct {
	ChatID int64
	UserID int64
}

// fakeTelegramClient записывает вызовы и отдаёт настроенные ответы.
type fakeTelegramClient struct {
	mu         sync.Mutex
	approveErr func(chatID, userID int64) error
	approvals  []approveCall
	admins     map[int64]bool
	chats      map[int64]*domain.Chat
	replies    []*domain.Reply
}

func newFakeTelegramClient() *fakeTelegramClient {
	return &fakeTelegramClient{
		admins: make(map[int64]bool),
		chats:  make(map[int64]*domain.Chat),
	}
}

func (c *fakeTelegramClient) SendMessage(_ context.Context, _ int64, _ string) error {
	return nil
}

func (c *fakeTelegramClient) SendReply(_ context.Context, _ int64, reply *domain.Reply) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.replies = append(c.replies, reply)

	return nil
}

func (c *fakeTelegramClient) EditMessage(_ context.Context, _, _ int64, _ *domain.Reply) error {
	return nil
}

func (c *fakeTelegramClient) AnswerCallback(_ context.Context, _, _ string, _ bool) error {
	return nil
}

func (c *fakeTelegramClient) ApproveJoinRequest(_ context.Context, chatID, userID int64) error {
	c.mu.Lock()
	c.approvals = append(c.approvals, approveCall{ChatID: chatID, UserID: userID})
	c.mu.Unlock()

	if c.approveErr != nil {
		return c.approveErr(chatID, userID)
	}

	return nil
}

func (c *fakeTelegramClient) IsChatAdmin(_ context.Context, _, userID int64) (bool, error) {
	return c.admins[userID], nil
}

func (c *fakeTelegramClient) GetChat(_ context.Context, chatID int64) (*domain.Chat, error) {
	if chat, ok := c.chats[chatID]; ok {
		return chat, nil
	}

	return &domain.Chat{ID: chatID, Title: "Канал", Type: "channel"}, nil
}

func (c *fakeTelegramClient) SetMyCommands(_ context.Context, _ []domain.BotCommand) error {
	return nil
}

func (c *fakeTelegramClient) GetBot() *tgbotapi.BotAPI {
	return nil
}

func (c *fakeTelegramClient) approvedUsers() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	users := make([]int64, 0, len(c.approvals))
	for _, call := range c.approvals {
		users = append(users, call.UserID)
	}

	return users
}

type admissionFixture struct {
	chatRepo    *memory.ChatRepository
	pendingRepo *memory.PendingRequestRepository
	client      *fakeTelegramClient
	service     *service.AdmissionService
}

func newAdmissionFixture(t *testing.T) *admissionFixture {
	t.Helper()

	chatRepo := memory.NewChatRepository()
	pendingRepo := memory.NewPendingRequestRepository()
	client := newFakeTelegramClient()

	return &admissionFixture{
		chatRepo:    chatRepo,
		pendingRepo: pendingRepo,
		client:      client,
		service:     service.NewAdmissionService(chatRepo, pendingRepo, client, nil, 0, pkg.NewLogger(io.Discard)),
	}
}

func (f *admissionFixture) enqueue(t *testing.T, chatID int64, userIDs ...int64) {
	t.Helper()

	base := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	for i, userID := range userIDs {
		require.NoError(t, f.pendingRepo.Save(context.Background(), &models.PendingRequest{
			ChatID:    chatID,
			UserID:    userID,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
}

func TestHandleJoinRequest_ManualModeQueues(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()

	require.NoError(t, f.chatRepo.Save(ctx, &models.Chat{OwnerID: 1, ChatID: -1001, Title: "Новости", Kind: models.ChatKindChannel}))

	err := f.service.HandleJoinRequest(ctx, &models.JoinRequest{ChatID: -1001, UserID: 10, FirstName: "Аня"})
	require.NoError(t, err)

	assert.Empty(t, f.client.approvedUsers())

	count, err := f.pendingRepo.Count(ctx, -1001)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestHandleJoinRequest_AutoAcceptApproves(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()

	require.NoError(t, f.chatRepo.Save(ctx, &models.Chat{OwnerID: 1, ChatID: -1001, Title: "Новости", Kind: models.ChatKindChannel, AutoAccept: true}))

	err := f.service.HandleJoinRequest(ctx, &models.JoinRequest{ChatID: -1001, UserID: 10})
	require.NoError(t, err)

	assert.Equal(t, []int64{10}, f.client.approvedUsers())

	count, err := f.pendingRepo.Count(ctx, -1001)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestHandleJoinRequest_AutoAcceptFailureFallsBackToQueue(t *testing.T) {
	testCases := []struct {
		name string
		err  error
	}{
		{
			name: "Отказ платформы",
			err:  &customerrors.ErrApprovalRejected{ChatID: -1001, UserID: 10, Cause: errors.New("USER_ALREADY_PARTICIPANT")},
		},
		{
			name: "Недоступность Telegram API",
			err:  &customerrors.ErrTransportUnavailable{Cause: errors.New("connection refused")},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newAdmissionFixture(t)
			ctx := context.Background()

			require.NoError(t, f.chatRepo.Save(ctx, &models.Chat{OwnerID: 1, ChatID: -1001, Title: "Новости", Kind: models.ChatKindChannel, AutoAccept: true}))

			f.client.approveErr = func(_, _ int64) error { return tc.err }

			err := f.service.HandleJoinRequest(ctx, &models.JoinRequest{ChatID: -1001, UserID: 10})
			require.NoError(t, err)

			// Заявка не теряется: при любой ошибке одобрения она встаёт в очередь.
			count, err := f.pendingRepo.Count(ctx, -1001)
			require.NoError(t, err)
			assert.Equal(t, 1, count)
		})
	}
}

func TestAcceptPending_ApprovesInOrder(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()

	f.enqueue(t, -1001, 1, 2, 3)

	accepted, err := f.service.AcceptPending(ctx, -1001, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, accepted)
	assert.Equal(t, []int64{1, 2, 3}, f.client.approvedUsers())

	count, err := f.pendingRepo.Count(ctx, -1001)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAcceptPending_RespectsLimit(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()

	f.enqueue(t, -1001, 1, 2, 3, 4, 5)

	accepted, err := f.service.AcceptPending(ctx, -1001, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, accepted)
	assert.Equal(t, []int64{1, 2}, f.client.approvedUsers())

	remaining, err := f.pendingRepo.FindByChat(ctx, -1001, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 3)
	assert.Equal(t, int64(3), remaining[0].UserID)
}

func TestAcceptPending_RejectionDoesNotAbortBatch(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()

	f.enqueue(t, -1001, 1, 2, 3)

	f.client.approveErr = func(_, userID int64) error {
		if userID == 2 {
			return &customerrors.ErrApprovalRejected{ChatID: -1001, UserID: userID, Cause: errors.New("HIDE_REQUESTER_MISSING")}
		}

		return nil
	}

	accepted, err := f.service.AcceptPending(ctx, -1001, 0)
	require.NoError(t, err)

	// Отклонённая заявка не входит в счётчик, но пакет продолжается,
	// а сама заявка удаляется из очереди.
	assert.Equal(t, 2, accepted)
	assert.Equal(t, []int64{1, 2, 3}, f.client.approvedUsers())

	count, err := f.pendingRepo.Count(ctx, -1001)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAcceptPending_TransportFailureAbortsBatch(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()

	f.enqueue(t, -1001, 1, 2, 3)

	f.client.approveErr = func(_, userID int64) error {
		if userID == 2 {
			return &customerrors.ErrTransportUnavailable{Cause: errors.New("connection refused")}
		}

		return nil
	}

	accepted, err := f.service.AcceptPending(ctx, -1001, 0)

	// Пакет прерывается на сбое транспорта: принятые учтены,
	// необработанные заявки остаются в очереди для повтора.
	assert.Equal(t, 1, accepted)
	assert.ErrorIs(t, err, &customerrors.ErrTransportUnavailable{})

	remaining, err := f.pendingRepo.FindByChat(ctx, -1001, 0)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, int64(2), remaining[0].UserID)
	assert.Equal(t, int64(3), remaining[1].UserID)
}

func TestAcceptPending_EmptyQueue(t *testing.T) {
	f := newAdmissionFixture(t)

	accepted, err := f.service.AcceptPending(context.Background(), -1001, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, accepted)
	assert.Empty(t, f.client.approvedUsers())
}

func TestSweepAutoAccept_DrainsQueuedRequests(t *testing.T) {
	f := newAdmissionFixture(t)
	ctx := context.Background()

	require.NoError(t, f.chatRepo.Save(ctx, &models.Chat{OwnerID: 1, ChatID: -1001, Title: "Авто", Kind: models.ChatKindChannel, AutoAccept: true}))
	require.NoError(t, f.chatRepo.Save(ctx, &models.Chat{OwnerID: 1, ChatID: -1002, Title: "Ручной", Kind: models.ChatKindGroup}))

	f.enqueue(t, -1001, 1, 2)
	f.enqueue(t, -1002, 3)

	require.NoError(t, f.service.SweepAutoAccept(ctx))

	// Добираются только очереди чатов с автоприёмом.
	assert.Equal(t, []int64{1, 2}, f.client.approvedUsers())

	count, err := f.pendingRepo.Count(ctx, -1002)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
