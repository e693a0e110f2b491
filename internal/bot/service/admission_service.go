package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/central-university-dev/go-join-request-bot/internal/bot/domain"
	"github.com/central-university-dev/go-join-request-bot/internal/common/metrics"
	customerrors "github.com/central-university-dev/go-join-request-bot/internal/domain/errors"
	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
)

type ChatRepository interface {
	Save(ctx context.Context, chat *models.Chat) error

	FindByOwner(ctx context.Context, ownerID int64) ([]*models.Chat, error)

	Find(ctx context.Context, ownerID, chatID int64) (*models.Chat, error)

	Delete(ctx context.Context, ownerID, chatID int64) error

	ToggleAutoAccept(ctx context.Context, ownerID, chatID int64) (bool, error)

	FindAutoAccept(ctx context.Context) ([]*models.Chat, error)

	GetAll(ctx context.Context) ([]*models.Chat, error)
}

type PendingRequestRepository interface {
	Save(ctx context.Context, req *models.PendingRequest) error

	FindByChat(ctx context.Context, chatID int64, limit int) ([]*models.PendingRequest, error)

	Delete(ctx context.Context, chatID, userID int64) error

	Count(ctx context.Context, chatID int64) (int, error)
}

type EventNotifier interface {
	PublishAdmissionEvent(ctx context.Context, event *models.AdmissionEvent) error
}

// AdmissionService решает судьбу входящих заявок и выполняет пакетный приём.
type AdmissionService struct {
	chatRepo    ChatRepository
	pendingRepo PendingRequestRepository
	client      domain.TelegramClientAPI
	notifier    EventNotifier
	limiter     *rate.Limiter
	logger      *slog.Logger
	chatLocks   sync.Map
}

// NewAdmissionService создаёт сервис. notifier может быть nil - тогда события
// не публикуются. approveRatePerSecond <= 0 отключает ограничение темпа.
func NewAdmissionService(
	chatRepo ChatRepository,
	pendingRepo PendingRequestRepository,
	client domain.TelegramClientAPI,
	notifier EventNotifier,
	approveRatePerSecond int,
	logger *slog.Logger,
) *AdmissionService {
	limit := rate.Inf
	burst := 1

	if approveRatePerSecond > 0 {
		limit = rate.Limit(approveRatePerSecond)
		burst = approveRatePerSecond
	}

	return &AdmissionService{
		chatRepo:    chatRepo,
		pendingRepo: pendingRepo,
		client:      client,
		notifier:    notifier,
		limiter:     rate.NewLimiter(limit, burst),
		logger:      logger,
	}
}

// lockChat сериализует операции над очередью одного чата.
func (s *AdmissionService) lockChat(chatID int64) func() {
	v, _ := s.chatLocks.LoadOrStore(chatID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()

	return mu.Unlock
}

// HandleJoinRequest обрабатывает входящую заявку: для чата с автоприёмом
// пытается одобрить сразу, при любой ошибке одобрения ставит заявку в
// очередь - заявка не может потеряться из-за единичного сбоя.
func (s *AdmissionService) HandleJoinRequest(ctx context.Context, req *models.JoinRequest) error {
	unlock := s.lockChat(req.ChatID)
	defer unlock()

	autoChats, err := s.chatRepo.FindAutoAccept(ctx)
	if err != nil {
		return err
	}

	autoAccept := false

	for _, chat := range autoChats {
		if chat.ChatID == req.ChatID {
			autoAccept = true
			break
		}
	}

	if autoAccept {
		if err := s.approve(ctx, req.ChatID, req.UserID); err == nil {
			metrics.RecordJoinRequest(metrics.OutcomeAutoApproved)
			s.publishEvent(ctx, req.ChatID, req.UserID, models.AdmissionAutoApproved)

			return nil
		}

		s.logger.Warn("Автоприём не удался, заявка поставлена в очередь",
			"chat_id", req.ChatID,
			"user_id", req.UserID,
			"error", err,
		)
	}

	if err := s.pendingRepo.Save(ctx, &models.PendingRequest{
		ChatID:    req.ChatID,
		UserID:    req.UserID,
		FirstName: req.FirstName,
		Username:  req.Username,
	}); err != nil {
		return err
	}

	metrics.RecordJoinRequest(metrics.OutcomeQueued)
	s.publishEvent(ctx, req.ChatID, req.UserID, models.AdmissionQueued)

	return nil
}

// AcceptPending принимает до limit заявок чата в порядке поступления
// (limit <= 0 - все) и возвращает число успешно принятых.
//
// Отказ платформы по конкретной заявке не прерывает пакет: заявка удаляется
// из очереди и не учитывается в счётчике. Недоступность Telegram API
// прерывает пакет, необработанные заявки остаются в очереди, а вызвавшему
// возвращаются счётчик и ErrTransportUnavailable.
func (s *AdmissionService) AcceptPending(ctx context.Context, chatID int64, limit int) (int, error) {
	unlock := s.lockChat(chatID)
	defer unlock()

	requests, err := s.pendingRepo.FindByChat(ctx, chatID, limit)
	if err != nil {
		return 0, err
	}

	accepted := 0

	for _, req := range requests {
		err := s.approve(ctx, chatID, req.UserID)

		switch {
		case err == nil:
			if err := s.pendingRepo.Delete(ctx, chatID, req.UserID); err != nil {
				return accepted, err
			}

			accepted++

			metrics.RecordApproval(metrics.StatusApproved)
			s.publishEvent(ctx, chatID, req.UserID, models.AdmissionApproved)

		case errors.Is(err, &customerrors.ErrTransportUnavailable{}):
			metrics.RecordApproval(metrics.StatusUnavailable)
			s.logger.Error("Telegram API недоступен, пакетный приём прерван",
				"chat_id", chatID,
				"accepted", accepted,
				"error", err,
			)

			return accepted, err

		default:
			// Платформа отказала: заявка считается исчерпанной и удаляется.
			if err := s.pendingRepo.Delete(ctx, chatID, req.UserID); err != nil {
				return accepted, err
			}

			metrics.RecordApproval(metrics.StatusRejected)
			s.publishEvent(ctx, chatID, req.UserID, models.AdmissionRejected)
		}
	}

	return accepted, nil
}

// PendingCount возвращает размер очереди чата.
func (s *AdmissionService) PendingCount(ctx context.Context, chatID int64) (int, error) {
	return s.pendingRepo.Count(ctx, chatID)
}

// SweepAutoAccept добирает заявки, попавшие в очередь чатов с автоприёмом
// из-за сбоев одобрения. Вызывается планировщиком.
func (s *AdmissionService) SweepAutoAccept(ctx context.Context) error {
	chats, err := s.chatRepo.FindAutoAccept(ctx)
	if err != nil {
		return err
	}

	for _, chat := range chats {
		count, err := s.pendingRepo.Count(ctx, chat.ChatID)
		if err != nil {
			return err
		}

		if count == 0 {
			continue
		}

		accepted, err := s.AcceptPending(ctx, chat.ChatID, 0)
		if err != nil {
			s.logger.Warn("Досбор очереди автоприёма прерван",
				"chat_id", chat.ChatID,
				"accepted", accepted,
				"error", err,
			)

			continue
		}

		s.logger.Info("Очередь автоприёма добрана",
			"chat_id", chat.ChatID,
			"accepted", accepted,
		)
	}

	return nil
}

// RefreshQueueMetrics обновляет gauge глубины очередей по всем чатам.
func (s *AdmissionService) RefreshQueueMetrics(ctx context.Context) error {
	chats, err := s.chatRepo.GetAll(ctx)
	if err != nil {
		return err
	}

	for _, chat := range chats {
		count, err := s.pendingRepo.Count(ctx, chat.ChatID)
		if err != nil {
			return err
		}

		metrics.SetPendingQueueDepth(strconv.FormatInt(chat.ChatID, 10), count)
	}

	return nil
}

func (s *AdmissionService) approve(ctx context.Context, chatID, userID int64) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return &customerrors.ErrTransportUnavailable{Cause: err}
	}

	return s.client.ApproveJoinRequest(ctx, chatID, userID)
}

func (s *AdmissionService) publishEvent(ctx context.Context, chatID, userID int64, outcome models.AdmissionOutcome) {
	if s.notifier == nil {
		return
	}

	event := &models.AdmissionEvent{
		ChatID:     chatID,
		UserID:     userID,
		Outcome:    outcome,
		OccurredAt: time.Now(),
	}

	if err := s.notifier.PublishAdmissionEvent(ctx, event); err != nil {
		s.logger.Error("Ошибка при публикации события приёма",
			"chat_id", chatID,
			"user_id", userID,
			"outcome", outcome,
			"error", err,
		)
	}
}
