package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
)

// PendingRequestRepository - очередь заявок в памяти. Заявки каждого чата
// хранятся в порядке поступления; повторная заявка того же пользователя
// обновляет имя и username, не меняя позицию в очереди.
type PendingRequestRepository struct {
	requests map[int64][]*models.PendingRequest
	mu       sync.RWMutex
}

func NewPendingRequestRepository() *PendingRequestRepository {
	return &PendingRequestRepository{
		requests: make(map[int64][]*models.PendingRequest),
	}
}

func (r *PendingRequestRepository) Save(_ context.Context, req *models.PendingRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}

	queue := r.requests[req.ChatID]

	for _, existing := range queue {
		if existing.UserID == req.UserID {
			existing.FirstName = req.FirstName
			existing.Username = req.Username

			return nil
		}
	}

	copied := *req
	r.requests[req.ChatID] = append(queue, &copied)

	return nil
}

func (r *PendingRequestRepository) FindByChat(_ context.Context, chatID int64, limit int) ([]*models.PendingRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	queue := r.requests[chatID]

	requests := make([]*models.PendingRequest, 0, len(queue))

	for _, req := range queue {
		copied := *req
		requests = append(requests, &copied)
	}

	// Стабильная сортировка сохраняет порядок вставки при равных метках времени.
	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})

	if limit > 0 && len(requests) > limit {
		requests = requests[:limit]
	}

	return requests, nil
}

func (r *PendingRequestRepository) Delete(_ context.Context, chatID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	queue := r.requests[chatID]

	for i, req := range queue {
		if req.UserID == userID {
			r.requests[chatID] = append(queue[:i], queue[i+1:]...)
			return nil
		}
	}

	return nil
}

func (r *PendingRequestRepository) Count(_ context.Context, chatID int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.requests[chatID]), nil
}
