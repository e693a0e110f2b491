package memory

import (
	"context"
	"sync"
	"time"

	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
)

type SessionRepository struct {
	sessions map[int64]*models.Session
	mu       sync.RWMutex
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[int64]*models.Session),
	}
}

func (r *SessionRepository) Get(_ context.Context, userID int64) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[userID]
	if !ok {
		return &models.Session{UserID: userID, State: models.StateIdle}, nil
	}

	copied := *session

	return &copied, nil
}

func (r *SessionRepository) Set(_ context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session.UpdatedAt = time.Now()

	copied := *session
	r.sessions[session.UserID] = &copied

	return nil
}
