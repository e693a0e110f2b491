package memory

import (
	"context"
	"sync"
	"time"

	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
)

type UserRepository struct {
	users map[int64]*models.User
	mu    sync.RWMutex
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[int64]*models.User),
	}
}

func (r *UserRepository) Save(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.users[user.ID]; ok {
		existing.Username = user.Username
		existing.FirstName = user.FirstName

		return nil
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	copied := *user
	r.users[user.ID] = &copied

	return nil
}
