// Package repository создаёт репозитории в зависимости от настроенного
// способа доступа к базе данных.
package repository

import (
	"log/slog"

	"github.com/central-university-dev/go-join-request-bot/internal/bot/repository/orm"
	sqlrepo "github.com/central-university-dev/go-join-request-bot/internal/bot/repository/sql"
	"github.com/central-university-dev/go-join-request-bot/internal/bot/service"
	"github.com/central-university-dev/go-join-request-bot/internal/config"
	"github.com/central-university-dev/go-join-request-bot/internal/database"
	customerrors "github.com/central-university-dev/go-join-request-bot/internal/domain/errors"
)

type Factory struct {
	db     *database.PostgresDB
	config *config.Config
	logger *slog.Logger
}

func NewFactory(db *database.PostgresDB, cfg *config.Config, logger *slog.Logger) *Factory {
	return &Factory{
		db:     db,
		config: cfg,
		logger: logger,
	}
}

func (f *Factory) CreateChatRepository() (service.ChatRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SQLAccess:
		return sqlrepo.NewChatRepository(f.db), nil
	case config.SquirrelAccess:
		return orm.NewChatRepository(f.db), nil
	default:
		return nil, &customerrors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}

func (f *Factory) CreatePendingRequestRepository() (service.PendingRequestRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SQLAccess:
		return sqlrepo.NewPendingRequestRepository(f.db), nil
	case config.SquirrelAccess:
		return orm.NewPendingRequestRepository(f.db), nil
	default:
		return nil, &customerrors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}

func (f *Factory) CreateUserRepository() (service.UserRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SQLAccess:
		return sqlrepo.NewUserRepository(f.db), nil
	case config.SquirrelAccess:
		return orm.NewUserRepository(f.db), nil
	default:
		return nil, &customerrors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}

func (f *Factory) CreateSessionRepository() (service.SessionRepository, error) {
	switch f.config.DatabaseAccessType {
	case config.SQLAccess:
		return sqlrepo.NewSessionRepository(f.db), nil
	case config.SquirrelAccess:
		return orm.NewSessionRepository(f.db), nil
	default:
		return nil, &customerrors.ErrUnknownDBAccessType{AccessType: string(f.config.DatabaseAccessType)}
	}
}
