// Package scheduler запускает периодические задачи бота.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/central-university-dev/go-join-request-bot/internal/bot/service"
)

const metricsRefreshInterval = time.Minute

type Scheduler struct {
	scheduler *gocron.Scheduler
	admission *service.AdmissionService
	logger    *slog.Logger
}

func NewScheduler(admission *service.AdmissionService, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		admission: admission,
		logger:    logger,
	}
}

// Start регистрирует задачи и запускает планировщик в фоне.
// sweepInterval <= 0 отключает досбор очередей автоприёма.
func (s *Scheduler) Start(ctx context.Context, sweepInterval time.Duration) error {
	_, err := s.scheduler.Every(metricsRefreshInterval).Do(func() {
		if err := s.admission.RefreshQueueMetrics(ctx); err != nil {
			s.logger.Error("Ошибка при обновлении метрик очередей", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("ошибка при регистрации задачи обновления метрик: %w", err)
	}

	if sweepInterval > 0 {
		_, err := s.scheduler.Every(sweepInterval).Do(func() {
			if err := s.admission.SweepAutoAccept(ctx); err != nil {
				s.logger.Error("Ошибка при досборе очередей автоприёма", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("ошибка при регистрации задачи досбора очередей: %w", err)
		}
	}

	s.scheduler.StartAsync()
	s.logger.Info("Планировщик запущен", "sweep_interval", sweepInterval)

	return nil
}

func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("Планировщик остановлен")
}
