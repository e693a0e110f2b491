package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/central-university-dev/go-join-request-bot/internal/bot/cache"
	"github.com/central-university-dev/go-join-request-bot/internal/bot/clients"
	"github.com/central-university-dev/go-join-request-bot/internal/bot/domain"
	"github.com/central-university-dev/go-join-request-bot/internal/bot/notify"
	"github.com/central-university-dev/go-join-request-bot/internal/bot/repository"
	"github.com/central-university-dev/go-join-request-bot/internal/bot/service"
	"github.com/central-university-dev/go-join-request-bot/internal/bot/telegram"
	"github.com/central-university-dev/go-join-request-bot/internal/common/metrics"
	"github.com/central-university-dev/go-join-request-bot/internal/config"
	"github.com/central-university-dev/go-join-request-bot/internal/database"
	"github.com/central-university-dev/go-join-request-bot/internal/domain/models"
	"github.com/central-university-dev/go-join-request-bot/internal/scheduler"
	"github.com/central-university-dev/go-join-request-bot/pkg"
	"github.com/central-university-dev/go-join-request-bot/pkg/txs"
)

const kafkaTransport = "KAFKA"

func main() {
	logger := pkg.NewLogger(os.Stdout)

	cfg := config.LoadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.RunMigrations(cfg, logger); err != nil {
		logger.Error("Ошибка при применении миграций", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка при подключении к базе данных", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	txManager := txs.NewTxManager(db.Pool, logger)

	factory := repository.NewFactory(db, cfg, logger)

	chatRepo, err := factory.CreateChatRepository()
	if err != nil {
		logger.Error("Ошибка при создании репозитория чатов", "error", err)
		os.Exit(1)
	}

	pendingRepo, err := factory.CreatePendingRequestRepository()
	if err != nil {
		logger.Error("Ошибка при создании репозитория заявок", "error", err)
		os.Exit(1)
	}

	userRepo, err := factory.CreateUserRepository()
	if err != nil {
		logger.Error("Ошибка при создании репозитория пользователей", "error", err)
		os.Exit(1)
	}

	sessionRepo, err := factory.CreateSessionRepository()
	if err != nil {
		logger.Error("Ошибка при создании репозитория сессий", "error", err)
		os.Exit(1)
	}

	chatCache, err := cache.NewChatCache(ctx, cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB, cfg.RedisCacheTTL, logger)
	if err != nil {
		logger.Warn("Redis недоступен, кэширование отключено", "error", err)
	} else {
		defer func() {
			if err := chatCache.Close(); err != nil {
				logger.Error("Ошибка при закрытии соединения с Redis", "error", err)
			}
		}()

		chatRepo = service.NewCachedChatRepository(chatRepo, chatCache, logger)
	}

	var notifier service.EventNotifier

	if cfg.EventsTransport == kafkaTransport {
		kafkaNotifier := notify.NewKafkaEventNotifier(
			strings.Split(cfg.KafkaBrokers, ","),
			cfg.TopicAdmissionEvents,
			cfg.TopicDeadLetterQueue,
			logger,
		)

		defer func() {
			if err := kafkaNotifier.Close(); err != nil {
				logger.Error("Ошибка при закрытии Kafka writer", "error", err)
			}
		}()

		notifier = kafkaNotifier
	}

	client := clients.NewTelegramClient(cfg, logger)

	if err := client.SetMyCommands(ctx, []domain.BotCommand{
		{Command: string(models.CommandStart)[1:], Description: "Главное меню"},
		{Command: string(models.CommandHelp)[1:], Description: "Как подключить канал или группу"},
	}); err != nil {
		logger.Warn("Ошибка при установке команд бота", "error", err)
	}

	admissionService := service.NewAdmissionService(
		chatRepo,
		pendingRepo,
		client,
		notifier,
		cfg.ApproveRatePerSecond,
		logger,
	)

	botService := service.NewBotService(
		chatRepo,
		pendingRepo,
		userRepo,
		sessionRepo,
		admissionService,
		client,
		txManager,
		cfg.ActivationKeyword,
	)

	sched := scheduler.NewScheduler(admissionService, logger)
	if err := sched.Start(ctx, cfg.SweepInterval); err != nil {
		logger.Error("Ошибка при запуске планировщика", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	metricsServer := metrics.NewMetricsServer(cfg.MetricsPort, logger)

	go func() {
		if err := metricsServer.Start(ctx); err != nil {
			logger.Error("Ошибка сервера метрик", "error", err)
		}
	}()

	poller := telegram.NewPoller(client, botService, admissionService, logger)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		sig := <-stop
		logger.Info("Получен сигнал завершения", "signal", sig.String())

		cancel()
	}()

	poller.Run(ctx)

	logger.Info("Бот остановлен")
}
