// Package main - точка входа клиентского хаба прогресса обучения.
//
// Хаб держит состояние одного активного обучающегося (XP, сердца, серии,
// достижения, книга ошибок, прогресс по учебным планам) в памяти,
// фиксирует его в локальной долговечной копии и лениво примиряет с
// авторитетным удалённым хранилищем: всплеск мутаций схлопывается в одну
// отложенную запись.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: жизненный цикл сессии, команды, наблюдатели событий
// - Infrastructure: sqlite-хранилище, HTTP-клиент, координатор синхронизации
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/learnhub/learning-progress-hub/config"
	"github.com/learnhub/learning-progress-hub/internal/application"
	"github.com/learnhub/learning-progress-hub/internal/application/eventhandler"
	"github.com/learnhub/learning-progress-hub/internal/domain/learner"
	"github.com/learnhub/learning-progress-hub/internal/domain/mistake"
	"github.com/learnhub/learning-progress-hub/internal/domain/shared"
	"github.com/learnhub/learning-progress-hub/internal/domain/syllabus"
	"github.com/learnhub/learning-progress-hub/internal/infrastructure/messaging"
	"github.com/learnhub/learning-progress-hub/internal/infrastructure/persistence/sqlite"
	"github.com/learnhub/learning-progress-hub/internal/infrastructure/syncer"
	"github.com/learnhub/learning-progress-hub/pkg/logger"
	"github.com/learnhub/learning-progress-hub/pkg/retry"
	"github.com/learnhub/learning-progress-hub/pkg/timeutil"
)

func main() {
	// .env удобен в разработке; в проде переменные приходят из окружения.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := logger.Setup(logger.Options{
		Level: logger.ParseLevel(cfg.App.LogLevel),
		JSON:  cfg.IsProduction(),
	})
	log.Info("starting",
		"app", cfg.App.Name,
		"env", string(cfg.App.Environment),
	)

	if err := run(cfg, log); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	// ── Инфраструктура ──────────────────────────────────────────────────

	store, err := sqlite.Open(cfg.Storage.Path, log)
	if err != nil {
		return err
	}
	defer store.Close()

	bus := messaging.NewInMemoryEventBus(log)
	defer bus.Close()

	clock := timeutil.RealClock{}

	// ── Домен ───────────────────────────────────────────────────────────

	progress := learner.NewLedger(bus, clock)
	mistakes := mistake.NewLedger(bus, clock)
	syllabi := syllabus.NewTracker(bus, clock)

	// ── Синхронизация ───────────────────────────────────────────────────

	clientCfg := syncer.DefaultClientConfig(cfg.Remote.BaseURL)
	clientCfg.Timeout = cfg.Remote.Timeout
	clientCfg.BeaconTimeout = cfg.Remote.BeaconTimeout
	clientCfg.Logger = log
	client := syncer.NewClient(clientCfg)

	creds := syncer.NewCredentialStore(store)

	coordinator := syncer.NewCoordinator(client, creds, syncer.CoordinatorConfig{
		DebounceInterval:  cfg.Sync.DebounceInterval,
		WriteTimeout:      cfg.Sync.WriteTimeout,
		Logger:            log,
		OnSyncStateChange: progress.SetSyncing,
	})

	// ── Application ─────────────────────────────────────────────────────

	observer := eventhandler.NewOnProgressChangedHandler(
		progress, mistakes, syllabi, store, coordinator,
		log, eventhandler.DefaultProgressChangedConfig(),
	)
	if err := bus.SubscribeAll(observer.Handle); err != nil {
		return err
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.Remote.RetryMaxAttempts
	retryCfg.InitialDelay = cfg.Remote.RetryBaseDelay

	session := application.NewSession(
		progress, mistakes, syllabi, store, client, creds, coordinator,
		application.SessionConfig{Retry: retryCfg, Logger: log},
	)

	// Автологин по окружению: хост может передать учётные данные заранее.
	if userID := os.Getenv("PROGRESS_USER_ID"); userID != "" {
		token := os.Getenv("PROGRESS_API_TOKEN")
		remember := os.Getenv("PROGRESS_REMEMBER") == "true"

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Remote.Timeout)
		result, err := session.Login(ctx, shared.UserID(userID), token, remember)
		cancel()
		if err != nil {
			log.Warn("auto-login failed", "error", err)
		} else {
			log.Info("auto-login complete",
				"offline", result.Offline,
				"daily_reward_xp", result.DailyRewardXP,
			)
		}
	}

	// ── Graceful shutdown ───────────────────────────────────────────────

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Info("shutting down", "signal", sig.String())

	// Финальная запись несинхронизированных изменений; сессия и
	// долговечная копия переживают перезапуск.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := session.Teardown(ctx); err != nil {
		log.Warn("final sync failed", "error", err)
	}

	// Даём шанс уйти fire-and-forget фолбэку, если он был задействован.
	time.Sleep(100 * time.Millisecond)

	log.Info("stopped")
	return nil
}
